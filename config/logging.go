package config

import (
	log "github.com/sirupsen/logrus"
)

// SetupLogging configures the global logrus logger from LogConfig.
func SetupLogging(cfg *LogConfig) {
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	level, err := log.ParseLevel(cfg.Level)
	if err != nil {
		log.Warnf("unknown LOG_LEVEL %q, using info", cfg.Level)
		level = log.InfoLevel
	}
	log.SetLevel(level)
}

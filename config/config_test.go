package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DATABASE_DRIVER", "sqlite")
	t.Setenv("PAYOUT_TIMEZONE", "UTC")
	t.Setenv("DATABASE_QUERY_TIMEOUT", "2s")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "sqlite", cfg.Database.Driver)
	require.Equal(t, 2*time.Second, cfg.Database.QueryTimeout)
	require.Equal(t, 8, cfg.Referral.CodeLength)
	require.Equal(t, 10, cfg.Referral.MilestoneSize)
	require.Equal(t, time.Hour, cfg.Cloudinary.DownloadTTL)

	loc, err := cfg.Location()
	require.NoError(t, err)
	require.Equal(t, time.UTC, loc)
}

func TestLoadRejectsUnknownTimezone(t *testing.T) {
	t.Setenv("PAYOUT_TIMEZONE", "Mars/Olympus")
	_, err := Load()
	require.Error(t, err)
}

func TestLocationDefaultsToUTC(t *testing.T) {
	loc, err := (&Config{}).Location()
	require.NoError(t, err)
	require.Equal(t, time.UTC, loc)
}

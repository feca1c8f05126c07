package database

import (
	"bytes"
	"fmt"
	"testing"
	"time"

	"weavemart/config"
	"weavemart/internal/models"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func memoryDSN() string {
	return fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
}

func TestLoggerSkipsRecordNotFound(t *testing.T) {
	var buf bytes.Buffer
	db, err := gorm.Open(sqlite.Open(memoryDSN()), &gorm.Config{Logger: newLogger(&buf)})
	require.NoError(t, err)
	require.NoError(t, AutoMigrate(db))
	buf.Reset()

	var u models.User
	err = db.Where("email = ?", "ghost@example.com").First(&u).Error
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
	require.Empty(t, buf.String())

	require.Error(t, db.Exec("SELECT * FROM no_such_table").Error)
	require.Contains(t, buf.String(), "no_such_table")
}

func TestNewDBTranslatesDuplicateKeys(t *testing.T) {
	db, err := NewDB(&config.DatabaseConfig{
		Driver:          "sqlite",
		DSN:             memoryDSN(),
		MaxIdleConns:    1,
		MaxOpenConns:    1,
		ConnMaxLifetime: time.Hour,
	})
	require.NoError(t, err)
	require.NoError(t, AutoMigrate(db))

	require.NoError(t, db.Create(&models.User{Email: "a@example.com", Username: "a"}).Error)
	err = db.Create(&models.User{Email: "a@example.com", Username: "a"}).Error
	require.ErrorIs(t, err, gorm.ErrDuplicatedKey)
}

func TestNewDBRejectsUnknownDriver(t *testing.T) {
	_, err := NewDB(&config.DatabaseConfig{Driver: "postgres"})
	require.Error(t, err)
}

package db

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type harvestNote struct {
	ID   int
	Body string
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&harvestNote{}))
	// The shared-cache DSN reuses one memory database per process.
	require.NoError(t, conn.Where("1 = 1").Delete(&harvestNote{}).Error)
	return conn
}

func TestWithTxCommits(t *testing.T) {
	conn := newTestDB(t)
	client := &Client{conn: conn}

	err := client.WithTx(context.Background(), func(tx *gorm.DB) error {
		return tx.Create(&harvestNote{Body: "first pick of the season"}).Error
	})
	require.NoError(t, err)

	var count int64
	require.NoError(t, conn.Model(&harvestNote{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestWithTxRollsBackOnError(t *testing.T) {
	conn := newTestDB(t)
	client := &Client{conn: conn}

	err := client.WithTx(context.Background(), func(tx *gorm.DB) error {
		if err := tx.Create(&harvestNote{Body: "discarded"}).Error; err != nil {
			return err
		}
		return errors.New("boom")
	})
	require.Error(t, err)

	var count int64
	require.NoError(t, conn.Model(&harvestNote{}).Count(&count).Error)
	assert.Equal(t, int64(0), count)
}

func TestPing(t *testing.T) {
	client := &Client{conn: newTestDB(t)}
	assert.NoError(t, client.Ping(context.Background()))
}

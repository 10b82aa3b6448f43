package models

import (
	"testing"

	"cadview/db"
	"cadview/storage"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// setupTestDB points db.Instance at a fresh in-memory SQLite database with
// foreign keys enforced, and returns a bucket for models to reference
func setupTestDB(t *testing.T) storage.Bucket {
	t.Helper()
	dsn := db.SQLiteDSN("file:" + t.Name() + "?mode=memory&cache=shared")
	instance, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	db.Instance = instance
	require.NoError(t, instance.AutoMigrate(&storage.Bucket{}))
	Init()
	bucket := storage.Bucket{Name: "test", StorageType: storage.StorageTypeFile, Path: t.TempDir()}
	require.NoError(t, instance.Create(&bucket).Error)
	return bucket
}

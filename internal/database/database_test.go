package database

import (
	"strings"
	"testing"

	"github.com/tester22000/simpleshare/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenUnknownType(t *testing.T) {
	_, err := Open(Options{Type: "mongodb", URI: "whatever"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown database type")
}

func TestOpenSQLiteMemory(t *testing.T) {
	db, err := Open(Options{Type: SQLite, URI: "file:open-test?mode=memory&cache=shared"})
	require.NoError(t, err)

	var one int
	require.NoError(t, db.Raw("SELECT 1").Scan(&one).Error)
	assert.Equal(t, 1, one)
}

func TestWithBusyTimeout(t *testing.T) {
	tests := []struct {
		uri  string
		want string
	}{
		{"simpleshare.db", "simpleshare.db?_busy_timeout=5000"},
		{"file:x?mode=memory", "file:x?mode=memory&_busy_timeout=5000"},
		{"x.db?_busy_timeout=100", "x.db?_busy_timeout=100"},
	}

	for _, tt := range tests {
		t.Run(tt.uri, func(t *testing.T) {
			assert.Equal(t, tt.want, withBusyTimeout(tt.uri))
		})
	}
}

func TestSharedMemory(t *testing.T) {
	tests := []struct {
		uri  string
		want string
	}{
		{"simpleshare.db", "simpleshare.db"},
		{"file:x?mode=memory&cache=shared", "file:x?mode=memory&cache=shared"},
		{"file:x?mode=memory", "file:x?mode=memory&cache=shared"},
	}

	for _, tt := range tests {
		t.Run(tt.uri, func(t *testing.T) {
			assert.Equal(t, tt.want, sharedMemory(tt.uri))
		})
	}

	a, b := sharedMemory(":memory:"), sharedMemory(":memory:")
	assert.True(t, strings.HasSuffix(a, "?mode=memory&cache=shared"), a)
	assert.NotEqual(t, a, b)
}

func TestMemoryDatabaseSharedAcrossConnections(t *testing.T) {
	db, err := Open(Options{Type: SQLite, URI: ":memory:"})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(&models.ShareContent{}))

	// keep one connection busy so the insert below runs on another
	tx := db.Begin()
	require.NoError(t, tx.Error)
	defer tx.Rollback()

	row := models.ShareContent{ID: "a", Type: "text", Preview: "a", Contents: []byte("a"), Modified: 1}
	require.NoError(t, db.Create(&row).Error)

	var count int64
	require.NoError(t, tx.Model(&models.ShareContent{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestMemoryDatabasesAreIsolated(t *testing.T) {
	first, err := Open(Options{Type: SQLite, URI: ":memory:"})
	require.NoError(t, err)
	second, err := Open(Options{Type: SQLite, URI: ":memory:"})
	require.NoError(t, err)

	require.NoError(t, first.AutoMigrate(&models.ShareContent{}))

	assert.False(t, second.Migrator().HasTable(&models.ShareContent{}))
}

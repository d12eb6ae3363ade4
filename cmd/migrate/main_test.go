package main

import (
	"testing"

	"deckster-be/internal/model"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Every supporting index must apply cleanly against the migrated
// schema, so a renamed model column breaks here instead of being
// warn-logged away at deploy time.
func TestSupportingIndexesMatchSchema(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&model.User{},
		&model.ChatSession{},
		&model.ChatMessage{},
		&model.UploadedFile{},
		&model.SessionStateCache{},
		&model.Subscription{},
		&model.Payment{},
	))

	for _, stmt := range supportingIndexes {
		require.NoError(t, db.Exec(stmt).Error, "index statement does not match the schema: %s", stmt)
	}
}

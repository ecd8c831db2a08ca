package database

import (
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

func TestGetTableColumns(t *testing.T) {
	cfg := Config{
		Driver: DriverSQLite,
		Name:   ":memory:",
	}
	db, err := Connect(cfg)
	require.NoError(t, err)

	err = db.Exec("CREATE TABLE test_items (id INTEGER PRIMARY KEY, Name TEXT, description TEXT)").Error
	require.NoError(t, err)

	columns, err := GetTableColumns(db, "test_items")
	assert.NoError(t, err)
	assert.Len(t, columns, 3)

	colMap := make(map[string]string)
	for _, col := range columns {
		colMap[col.Field] = col.Type
	}

	assert.Equal(t, "integer", colMap["id"])
	assert.Equal(t, "text", colMap["name"])
	assert.Equal(t, "text", colMap["description"])

	// PRAGMA table_info returns an empty result for a missing table.
	cols, err := GetTableColumns(db, "non_existent")
	assert.NoError(t, err)
	assert.Empty(t, cols)

	set, err := ColumnSet(db, "test_items")
	require.NoError(t, err)
	assert.True(t, set["description"])
	assert.False(t, set["serial"])
}

func TestGetTableColumns_MySQL(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer sqlDB.Close()

	db, err := gorm.Open(mysql.New(mysql.Config{Conn: sqlDB, SkipInitializeWithVersion: true}), &gorm.Config{})
	require.NoError(t, err)

	rows := sqlmock.NewRows([]string{"Field", "Type", "Null", "Key", "Default", "Extra"}).
		AddRow("ID", "INT(10) UNSIGNED", "NO", "PRI", nil, "auto_increment").
		AddRow("_snipeit_agent_id", "TEXT", "YES", "", nil, "")
	mock.ExpectQuery("SHOW COLUMNS FROM `assets`").WillReturnRows(rows)

	cols, err := GetTableColumns(db, "assets")
	require.NoError(t, err)
	require.Len(t, cols, 2)
	assert.Equal(t, "id", cols[0].Field)
	assert.Equal(t, "int(10) unsigned", cols[0].Type)
	assert.Equal(t, "_snipeit_agent_id", cols[1].Field)
	assert.NoError(t, mock.ExpectationsWereMet())
}

package checks

import (
	"fmt"
	"reflect"
	"strings"

	"asset-sync/core/database"

	"gorm.io/gorm"
)

// SchemaReport is the result of comparing the registry models to the live database.
type SchemaReport struct {
	Dialect string                 `json:"dialect"`
	Matched bool                   `json:"matched"`
	Tables  map[string]TableReport `json:"tables"`
	Errors  []string               `json:"errors"`
}

type TableReport struct {
	MissingColumns []string `json:"missing_columns"`
	TypeMismatches []string `json:"type_mismatches"`
	Status         string   `json:"status"` // "ok", "missing", "error"
}

// CheckSchema verifies the database schema using the GORM models as the source of truth.
func CheckSchema(db *gorm.DB, models []any) (*SchemaReport, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is nil")
	}

	report := &SchemaReport{
		Dialect: db.Dialector.Name(),
		Tables:  make(map[string]TableReport),
		Errors:  []string{},
		Matched: true,
	}

	for _, model := range models {
		stmt := &gorm.Statement{DB: db}
		if err := stmt.Parse(model); err != nil {
			return nil, fmt.Errorf("parse model %T: %w", model, err)
		}
		tableName := stmt.Schema.Table

		actualCols, err := database.GetTableColumns(db, tableName)
		if err != nil {
			report.Errors = append(report.Errors, fmt.Sprintf("Failed to inspect table %s: %v", tableName, err))
			report.Matched = false
			continue
		}

		tblReport := TableReport{
			MissingColumns: []string{},
			TypeMismatches: []string{},
			Status:         "ok",
		}
		// sqlite and postgres report no columns for an absent table
		if len(actualCols) == 0 {
			tblReport.Status = "missing"
			report.Tables[tableName] = tblReport
			report.Matched = false
			continue
		}

		actualMap := make(map[string]database.ColumnInfo, len(actualCols))
		for _, col := range actualCols {
			actualMap[col.Field] = col
		}

		val := reflect.TypeOf(model)
		if val.Kind() == reflect.Pointer {
			val = val.Elem()
		}
		for i := 0; i < val.NumField(); i++ {
			gormTag := val.Field(i).Tag.Get("gorm")

			colName := parseGormColumn(gormTag)
			if colName == "" {
				continue
			}

			actCol, exists := actualMap[colName]
			if !exists {
				tblReport.MissingColumns = append(tblReport.MissingColumns, colName)
				tblReport.Status = "error"
				report.Matched = false
				continue
			}

			expType := strings.ToLower(parseGormType(gormTag))
			if expType != "" && !strings.Contains(actCol.Type, expType) {
				mismatch := fmt.Sprintf("%s: expected %s, got %s", colName, expType, actCol.Type)
				tblReport.TypeMismatches = append(tblReport.TypeMismatches, mismatch)
				tblReport.Status = "error"
				report.Matched = false
			}
		}

		report.Tables[tableName] = tblReport
	}

	return report, nil
}

// Helpers to parse simple GORM tags
func parseGormColumn(tag string) string {
	return tagValue(tag, "column:")
}

func parseGormType(tag string) string {
	return tagValue(tag, "type:")
}

func tagValue(tag, key string) string {
	for _, p := range strings.Split(tag, ";") {
		if strings.HasPrefix(p, key) {
			return strings.TrimPrefix(p, key)
		}
	}
	return ""
}

package registry

import (
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Migrate creates or updates every registry table.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}

// ProvisionColumns adds each missing nullable text column to the assets table.
// It returns the columns that were created.
func ProvisionColumns(db *gorm.DB, columns []string) ([]string, error) {
	var added []string
	m := db.Migrator()

	for _, col := range columns {
		if m.HasColumn(AssetsTable, col) {
			continue
		}
		err := db.Exec("ALTER TABLE ? ADD COLUMN ? TEXT NULL",
			clause.Table{Name: AssetsTable}, clause.Column{Name: col}).Error
		if err != nil {
			return added, fmt.Errorf("add column %s: %w", col, err)
		}
		added = append(added, col)
	}
	return added, nil
}

// DefaultStatuses are seeded by the migrate command when requested.
var DefaultStatuses = []StatusLabel{
	{Name: "Ready to Deploy", Deployable: true},
	{Name: "Pending", Pending: true},
	{Name: "Archived", Archived: true},
}

// SeedStatuses inserts the default status labels that do not exist yet.
func SeedStatuses(db *gorm.DB) (int, error) {
	created := 0
	for _, s := range DefaultStatuses {
		row := s
		res := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&row)
		if res.Error != nil {
			return created, fmt.Errorf("seed status %s: %w", s.Name, res.Error)
		}
		created += int(res.RowsAffected)
	}
	return created, nil
}

package checks

import (
	"fmt"
	"strings"

	"asset-sync/core/database"
	"asset-sync/core/registry"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// CheckColumns returns the enrichment columns absent from the assets table.
func CheckColumns(db *gorm.DB, columns []string) ([]string, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is nil")
	}

	set, err := database.ColumnSet(db, registry.AssetsTable)
	if err != nil {
		return nil, err
	}
	if len(set) == 0 {
		return nil, fmt.Errorf("table %s does not exist", registry.AssetsTable)
	}

	missing := []string{}
	for _, col := range columns {
		if !set[strings.ToLower(col)] {
			missing = append(missing, col)
		}
	}
	return missing, nil
}

// FixColumns provisions the missing enrichment columns.
func FixColumns(db *gorm.DB, logger *zap.Logger, missing []string) ([]string, error) {
	added, err := registry.ProvisionColumns(db, missing)
	if err != nil {
		logger.Error("Failed to provision columns", zap.Strings("added", added), zap.Error(err))
		return added, err
	}
	logger.Info("Provisioned enrichment columns", zap.Int("count", len(added)))
	return added, nil
}

package checks

import (
	"context"
	"fmt"

	"asset-sync/core/registry"

	"gorm.io/gorm"
)

// DuplicateSerial is a serial shared by more than one live asset once case
// and surrounding whitespace are ignored.
type DuplicateSerial struct {
	Serial string `gorm:"column:serial" json:"serial"`
	Count  int    `gorm:"column:total" json:"count"`
}

// CheckSerials lists serials that would collide under normalization.
func CheckSerials(ctx context.Context, db *gorm.DB) ([]DuplicateSerial, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is nil")
	}

	dups := []DuplicateSerial{}
	err := db.WithContext(ctx).Unscoped().Model(&registry.Asset{}).
		Select("UPPER(TRIM(serial)) AS serial, COUNT(*) AS total").
		Where("deleted_at IS NULL AND serial IS NOT NULL AND serial <> ''").
		Group("UPPER(TRIM(serial))").
		Having("COUNT(*) > 1").
		Order("serial").
		Scan(&dups).Error
	if err != nil {
		return nil, fmt.Errorf("failed to scan serials: %w", err)
	}
	return dups, nil
}

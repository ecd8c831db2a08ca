package registry

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
)

// ErrAssetNotFound is returned when no asset carries the requested serial.
var ErrAssetNotFound = errors.New("asset not found")

// FindAsset returns the asset with the given serial, soft-deleted rows included.
func FindAsset(ctx context.Context, db *gorm.DB, serial string) (*Asset, error) {
	serial = strings.TrimSpace(serial)
	if serial == "" {
		return nil, ErrAssetNotFound
	}

	var asset Asset
	err := db.WithContext(ctx).Unscoped().Where("serial = ?", serial).Take(&asset).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrAssetNotFound, serial)
	}
	if err != nil {
		return nil, fmt.Errorf("find asset %s: %w", serial, err)
	}
	return &asset, nil
}

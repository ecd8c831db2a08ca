package reconcile

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"asset-sync/core/cache"
	"asset-sync/core/device"
	"asset-sync/core/registry"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Resolver maps natural keys to reference ids, cache first.
type Resolver struct {
	cache     cache.Cache
	ttl       time.Duration
	overrides map[device.Source]Overrides
	logger    *zap.Logger
}

// NewResolver creates a resolver sharing c across every scope.
func NewResolver(c cache.Cache, ttl time.Duration, overrides map[device.Source]Overrides, logger *zap.Logger) *Resolver {
	if ttl <= 0 {
		ttl = cache.DefaultTTL
	}
	if overrides == nil {
		overrides = map[device.Source]Overrides{}
	}
	return &Resolver{cache: c, ttl: ttl, overrides: overrides, logger: logger}
}

// Overrides returns the configured overrides for a source.
func (r *Resolver) Overrides(source device.Source) Overrides {
	return r.overrides[source]
}

// Reset clears the shared cache. Called at the start of every full run.
func (r *Resolver) Reset() {
	r.cache.Clear()
}

// Scope binds resolution to one transaction.
// Ids of rows found or created through the scope are published to the shared
// cache only by Commit, so a rolled back insert never leaks an id.
type Scope struct {
	r       *Resolver
	ctx     context.Context
	tx      *gorm.DB
	source  device.Source
	ov      Overrides
	pending map[string]uint
}

// Scope opens a resolution scope on tx for one device of the given source.
func (r *Resolver) Scope(ctx context.Context, tx *gorm.DB, source device.Source) *Scope {
	return &Scope{
		r:       r,
		ctx:     ctx,
		tx:      tx.WithContext(ctx),
		source:  source,
		ov:      r.overrides[source],
		pending: make(map[string]uint),
	}
}

// Commit publishes the scope's ids to the shared cache.
func (s *Scope) Commit() {
	for key, id := range s.pending {
		s.r.cache.Set(key, id, s.r.ttl)
	}
	s.pending = map[string]uint{}
}

// read returns a handle for loads shared with other workers through the cache.
// It ignores the scope's cancellation so one chunk's deadline cannot fail a
// load another worker is waiting on.
func (s *Scope) read() *gorm.DB {
	return s.tx.WithContext(context.WithoutCancel(s.ctx))
}

func (s *Scope) lookup(key string) (uint, bool) {
	if id, ok := s.pending[key]; ok {
		return id, true
	}
	return s.r.cache.Get(key)
}

// Manufacturer resolves a manufacturer by name, creating it when missing.
func (s *Scope) Manufacturer(name string) (uint, error) {
	name = cache.Canonical(name)
	if name == "" {
		name = device.UnknownManufacturer
	}

	if name == device.UnknownManufacturer && s.ov.Manufacturer != 0 {
		id, ok, err := s.configured("manufacturer", &registry.Manufacturer{}, s.ov.Manufacturer)
		if err != nil || ok {
			return id, err
		}
	}

	key := cache.Key("manufacturer", name)
	return s.findOrCreate("manufacturer", name, key,
		func(db *gorm.DB) (uint, error) {
			var m registry.Manufacturer
			err := db.Where("LOWER(name) = ?", strings.ToLower(name)).Order("id").Take(&m).Error
			return m.ID, err
		},
		func(db *gorm.DB) (uint, int64, error) {
			m := registry.Manufacturer{Name: name}
			res := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&m)
			return m.ID, res.RowsAffected, res.Error
		})
}

// Model resolves a model by name within a manufacturer. A new model is
// filed under the category for the device kind.
func (s *Scope) Model(name string, manufacturerID uint, kind device.Kind) (uint, error) {
	name = cache.Canonical(name)
	if name == "" {
		name = device.UnknownModel
	}

	if name == device.UnknownModel && s.ov.Model != 0 {
		id, ok, err := s.configured("model", &registry.AssetModel{}, s.ov.Model)
		if err != nil || ok {
			return id, err
		}
	}

	key := cache.Key("model", name, strconv.FormatUint(uint64(manufacturerID), 10))
	return s.findOrCreate("model", name, key,
		func(db *gorm.DB) (uint, error) {
			var m registry.AssetModel
			err := db.Where("LOWER(name) = ? AND manufacturer_id = ?", strings.ToLower(name), manufacturerID).
				Order("id").Take(&m).Error
			return m.ID, err
		},
		func(db *gorm.DB) (uint, int64, error) {
			categoryID, err := s.Category(kind)
			if err != nil {
				return 0, 0, err
			}
			m := registry.AssetModel{Name: name, ManufacturerID: manufacturerID, CategoryID: categoryID}
			res := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&m)
			return m.ID, res.RowsAffected, res.Error
		})
}

// Category returns the configured category for the kind when it exists,
// otherwise the per-source fallback category, created on first use.
func (s *Scope) Category(kind device.Kind) (uint, error) {
	if override := s.ov.CategoryID(kind); override != 0 {
		id, ok, err := s.configured("category", &registry.Category{}, override)
		if err != nil || ok {
			return id, err
		}
	}

	name := cache.Canonical(CategoryName(s.source, kind))
	key := cache.Key("category", name)
	return s.findOrCreate("category", name, key,
		func(db *gorm.DB) (uint, error) {
			var c registry.Category
			err := db.Where("LOWER(name) = ?", strings.ToLower(name)).Order("id").Take(&c).Error
			return c.ID, err
		},
		func(db *gorm.DB) (uint, int64, error) {
			c := registry.Category{Name: name, CategoryType: "asset"}
			res := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&c)
			return c.ID, res.RowsAffected, res.Error
		})
}

// Status resolves the status for new and updated assets:
// configured id, then "Ready to Deploy", then the first deployable label, then id 1.
func (s *Scope) Status() (uint, error) {
	key := cache.Key("status", string(s.source))
	id, _, err := cache.Load(s.r.cache, key, s.r.ttl, func() (uint, bool, error) {
		if s.ov.Status != 0 {
			ok, err := s.exists(&registry.StatusLabel{}, s.ov.Status)
			if err != nil {
				return 0, false, err
			}
			if ok {
				return s.ov.Status, true, nil
			}
		}

		var label registry.StatusLabel
		err := s.read().Where("LOWER(name) = ?", strings.ToLower(ReadyToDeploy)).Order("id").Take(&label).Error
		if err == nil {
			return label.ID, true, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, false, err
		}

		err = s.read().Where("deployable = ?", true).Order("id").Take(&label).Error
		if err == nil {
			return label.ID, true, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, false, err
		}

		if s.r.logger != nil {
			s.r.logger.Warn("No suitable status label found, using fallback id",
				zap.String("source", string(s.source)),
				zap.Uint("status_id", FallbackStatusID))
		}
		return FallbackStatusID, true, nil
	})
	if err != nil {
		return 0, &ResolutionError{Kind: "status", Key: string(s.source), Err: err}
	}
	return id, nil
}

// Location looks a location up by name. It never creates one: an unknown or
// empty name yields the configured default, or nil.
func (s *Scope) Location(name string) (*uint, error) {
	name = cache.Canonical(name)
	if name != "" {
		key := cache.Key("location", name)
		id, found, err := cache.Load(s.r.cache, key, s.r.ttl, func() (uint, bool, error) {
			var loc registry.Location
			err := s.read().Where("LOWER(name) = ?", strings.ToLower(name)).Order("id").Take(&loc).Error
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return 0, false, nil
			}
			return loc.ID, err == nil, err
		})
		if err != nil {
			return nil, &ResolutionError{Kind: "location", Key: name, Err: err}
		}
		if found {
			return &id, nil
		}
	}

	if s.ov.Location != 0 {
		id := s.ov.Location
		return &id, nil
	}
	return nil, nil
}

// configured checks that a configured id still exists, caching the answer.
func (s *Scope) configured(kind string, model any, id uint) (uint, bool, error) {
	key := cache.Key(kind, "#"+strconv.FormatUint(uint64(id), 10))
	got, found, err := cache.Load(s.r.cache, key, s.r.ttl, func() (uint, bool, error) {
		ok, err := s.exists(model, id)
		return id, ok, err
	})
	if err != nil {
		return 0, false, &ResolutionError{Kind: kind, Key: key, Err: err}
	}
	return got, found, nil
}

func (s *Scope) exists(model any, id uint) (bool, error) {
	var n int64
	if err := s.read().Model(model).Where("id = ?", id).Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}

// findOrCreate implements cache-aside resolution with the unique index as the
// tie-breaker: an insert that hits a conflict re-reads the winning row.
func (s *Scope) findOrCreate(
	kind, name, key string,
	find func(*gorm.DB) (uint, error),
	create func(*gorm.DB) (uint, int64, error),
) (uint, error) {
	if id, ok := s.lookup(key); ok {
		return id, nil
	}

	id, err := find(s.tx)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, &ResolutionError{Kind: kind, Key: name, Err: err}
	}

	if errors.Is(err, gorm.ErrRecordNotFound) {
		var inserted int64
		id, inserted, err = create(s.tx)
		if err != nil {
			var re *ResolutionError
			if errors.As(err, &re) {
				return 0, err
			}
			return 0, &ResolutionError{Kind: kind, Key: name, Err: err}
		}

		if inserted == 0 {
			// Lost a race with a concurrent writer; use the committed winner.
			id, err = find(s.tx.Clauses(clause.Locking{Strength: "SHARE"}))
			if err != nil {
				return 0, &ResolutionError{Kind: kind, Key: name, Err: fmt.Errorf("re-read after conflict: %w", err)}
			}
		}
	}

	s.pending[key] = id
	return id, nil
}

package reconcile

import (
	"context"
	"errors"
	"time"

	"asset-sync/core/device"
	"asset-sync/core/registry"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// UserDirectory finds the user an asset should be assigned to.
type UserDirectory interface {
	Lookup(ctx context.Context, email, username string) (uint, bool, error)
}

// Reconciler upserts canonical assets keyed by serial number.
type Reconciler struct {
	db       *gorm.DB
	resolver *Resolver
	users    UserDirectory
	logger   *zap.Logger
}

// NewReconciler wires a reconciler. users may be nil to disable assignment.
func NewReconciler(db *gorm.DB, resolver *Resolver, users UserDirectory, logger *zap.Logger) *Reconciler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Reconciler{db: db, resolver: resolver, users: users, logger: logger}
}

// Resolver returns the reference resolver used by the reconciler.
func (r *Reconciler) Resolver() *Resolver {
	return r.resolver
}

// Reconcile creates, updates or restores the asset for rec inside one transaction.
// A record without serial returns OutcomeSkipped with device.ErrMissingSerial.
func (r *Reconciler) Reconcile(ctx context.Context, rec device.Record) (Result, error) {
	res := Result{Serial: rec.SerialNumber}
	if rec.SerialNumber == "" {
		res.Outcome = OutcomeSkipped
		res.Err = device.ErrMissingSerial
		return res, device.ErrMissingSerial
	}

	assignee, err := r.assignee(ctx, rec)
	if err != nil {
		return r.fail(res, err)
	}

	var scope *Scope
	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		scope = r.resolver.Scope(ctx, tx, rec.Source)

		desired, err := r.desired(scope, rec, assignee)
		if err != nil {
			return err
		}

		var existing registry.Asset
		err = tx.Unscoped().Where("serial = ?", rec.SerialNumber).Take(&existing).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			created := desired
			ins := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&created)
			if ins.Error != nil {
				return &WriteError{Serial: rec.SerialNumber, Op: "create", Err: ins.Error}
			}
			if ins.RowsAffected > 0 {
				res.Outcome = OutcomeCreated
				res.AssetID = created.ID
				res.Changed = true
				return nil
			}
			// A concurrent worker created the serial first; update its row instead.
			err = tx.Unscoped().Clauses(clause.Locking{Strength: "UPDATE"}).
				Where("serial = ?", rec.SerialNumber).Take(&existing).Error
			if err != nil {
				return &WriteError{Serial: rec.SerialNumber, Op: "re-read", Err: err}
			}
		case err != nil:
			return &WriteError{Serial: rec.SerialNumber, Op: "lookup", Err: err}
		}

		return r.update(tx, &existing, desired, rec.Source == device.SourceJamf, &res)
	})

	if err != nil {
		return r.fail(res, err)
	}

	scope.Commit()
	r.log(rec, res)
	return res, nil
}

// desired resolves references and builds the target column values.
func (r *Reconciler) desired(scope *Scope, rec device.Record, assignee *uint) (registry.Asset, error) {
	manufacturerID, err := scope.Manufacturer(rec.ManufacturerName)
	if err != nil {
		return registry.Asset{}, err
	}
	modelID, err := scope.Model(rec.ModelName, manufacturerID, rec.Kind)
	if err != nil {
		return registry.Asset{}, err
	}
	statusID, err := scope.Status()
	if err != nil {
		return registry.Asset{}, err
	}
	locationID, err := scope.Location(rec.LocationName)
	if err != nil {
		return registry.Asset{}, err
	}

	a := registry.Asset{
		Serial:     rec.SerialNumber,
		AssetTag:   rec.SerialNumber,
		Name:       rec.DisplayName,
		ModelID:    modelID,
		StatusID:   statusID,
		LocationID: locationID,
		AssignedTo: assignee,
		Notes:      Notes(rec),
	}
	if assignee != nil {
		t := registry.AssignedTypeUser
		a.AssignedType = &t
	}
	if rec.Source == device.SourceJamf && rec.Purchase != nil {
		a.PurchaseDate = rec.Purchase.Date
		a.PurchaseCost = rec.Purchase.Cost
		if rec.Purchase.OrderNumber != "" {
			n := rec.Purchase.OrderNumber
			a.OrderNumber = &n
		}
	}
	return a, nil
}

// update writes only the columns that differ, restoring a trashed row.
// Purchase columns are only touched when purchases is set.
func (r *Reconciler) update(tx *gorm.DB, existing *registry.Asset, desired registry.Asset, purchases bool, res *Result) error {
	changes := map[string]any{}
	set := func(col string, equal bool, v any) {
		if !equal {
			changes[col] = v
		}
	}

	set("asset_tag", existing.AssetTag == desired.AssetTag, desired.AssetTag)
	set("name", existing.Name == desired.Name, desired.Name)
	set("model_id", existing.ModelID == desired.ModelID, desired.ModelID)
	set("status_id", existing.StatusID == desired.StatusID, desired.StatusID)
	set("notes", existing.Notes == desired.Notes, desired.Notes)
	set("location_id", eqPtr(existing.LocationID, desired.LocationID), desired.LocationID)
	set("assigned_to", eqPtr(existing.AssignedTo, desired.AssignedTo), desired.AssignedTo)
	set("assigned_type", eqPtr(existing.AssignedType, desired.AssignedType), desired.AssignedType)
	if purchases {
		set("purchase_date", eqTime(existing.PurchaseDate, desired.PurchaseDate), desired.PurchaseDate)
		set("purchase_cost", eqPtr(existing.PurchaseCost, desired.PurchaseCost), desired.PurchaseCost)
		set("order_number", eqPtr(existing.OrderNumber, desired.OrderNumber), desired.OrderNumber)
	}

	restored := existing.DeletedAt.Valid
	if restored {
		changes["deleted_at"] = nil
	}

	res.Outcome = OutcomeUpdated
	res.AssetID = existing.ID
	res.Restored = restored

	if len(changes) == 0 {
		return nil
	}

	err := tx.Unscoped().Model(&registry.Asset{}).Where("id = ?", existing.ID).Updates(changes).Error
	if err != nil {
		op := "update"
		if restored {
			op = "restore"
		}
		return &WriteError{Serial: existing.Serial, Op: op, Err: err}
	}
	res.Changed = true
	return nil
}

func (r *Reconciler) assignee(ctx context.Context, rec device.Record) (*uint, error) {
	if r.users == nil || !r.resolver.Overrides(rec.Source).AutoAssignUsers || !rec.HasAssignee() {
		return nil, nil
	}
	id, ok, err := r.users.Lookup(ctx, rec.AssignedEmail, rec.AssignedUsername)
	if err != nil {
		return nil, &ResolutionError{Kind: "user", Key: rec.AssignedEmail + rec.AssignedUsername, Err: err}
	}
	if !ok {
		return nil, nil
	}
	return &id, nil
}

func (r *Reconciler) fail(res Result, err error) (Result, error) {
	res.Outcome = OutcomeError
	res.AssetID = 0
	res.Err = err
	return res, err
}

func (r *Reconciler) log(rec device.Record, res Result) {
	fields := []zap.Field{
		zap.String("source", string(rec.Source)),
		zap.String("name", rec.DisplayName),
		zap.String("serial", rec.SerialNumber),
		zap.Uint("asset_id", res.AssetID),
	}
	switch {
	case res.Outcome == OutcomeCreated:
		r.logger.Info("Created asset", fields...)
	case res.Restored:
		r.logger.Info("Restored soft-deleted asset", fields...)
	case res.Changed:
		r.logger.Info("Updated asset", fields...)
	default:
		r.logger.Debug("Asset unchanged", fields...)
	}
}

func eqPtr[T comparable](a, b *T) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func eqTime(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(*b)
}

package registry

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Manufacturer is a device vendor ("Apple", "Dell").
type Manufacturer struct {
	ID        uint   `gorm:"column:id;primaryKey" json:"id"`
	Name      string `gorm:"column:name;size:191;uniqueIndex" json:"name"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Category groups asset models. Categories created by the engine use CategoryType "asset".
type Category struct {
	ID           uint   `gorm:"column:id;primaryKey" json:"id"`
	Name         string `gorm:"column:name;size:191;uniqueIndex" json:"name"`
	CategoryType string `gorm:"column:category_type;size:32;default:asset" json:"category_type"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// AssetModel is a hardware model, unique per manufacturer.
type AssetModel struct {
	ID             uint   `gorm:"column:id;primaryKey" json:"id"`
	Name           string `gorm:"column:name;size:191;uniqueIndex:idx_models_name_manufacturer" json:"name"`
	ManufacturerID uint   `gorm:"column:manufacturer_id;uniqueIndex:idx_models_name_manufacturer" json:"manufacturer_id"`
	CategoryID     uint   `gorm:"column:category_id" json:"category_id"`
	ModelNumber    string `gorm:"column:model_number;size:191" json:"model_number"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (AssetModel) TableName() string {
	return "models"
}

// StatusLabel is an asset lifecycle state. It is never created by a sync.
type StatusLabel struct {
	ID         uint   `gorm:"column:id;primaryKey" json:"id"`
	Name       string `gorm:"column:name;size:191;uniqueIndex" json:"name"`
	Deployable bool   `gorm:"column:deployable" json:"deployable"`
	Pending    bool   `gorm:"column:pending" json:"pending"`
	Archived   bool   `gorm:"column:archived" json:"archived"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Location is a site or building. It is never created by a sync.
type Location struct {
	ID        uint   `gorm:"column:id;primaryKey" json:"id"`
	Name      string `gorm:"column:name;size:191;index" json:"name"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// User is a directory entry assets can be checked out to.
type User struct {
	ID        uint   `gorm:"column:id;primaryKey" json:"id"`
	Email     string `gorm:"column:email;size:191;index" json:"email"`
	Username  string `gorm:"column:username;size:191;index" json:"username"`
	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// AssignedTypeUser is the polymorphic assignee type stored for user checkouts.
const AssignedTypeUser = "user"

// Asset is the canonical inventory record, keyed by serial number.
// The unique index covers soft-deleted rows too, so a returning device is restored
// rather than duplicated. Enrichment data lives in provisioned columns outside this struct.
type Asset struct {
	ID           uint       `gorm:"column:id;primaryKey" json:"id"`
	Serial       string     `gorm:"column:serial;size:191;uniqueIndex" json:"serial"`
	AssetTag     string     `gorm:"column:asset_tag;size:191" json:"asset_tag"`
	Name         string     `gorm:"column:name;size:191" json:"name"`
	ModelID      uint       `gorm:"column:model_id" json:"model_id"`
	StatusID     uint       `gorm:"column:status_id" json:"status_id"`
	LocationID   *uint      `gorm:"column:location_id" json:"location_id"`
	AssignedTo   *uint      `gorm:"column:assigned_to" json:"assigned_to"`
	AssignedType *string    `gorm:"column:assigned_type;size:32" json:"assigned_type"`
	Notes        string     `gorm:"column:notes;type:text" json:"notes"`
	PurchaseDate *time.Time `gorm:"column:purchase_date" json:"purchase_date"`
	PurchaseCost *float64   `gorm:"column:purchase_cost" json:"purchase_cost"`
	OrderNumber  *string    `gorm:"column:order_number;size:191" json:"order_number"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}

// AssetsTable is the table enrichment columns are provisioned on.
const AssetsTable = "assets"

// Run states.
const (
	RunRunning   = "running"
	RunCompleted = "completed"
	RunFailed    = "failed"
)

// SyncRun is the persisted history entry of one sync or enrichment run.
type SyncRun struct {
	ID         string         `gorm:"column:id;primaryKey;size:36" json:"id"`
	Source     string         `gorm:"column:source;size:32;index" json:"source"`
	Status     string         `gorm:"column:status;size:16" json:"status"`
	Snapshot   string         `gorm:"column:snapshot;size:512" json:"snapshot"`
	StartedAt  time.Time      `gorm:"column:started_at;index" json:"started_at"`
	FinishedAt *time.Time     `gorm:"column:finished_at" json:"finished_at"`
	Processed  int            `gorm:"column:processed" json:"processed"`
	Synced     int            `gorm:"column:synced" json:"synced"`
	Created    int            `gorm:"column:created" json:"created"`
	Updated    int            `gorm:"column:updated" json:"updated"`
	Restored   int            `gorm:"column:restored" json:"restored"`
	Skipped    int            `gorm:"column:skipped" json:"skipped"`
	Errors     int            `gorm:"column:errors" json:"errors"`
	Cleared    int            `gorm:"column:cleared" json:"cleared"`
	Chunks     datatypes.JSON `gorm:"column:chunks" json:"chunks" swaggertype:"object"`
	Error      string         `gorm:"column:error;type:text" json:"error,omitempty"`
}

// Models lists every table managed by Migrate.
func Models() []any {
	return []any{
		&Manufacturer{},
		&Category{},
		&AssetModel{},
		&StatusLabel{},
		&Location{},
		&User{},
		&Asset{},
		&SyncRun{},
	}
}

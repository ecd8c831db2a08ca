package reconcile

// SourceConfig holds the per-source overrides of an asset source.
// Zero ids are not configured.
type SourceConfig struct {
	// AutoAssignUsers checks assets out to the user matching the device's email or username.
	AutoAssignUsers bool `mapstructure:"auto_assign_users" default:"false"`
	// StatusID is the status label given to synced assets.
	StatusID uint `mapstructure:"status_id" default:"0"`
	// ComputerCategoryID files new computer models.
	ComputerCategoryID uint `mapstructure:"computer_category_id" default:"0"`
	// MobileCategoryID files new mobile models.
	MobileCategoryID uint `mapstructure:"mobile_category_id" default:"0"`
	// LocationID is used when the device location is unknown.
	LocationID uint `mapstructure:"location_id" default:"0"`
	// ModelID replaces the "Unknown Model" placeholder.
	ModelID uint `mapstructure:"model_id" default:"0"`
	// ManufacturerID replaces the "Unknown" manufacturer placeholder.
	ManufacturerID uint `mapstructure:"manufacturer_id" default:"0"`
}

// Overrides converts the configuration for the resolver.
func (c SourceConfig) Overrides() Overrides {
	return Overrides{
		CategoryComputer: c.ComputerCategoryID,
		CategoryMobile:   c.MobileCategoryID,
		Status:           c.StatusID,
		Location:         c.LocationID,
		Model:            c.ModelID,
		Manufacturer:     c.ManufacturerID,
		AutoAssignUsers:  c.AutoAssignUsers,
	}
}

// JamfConfig adds the device kind toggles of the jamf source.
type JamfConfig struct {
	SourceConfig `mapstructure:",squash"`
	// SyncComputers reconciles computer records.
	SyncComputers bool `mapstructure:"sync_computers" default:"true"`
	// SyncMobileDevices reconciles mobile device records.
	SyncMobileDevices bool `mapstructure:"sync_mobile_devices" default:"true"`
}

package enrich

// Config holds configuration for the security agent enrichment.
type Config struct {
	// Prefix is prepended to every slot to form the asset column.
	Prefix string `mapstructure:"column_prefix" default:"_snipeit_"`
	// IncidentLimit is the number of recent incidents kept. 0 disables them.
	IncidentLimit int `mapstructure:"incident_limit" default:"3"`
	// RemediationLimit is the number of recent remediations kept. 0 disables them.
	RemediationLimit int `mapstructure:"remediation_limit" default:"3"`
	// BatchSize is the page size of a standalone enrichment run.
	BatchSize int `mapstructure:"batch_size" default:"100"`
}

// Options converts the configuration for NewMerger.
func (c Config) Options() Options {
	return Options{
		Prefix:           c.Prefix,
		IncidentLimit:    c.IncidentLimit,
		RemediationLimit: c.RemediationLimit,
	}
}

package config

import (
	"reflect"
	"strings"

	"asset-sync/core/batch"
	"asset-sync/core/database"
	"asset-sync/core/enrich"
	"asset-sync/core/logger"
	"asset-sync/core/metrics"
	"asset-sync/core/reconcile"
	"asset-sync/core/server"
	"asset-sync/core/storage"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
// It is divided into partial configurations for better modularity.
type Config struct {
	// Server holds configuration for the HTTP server.
	Server server.Config `mapstructure:"server"`
	// Storage holds configuration for the object storage holding snapshots and reports.
	Storage storage.Config `mapstructure:"storage"`
	// Log holds configuration for the logger.
	Log logger.Config `mapstructure:"log"`
	// Database holds configuration for the asset registry connection.
	Database database.Config `mapstructure:"database"`
	// Metrics holds configuration for the Prometheus endpoint.
	Metrics metrics.Config `mapstructure:"metrics"`
	// Sync holds chunking, retry and cache settings shared by every source.
	Sync batch.Config `mapstructure:"sync"`
	// Intune holds the overrides of the intune source.
	Intune reconcile.SourceConfig `mapstructure:"intune"`
	// Jamf holds the overrides and device kind toggles of the jamf source.
	Jamf reconcile.JamfConfig `mapstructure:"jamf"`
	// Huntress holds the enrichment settings.
	Huntress enrich.Config `mapstructure:"huntress"`
}

// LoadConfig loads configuration from environment variables and .env file.
func LoadConfig(path string) (*Config, error) {
	// 1. Load .env file if it exists
	envPath := path + "/.env"
	if path == "." {
		envPath = ".env"
	}

	// Ignore error if file doesn't exist (e.g. production)
	_ = godotenv.Overload(envPath)

	v := viper.New()

	// Recursively parse struct tags to set default values
	bindValues(v, Config{}, "")

	// Map environment variables to nested keys (e.g. SYNC_CHUNK_SIZE -> sync.chunk_size)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// bindValues uses reflection to iterate over the struct and set default values in Viper
// based on the 'default' and 'mapstructure' tags.
func bindValues(v *viper.Viper, iface any, prefix string) {
	t := reflect.TypeOf(iface)

	// If it's a pointer, get the element
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		tag := field.Tag.Get("mapstructure")

		// Skip if no tag
		if tag == "" {
			continue
		}

		// Squashed structs share the parent's prefix
		if tag == ",squash" {
			bindValues(v, reflect.New(field.Type).Elem().Interface(), prefix)
			continue
		}

		// Build the key
		key := tag
		if prefix != "" {
			key = prefix + "." + tag
		}

		// If it's a nested struct, recurse
		if field.Type.Kind() == reflect.Struct {
			bindValues(v, reflect.New(field.Type).Elem().Interface(), key)
			continue
		}

		defaultValue := field.Tag.Get("default")
		// Always set default (even if empty) to register the key for AutomaticEnv
		v.SetDefault(key, defaultValue)
	}
}

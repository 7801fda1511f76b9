// Package config defines the process configuration for the CSV loader.
// Configuration is loaded once at startup and is immutable thereafter. It
// follows 12-Factor principles: values come from the OS environment with an
// optional dotenv file for local development, and any invalid value fails
// the process immediately.
package config

import (
	"time"

	"geostream/internal/types"
)

// SecretString is an alias for types.SecretString, the redacted secret type
// used for store access keys to prevent accidental logging.
type SecretString = types.SecretString

// Config is the top-level configuration struct for the loader. It is
// populated once during startup and never modified. Components receive only
// the subsets they require.
type Config struct {
	Environment string `envconfig:"APP_ENV" default:"local" validate:"required,oneof=local dev staging prod"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`

	Geostreams GeostreamsConfig
	Traits     TraitsConfig
	SiteLookup SiteLookupConfig
	Loader     LoaderConfig
}

// GeostreamsConfig holds the geospatial time-series store endpoint and key.
type GeostreamsConfig struct {
	URL     string        `envconfig:"GEOSTREAMS_URL" validate:"omitempty,url"`
	Key     SecretString  `envconfig:"GEOSTREAMS_KEY"`
	Timeout time.Duration `envconfig:"GEOSTREAMS_TIMEOUT" default:"30s"`
}

// TraitsConfig holds the relational trait database (BETYdb) endpoint and key.
type TraitsConfig struct {
	// URL is the base BETYdb URL. The traits upload endpoint is derived as
	// {URL}/api/v1/traits.
	URL     string        `envconfig:"BETYDB_URL" validate:"omitempty,url"`
	Key     SecretString  `envconfig:"BETYDB_KEY"`
	Timeout time.Duration `envconfig:"BETYDB_TIMEOUT" default:"60s"`
}

// SiteLookupConfig holds the site-lookup-by-coordinate collaborator endpoint.
// When unset, the geospatial path resolves plots by explicit plot name only.
type SiteLookupConfig struct {
	URL     string        `envconfig:"SITE_LOOKUP_URL" validate:"omitempty,url"`
	Key     SecretString  `envconfig:"SITE_LOOKUP_KEY"`
	Timeout time.Duration `envconfig:"SITE_LOOKUP_TIMEOUT" default:"30s"`
}

// LoaderConfig holds per-run ingestion behavior overrides.
type LoaderConfig struct {
	// PlotName, when set, short-circuits coordinate-based site lookup for
	// every row: the named plot's sensor is used directly.
	PlotName string `envconfig:"PLOT_NAME"`

	// DefaultGeometry, when set, is a GeoJSON Point that overrides the
	// sensor-derived geometry on created streams and datapoints.
	DefaultGeometry string `envconfig:"DEFAULT_GEOMETRY" validate:"omitempty,json"`
}

package config

// Application constants
const (
	// Application Info
	AppName    = "MC3 Summit Data Processing"
	AppVersion = "1.0.0"
	EventName  = "2025 Monroe County Childhood Conditions Summit"

	// EnvPrefix namespaces every environment variable (MC3_PATHS_DATA_DIR, ...)
	EnvPrefix = "MC3"

	// File Paths (relative to the working directory)
	DefaultOutputDir    = "processed_data"
	DefaultLogsDir      = "logs"
	DefaultManifestFile = "run_manifest.json"

	// Log Settings
	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"

	// Geography of interest in the census survey exports
	DefaultGeography = "Monroe County"

	// Census survey export layout
	CensusDataPattern   = "*Data.csv"
	CensusNameColumn    = "NAME"
	IncomeSourceDir     = "S1903Median Income in the Past 12 Months (in 2023 Inflation-Adjusted Dollars)"
	EmploymentSourceDir = "S2301Employment Status"

	// API Endpoints
	APIBasePath     = "/api/v1"
	HealthEndpoint  = "/health"
	MetricsEndpoint = "/metrics"
)

// Package config provides centralized configuration management for the MC3
// data pipeline. It handles loading run configuration from the environment and
// an optional YAML file, resolving the directories a run reads from and writes
// to, and the static catalog of indicator sources and themes.
//
// # Configuration Sources
//
// Configuration is loaded from the following sources in order of precedence:
//
//	1. Environment variables (highest priority)
//	2. Configuration file (mc3.yaml, configs/mc3.yaml or MC3_CONFIG_FILE)
//	3. Default values (lowest priority)
//
// # Environment Variables
//
// All environment variables follow the pattern MC3_* for namespacing:
//
//	MC3_PATHS_DATA_DIR=/data/summit
//	MC3_PATHS_OUTPUT_DIR=processed_data
//	MC3_OUTPUT_SQLITE_PATH=processed_data/mc3.db
//	MC3_LOGGING_LEVEL=debug
//
// None of them is required: a run with an empty environment reads the source
// files from the working directory and writes to processed_data/.
//
// # Source Catalog
//
// The catalog lists every indicator (one source file or one directory of
// per-year survey exports) and every theme. The built-in catalog is returned
// by DefaultCatalog; a YAML file named by paths.sources_file replaces it:
//
//	indicators:
//	  - name: graduation_rate
//	    field: graduation_rate_percent
//	    file: High school graduation rate.xlsx
//	    year_keywords: [year]
//	    value_keywords: [rate, graduation]
//	    strip_percent: true
//	themes:
//	  - name: education_pathway
//	    indicators: [graduation_rate]
//
// # Path Management
//
// Paths are resolved once per run and passed explicitly to the components
// that need them:
//
//	paths, err := config.ResolvePaths(cfg.Paths)
//	outFile := paths.GetOutputPath("economic_squeeze.csv")
package config

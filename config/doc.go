// Package config resolves the application configuration from layered sources.
//
// Sources are applied in order, later ones overriding earlier ones key by key:
//
//  1. built-in defaults
//  2. config/models (required)
//  3. config/default
//  4. config/{run_mode}, where run mode comes from RUN_MODE (default "development")
//  5. config/local
//  6. environment variables MFA__<SECTION>__<KEY>=value
//
// Each file source is looked up by base name with any of the extensions
// yaml, yml, json or toml. Optional files are skipped when absent. An
// optional .env file is read first; it never overrides variables already
// present in the environment.
//
// Keys are case-insensitive and are lowercased during resolution, so model
// registry names are always lowercase.
//
//	cfg, err := config.Load(config.WithDir("config"))
//	if err != nil {
//	    // *errors.AppError with code INVALID_CONFIG
//	}
package config

// Package config loads service configuration with Viper.
//
// LoadConfig reads the first YAML file found among ./cmd/<name>/config.yml,
// ./config/config.yml and ./config.yml, loads a .env file into the
// environment with godotenv, and lets environment variables override file
// values using underscore-separated paths:
//
//	EXECUTOR_TIMEOUT=30s        -> executor.timeout
//	LOGGING_LEVEL=debug         -> logging.level
//
// Warnings go through the logger so stdout stays reserved for command
// output.
package config

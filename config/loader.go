package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/kbukum/procexec/logger"
)

// FileSystem abstracts the file operations the loader needs.
type FileSystem interface {
	Exists(path string) bool
	LoadEnv(path string) error
}

// RealFileSystem implements FileSystem on the local disk.
type RealFileSystem struct{}

func (RealFileSystem) Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// LoadEnv loads a .env file into the process environment. Variables that are
// already set win.
func (RealFileSystem) LoadEnv(path string) error {
	return godotenv.Load(path)
}

// ResolvedFiles contains the resolved config and env file paths.
type ResolvedFiles struct {
	ConfigFile string
	EnvFile    string
}

// LoaderConfig holds dependencies and optional file overrides.
type LoaderConfig struct {
	FileSystem FileSystem
	ConfigFile string
	EnvFile    string
}

// LoaderOption is a functional option for LoadConfig.
type LoaderOption func(*LoaderConfig)

// WithFileSystem sets a custom filesystem for the loader.
func WithFileSystem(fs FileSystem) LoaderOption {
	return func(lc *LoaderConfig) { lc.FileSystem = fs }
}

// WithConfigFile sets an explicit config file path.
func WithConfigFile(path string) LoaderOption {
	return func(lc *LoaderConfig) { lc.ConfigFile = path }
}

// WithEnvFile sets an explicit .env file path.
func WithEnvFile(path string) LoaderOption {
	return func(lc *LoaderConfig) { lc.EnvFile = path }
}

// ResolveFiles returns explicit paths when given, otherwise the first
// existing candidate from the standard locations.
func ResolveFiles(serviceName string, lc LoaderConfig) ResolvedFiles {
	resolved := ResolvedFiles{ConfigFile: lc.ConfigFile, EnvFile: lc.EnvFile}
	if resolved.ConfigFile == "" {
		resolved.ConfigFile = firstExisting(lc.FileSystem, []string{
			fmt.Sprintf("./cmd/%s/config.yml", serviceName),
			"./config/config.yml",
			"./config.yml",
		})
	}
	if resolved.EnvFile == "" {
		resolved.EnvFile = firstExisting(lc.FileSystem, []string{
			fmt.Sprintf("./.env.%s", serviceName),
			fmt.Sprintf("./cmd/%s/.env", serviceName),
			"./config/.env",
			"./.env",
		})
	}
	return resolved
}

func firstExisting(fs FileSystem, paths []string) string {
	for _, p := range paths {
		if fs.Exists(p) {
			return p
		}
	}
	return ""
}

// LoadConfig loads configuration for a service into cfg. The YAML file is
// read first, then the .env file is loaded into the environment, then every
// environment variable is bound under each of its nested-key spellings, so
// EXECUTOR_RETRY_MAX_ATTEMPTS overrides executor.retry.max_attempts.
func LoadConfig(serviceName string, cfg any, opts ...LoaderOption) error {
	lc := LoaderConfig{FileSystem: RealFileSystem{}}
	for _, opt := range opts {
		opt(&lc)
	}

	files := ResolveFiles(serviceName, lc)
	v := viper.New()
	log := logger.Get("config")

	if files.ConfigFile != "" {
		v.SetConfigFile(files.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			if lc.ConfigFile != "" {
				return fmt.Errorf("failed to read config file %s: %w", files.ConfigFile, err)
			}
			log.Warn("failed to load config file", logger.Fields("path", files.ConfigFile, logger.FieldError, err.Error()))
		}
	}

	if files.EnvFile != "" {
		if err := lc.FileSystem.LoadEnv(files.EnvFile); err != nil {
			if lc.EnvFile != "" {
				return fmt.Errorf("failed to load env file %s: %w", files.EnvFile, err)
			}
			log.Warn("failed to load env file", logger.Fields("path", files.EnvFile, logger.FieldError, err.Error()))
		}
	}

	bindEnvVars(v, knownPrefixes(v))

	if err := v.Unmarshal(cfg); err != nil {
		return fmt.Errorf("failed to unmarshal config for service %s: %w", serviceName, err)
	}
	return nil
}

// knownPrefixes returns the top-level keys present in the config file.
func knownPrefixes(v *viper.Viper) map[string]bool {
	prefixes := make(map[string]bool)
	for _, k := range v.AllKeys() {
		prefixes[strings.SplitN(k, ".", 2)[0]] = true
	}
	return prefixes
}

// bindEnvVars sets every environment variable whose first segment names a
// top-level config key (or a well-known section) under each nested-key
// variant. Unrelated variables such as PATH or HOME are skipped so they
// cannot shadow config values.
func bindEnvVars(v *viper.Viper, prefixes map[string]bool) {
	for _, section := range []string{"name", "environment", "version", "debug", "logging", "executor", "tracing", "metrics"} {
		prefixes[section] = true
	}
	for _, env := range os.Environ() {
		key, value, ok := strings.Cut(env, "=")
		if !ok {
			continue
		}
		section, _, _ := strings.Cut(strings.ToLower(key), "_")
		if !prefixes[section] {
			continue
		}
		for _, variant := range generateEnvKeyVariants(key) {
			v.Set(variant, value)
		}
	}
}

// generateEnvKeyVariants returns the lower-case spellings an environment
// variable may correspond to.
//
//	EXECUTOR_GRACE_PERIOD -> [executor_grace_period, executor.grace.period,
//	                          executor.grace_period, executor_grace.period]
func generateEnvKeyVariants(envKey string) []string {
	lowerKey := strings.ToLower(envKey)
	parts := strings.Split(lowerKey, "_")
	if len(parts) <= 1 {
		return []string{lowerKey}
	}

	variants := []string{lowerKey, strings.Join(parts, ".")}
	for i := 1; i < len(parts); i++ {
		variants = append(variants, strings.Join(parts[:i], ".")+"."+strings.Join(parts[i:], "_"))
		variants = append(variants, strings.Join(parts[:i], "_")+"."+strings.Join(parts[i:], "."))
	}
	return removeDuplicates(variants)
}

// removeDuplicates removes duplicate strings while preserving order.
func removeDuplicates(items []string) []string {
	seen := make(map[string]bool, len(items))
	result := make([]string, 0, len(items))
	for _, item := range items {
		if !seen[item] {
			seen[item] = true
			result = append(result, item)
		}
	}
	return result
}

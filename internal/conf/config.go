// config.go: settings struct for the devserve asset server and functions to
// load and save the settings.
package conf

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/akoskinen/devserve/internal/errors"
)

// LogConfig holds file logging settings shared by all file loggers.
type LogConfig struct {
	Enabled    bool   // true to write a service log file
	Path       string // log file path
	MaxSize    int    // rotate after this many megabytes
	MaxBackups int    // rotated files to keep
	MaxAge     int    // days to retain rotated files
}

// AliasRule rewrites a request pathname before it is resolved on disk.
// Rules are applied in configuration order and the first match wins.
type AliasRule struct {
	Find        string // literal prefix, or a regular expression when Regex is true
	Replacement string // substituted for the matched portion
	Regex       bool   // interpret Find as a regular expression
}

// ServerSettings contains the web server and filesystem boundary settings.
type ServerSettings struct {
	Host    string            // interface to listen on
	Port    string            // port to listen on
	Root    string            // project root directory served to clients
	Strict  bool              // enforce the filesystem access boundary
	Allow   []string          // ordered allow-list of absolute directories
	Deny    []string          // regexp patterns that deny a path regardless of the allow-list
	Aliases []AliasRule       // ordered pathname rewrite rules
	Headers map[string]string // extra headers added to every response
	Log     LogConfig         // web access log settings
}

// Settings contains all configuration options for devserve.
type Settings struct {
	Debug bool // true to enable debug level logging

	Main struct {
		Name string    // node name, used in logs
		Log  LogConfig // application log settings
	}

	Server ServerSettings
}

var (
	settingsInstance *Settings
	settingsMutex    sync.RWMutex
)

// Load reads the configuration file and environment variables into a new
// Settings instance and validates it.
func Load() (*Settings, error) {
	settingsMutex.Lock()
	defer settingsMutex.Unlock()

	settings := &Settings{}

	if err := initViper(); err != nil {
		return nil, fmt.Errorf("error initializing viper: %w", err)
	}

	if err := viper.Unmarshal(settings); err != nil {
		return nil, fmt.Errorf("error unmarshaling config into struct: %w", err)
	}

	if err := ValidateSettings(settings); err != nil {
		return nil, fmt.Errorf("error validating settings: %w", err)
	}

	settingsInstance = settings
	return settingsInstance, nil
}

// initViper initializes viper with default values and reads the configuration file.
func initViper() error {
	viper.SetConfigName("devserve")
	viper.SetConfigType("yaml")

	configPaths, err := GetDefaultConfigPaths()
	if err != nil {
		return fmt.Errorf("error getting default config paths: %w", err)
	}

	for _, path := range configPaths {
		viper.AddConfigPath(path)
	}

	// Defaults defined in defaults.go
	setDefaultConfig()

	if err := viper.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if errors.As(err, &configFileNotFoundError) {
			// No config file found, run on defaults
			return nil
		}
		return fmt.Errorf("fatal error reading config file: %w", err)
	}

	return nil
}

// GetDefaultConfigPaths returns the directories searched for devserve.yaml,
// in priority order.
func GetDefaultConfigPaths() ([]string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("error fetching user home directory: %w", err)
	}
	return []string{
		".",
		filepath.Join(homeDir, ".config", "devserve"),
	}, nil
}

// SaveDefaultConfig writes the current default configuration as YAML to the
// given path. Used by the --generate-config flow.
func SaveDefaultConfig(path string) error {
	settings := &Settings{}
	setDefaultConfig()
	if err := viper.Unmarshal(settings); err != nil {
		return fmt.Errorf("error unmarshaling defaults: %w", err)
	}

	out, err := yaml.Marshal(settings)
	if err != nil {
		return errors.New(err).
			Component("conf").
			Category(errors.CategoryConfiguration).
			Build()
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("error creating config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, out, 0o644); err != nil {
		return errors.New(err).
			Component("conf").
			Category(errors.CategoryFileIO).
			Context("path", path).
			Build()
	}
	return nil
}

// Setting returns the settings instance loaded by the last successful Load.
// Returns nil before Load has been called.
func Setting() *Settings {
	settingsMutex.RLock()
	defer settingsMutex.RUnlock()
	return settingsInstance
}

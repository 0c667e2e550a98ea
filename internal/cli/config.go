package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/mesh-intelligence/arbor/internal/paths"
	"github.com/mesh-intelligence/arbor/pkg/types"
)

const (
	configFileName = "config"
	configFileType = "yaml"
	configFileExt  = "config.yaml"

	cfgKeyBackend = "backend"
	cfgKeyDataDir = "data_dir"
	cfgKeyUser    = "user"

	defaultBackend = types.BackendSQLite
)

// defaultConfigYAML is the content written to config.yaml on first run.
const defaultConfigYAML = `# arbor configuration

# Backend selection: sqlite or memory
backend: sqlite

# Data directory (optional; overridable by --data-dir flag)
# data_dir:

# Default login user (optional; overridable by --user flag)
# user:

# Users and bcrypt password hashes, managed with "arbor user add"
# users:
`

// configFile is the structure of config.yaml when it is rewritten. Viper
// folds map keys to lower case, so users are read through this struct
// instead.
type configFile struct {
	Backend string            `yaml:"backend"`
	DataDir string            `yaml:"data_dir,omitempty"`
	User    string            `yaml:"user,omitempty"`
	Users   map[string]string `yaml:"users,omitempty"`
}

// loadConfig reads config.yaml from the resolved config directory using
// Viper. It creates the config directory and a default config.yaml on
// first run.
func loadConfig(configDir string) (*viper.Viper, error) {
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return nil, fmt.Errorf("ensure config dir: %w", err)
	}
	if err := ensureDefaultConfigFile(configDir); err != nil {
		return nil, fmt.Errorf("ensure default config: %w", err)
	}

	v := viper.New()
	v.SetDefault(cfgKeyBackend, defaultBackend)
	v.SetConfigName(configFileName)
	v.SetConfigType(configFileType)
	v.AddConfigPath(configDir)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return v, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}
	return v, nil
}

func ensureDefaultConfigFile(configDir string) error {
	path := filepath.Join(configDir, configFileExt)

	_, err := os.Stat(path)
	if err == nil {
		return nil
	}
	if !os.IsNotExist(err) {
		return fmt.Errorf("stat config file: %w", err)
	}
	return os.WriteFile(path, []byte(defaultConfigYAML), 0o644)
}

func readConfigFile(configDir string) (configFile, error) {
	var cfg configFile
	data, err := os.ReadFile(filepath.Join(configDir, configFileExt))
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	if cfg.Backend == "" {
		cfg.Backend = defaultBackend
	}
	return cfg, nil
}

func writeConfigFile(configDir string, cfg configFile) error {
	data, err := yaml.Marshal(&cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	return os.WriteFile(filepath.Join(configDir, configFileExt), data, 0o600)
}

// repoConfig builds the repository Config from config.yaml and the flags.
func (a *app) repoConfig() (types.Config, error) {
	file, err := readConfigFile(a.configDir)
	if err != nil {
		return types.Config{}, sysError(err)
	}
	cfg := types.Config{
		Backend: a.config.GetString(cfgKeyBackend),
		Users:   file.Users,
	}
	if cfg.Backend == types.BackendSQLite {
		if cfg.DataDir, err = paths.ResolveDataDir(a.flags.dataDir, a.config.GetString(cfgKeyDataDir)); err != nil {
			return types.Config{}, sysError(fmt.Errorf("resolve data dir: %w", err))
		}
	}
	if err := cfg.Validate(); err != nil {
		return types.Config{}, userError(fmt.Errorf("config %s: %w", filepath.Join(a.configDir, configFileExt), err))
	}
	return cfg, nil
}

// credentials resolves the login: flags, then ARBOR_USER and
// ARBOR_PASSWORD, then the user key of config.yaml.
func (a *app) credentials() (types.Credentials, error) {
	e, err := paths.LoadEnv()
	if err != nil {
		return types.Credentials{}, userError(err)
	}
	creds := types.Credentials{User: a.flags.user, Password: a.flags.password}
	if creds.User == "" {
		creds.User = e.User
	}
	if creds.User == "" {
		creds.User = a.config.GetString(cfgKeyUser)
	}
	if creds.Password == "" {
		creds.Password = e.Password
	}
	return creds, nil
}

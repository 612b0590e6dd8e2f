package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. NEWSDESK_API_URL.
const EnvPrefix = "NEWSDESK"

// Options controls where configuration is read from. Zero values fall back to
// the user's home directory and the current working directory.
type Options struct {
	HomeDir    string
	WorkDir    string
	ConfigFile string
}

// Load merges defaults, ~/.newsdesk/config.yaml, ./.newsdesk/config.yaml, an
// explicit config file, ./.env and NEWSDESK_* variables, in increasing priority.
func Load(opts Options) (*Config, error) {
	home := opts.HomeDir
	if home == "" {
		if h, err := os.UserHomeDir(); err == nil {
			home = h
		}
	}
	cwd := opts.WorkDir
	if cwd == "" {
		if wd, err := os.Getwd(); err == nil {
			cwd = wd
		}
	}

	if cwd != "" {
		if err := godotenv.Load(filepath.Join(cwd, ".env")); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load .env: %w", err)
		}
	}

	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var files []string
	if home != "" {
		files = append(files, GlobalConfigPath(home))
	}
	if cwd != "" {
		files = append(files, ProjectConfigPath(cwd))
	}
	if opts.ConfigFile != "" {
		if _, err := os.Stat(opts.ConfigFile); err != nil {
			return nil, fmt.Errorf("config file %s: %w", opts.ConfigFile, err)
		}
		files = append(files, opts.ConfigFile)
	}

	for _, path := range files {
		if err := mergeFile(v, path); err != nil {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	if cfg.TokenFile == "" && home != "" {
		cfg.TokenFile = filepath.Join(home, dirName, "token.json")
	}
	cfg.TokenFile = expandHome(cfg.TokenFile, home)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func mergeFile(v *viper.Viper, path string) error {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to stat %s: %w", path, err)
	}

	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	if err := v.MergeInConfig(); err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	return nil
}

// GlobalConfigPath returns the per-user config file path.
func GlobalConfigPath(home string) string {
	return filepath.Join(home, dirName, "config.yaml")
}

// ProjectConfigPath returns the per-directory config file path.
func ProjectConfigPath(dir string) string {
	return filepath.Join(dir, dirName, "config.yaml")
}

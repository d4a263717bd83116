package config

import (
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Project struct {
		Root   string   `yaml:"root"`
		Ignore []string `yaml:"ignore"`
	} `yaml:"project"`
	Check struct {
		// Spec is the path to the expected-declarations document. An
		// empty path disables checking entirely.
		Spec      string `yaml:"spec"`
		CheckMain bool   `yaml:"check_main"`
	} `yaml:"check"`
	Report struct {
		// DB is the path of the SQLite run database. Empty disables
		// run persistence.
		DB string `yaml:"db"`
	} `yaml:"report"`
}

func LoadConfig(path string) (*Config, error) {
	// 1. Load .env if exists
	_ = godotenv.Load()

	var cfg Config

	// 2. Load YAML config; a missing file leaves the defaults.
	file, err := os.ReadFile(path)
	if err == nil {
		if err := yaml.Unmarshal(file, &cfg); err != nil {
			return nil, err
		}
	} else if !os.IsNotExist(err) {
		return nil, err
	}

	// 3. Override with Environment Variables if present
	if spec := os.Getenv("DECLCHECK_SPEC"); spec != "" {
		cfg.Check.Spec = spec
	}
	if root := os.Getenv("DECLCHECK_ROOT"); root != "" {
		cfg.Project.Root = root
	}
	if db := os.Getenv("DECLCHECK_DB"); db != "" {
		cfg.Report.DB = db
	}

	if cfg.Project.Root == "" {
		cfg.Project.Root = "."
	}

	return &cfg, nil
}

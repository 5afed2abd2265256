package config

import (
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

type Config struct {
	DaxDir           string `toml:"dax_dir"`
	CacheDir         string `toml:"cache_dir"`
	DataDir          string `toml:"data_dir"`
	StateDB          string `toml:"state_db"`
	ManifestFile     string `toml:"manifest_file"`
	DatasetSchemaURL string `toml:"dataset_schema_url"`
	FormatSchemaURL  string `toml:"format_schema_url"`
	LicenseSchemaURL string `toml:"license_schema_url"`
	MaxParallel      int    `toml:"max_parallel"`
}

const defaultSchemaBase = "https://raw.githubusercontent.com/daxhub/schemata/main/"

func DefaultConfig() *Config {
	home, _ := os.UserHomeDir()
	base := filepath.Join(home, ".dax")

	return &Config{
		DaxDir:           base,
		CacheDir:         filepath.Join(base, "cache"),
		DataDir:          filepath.Join(base, "data"),
		StateDB:          filepath.Join(base, "state.db"),
		ManifestFile:     filepath.Join(base, "pulled.json"),
		DatasetSchemaURL: defaultSchemaBase + "datasets.yaml",
		FormatSchemaURL:  defaultSchemaBase + "formats.yaml",
		LicenseSchemaURL: defaultSchemaBase + "licenses.yaml",
		MaxParallel:      4,
	}
}

func Load() (*Config, error) {
	cfg := DefaultConfig()

	home, err := os.UserHomeDir()
	if err != nil {
		return cfg, nil
	}

	configPath := filepath.Join(home, ".dax", "config.toml")

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		if err := Save(cfg); err != nil {
			return nil, err
		}
		return cfg, nil
	}

	if _, err := toml.DecodeFile(configPath, cfg); err != nil {
		return nil, err
	}
	if cfg.MaxParallel <= 0 {
		cfg.MaxParallel = 4
	}

	return cfg, nil
}

func Save(cfg *Config) error {
	home, _ := os.UserHomeDir()
	configPath := filepath.Join(home, ".dax", "config.toml")

	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return err
	}
	f, err := os.Create(configPath)
	if err != nil {
		return err
	}
	defer f.Close()

	return toml.NewEncoder(f).Encode(cfg)
}

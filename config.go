package npystream

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/spf13/viper"
)

// Config holds everything needed to write one incrementing array.
type Config struct {
	Rows            int    `mapstructure:"rows"`
	Cols            int    `mapstructure:"cols"`
	OutputDir       string `mapstructure:"output_dir"`
	CheckpointEvery int    `mapstructure:"checkpoint_every"`
	Atomic          bool   `mapstructure:"atomic"`
	BufferSize      int    `mapstructure:"buffer_size"`
	LogFile         string `mapstructure:"log_file"`
	Verbose         bool   `mapstructure:"verbose"`
	Verify          bool   `mapstructure:"verify"`
}

// ConfigName is the config file name searched for, without its suffix.
const ConfigName = "npystream"

// SetDefaults registers the default value of every Config key on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("rows", 0)
	v.SetDefault("cols", 0)
	v.SetDefault("output_dir", "example_output")
	v.SetDefault("checkpoint_every", 0)
	v.SetDefault("atomic", false)
	v.SetDefault("buffer_size", 32768)
	v.SetDefault("log_file", "")
	v.SetDefault("verbose", false)
	v.SetDefault("verify", false)
}

// SetupViper says where to find config files and sets the defaults. A
// missing config file is not an error. A non-empty configFile is used
// instead of searching.
func SetupViper(v *viper.Viper, configFile string) error {
	SetDefaults(v)
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName(ConfigName)
		v.AddConfigPath(filepath.FromSlash("/etc/npystream"))
		v.AddConfigPath("$HOME/.npystream")
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile == "" && errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("error reading config file: %w", err)
	}
	return nil
}

// LoadConfig unmarshals v into a Config and checks it.
func LoadConfig(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

// Validate reports the first nonsensical setting found.
func (c Config) Validate() error {
	switch {
	case c.Rows < 0:
		return fmt.Errorf("rows must be non-negative, have %d", c.Rows)
	case c.Cols < 0:
		return fmt.Errorf("cols must be non-negative, have %d", c.Cols)
	case c.CheckpointEvery < 0:
		return fmt.Errorf("checkpoint_every must be non-negative, have %d", c.CheckpointEvery)
	case c.BufferSize < 0:
		return fmt.Errorf("buffer_size must be non-negative, have %d", c.BufferSize)
	case c.OutputDir == "":
		return errors.New("output_dir must not be empty")
	}
	return nil
}

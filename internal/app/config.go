package app

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/jeremywohl/flatten"
	"github.com/metal-toolbox/xpuctl/internal/model"
	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"
)

const (
	// DefaultConfigFile is the configuration file read when none is specified.
	DefaultConfigFile = "~/.xpuctl"

	// defaultConfigType is the format of configuration files without a known extension.
	defaultConfigType = "toml"
)

// envConfig lists the configuration keys that can be set by environment variables,
// the BMC list is read from the configuration file only.
type envConfig struct {
	Username           string `mapstructure:"username"`
	Password           string `mapstructure:"password"`
	Concurrency        int    `mapstructure:"concurrency"`
	Timeout            string `mapstructure:"timeout"`
	Retries            int    `mapstructure:"retries"`
	InsecureSkipVerify bool   `mapstructure:"insecure_skip_verify"`
	MetricsTextfile    string `mapstructure:"metrics_textfile"`
}

// LoadConfiguration loads application configuration
//
// Reads in the cfgFile and overrides from environment variables prefixed with XPUCTL_.
func (a *App) LoadConfiguration(cfgFile string) error {
	if cfgFile == "" {
		cfgFile = DefaultConfigFile
	}

	cfgFile, err := expandHome(cfgFile)
	if err != nil {
		return errors.Wrap(model.ErrConfig, err.Error())
	}

	a.Config.File = cfgFile

	a.v.SetConfigType(configType(cfgFile))
	a.v.SetEnvPrefix(model.AppName)
	a.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	a.v.AutomaticEnv()

	a.v.SetDefault("concurrency", model.WorkerConcurrency)
	a.v.SetDefault("timeout", model.DefaultRequestTimeout.String())
	a.v.SetDefault("retries", 0)
	a.v.SetDefault("insecure_skip_verify", true)

	fh, err := os.Open(cfgFile)
	if err != nil {
		return errors.Wrap(model.ErrConfig, err.Error())
	}

	defer fh.Close()

	if err = a.v.ReadConfig(fh); err != nil {
		return errors.Wrap(model.ErrConfig, "ReadConfig error: "+err.Error())
	}

	if err := a.envBindVars(); err != nil {
		return errors.Wrap(model.ErrConfig, "env var bind error: "+err.Error())
	}

	if err := a.v.Unmarshal(a.Config); err != nil {
		return errors.Wrap(model.ErrConfig, "Unmarshal error: "+err.Error())
	}

	return nil
}

// envBindVars binds environment variables to the configuration keys
// so they are included when the configuration is unmarshalled.
func (a *App) envBindVars() error {
	envKeysMap := map[string]interface{}{}
	if err := mapstructure.Decode(envConfig{}, &envKeysMap); err != nil {
		return err
	}

	// Flatten nested conf map
	flat, err := flatten.Flatten(envKeysMap, "", flatten.DotStyle)
	if err != nil {
		return errors.Wrap(err, "Unable to flatten config")
	}

	for k := range flat {
		if err := a.v.BindEnv(k); err != nil {
			return errors.Wrap(model.ErrConfig, "env var bind error: "+err.Error())
		}
	}

	return nil
}

func expandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", errors.Wrap(err, "unable to expand ~ in config file path")
	}

	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}

func configType(path string) string {
	switch ext := strings.TrimPrefix(filepath.Ext(path), "."); ext {
	case "yaml", "yml", "json", "toml":
		return ext
	default:
		return defaultConfigType
	}
}

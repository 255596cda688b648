package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/josephgoksu/CostWing/types"
)

// validate is a single instance of Validate, it caches struct info
var validate = validator.New()

// Load reads .env, environment overrides and the config file into v and
// returns the validated configuration. cfgFile, when set, must exist;
// otherwise ./<rootDir>/.costwing.yaml and $HOME/.costwing.yaml are searched
// and a missing file is fine.
func Load(v *viper.Viper, cfgFile string) (types.AppConfig, error) {
	// It's okay if .env doesn't exist.
	_ = godotenv.Load()

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(envKeyReplacer)
	v.AutomaticEnv()
	SetDefaults(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName(ConfigName)
		v.SetConfigType("yaml")
		if info, err := os.Stat(v.GetString("project.rootDir")); err == nil && info.IsDir() {
			v.AddConfigPath(v.GetString("project.rootDir"))
		}
		if home, err := GetGlobalConfigDir(); err == nil {
			v.AddConfigPath(home)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return types.AppConfig{}, fmt.Errorf("error reading config file %s: %w", v.ConfigFileUsed(), err)
		}
	}

	var cfg types.AppConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return types.AppConfig{}, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return types.AppConfig{}, err
	}
	return cfg, nil
}

// Validate checks the configuration's struct tags.
func Validate(cfg types.AppConfig) error {
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("configuration validation error: %w", err)
	}
	return nil
}

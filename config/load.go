package config

import "github.com/fox-one/pkg/config"

// Load load config file
func Load(cfgFile string, cfg *Config) error {
	config.AutomaticLoadEnv("CREDITLINE")
	if err := config.LoadYaml(cfgFile, cfg); err != nil {
		return err
	}

	defaults(cfg)
	return nil
}

func defaults(cfg *Config) {
	if cfg.PriceOracle.CacheExpire <= 0 {
		cfg.PriceOracle.CacheExpire = 10
	}
}

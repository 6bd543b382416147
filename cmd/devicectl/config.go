package main

import (
	"fmt"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"

	"github.com/latticeworks/devicert/pkg/runtime"
)

// loadConfig reads a YAML config file at path through viper and unmarshals
// it into a runtime.Config, then validates it. Defaults normally filled in
// by Validate (initial_mode, gating_policy, per-provider timeouts) are
// applied here too, so the returned Config is always ready for
// runtime.New.
//
// runtime.Config's fields carry `yaml` struct tags (it is a plain data
// shape, not a viper-specific one), so Unmarshal is told to key off those
// instead of mapstructure's own default tag.
func loadConfig(path string) (runtime.Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		return runtime.Config{}, fmt.Errorf("read config %s: %w", path, err)
	}

	var cfg runtime.Config
	decodeYAMLTag := func(c *mapstructure.DecoderConfig) { c.TagName = "yaml" }
	if err := v.Unmarshal(&cfg, decodeYAMLTag); err != nil {
		return runtime.Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return runtime.Config{}, fmt.Errorf("config %s: %w", path, err)
	}

	return cfg, nil
}

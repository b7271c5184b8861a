package config

import (
	"fmt"
	"os"

	"github.com/pkg/errors"
	"github.com/samber/do/v2"
	"go.yaml.in/yaml/v3"

	"github.com/willie68/go_mapmosaic/internal/calibration"
	"github.com/willie68/go_mapmosaic/internal/capture"
	"github.com/willie68/go_mapmosaic/internal/framestore"
	"github.com/willie68/go_mapmosaic/internal/logging"
	"github.com/willie68/go_mapmosaic/internal/mosaic"
	"github.com/willie68/go_mapmosaic/internal/provider"
	"github.com/willie68/go_mapmosaic/internal/shttp"
	"github.com/willie68/go_mapmosaic/internal/surface"
	"github.com/willie68/go_mapmosaic/internal/tilecache"
	"github.com/willie68/go_mapmosaic/internal/utils/measurement"
)

// Config the complete configuration of the service
type Config struct {
	Mode      string             `yaml:"mode"` // box, center
	Surface   surface.Config     `yaml:"surface"`
	Providers provider.ConfigMap `yaml:"providers"`
	Cache     tilecache.Config   `yaml:"cache"`
	Frames    framestore.Config  `yaml:"frames"`
	Capture   capture.Config     `yaml:"capture"`
	Mosaic    mosaic.Config      `yaml:"mosaic"`
	HTTP      shttp.Config       `yaml:"http"`
	Metrics   measurement.Config `yaml:"metrics"`
	Logging   logging.Config     `yaml:"logging"`
}

var (
	config Config
)

// Option changes a loaded config, used for command line overrides
type Option func(c *Config)

// WithMode overrides the calibration mode, empty keeps the config value
func WithMode(mode string) Option {
	return func(c *Config) {
		if mode != "" {
			c.Mode = mode
		}
	}
}

// WithOutput overrides the output file of the mosaic
func WithOutput(output string) Option {
	return func(c *Config) {
		if output != "" {
			c.Mosaic.Output = output
		}
	}
}

// WithSurface overrides the surface type
func WithSurface(st string) Option {
	return func(c *Config) {
		if st != "" {
			c.Surface.Type = st
		}
	}
}

// WithPort overrides the port of the http server, negative keeps the config
func WithPort(port int) Option {
	return func(c *Config) {
		if port >= 0 {
			c.HTTP.Port = port
		}
	}
}

// SetParameter applies the options to the loaded config
func SetParameter(opts ...Option) {
	for _, o := range opts {
		o(&config)
	}
	config.Defaults()
}

// Get the actual config
func Get() *Config {
	return &config
}

func (c *Config) GetProviderConfig() provider.ConfigMap {
	return c.Providers
}

// Defaults fills unset values of all sections
func (c *Config) Defaults() {
	if c.Mode == "" {
		c.Mode = string(calibration.ModeBox)
	}
	c.Surface.Defaults()
	c.Capture.Defaults()
	c.Mosaic.Defaults()
	if c.Frames.Path == "" {
		c.Frames.Path = "frames"
	}
	if c.Providers == nil {
		c.Providers = make(provider.ConfigMap)
	}
}

// JSON the actual config as json, for logging
func JSON() string {
	js, err := config.JSON()
	if err != nil {
		return ""
	}
	return js
}

// Load loads the config
func Load(file string) error {
	data, err := os.ReadFile(file)
	if err != nil {
		return errors.Wrap(err, "can't load config file")
	}
	return Parse(data)
}

// Parse replaces the config with the yaml document
func Parse(data []byte) error {
	var c Config
	if err := yaml.Unmarshal(data, &c); err != nil {
		return errors.Wrap(err, "can't unmarshal config file")
	}
	c.Defaults()
	config = c
	return nil
}

// Init provides the config, every section and the version
func Init(inj do.Injector) {
	do.ProvideValue(inj, &config)
	do.ProvideValue(inj, &config.Surface)
	do.ProvideValue(inj, &config.Cache)
	do.ProvideValue(inj, &config.Frames)
	do.ProvideValue(inj, &config.Capture)
	do.ProvideValue(inj, &config.Mosaic)
	do.ProvideValue(inj, &config.HTTP)
	do.ProvideValue(inj, &config.Metrics)
	do.ProvideValue(inj, &config.Logging)

	ver := NewVersion()
	do.ProvideValue(inj, *ver)
}

func (c *Config) JSON() (string, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return "", fmt.Errorf("can't marshal config to yaml: %s", err.Error())
	}
	return string(data), nil
}

package fzpthumb

import (
	"github.com/gobeaver/beaver-kit/config"
)

// Config is the environment-driven configuration. Thumbnailers are spawned
// by desktop shells rather than started by hand, so knobs travel as
// environment variables instead of flags.
type Config struct {
	// Largest thumbnail edge a caller may request.
	MaxTargetSize int `env:"FZPTHUMB_MAX_TARGET_SIZE,default:2048"`

	// Largest embedded preview edge accepted before the document is
	// rejected as broken.
	MaxSourceDimension int `env:"FZPTHUMB_MAX_SOURCE_DIMENSION,default:1024"`

	// Value of the Software metadata key in generated thumbnails.
	Software string `env:"FZPTHUMB_SOFTWARE,default:Fuzzpaint"`

	// Log verbosity: silent, error, warn, info or debug.
	LogLevel string `env:"FZPTHUMB_LOG_LEVEL,default:error"`
}

// GetConfig returns config loaded from environment
func GetConfig() (*Config, error) {
	cfg := &Config{}
	if err := config.Load(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Options converts the loaded configuration into thumbnailer options.
func (c *Config) Options() Options {
	return Options{
		MaxTargetSize:      c.MaxTargetSize,
		MaxSourceDimension: c.MaxSourceDimension,
		Software:           c.Software,
	}
}

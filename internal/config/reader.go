package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ilyakaznacheev/cleanenv"
)

var ErrInvalidConfig = errors.New("invalid config")

type Reader interface {
	Read() (*Config, error)
}

type EnvReader struct{}

func NewEnvReader() EnvReader {
	return EnvReader{}
}

func (EnvReader) Read() (*Config, error) {
	cfg := new(Config)
	err := cleanenv.ReadEnv(cfg)
	if err != nil {
		return nil, err
	}

	err = cfg.validate()
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

// validate rejects values cleanenv cannot check by itself.
func (c *Config) validate() error {
	switch {
	case !strings.HasPrefix(c.Admin.RoutePrefix, "/") || c.Admin.RoutePrefix == "/":
		return fmt.Errorf("%w: admin route prefix must be a path below the root, got %q",
			ErrInvalidConfig, c.Admin.RoutePrefix)
	case !strings.HasPrefix(c.Admin.SignInPath, "/"):
		return fmt.Errorf("%w: sign-in path must be absolute, got %q",
			ErrInvalidConfig, c.Admin.SignInPath)
	case strings.HasPrefix(c.Admin.SignInPath, c.Admin.RoutePrefix):
		// The gate would redirect the sign-in page to itself.
		return fmt.Errorf("%w: sign-in path %q is under the admin route prefix",
			ErrInvalidConfig, c.Admin.SignInPath)
	case c.Media.SweepGracePeriod < 0:
		return fmt.Errorf("%w: media sweep grace period must not be negative", ErrInvalidConfig)
	case c.HTTP.MaxMultipartMemory <= 0:
		return fmt.Errorf("%w: max multipart memory must be positive", ErrInvalidConfig)
	}
	return nil
}

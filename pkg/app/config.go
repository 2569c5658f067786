package app

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Config is read from the environment first; command-line flags override it.
type Config struct {
	Port     int    `env:"CAFESTOCK_PORT"      envDefault:"8765"`
	DBType   string `env:"CAFESTOCK_DB_TYPE"   envDefault:"memory"`
	DBPath   string `env:"CAFESTOCK_DB_PATH"`
	SeedFile string `env:"CAFESTOCK_SEED_FILE"`
	Lang     string `env:"CAFESTOCK_LANG"      envDefault:"ja"`
	// PlatformPort is the PORT variable set by hosting platforms; it wins over Port.
	PlatformPort string `env:"PORT"`
}

// LoadConfig parses environ, or the process environment when environ is nil.
func LoadConfig(environ map[string]string) (Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, env.Options{Environment: environ}); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	return nil
}

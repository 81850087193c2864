// Package config loads server configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	env "github.com/Netflix/go-env"
	"github.com/joho/godotenv"
)

// Config holds the server configuration.
type Config struct {
	Port       string        `env:"PORT,default=5000"`
	DBPath     string        `env:"DB_PATH,default=data/chat.db"`
	UploadsDir string        `env:"UPLOADS_DIR,default=uploads"`
	JWTSecret  string        `env:"JWT_SECRET,required=true"`
	TokenTTL   time.Duration `env:"TOKEN_TTL,default=24h"`

	// AllowedOrigins is a comma separated list of origins allowed to open a socket.
	// "*" allows any origin.
	AllowedOrigins string `env:"ALLOWED_ORIGINS,default=*"`

	SendBufferSize      int     `env:"SEND_BUFFER_SIZE,default=256"`
	EventsPerSecond     float64 `env:"EVENTS_PER_SECOND,default=20"`
	EventBurst          int     `env:"EVENT_BURST,default=40"`
	RoomScopedBroadcast bool    `env:"ROOM_SCOPED_BROADCAST,default=false"`
}

// Load reads an optional .env file from path (ignored when missing) and then
// the process environment.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	var cfg Config
	if _, err := env.UnmarshalFromEnviron(&cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks value ranges that struct tags cannot express.
func (c *Config) Validate() error {
	if c.TokenTTL <= 0 {
		return fmt.Errorf("TOKEN_TTL must be positive, got %s", c.TokenTTL)
	}
	if c.SendBufferSize <= 0 {
		return fmt.Errorf("SEND_BUFFER_SIZE must be positive, got %d", c.SendBufferSize)
	}
	if c.EventsPerSecond <= 0 || c.EventBurst <= 0 {
		return fmt.Errorf("EVENTS_PER_SECOND and EVENT_BURST must be positive")
	}
	return nil
}

// Origins splits AllowedOrigins into its trimmed, non-empty entries.
func (c *Config) Origins() []string {
	var origins []string
	for _, o := range strings.Split(c.AllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}

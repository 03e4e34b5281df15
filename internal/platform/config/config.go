package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config is the full runtime configuration of the step server.
type Config struct {
	Server  Server
	Log     Log
	Redis   RedisConfig
	Session Session
	Lookup  Lookup
	Step    Step
}

// Server captures HTTP server level configuration.
type Server struct {
	Addr            string        `env:"ADDRESS_LOOKUP_ADDR" envDefault:":8080"`
	ReadTimeout     time.Duration `env:"ADDRESS_LOOKUP_READ_TIMEOUT" envDefault:"10s"`
	WriteTimeout    time.Duration `env:"ADDRESS_LOOKUP_WRITE_TIMEOUT" envDefault:"15s"`
	RequestTimeout  time.Duration `env:"ADDRESS_LOOKUP_REQUEST_TIMEOUT" envDefault:"30s"`
	ShutdownTimeout time.Duration `env:"ADDRESS_LOOKUP_SHUTDOWN_TIMEOUT" envDefault:"10s"`
}

// Log selects the slog handler.
type Log struct {
	Level  string `env:"LOG_LEVEL" envDefault:"info"`
	Format string `env:"LOG_FORMAT" envDefault:"text"`
}

// RedisConfig configures the session backend. An empty URL selects the
// in-memory session store.
type RedisConfig struct {
	URL          string        `env:"REDIS_URL"`
	PoolSize     int           `env:"REDIS_POOL_SIZE" envDefault:"10"`
	MinIdleConns int           `env:"REDIS_MIN_IDLE_CONNS" envDefault:"2"`
	DialTimeout  time.Duration `env:"REDIS_DIAL_TIMEOUT" envDefault:"5s"`
	ReadTimeout  time.Duration `env:"REDIS_READ_TIMEOUT" envDefault:"3s"`
	WriteTimeout time.Duration `env:"REDIS_WRITE_TIMEOUT" envDefault:"3s"`
}

// Session configures the wizard session cookie and retention.
type Session struct {
	CookieName string        `env:"SESSION_COOKIE_NAME" envDefault:"wizard.sid"`
	Secure     bool          `env:"SESSION_COOKIE_SECURE" envDefault:"false"`
	TTL        time.Duration `env:"SESSION_TTL" envDefault:"30m"`
}

// Lookup configures the outbound postcode API.
type Lookup struct {
	Hostname      string        `env:"POSTCODE_API_HOSTNAME" envDefault:"http://localhost:8081/api/postcode-test"`
	Authorization string        `env:"POSTCODE_AUTH"`
	Timeout       time.Duration `env:"POSTCODE_API_TIMEOUT" envDefault:"5s"`

	// BreakerFailures of zero disables the circuit breaker.
	BreakerFailures  int           `env:"POSTCODE_BREAKER_FAILURES" envDefault:"0"`
	BreakerSuccesses int           `env:"POSTCODE_BREAKER_SUCCESSES" envDefault:"1"`
	BreakerCooldown  time.Duration `env:"POSTCODE_BREAKER_COOLDOWN" envDefault:"30s"`
}

// Step configures the demo wizard's address step.
type Step struct {
	Path             string   `env:"ADDRESS_STEP_PATH" envDefault:"/one"`
	Next             string   `env:"ADDRESS_STEP_NEXT" envDefault:"/two"`
	AddressKey       string   `env:"ADDRESS_KEY" envDefault:"address-one"`
	Required         bool     `env:"ADDRESS_REQUIRED" envDefault:"false"`
	AllowedCountries []string `env:"ALLOWED_COUNTRIES" envSeparator:"," envDefault:"England"`
}

// MockAPI configures cmd/mock-postcode-api.
type MockAPI struct {
	Addr string `env:"MOCK_POSTCODE_API_ADDR" envDefault:":8081"`
	Path string `env:"MOCK_POSTCODE_API_PATH" envDefault:"/api/postcode-test"`

	// Authorization, when set, is the only credential the mock accepts.
	Authorization string `env:"POSTCODE_AUTH"`
	Log           Log
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// FromEnv builds a Config from environment variables so main stays lean.
func FromEnv() (Config, error) {
	var cfg Config
	if err := ParseEnv(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

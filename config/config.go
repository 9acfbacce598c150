package config

import (
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

type Config struct {
	App struct {
		Env      string   `env:"APP_ENV" env-default:"development"`
		Port     string   `env:"PORT" env-default:"8080"`
		LogLevel string   `env:"LOG_LEVEL" env-default:"info"`
		GinMode  string   `env:"GIN_MODE" env-default:"debug"`
		Origins  []string `env:"CORS_ORIGINS" env-separator:"," env-default:"http://localhost:5173,http://localhost:3000"`
	}
	Mongo struct {
		URI      string `env:"MONGO_URI" env-required:"true"`
		Database string `env:"MONGO_DB" env-default:"reelbook"`
		Retries  uint64 `env:"MONGO_CONNECT_RETRIES" env-default:"3"`
	}
	JWT struct {
		Secret string        `env:"JWT_SECRET" env-required:"true"`
		TTL    time.Duration `env:"JWT_TTL" env-default:"24h"`
	}
	Redis struct {
		URL string `env:"REDIS_URL"`
	}
	RateLimit struct {
		Requests int           `env:"RATE_LIMIT_REQUESTS" env-default:"120"`
		Window   time.Duration `env:"RATE_LIMIT_WINDOW" env-default:"1m"`
	}
	Cloudinary struct {
		URL    string `env:"CLOUDINARY_URL"`
		Folder string `env:"CLOUDINARY_FOLDER" env-default:"reelbook"`
	}
	Push struct {
		PublicKey  string `env:"VAPID_PUBLIC_KEY"`
		PrivateKey string `env:"VAPID_PRIVATE_KEY"`
		Subscriber string `env:"VAPID_SUBSCRIBER" env-default:"mailto:admin@reelbook.local"`
	}
	Sentry struct {
		DSN string `env:"SENTRY_DSN"`
	}
}

// Load reads the optional .env file and then the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		logrus.Debug("no .env file, using process environment")
	}

	cfg := &Config{}
	if err := cleanenv.ReadEnv(cfg); err != nil {
		help, _ := cleanenv.GetDescription(cfg, nil)
		return nil, errors.Wrapf(err, "read configuration\n%s", help)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.RateLimit.Requests < 1 {
		return errors.Errorf("RATE_LIMIT_REQUESTS must be at least 1, got %d", c.RateLimit.Requests)
	}
	if c.RateLimit.Window <= 0 {
		return errors.Errorf("RATE_LIMIT_WINDOW must be positive, got %s", c.RateLimit.Window)
	}
	if c.JWT.TTL <= 0 {
		return errors.Errorf("JWT_TTL must be positive, got %s", c.JWT.TTL)
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return c.App.Env == "production"
}

package config

import "github.com/caarlos0/env/v6"

type Config struct {
	// Server configuration for the front-end process
	Server struct {
		Port string `env:"PORT" envDefault:"3000"`

		// Origins allowed to call the JSON API
		AllowedOrigins []string `env:"ALLOWED_ORIGINS" envSeparator:"," envDefault:"http://localhost:3000"`
	}

	// Backend is the property/auth service this process is a client of
	Backend struct {
		BaseURL string `env:"BACKEND_BASE_URL" envDefault:"http://localhost:8000"`

		// Request timeout in seconds
		Timeout int `env:"BACKEND_TIMEOUT" envDefault:"15"`
	}

	// Storage holds the durable client-side state (session, favorite marks)
	Storage struct {
		Path string `env:"STORAGE_PATH" envDefault:"data/propertyhub.db"`
	}

	// FavoriteSync controls reconciliation of optimistic favorite toggles
	FavoriteSync struct {
		// Buffered queue capacity for pending toggles
		QueueSize int `env:"FAVORITE_QUEUE_SIZE" envDefault:"64"`

		// Maximum number of retries for a failed toggle
		MaxRetries int `env:"FAVORITE_MAX_RETRIES" envDefault:"3"`

		// Delay between retries in seconds
		RetryDelay int `env:"FAVORITE_RETRY_DELAY" envDefault:"2"`

		// Interval between background re-enqueues of stuck toggles, in seconds
		ResyncInterval int `env:"FAVORITE_RESYNC_INTERVAL" envDefault:"300"`
	}

	// Geocoding enables distance ordering of search results
	Geocoding struct {
		Enabled      bool   `env:"GEOCODING_ENABLED" envDefault:"false"`
		CacheDir     string `env:"GEOCODE_CACHE_DIR"`
		CountryCodes string `env:"GEOCODE_COUNTRY_CODES" envDefault:"us"`
	}

	// Telegram notifications for newly created listings (disabled when unset)
	Telegram struct {
		BotToken string `env:"TELEGRAM_BOT_TOKEN"`
		ChatID   string `env:"TELEGRAM_CHAT_ID"`
	}
}

func LoadConfig() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

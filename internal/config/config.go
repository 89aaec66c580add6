package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

// Config aggregates runtime configuration for the client.
type Config struct {
	AppName         string        `yaml:"app_name" env:"MEKTEB_APP_NAME" env-default:"mekteb"`
	APIURL          string        `yaml:"api_url" env:"MEKTEB_API_URL" env-default:"http://localhost:3001/api"`
	RequestTimeout  time.Duration `yaml:"request_timeout" env:"MEKTEB_REQUEST_TIMEOUT" env-default:"10s"`
	CredentialsFile string        `yaml:"credentials_file" env:"MEKTEB_CREDENTIALS_FILE"`
	LogLevel        string        `yaml:"log_level" env:"MEKTEB_LOG_LEVEL" env-default:"info"`
}

// Load reads configuration from an optional yaml file and the
// environment. A .env file in the working directory is honoured first.
func Load(configPath string) (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if configPath != "" {
		if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
			return nil, err
		}
	} else {
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, err
		}
	}

	if cfg.CredentialsFile == "" {
		cfg.CredentialsFile = defaultCredentialsFile()
	}
	return &cfg, nil
}

func defaultCredentialsFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".mekteb", "credentials.json")
	}
	return filepath.Join(home, ".mekteb", "credentials.json")
}

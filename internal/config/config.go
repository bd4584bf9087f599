package config

import (
	"log"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Port        string `mapstructure:"PORT"`
	DatabaseURL string `mapstructure:"DATABASE_URL"`
	JWTSecret   string `mapstructure:"JWT_SECRET"`
	FrontendURL string `mapstructure:"FRONTEND_URL"`

	// Redis
	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`

	// Judge0
	Judge0APIURL string `mapstructure:"JUDGE0_API_URL"`
	Judge0APIKey string `mapstructure:"JUDGE0_API_KEY"`
	Judge0Host   string `mapstructure:"JUDGE0_HOST"`

	// Finalization scheduler tick, e.g. "1m"
	FinalizeInterval string `mapstructure:"FINALIZE_INTERVAL"`
}

var AppConfig *Config

func LoadConfig() {
	viper.SetConfigFile(".env")
	viper.AutomaticEnv()

	viper.SetDefault("PORT", "8080")
	viper.SetDefault("JUDGE0_API_URL", "https://judge0-ce.p.rapidapi.com")
	viper.SetDefault("JUDGE0_HOST", "judge0-ce.p.rapidapi.com")
	viper.SetDefault("FINALIZE_INTERVAL", "1m")

	if err := viper.ReadInConfig(); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	if err := viper.Unmarshal(&AppConfig); err != nil {
		log.Fatalf("Unable to decode config: %v", err)
	}
}

// FinalizeTick parses FINALIZE_INTERVAL, falling back to one minute.
func (c *Config) FinalizeTick() time.Duration {
	d, err := time.ParseDuration(c.FinalizeInterval)
	if err != nil || d <= 0 {
		return time.Minute
	}
	return d
}

package config

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Port      string `env:"PORT,      default=8080"`
	Env       string `env:"ENV,       default=development"`
	JWTSecret string `env:"JWT_SECRET"`
	LogLevel  string `env:"LOG_LEVEL, default=info"`

	Mongo  MongoConfig
	Redis  RedisConfig
	OpenAI OpenAIConfig
	Tutor  TutorConfig
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=ai_tutor"`
}

type RedisConfig struct {
	Addr string `env:"REDIS_ADDR, default=localhost:6379"`
	DB   int    `env:"REDIS_DB,   default=0"`
}

type OpenAIConfig struct {
	APIKey      string        `env:"OPENAI_API_KEY"`
	BaseURL     string        `env:"OPENAI_BASE_URL,    default=https://api.openai.com/v1"`
	Model       string        `env:"OPENAI_MODEL,       default=gpt-3.5-turbo"`
	MaxTokens   int           `env:"OPENAI_MAX_TOKENS,  default=200"`
	Temperature float64       `env:"OPENAI_TEMPERATURE, default=0.7"`
	Timeout     time.Duration `env:"OPENAI_TIMEOUT,     default=30s"`
}

type TutorConfig struct {
	// ContextTurns is the keep-last-N truncation policy for model context.
	// 0 sends the full transcript.
	ContextTurns int `env:"TUTOR_CONTEXT_TURNS, default=50"`
}

// Load reads configuration from environment variables using go-envconfig.
func Load() *Config {
	var cfg Config
	if err := envconfig.Process(context.Background(), &cfg); err != nil {
		panic(fmt.Sprintf("config: failed to load configuration: %v", err))
	}
	return &cfg
}

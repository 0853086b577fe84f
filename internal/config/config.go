package config

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Port  string `envconfig:"PORT" default:"8080"`
	Debug bool   `envconfig:"DEBUG" default:"false"`

	DatabaseURL string `envconfig:"DATABASE_URL" required:"true"`

	OpenAIAPIKey        string `envconfig:"OPENAI_API_KEY"`
	EmbeddingModel      string `envconfig:"EMBEDDING_MODEL" default:"text-embedding-3-small"`
	EmbeddingDimensions int    `envconfig:"EMBEDDING_DIMENSIONS" default:"1536"`
	LLMModel            string `envconfig:"LLM_MODEL" default:"gpt-4o-mini"`
	LLMBackupModel      string `envconfig:"LLM_BACKUP_MODEL"`

	// Shared service key authenticating pipeline callers.
	APIKey string `envconfig:"API_KEY"`

	// Weighted fusion of primary/secondary profile vectors.
	FusionPrimaryWeight   float64 `envconfig:"FUSION_PRIMARY_WEIGHT" default:"0.7"`
	FusionSecondaryWeight float64 `envconfig:"FUSION_SECONDARY_WEIGHT" default:"0.3"`
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("BRAIN", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}

	return &cfg, nil
}

func (c *Config) HasOpenAI() bool {
	return c.OpenAIAPIKey != ""
}

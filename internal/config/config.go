package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

var ErrMissingRequired = errors.New("missing required configuration")

const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
)

type Config struct {
	DBHost string `envconfig:"DB_HOST" default:"postgres"`
	DBPort int    `envconfig:"DB_PORT" default:"5432"`
	DBUser string `envconfig:"DB_USER" default:"knowbase"`
	DBPass string `envconfig:"DB_PASS" default:"password"`
	DBName string `envconfig:"DB_NAME" default:"knowbase"`

	WeaviateHost   string `envconfig:"WEAVIATE_HOST" default:"localhost:8080"`
	WeaviateScheme string `envconfig:"WEAVIATE_SCHEME" default:"http"`

	NSQLookupd string `envconfig:"NSQ_LOOKUPD" default:"nsqlookupd:4161"`
	NSQDHost   string `envconfig:"NSQD_HOST" default:"nsqd:4150"`
	NSQDHTTP   string `envconfig:"NSQD_HTTP" default:"nsqd:4151"`

	// AI provider selection. Embeddings and generation always come from the
	// same provider so query vectors match stored vectors.
	AIProvider string `envconfig:"AI_PROVIDER" default:"openai"`

	OpenAIAPIKey     string `envconfig:"OPENAI_API_KEY"`
	OpenAIBaseURL    string `envconfig:"OPENAI_BASE_URL"`
	OpenAIEmbedModel string `envconfig:"OPENAI_EMBED_MODEL" default:"text-embedding-ada-002"`
	OpenAIChatModel  string `envconfig:"OPENAI_CHAT_MODEL" default:"gpt-3.5-turbo"`

	GeminiAPIKey     string `envconfig:"GEMINI_API_KEY"`
	GeminiEmbedModel string `envconfig:"GEMINI_EMBED_MODEL" default:"gemini-embedding-001"`
	GeminiChatModel  string `envconfig:"GEMINI_CHAT_MODEL" default:"gemini-1.5-flash"`

	// Ingestion
	ChunkSize            int   `envconfig:"CHUNK_SIZE" default:"1500"`
	ChunkOverlap         int   `envconfig:"CHUNK_OVERLAP" default:"150"`
	EmbedBatchSize       int   `envconfig:"EMBED_BATCH_SIZE" default:"16"`
	IngestionConcurrency int   `envconfig:"INGESTION_CONCURRENCY" default:"4"`
	MaxUploadSizeMB      int64 `envconfig:"MAX_UPLOAD_SIZE_MB" default:"50"`

	// Retrieval & answering
	SimilarityThreshold float32 `envconfig:"SIMILARITY_THRESHOLD" default:"0.85"`
	RetrievalTopK       int     `envconfig:"RETRIEVAL_TOP_K" default:"5"`
	GenTemperature      float32 `envconfig:"GEN_TEMPERATURE" default:"0.1"`
	GenMaxTokens        int     `envconfig:"GEN_MAX_TOKENS" default:"500"`

	// Upstream call budgets (seconds)
	EmbedTimeoutSeconds      int `envconfig:"EMBED_TIMEOUT_SECONDS" default:"60"`
	GenerationTimeoutSeconds int `envconfig:"GENERATION_TIMEOUT_SECONDS" default:"60"`

	// Server
	ServerPort   int    `envconfig:"SERVER_PORT" default:"8081"`
	JWTSecret    string `envconfig:"JWT_SECRET" default:"dev-secret"`
	UploadDir    string `envconfig:"UPLOAD_DIR" default:"./uploads"`
	QueryLogPath string `envconfig:"QUERY_LOG_PATH" default:"data/logs/query.log"`

	MigrationPath string `envconfig:"MIGRATION_PATH" default:"file://migrations"`

	// Resilience
	BootstrapRetryAttempts     int `envconfig:"BOOTSTRAP_RETRY_ATTEMPTS" default:"10"`
	BootstrapRetryDelaySeconds int `envconfig:"BOOTSTRAP_RETRY_DELAY_SECONDS" default:"2"`
}

func Load() (*Config, error) {
	// Env vars may come from the shell instead; load errors are ignored.
	_ = godotenv.Load(".env")

	cwd, _ := os.Getwd()
	_ = godotenv.Load(filepath.Join(cwd, "../.env"))

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.DBHost == "" {
		return fmt.Errorf("%w: DB_HOST", ErrMissingRequired)
	}
	if c.DBUser == "" {
		return fmt.Errorf("%w: DB_USER", ErrMissingRequired)
	}
	if c.DBName == "" {
		return fmt.Errorf("%w: DB_NAME", ErrMissingRequired)
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("%w: JWT_SECRET", ErrMissingRequired)
	}
	if c.AIProvider != ProviderOpenAI && c.AIProvider != ProviderGemini {
		return fmt.Errorf("invalid AI_PROVIDER %q: must be %q or %q", c.AIProvider, ProviderOpenAI, ProviderGemini)
	}
	if c.ChunkSize <= 0 {
		return fmt.Errorf("invalid CHUNK_SIZE %d: must be positive", c.ChunkSize)
	}
	if c.ChunkOverlap < 0 || c.ChunkOverlap >= c.ChunkSize {
		return fmt.Errorf("invalid CHUNK_OVERLAP %d: must be in [0, CHUNK_SIZE)", c.ChunkOverlap)
	}
	if c.SimilarityThreshold < 0 || c.SimilarityThreshold > 1 {
		return fmt.Errorf("invalid SIMILARITY_THRESHOLD %f: must be in [0, 1]", c.SimilarityThreshold)
	}
	return nil
}

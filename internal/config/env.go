package config

import (
	"fmt"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

const (
	BlobBackendGithub = "github"
	BlobBackendS3     = "s3"

	GeneratorOpenAI = "openai"
	GeneratorGemini = "gemini"

	SessionStoreMemory = "memory"
	SessionStoreRedis  = "redis"
)

type Env struct {
	App       AppEnv
	Postgres  PostgresEnv
	Redis     RedisEnv
	Auth      AuthEnv
	Google    GoogleEnv
	Blob      BlobEnv
	Generator GeneratorEnv
	Voice     VoiceEnv
	Retry     RetryEnv
	Session   SessionEnv
}

type AppEnv struct {
	Env             string        `env:"APP_ENV" env-default:"development"`
	Port            string        `env:"APP_PORT" env-default:"3000"`
	ShutdownTimeout time.Duration `env:"APP_SHUTDOWN_TIMEOUT" env-default:"10s"`
	RateLimit       float64       `env:"RATE_LIMIT" env-default:"5"`
	RateBurst       int           `env:"RATE_BURST" env-default:"10"`
}

type PostgresEnv struct {
	Host            string        `env:"DB_HOST" env-default:"localhost"`
	Port            int           `env:"DB_PORT" env-default:"5432"`
	User            string        `env:"DB_USER" env-default:"postgres"`
	Password        string        `env:"DB_PASSWORD"`
	Name            string        `env:"DB_NAME" env-default:"replicaide"`
	SSLMode         string        `env:"DB_SSLMODE" env-default:"disable"`
	MaxOpenConns    int           `env:"DB_MAX_OPEN_CONNS" env-default:"25"`
	MaxIdleConns    int           `env:"DB_MAX_IDLE_CONNS" env-default:"5"`
	ConnMaxLifetime time.Duration `env:"DB_CONN_MAX_LIFETIME" env-default:"30m"`
	AutoMigrate     bool          `env:"DB_AUTO_MIGRATE" env-default:"true"`
}

type RedisEnv struct {
	Address  string `env:"REDIS_ADDRESS" env-default:"localhost:6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB" env-default:"0"`
}

type AuthEnv struct {
	JWTSecret string        `env:"JWT_SECRET" env-required:"true"`
	TokenTTL  time.Duration `env:"JWT_TTL" env-default:"24h"`
}

type GoogleEnv struct {
	ClientID     string `env:"GOOGLE_CLIENT_ID"`
	ClientSecret string `env:"GOOGLE_CLIENT_SECRET"`
	RedirectURL  string `env:"GOOGLE_REDIRECT_URL"`
}

type BlobEnv struct {
	Backend string `env:"BLOB_BACKEND" env-default:"github"`

	GithubOwner  string `env:"GITHUB_OWNER"`
	GithubRepo   string `env:"GITHUB_REPO"`
	GithubBranch string `env:"GITHUB_BRANCH"`
	GithubToken  string `env:"GITHUB_TOKEN"`

	S3Region          string `env:"AWS_REGION"`
	S3Bucket          string `env:"AWS_BUCKET_NAME"`
	S3AccessKeyID     string `env:"AWS_ACCESS_KEY_ID"`
	S3SecretAccessKey string `env:"AWS_SECRET_ACCESS_KEY"`
	S3Endpoint        string `env:"AWS_ENDPOINT"`
}

type GeneratorEnv struct {
	Provider      string `env:"GENERATOR_PROVIDER" env-default:"openai"`
	OpenAIKey     string `env:"OPENAI_API_KEY"`
	OpenAIBaseURL string `env:"OPENAI_BASE_URL"`
	OpenAIModel   string `env:"OPENAI_MODEL"`
	GeminiKey     string `env:"GEMINI_API_KEY"`
	GeminiModel   string `env:"GEMINI_MODEL"`
	WhisperModel  string `env:"TRANSCRIPTION_MODEL"`
}

type VoiceEnv struct {
	ElevenLabsKey  string `env:"ELEVENLABS_API_KEY"`
	TTSModel       string `env:"ELEVENLABS_TTS_MODEL"`
	EnglishVoiceID string `env:"ELEVENLABS_VOICE_EN"`
	SpanishVoiceID string `env:"ELEVENLABS_VOICE_ES"`
	AgentID        string `env:"ELEVENLABS_AGENT_ID"`
	AgentBaseURL   string `env:"ELEVENLABS_AGENT_URL"`
}

type RetryEnv struct {
	MaxRetries  int           `env:"PIPELINE_MAX_RETRIES" env-default:"2"`
	BaseDelay   time.Duration `env:"PIPELINE_RETRY_DELAY" env-default:"500ms"`
	MaxDelay    time.Duration `env:"PIPELINE_RETRY_MAX_DELAY" env-default:"4s"`
	CallTimeout time.Duration `env:"PIPELINE_CALL_TIMEOUT" env-default:"60s"`
}

type SessionEnv struct {
	Store             string        `env:"SESSION_STORE" env-default:"memory"`
	TTL               time.Duration `env:"SESSION_TTL" env-default:"30m"`
	ExtractionTimeout time.Duration `env:"EXTRACTION_TIMEOUT" env-default:"30s"`
}

// LoadEnv reads the process environment into Env and checks the backend
// selectors.
func LoadEnv() (Env, error) {
	var env Env
	if err := cleanenv.ReadEnv(&env); err != nil {
		return Env{}, fmt.Errorf("failed to read environment: %w", err)
	}

	if err := env.validate(); err != nil {
		return Env{}, err
	}

	return env, nil
}

func (e Env) IsProduction() bool {
	return e.App.Env == "production"
}

func (e Env) validate() error {
	switch e.Blob.Backend {
	case BlobBackendGithub:
		if e.Blob.GithubOwner == "" || e.Blob.GithubRepo == "" {
			return fmt.Errorf("GITHUB_OWNER and GITHUB_REPO are required for the github blob backend")
		}
	case BlobBackendS3:
		if e.Blob.S3Bucket == "" {
			return fmt.Errorf("AWS_BUCKET_NAME is required for the s3 blob backend")
		}
	default:
		return fmt.Errorf("unknown BLOB_BACKEND %q", e.Blob.Backend)
	}

	switch e.Generator.Provider {
	case GeneratorOpenAI, GeneratorGemini:
	default:
		return fmt.Errorf("unknown GENERATOR_PROVIDER %q", e.Generator.Provider)
	}

	switch e.Session.Store {
	case SessionStoreMemory, SessionStoreRedis:
	default:
		return fmt.Errorf("unknown SESSION_STORE %q", e.Session.Store)
	}

	return nil
}

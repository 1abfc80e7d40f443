package app

import (
	"time"

	"github.com/zheruizz/another.ai-app/internal/envstruct"
	"github.com/zheruizz/another.ai-app/internal/errors"
)

const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
)

type Config struct {
	// Addr is the address the HTTP server listens on.
	Addr string `env:"SYNTHPANEL_ADDR" envDefault:"localhost:4000"`
	// PprofAddr enables the pprof server when set.
	PprofAddr string `env:"SYNTHPANEL_PPROF_ADDR" envDefault:""`
	// SQLiteURL is the SQLite database file or ":memory:".
	SQLiteURL string `env:"SYNTHPANEL_SQLITE_URL" envDefault:"./synthpanel.sqlite"`
	// DatabaseURL selects PostgreSQL over SQLite when set.
	DatabaseURL string `env:"SYNTHPANEL_DATABASE_URL" envDefault:""`
	// RunTimeout bounds a survey run started over HTTP.
	RunTimeout time.Duration `env:"SYNTHPANEL_RUN_TIMEOUT" envDefault:"10m"`

	Provider            string  `env:"AI_PROVIDER"            envDefault:"openai"`
	Model               string  `env:"MODEL_NAME"             envDefault:"gpt-4o-mini"`
	Temperature         float64 `env:"TEMPERATURE"            envDefault:"0.3"`
	DefaultSampleSize   int     `env:"DEFAULT_SAMPLE_SIZE"    envDefault:"20"`
	MaxSampleSize       int     `env:"MAX_SAMPLE_SIZE"        envDefault:"50"`
	EnableRawOutput     bool    `env:"ENABLE_RAW_OUTPUT"      envDefault:"false"`
	AIRequestsPerSecond float64 `env:"AI_REQUESTS_PER_SECOND" envDefault:"0"`
	OpenAIAPIKey        string  `env:"OPENAI_API_KEY"         envDefault:""`
	OpenAIBaseURL       string  `env:"OPENAI_BASE_URL"        envDefault:""`
	OpenAISecretName    string  `env:"OPENAI_SECRET_NAME"     envDefault:""`
	OpenAISecretRegion  string  `env:"OPENAI_REGION"          envDefault:""`
	GeminiAPIKey        string  `env:"GEMINI_API_KEY"         envDefault:""`
}

// LoadConfig reads the configuration from the environment through lookupEnv.
func LoadConfig(lookupEnv func(string) (string, bool)) (Config, error) {
	var cfg Config
	if err := envstruct.Populate(&cfg, lookupEnv); err != nil {
		return cfg, errors.Wrap(err, "populate config")
	}
	if err := cfg.validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (cfg Config) validate() error {
	var errs []error
	if cfg.Provider != ProviderOpenAI && cfg.Provider != ProviderGemini {
		errs = append(errs, errors.New("AI_PROVIDER must be openai or gemini"))
	}
	if cfg.MaxSampleSize < 1 {
		errs = append(errs, errors.New("MAX_SAMPLE_SIZE must be positive"))
	}
	if cfg.DefaultSampleSize < 1 {
		errs = append(errs, errors.New("DEFAULT_SAMPLE_SIZE must be positive"))
	}
	if cfg.Temperature < 0 || cfg.Temperature > 2 {
		errs = append(errs, errors.New("TEMPERATURE must be between 0 and 2"))
	}
	if cfg.AIRequestsPerSecond < 0 {
		errs = append(errs, errors.New("AI_REQUESTS_PER_SECOND must not be negative"))
	}
	if cfg.RunTimeout <= 0 {
		errs = append(errs, errors.New("SYNTHPANEL_RUN_TIMEOUT must be positive"))
	}
	return errors.Join(errs...)
}

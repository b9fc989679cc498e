package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// LoggingConfig configures the zap logger.
type LoggingConfig struct {
	Env   string `yaml:"env"`
	Level string `yaml:"level"`
}

// HTTPConfig configures the HTTP server.
type HTTPConfig struct {
	Port             int `yaml:"port"`
	ReadTimeoutSecs  int `yaml:"read_timeout_secs"`
	WriteTimeoutSecs int `yaml:"write_timeout_secs"`
	ShutdownSecs     int `yaml:"shutdown_timeout_secs"`
}

// TFIDFConfig configures the sparse encoder.
type TFIDFConfig struct {
	NgramMax  int  `yaml:"ngram_max"`
	Stopwords bool `yaml:"stopwords"`
}

// OpenAIEncoderConfig holds configuration for the OpenAI-compatible encoder.
type OpenAIEncoderConfig struct {
	BaseURL           string  `yaml:"base_url"`
	APIKeyEnv         string  `yaml:"api_key_env"`
	Model             string  `yaml:"model"`
	Dimensions        int     `yaml:"dimensions"`
	TimeoutSecs       int     `yaml:"timeout_secs"`
	BatchSize         int     `yaml:"batch_size"`
	Concurrency       int     `yaml:"concurrency"`
	RequestsPerSecond float64 `yaml:"requests_per_second"`
}

// RedisConfig contains connection details for the Redis/Valkey cache.
type RedisConfig struct {
	Addrs    []string `yaml:"addrs"`
	Username string   `yaml:"username"`
	Password string   `yaml:"password"`
	DB       int      `yaml:"db"`
	TTLSecs  int      `yaml:"ttl_secs"`
}

// MemoryCacheConfig configures the in-process cache.
type MemoryCacheConfig struct {
	TTLSecs int `yaml:"ttl_secs"`
}

// CacheConfig selects the embedding cache backend: none, memory or redis.
type CacheConfig struct {
	Type   string            `yaml:"type"`
	Memory MemoryCacheConfig `yaml:"memory"`
	Redis  RedisConfig       `yaml:"redis"`
}

// EncoderConfig selects and configures the text encoder implementation.
type EncoderConfig struct {
	Type   string              `yaml:"type"`
	TFIDF  TFIDFConfig         `yaml:"tfidf"`
	OpenAI OpenAIEncoderConfig `yaml:"openai"`
	Cache  CacheConfig         `yaml:"cache"`
}

// CSVConfig points at a jobs CSV file.
type CSVConfig struct {
	Path string `yaml:"path"`
}

// PostgresConfig configures the jobs database.
type PostgresConfig struct {
	URLEnv string `yaml:"url_env"`
	Query  string `yaml:"query"`
}

// CorpusConfig selects where job records come from: csv or postgres.
type CorpusConfig struct {
	Source   string         `yaml:"source"`
	CSV      CSVConfig      `yaml:"csv"`
	Postgres PostgresConfig `yaml:"postgres"`
}

// IndexConfig configures index maintenance.
type IndexConfig struct {
	// RefreshIntervalSecs rebuilds the index periodically; 0 disables it.
	RefreshIntervalSecs int `yaml:"refresh_interval_secs"`
}

// RecommendConfig holds query defaults.
type RecommendConfig struct {
	MaxResults int `yaml:"max_results"`
	// MinScore overrides the encoder's default threshold when set.
	MinScore *float64 `yaml:"min_score,omitempty"`
}

// DisplayConfig configures how job texts are shortened for display.
type DisplayConfig struct {
	MaxSentences int `yaml:"max_sentences"`
}

// AppConfig is the root application configuration structure.
type AppConfig struct {
	Logging   LoggingConfig   `yaml:"logging"`
	HTTP      HTTPConfig      `yaml:"http"`
	Encoder   EncoderConfig   `yaml:"encoder"`
	Corpus    CorpusConfig    `yaml:"corpus"`
	Index     IndexConfig     `yaml:"index"`
	Recommend RecommendConfig `yaml:"recommend"`
	Display   DisplayConfig   `yaml:"display"`
}

// Load reads a config from a specified path. If the file does not exist, returns defaults.
// ${VAR} and ${VAR:-default} are substituted from the environment before parsing.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Default(), nil
		}
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	data = expandEnvVars(data)

	var cfg AppConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

// LoadDefault tries ./config.yaml first, then ~/.config/jobrec/config.yaml.
// If neither exists, it writes defaults to ~/.config/jobrec/config.yaml and returns them.
func LoadDefault() (*AppConfig, string, error) {
	cwdPath := "config.yaml"
	if _, err := os.Stat(cwdPath); err == nil {
		cfg, err := Load(cwdPath)
		return cfg, cwdPath, err
	}
	userPath, err := defaultUserConfigPath()
	if err != nil {
		return nil, "", err
	}
	if _, err := os.Stat(userPath); err == nil {
		cfg, err := Load(userPath)
		return cfg, userPath, err
	}
	cfg := Default()
	if err := Save(userPath, cfg); err != nil {
		return nil, "", err
	}
	return cfg, userPath, nil
}

// Save writes the config to the given path, creating directories as needed.
func Save(path string, cfg *AppConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func defaultUserConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "jobrec", "config.yaml"), nil
}

// Default returns the configuration used when no file exists.
func Default() *AppConfig {
	cfg := &AppConfig{
		Logging: LoggingConfig{Env: "local", Level: "info"},
		HTTP:    HTTPConfig{Port: 5000},
		Encoder: EncoderConfig{Type: "tfidf", TFIDF: TFIDFConfig{NgramMax: 2}, Cache: CacheConfig{Type: "none"}},
		Corpus:  CorpusConfig{Source: "csv", CSV: CSVConfig{Path: "data/jobs.csv"}},
	}
	cfg.ApplyDefaults()
	return cfg
}

// ApplyDefaults fills empty fields with default values.
func (c *AppConfig) ApplyDefaults() {
	if c.Logging.Env == "" {
		c.Logging.Env = "local"
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.HTTP.Port == 0 {
		c.HTTP.Port = 5000
	}
	if c.HTTP.ReadTimeoutSecs <= 0 {
		c.HTTP.ReadTimeoutSecs = 10
	}
	if c.HTTP.WriteTimeoutSecs <= 0 {
		c.HTTP.WriteTimeoutSecs = 30
	}
	if c.HTTP.ShutdownSecs <= 0 {
		c.HTTP.ShutdownSecs = 10
	}
	if c.Encoder.Type == "" {
		c.Encoder.Type = "tfidf"
	}
	if c.Encoder.TFIDF.NgramMax == 0 {
		c.Encoder.TFIDF.NgramMax = 2
	}
	if c.Encoder.Type == "openai" {
		o := &c.Encoder.OpenAI
		if o.BaseURL == "" {
			o.BaseURL = "https://api.openai.com/v1"
		}
		if o.APIKeyEnv == "" {
			o.APIKeyEnv = "OPENAI_API_KEY"
		}
		if o.Model == "" {
			o.Model = "text-embedding-3-small"
		}
		if o.TimeoutSecs == 0 {
			o.TimeoutSecs = 30
		}
		if o.BatchSize == 0 {
			o.BatchSize = 32
		}
		if o.Concurrency == 0 {
			o.Concurrency = 2
		}
	}
	if c.Encoder.Cache.Type == "" {
		c.Encoder.Cache.Type = "none"
	}
	if c.Encoder.Cache.Type == "memory" && c.Encoder.Cache.Memory.TTLSecs == 0 {
		c.Encoder.Cache.Memory.TTLSecs = 3600
	}
	if c.Corpus.Source == "" {
		c.Corpus.Source = "csv"
	}
	if c.Corpus.Source == "csv" && c.Corpus.CSV.Path == "" {
		c.Corpus.CSV.Path = "data/jobs.csv"
	}
	if c.Recommend.MaxResults == 0 {
		c.Recommend.MaxResults = 5
	}
	if c.Display.MaxSentences == 0 {
		c.Display.MaxSentences = 2
	}
}

// Validate checks the configuration for correctness.
func (c *AppConfig) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	switch c.Encoder.Type {
	case "tfidf":
		if c.Encoder.TFIDF.NgramMax < 1 {
			return fmt.Errorf("encoder.tfidf.ngram_max must be positive, got %d", c.Encoder.TFIDF.NgramMax)
		}
	case "openai":
		if c.Encoder.OpenAI.Dimensions < 0 {
			return fmt.Errorf("encoder.openai.dimensions must not be negative, got %d", c.Encoder.OpenAI.Dimensions)
		}
	default:
		return fmt.Errorf("encoder.type must be \"tfidf\" or \"openai\", got %q", c.Encoder.Type)
	}
	switch c.Encoder.Cache.Type {
	case "none":
	case "memory":
		if c.Encoder.Cache.Memory.TTLSecs <= 0 {
			return fmt.Errorf("encoder.cache.memory.ttl_secs must be positive, got %d", c.Encoder.Cache.Memory.TTLSecs)
		}
	case "redis":
		if len(c.Encoder.Cache.Redis.Addrs) == 0 {
			return fmt.Errorf("encoder.cache.redis.addrs is required")
		}
	default:
		return fmt.Errorf("encoder.cache.type must be \"none\", \"memory\" or \"redis\", got %q", c.Encoder.Cache.Type)
	}
	switch c.Corpus.Source {
	case "csv":
		if c.Corpus.CSV.Path == "" {
			return fmt.Errorf("corpus.csv.path is required")
		}
	case "postgres":
	default:
		return fmt.Errorf("corpus.source must be \"csv\" or \"postgres\", got %q", c.Corpus.Source)
	}
	if c.Index.RefreshIntervalSecs < 0 {
		return fmt.Errorf("index.refresh_interval_secs must not be negative, got %d", c.Index.RefreshIntervalSecs)
	}
	if c.Recommend.MaxResults <= 0 {
		return fmt.Errorf("recommend.max_results must be positive, got %d", c.Recommend.MaxResults)
	}
	if m := c.Recommend.MinScore; m != nil && (*m < 0 || *m > 1) {
		return fmt.Errorf("recommend.min_score must be between 0 and 1, got %v", *m)
	}
	return nil
}

var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1])
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds the medsearch configuration.
type Config struct {
	HTTP       HTTPConfig       `yaml:"http"`
	Logging    LoggingConfig    `yaml:"logging"`
	Artifacts  ArtifactsConfig  `yaml:"artifacts"`
	Index      IndexConfig      `yaml:"index"`
	Embedding  EmbeddingConfig  `yaml:"embedding"`
	Cache      CacheConfig      `yaml:"cache"`
	Reranker   RerankerConfig   `yaml:"reranker"`
	Generation GenerationConfig `yaml:"generation"`
	Search     SearchConfig     `yaml:"search"`
	Tracing    TracingConfig    `yaml:"tracing"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error (default: determined by env)
	Format string `yaml:"format"` // json, console (default: determined by env)
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// ArtifactsConfig points at the offline collection.
type ArtifactsConfig struct {
	DocsPath       string `yaml:"docs_path"`
	EmbeddingsPath string `yaml:"embeddings_path"`
}

// Index drivers.
const (
	IndexDriverFlat   = "flat"
	IndexDriverQdrant = "qdrant"
)

// IndexConfig selects the coarse-retrieval backend.
type IndexConfig struct {
	Driver string       `yaml:"driver"` // flat (default), qdrant
	Qdrant QdrantConfig `yaml:"qdrant"`
}

// QdrantConfig holds Qdrant connection settings.
type QdrantConfig struct {
	Addr       string `yaml:"addr"`
	APIKey     string `yaml:"api_key"`
	UseTLS     bool   `yaml:"use_tls"`
	Collection string `yaml:"collection"`
}

// EmbeddingConfig holds query embedding provider settings.
type EmbeddingConfig struct {
	Provider         string `yaml:"provider"`
	BaseURL          string `yaml:"base_url"`
	APIKey           string `yaml:"api_key"`
	Model            string `yaml:"model"`
	Dimensions       int    `yaml:"dimensions"`
	QueryInstruction string `yaml:"query_instruction"`
	TimeoutSec       int    `yaml:"timeout_sec"`
}

// Cache drivers.
const (
	CacheDriverNone  = "none"
	CacheDriverRedis = "redis"
	CacheDriverBolt  = "bolt"
)

// CacheConfig holds the query embedding cache backend.
type CacheConfig struct {
	Driver           string   `yaml:"driver"` // none (default), redis, bolt
	Addrs            []string `yaml:"addrs"`
	Password         string   `yaml:"password"`
	Path             string   `yaml:"path"`
	TTLSec           int      `yaml:"ttl_sec"` // 0 = no expiry
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// RerankerConfig holds the cross-encoder endpoint. An empty base_url disables reranking.
type RerankerConfig struct {
	BaseURL    string `yaml:"base_url"`
	APIKey     string `yaml:"api_key"`
	Model      string `yaml:"model"`
	Format     string `yaml:"format"` // tei (default), cohere
	TimeoutSec int    `yaml:"timeout_sec"`
}

// GenerationConfig holds the grounded-answer backend. An empty api_key or model
// leaves generation unconfigured; queries still succeed with fallback text.
type GenerationConfig struct {
	BaseURL            string  `yaml:"base_url"`
	APIKey             string  `yaml:"api_key"`
	Model              string  `yaml:"model"`
	Language           string  `yaml:"language"`
	AnswerTimeoutSec   int     `yaml:"answer_timeout_sec"`
	SummaryTimeoutSec  int     `yaml:"summary_timeout_sec"`
	SimplifyTimeoutSec int     `yaml:"simplify_timeout_sec"`
	Temperature        float32 `yaml:"temperature"`
	TopP               float32 `yaml:"top_p"`
	TopK               int     `yaml:"top_k"`
	MaxTokens          int     `yaml:"max_tokens"`
	MaxDocs            int     `yaml:"max_docs"`
	SummaryDocs        int     `yaml:"summary_docs"`
}

// Enabled reports whether a backend is configured.
func (g GenerationConfig) Enabled() bool { return g.APIKey != "" && g.Model != "" }

// SearchConfig holds request defaults.
type SearchConfig struct {
	DefaultTopK  int   `yaml:"default_top_k"`
	UseReranking *bool `yaml:"use_reranking"`
}

// TracingConfig holds OpenTelemetry export settings. An empty endpoint disables export.
type TracingConfig struct {
	OTLPEndpoint string  `yaml:"otlp_endpoint"`
	Insecure     bool    `yaml:"insecure"`
	SampleRate   float64 `yaml:"sample_rate"`
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
// A .env file in the working directory is loaded first; existing variables win.
func Load(env string) (Config, error) {
	if err := LoadDotEnv(".env"); err != nil {
		return Config{}, err
	}
	return LoadFile(findConfigPath(env))
}

// LoadFile reads, expands, defaults and validates one YAML file.
func LoadFile(configPath string) (Config, error) {
	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	// Substitute env variables of the form ${VAR}
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// LoadDotEnv loads KEY=VALUE pairs into the process environment. Missing files are ignored.
func LoadDotEnv(paths ...string) error {
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("load %s: %w", p, err)
		}
	}
	return nil
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	// Must outlive the 90s answer timeout.
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 120
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Artifacts.DocsPath == "" {
		c.Artifacts.DocsPath = "data/processed/docs.csv"
	}
	if c.Artifacts.EmbeddingsPath == "" {
		c.Artifacts.EmbeddingsPath = "data/processed/embeddings.npy"
	}
	if c.Index.Driver == "" {
		c.Index.Driver = IndexDriverFlat
	}
	if c.Index.Qdrant.Addr == "" {
		c.Index.Qdrant.Addr = "localhost:6334"
	}
	if c.Embedding.Provider == "" {
		c.Embedding.Provider = "openai"
	}
	if c.Embedding.TimeoutSec <= 0 {
		c.Embedding.TimeoutSec = 30
	}
	if c.Cache.Driver == "" {
		c.Cache.Driver = CacheDriverNone
	}
	if c.Cache.Path == "" {
		c.Cache.Path = "data/cache/embeddings.db"
	}
	if c.Cache.ReadinessTimeout <= 0 {
		c.Cache.ReadinessTimeout = 10
	}
	if c.Reranker.TimeoutSec <= 0 {
		c.Reranker.TimeoutSec = 30
	}
	c.Generation.applyDefaults()
	if c.Search.DefaultTopK <= 0 {
		c.Search.DefaultTopK = 10
	}
	if c.Search.UseReranking == nil {
		t := true
		c.Search.UseReranking = &t
	}
	if c.Tracing.SampleRate <= 0 {
		c.Tracing.SampleRate = 1
	}
}

func (g *GenerationConfig) applyDefaults() {
	if g.Language == "" {
		g.Language = "French"
	}
	if g.AnswerTimeoutSec <= 0 {
		g.AnswerTimeoutSec = 90
	}
	if g.SummaryTimeoutSec <= 0 {
		g.SummaryTimeoutSec = 30
	}
	if g.SimplifyTimeoutSec <= 0 {
		g.SimplifyTimeoutSec = 60
	}
	if g.Temperature <= 0 {
		g.Temperature = 0.7
	}
	if g.TopP <= 0 {
		g.TopP = 0.9
	}
	if g.TopK <= 0 {
		g.TopK = 40
	}
	if g.MaxTokens <= 0 {
		g.MaxTokens = 2048
	}
	if g.MaxDocs <= 0 {
		g.MaxDocs = 3
	}
	if g.SummaryDocs <= 0 {
		g.SummaryDocs = 5
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	switch c.Logging.Format {
	case "", "json", "console":
	default:
		return fmt.Errorf("logging.format must be \"json\" or \"console\", got %q", c.Logging.Format)
	}
	if c.Embedding.Model == "" {
		return fmt.Errorf("embedding.model is required")
	}
	if c.Embedding.Dimensions < 0 {
		return fmt.Errorf("embedding.dimensions must not be negative, got %d", c.Embedding.Dimensions)
	}

	switch c.Index.Driver {
	case IndexDriverFlat:
	case IndexDriverQdrant:
		if c.Index.Qdrant.Collection == "" {
			return fmt.Errorf("index.qdrant.collection is required for the qdrant driver")
		}
	default:
		return fmt.Errorf("index.driver must be %q or %q, got %q", IndexDriverFlat, IndexDriverQdrant, c.Index.Driver)
	}

	switch c.Cache.Driver {
	case CacheDriverNone, CacheDriverBolt:
	case CacheDriverRedis:
		if len(c.Cache.Addrs) == 0 {
			return fmt.Errorf("cache.addrs is required for the redis driver")
		}
	default:
		return fmt.Errorf("cache.driver must be one of none, redis, bolt, got %q", c.Cache.Driver)
	}

	switch c.Reranker.Format {
	case "", "tei", "cohere":
	default:
		return fmt.Errorf("reranker.format must be \"tei\" or \"cohere\", got %q", c.Reranker.Format)
	}

	if c.Search.DefaultTopK > 100 {
		return fmt.Errorf("search.default_top_k must be at most 100, got %d", c.Search.DefaultTopK)
	}
	if c.Tracing.SampleRate > 1 {
		return fmt.Errorf("tracing.sample_rate must be in (0, 1], got %v", c.Tracing.SampleRate)
	}
	return nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}

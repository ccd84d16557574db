package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func validConfig() Config {
	cfg := Config{
		HTTP:      HTTPConfig{Port: 8000},
		Embedding: EmbeddingConfig{Model: "sentence-transformers/all-MiniLM-L6-v2", Dimensions: 384},
	}
	cfg.ApplyDefaults()
	return cfg
}

func TestApplyDefaults(t *testing.T) {
	cfg := validConfig()

	if cfg.Index.Driver != IndexDriverFlat || cfg.Cache.Driver != CacheDriverNone {
		t.Errorf("drivers = %q/%q", cfg.Index.Driver, cfg.Cache.Driver)
	}
	if cfg.Search.DefaultTopK != 10 || cfg.Search.UseReranking == nil || !*cfg.Search.UseReranking {
		t.Errorf("search defaults = %+v", cfg.Search)
	}
	g := cfg.Generation
	if g.Temperature != 0.7 || g.TopP != 0.9 || g.TopK != 40 || g.MaxTokens != 2048 {
		t.Errorf("decoding defaults = %+v", g)
	}
	if g.AnswerTimeoutSec != 90 || g.SummaryTimeoutSec != 30 || g.Language != "French" {
		t.Errorf("generation defaults = %+v", g)
	}
	if cfg.HTTP.WriteTimeoutSec <= g.AnswerTimeoutSec {
		t.Error("write timeout must outlive the answer timeout")
	}
}

func TestApplyDefaults_KeepsExplicitFalse(t *testing.T) {
	f := false
	cfg := Config{Search: SearchConfig{UseReranking: &f}}
	cfg.ApplyDefaults()
	if *cfg.Search.UseReranking {
		t.Error("explicit use_reranking=false was overwritten")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"bad port", func(c *Config) { c.HTTP.Port = 0 }, "http.port"},
		{"bad log format", func(c *Config) { c.Logging.Format = "xml" }, "logging.format"},
		{"no model", func(c *Config) { c.Embedding.Model = "" }, "embedding.model"},
		{"unknown index", func(c *Config) { c.Index.Driver = "faiss" }, "index.driver"},
		{"qdrant without collection", func(c *Config) { c.Index.Driver = IndexDriverQdrant }, "index.qdrant.collection"},
		{"redis without addrs", func(c *Config) { c.Cache.Driver = CacheDriverRedis }, "cache.addrs"},
		{"unknown cache", func(c *Config) { c.Cache.Driver = "memcached" }, "cache.driver"},
		{"bad rerank format", func(c *Config) { c.Reranker.Format = "jina" }, "reranker.format"},
		{"top_k too large", func(c *Config) { c.Search.DefaultTopK = 500 }, "default_top_k"},
		{"sample rate", func(c *Config) { c.Tracing.SampleRate = 2 }, "sample_rate"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("MEDSEARCH_TEST_KEY", "secret")
	got := string(expandEnvVars([]byte("a: ${MEDSEARCH_TEST_KEY}\nb: ${MEDSEARCH_TEST_UNSET:-fallback}\nc: ${MEDSEARCH_TEST_UNSET}")))
	want := "a: secret\nb: fallback\nc: "
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestLoadFile(t *testing.T) {
	t.Setenv("MEDSEARCH_TEST_GEN_KEY", "g-key")
	path := filepath.Join(t.TempDir(), "test.yaml")
	yml := `
http:
  port: 9000
embedding:
  model: all-minilm
  dimensions: 384
cache:
  driver: bolt
  path: /tmp/x.db
generation:
  api_key: ${MEDSEARCH_TEST_GEN_KEY}
  model: gemini-2.0-flash
search:
  use_reranking: false
`
	if err := os.WriteFile(path, []byte(yml), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if cfg.HTTP.Port != 9000 || cfg.Cache.Driver != CacheDriverBolt || cfg.Cache.Path != "/tmp/x.db" {
		t.Errorf("unexpected config: %+v", cfg)
	}
	if !cfg.Generation.Enabled() || cfg.Generation.APIKey != "g-key" {
		t.Errorf("generation = %+v", cfg.Generation)
	}
	if *cfg.Search.UseReranking {
		t.Error("use_reranking should be false")
	}
}

func TestLoadFile_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("http:\n  port: 0\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFile(path); err == nil || !strings.Contains(err.Error(), "invalid config") {
		t.Errorf("expected invalid config error, got %v", err)
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	if err := os.WriteFile(path, []byte("MEDSEARCH_DOTENV_TEST=from-file\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("MEDSEARCH_DOTENV_TEST", "")
	_ = os.Unsetenv("MEDSEARCH_DOTENV_TEST") // t.Setenv restores it on cleanup

	if err := LoadDotEnv(filepath.Join(dir, "missing.env"), path); err != nil {
		t.Fatalf("LoadDotEnv: %v", err)
	}
	if got := os.Getenv("MEDSEARCH_DOTENV_TEST"); got != "from-file" {
		t.Errorf("got %q", got)
	}
}

package main

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/medsearch/internal/config"
	"github.com/kailas-cloud/medsearch/internal/db"
	dbBolt "github.com/kailas-cloud/medsearch/internal/db/bolt"
	dbRedis "github.com/kailas-cloud/medsearch/internal/db/redis"
	"github.com/kailas-cloud/medsearch/internal/domain"
	"github.com/kailas-cloud/medsearch/internal/metrics"
	"github.com/kailas-cloud/medsearch/internal/observability"
	"github.com/kailas-cloud/medsearch/internal/repository/docstore"
	"github.com/kailas-cloud/medsearch/internal/repository/embcache"
	"github.com/kailas-cloud/medsearch/internal/repository/index"
	openaiTransport "github.com/kailas-cloud/medsearch/internal/transport/openai"
	"github.com/kailas-cloud/medsearch/internal/transport/rerank"
	embeddinguc "github.com/kailas-cloud/medsearch/internal/usecase/embedding"
	"github.com/kailas-cloud/medsearch/internal/usecase/engine"
	"github.com/kailas-cloud/medsearch/internal/usecase/generation"
	"github.com/kailas-cloud/medsearch/internal/usecase/search"
	"github.com/kailas-cloud/medsearch/internal/version"
)

// app is the composition root shared by every command.
type app struct {
	env     string
	cfg     config.Config
	logger  *zap.Logger
	closers []func()
}

func (a *app) onClose(f func()) { a.closers = append(a.closers, f) }

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
	if a.logger != nil {
		_ = a.logger.Sync()
	}
}

// initTracing installs the global tracer provider when an OTLP endpoint is configured.
func (a *app) initTracing(ctx context.Context) error {
	tp, err := observability.InitTracing(ctx, observability.TracingConfig{
		ServiceName:    "medsearch",
		ServiceVersion: version.Version,
		Environment:    a.env,
		OTLPEndpoint:   a.cfg.Tracing.OTLPEndpoint,
		Insecure:       a.cfg.Tracing.Insecure,
		SampleRate:     a.cfg.Tracing.SampleRate,
	})
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}
	a.onClose(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(ctx); err != nil {
			a.logger.Warn("tracer shutdown", zap.Error(err))
		}
	})
	return nil
}

// buildCache opens the query-embedding cache store. The cache is optional: when it is
// disabled or cannot be opened, nil is returned and queries embed without it.
func (a *app) buildCache(ctx context.Context) db.Store {
	c := a.cfg.Cache
	var (
		store db.Store
		err   error
	)
	switch c.Driver {
	case config.CacheDriverRedis:
		store, err = dbRedis.NewStore(dbRedis.Config{Addrs: c.Addrs, Password: c.Password})
	case config.CacheDriverBolt:
		store, err = dbBolt.Open(c.Path)
	default:
		return nil
	}
	if err != nil {
		a.logger.Warn("Embedding cache unavailable, continuing without it",
			zap.String("driver", c.Driver), zap.Error(err))
		return nil
	}

	if err := store.WaitForReady(ctx, time.Duration(c.ReadinessTimeout)*time.Second); err != nil {
		store.Close()
		a.logger.Warn("Embedding cache not ready, continuing without it",
			zap.String("driver", c.Driver), zap.Error(err))
		return nil
	}
	a.onClose(store.Close)
	a.logger.Info("Connected to embedding cache", zap.String("driver", c.Driver))
	return store
}

// buildEncoder assembles the decorator chain:
// OpenAI -> Cached -> Instrumented -> Instruction -> Encoder (normalize).
func (a *app) buildEncoder(store db.Store) *embeddinguc.Encoder {
	e := a.cfg.Embedding
	base := openaiTransport.NewEmbedder(&openaiTransport.Config{
		APIKey:     e.APIKey,
		BaseURL:    e.BaseURL,
		Model:      e.Model,
		Dimensions: e.Dimensions,
		Provider:   e.Provider,
		Timeout:    time.Duration(e.TimeoutSec) * time.Second,
		Logger:     a.logger,
	})

	var embedder domain.Embedder = base
	if store != nil {
		embedder = embcache.New(base, store, embcache.Options{
			Model: e.Model,
			TTL:   time.Duration(a.cfg.Cache.TTLSec) * time.Second,
		}, metrics.EmbeddingCacheTotal, a.logger)
	}

	embedder = embeddinguc.NewInstrumentedEmbedder(embedder, e.Provider, e.Model, a.logger)

	if e.QueryInstruction != "" {
		embedder = domain.NewInstructionEmbedder(embedder, e.QueryInstruction)
	}

	return embeddinguc.NewEncoder(embedder, e.Dimensions)
}

// buildReranker returns nil (not a typed nil pointer) when no endpoint is configured.
func (a *app) buildReranker() (search.Reranker, error) {
	r := a.cfg.Reranker
	if r.BaseURL == "" {
		a.logger.Info("Reranker disabled")
		return nil, nil
	}
	c, err := rerank.New(rerank.Config{
		BaseURL: r.BaseURL,
		APIKey:  r.APIKey,
		Model:   r.Model,
		Format:  r.Format,
		Timeout: time.Duration(r.TimeoutSec) * time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("build reranker: %w", err)
	}
	return c, nil
}

// buildGenerator always returns a usable service; without credentials it degrades
// every call to its fallback text.
func (a *app) buildGenerator() (*generation.Service, error) {
	g := a.cfg.Generation
	cfg := generation.DefaultConfig()
	cfg.Model = g.Model
	cfg.Language = g.Language
	cfg.AnswerTimeout = time.Duration(g.AnswerTimeoutSec) * time.Second
	cfg.SummaryTimeout = time.Duration(g.SummaryTimeoutSec) * time.Second
	cfg.SimplifyTimeout = time.Duration(g.SimplifyTimeoutSec) * time.Second
	cfg.Answer = domain.CompletionOptions{
		Temperature: g.Temperature,
		TopP:        g.TopP,
		TopK:        g.TopK,
		MaxTokens:   g.MaxTokens,
	}

	if !g.Enabled() {
		a.logger.Warn("Generation backend not configured; answers will use fallback text")
		return generation.New(nil, cfg, a.logger), nil
	}
	backend, err := openaiTransport.NewChatBackend(&openaiTransport.Config{
		APIKey:   g.APIKey,
		BaseURL:  g.BaseURL,
		Model:    g.Model,
		Provider: "generation",
		Logger:   a.logger,
	})
	if err != nil {
		return nil, fmt.Errorf("build generation backend: %w", err)
	}
	return generation.New(backend, cfg, a.logger), nil
}

// openArtifacts loads the document store and the configured index.
func (a *app) openArtifacts(ctx context.Context) (*docstore.Store, engine.Index, error) {
	docs, err := docstore.LoadCSV(a.cfg.Artifacts.DocsPath)
	if err != nil {
		return nil, nil, fmt.Errorf("load documents: %w", err)
	}

	switch a.cfg.Index.Driver {
	case config.IndexDriverQdrant:
		q := a.cfg.Index.Qdrant
		idx, err := index.NewQdrant(ctx, index.QdrantConfig{
			Addr:       q.Addr,
			APIKey:     q.APIKey,
			UseTLS:     q.UseTLS,
			Collection: q.Collection,
			Dim:        a.cfg.Embedding.Dimensions,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("open qdrant index: %w", err)
		}
		a.onClose(func() { _ = idx.Close() })
		return docs, idx, nil
	default:
		m, err := index.LoadNPY(a.cfg.Artifacts.EmbeddingsPath)
		if err != nil {
			return nil, nil, fmt.Errorf("load embeddings: %w", err)
		}
		idx, err := index.NewFlat(m)
		if err != nil {
			return nil, nil, err
		}
		return docs, idx, nil
	}
}

// engineLoader builds the full pipeline. rr may be nil.
func (a *app) engineLoader(enc search.Encoder, rr search.Reranker) engine.LoadFunc {
	return func(ctx context.Context) (*engine.Engine, error) {
		docs, idx, err := a.openArtifacts(ctx)
		if err != nil {
			return nil, err
		}
		var opts []search.Option
		if rr != nil {
			opts = append(opts, search.WithReranker(rr))
		}
		return engine.Build(docs, idx, enc, a.cfg.Embedding.Dimensions, opts...)
	}
}

// loadEngine wires the encoder and reranker and loads the engine synchronously.
// Used by the one-shot commands.
func (a *app) loadEngine(ctx context.Context) (*engine.Holder, error) {
	metrics.Register()
	store := a.buildCache(ctx)
	rr, err := a.buildReranker()
	if err != nil {
		return nil, err
	}
	holder := engine.NewHolder()
	if err := holder.Load(ctx, a.engineLoader(a.buildEncoder(store), rr), a.logger); err != nil {
		return nil, err
	}
	return holder, nil
}

package cli

import (
	"fmt"
	"net/http"

	"github.com/autumnsgrove/cdnup/internal/analyzer"
	"github.com/autumnsgrove/cdnup/internal/cache"
	"github.com/autumnsgrove/cdnup/internal/config"
	"github.com/autumnsgrove/cdnup/internal/normalizer"
	"github.com/autumnsgrove/cdnup/internal/port"
	"github.com/autumnsgrove/cdnup/internal/retry"
	"github.com/autumnsgrove/cdnup/internal/storage"
	"github.com/autumnsgrove/cdnup/internal/usecase/document"
	"github.com/autumnsgrove/cdnup/internal/usecase/upload"
)

// app wires configuration into the adapters and usecases each command needs.
type app struct {
	cfg      *config.Settings
	strg     port.Storage
	cache    port.AnalysisCache
	uploader port.BatchUploader
	rewriter port.DocumentRewriter
}

func newApp() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	strg, err := storage.NewR2Storage(cfg.Endpoint(), cfg.R2AccessKeyID, cfg.R2SecretAccessKey, cfg.R2Bucket)
	if err != nil {
		return nil, fmt.Errorf("initialising storage: %w", err)
	}

	a := &app{cfg: cfg, strg: strg}
	a.cache = newAnalysisCache(cfg)

	retryCfg := retry.DefaultConfig()
	retryCfg.MaxAttempts = cfg.MaxAttempts

	a.uploader = upload.NewBatchUploader(strg, newNormalizer(), newAnalyzer(cfg), a.cache, upload.Config{
		CustomDomain: cfg.CustomDomain,
		Retry:        retryCfg,
		CallTimeout:  cfg.RequestTimeout,
	})
	a.rewriter = document.NewDocumentRewriter(a.uploader, cfg.CustomDomain)
	return a, nil
}

func (a *app) Close() error {
	return a.cache.Close()
}

func newNormalizer() port.Normalizer {
	return normalizer.New(normalizer.NewWebPEncoder(), normalizer.NewFFmpegConverter())
}

// newAnalysisCache prefers the shared Redis cache; without one it falls back
// to the local cache file, and to no caching at all when that file cannot be
// opened.
func newAnalysisCache(cfg *config.Settings) port.AnalysisCache {
	if cfg.RedisAddr != "" {
		return cache.NewRedisCache(cfg.RedisAddr, cfg.RedisPassword)
	}
	fc, err := cache.NewFileCache(cfg.CacheFile)
	if err != nil {
		fmt.Printf("Warning: analysis cache unavailable: %v\n", err)
		return cache.NewNoop()
	}
	return fc
}

// newAnalyzer picks the configured provider; nil means analysis degrades to
// no-metadata uploads.
func newAnalyzer(cfg *config.Settings) port.Analyzer {
	client := &http.Client{Timeout: cfg.RequestTimeout}
	if cfg.OpenRouterAPIKey != "" {
		return analyzer.NewOpenRouter(cfg.OpenRouterAPIKey, client)
	}
	if cfg.AnthropicAPIKey != "" {
		return analyzer.NewAnthropic(cfg.AnthropicAPIKey, client)
	}
	return nil
}

package upload

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/autumnsgrove/cdnup/internal/address"
	"github.com/autumnsgrove/cdnup/internal/logger"
	"github.com/autumnsgrove/cdnup/internal/model"
	"github.com/autumnsgrove/cdnup/internal/port"
	"github.com/autumnsgrove/cdnup/internal/retry"
)

// cacheControl pins processed assets in edge caches for a year; content
// addressing makes them immutable, so this can never serve stale bytes.
const cacheControl = "public, max-age=31536000"

// Config tunes the orchestrator. Now is injectable so tests control the
// date partition.
type Config struct {
	CustomDomain string
	Retry        retry.Config
	CallTimeout  time.Duration
	Now          func() time.Time
}

// storedObject is what the duplicate resolver sees of a remote object.
type storedObject = port.ObjectInfo

type batchUploaderSrv struct {
	strg     port.Storage
	norm     port.Normalizer
	analyzer port.Analyzer
	cache    port.AnalysisCache
	cfg      Config
}

// compile-time check: *batchUploaderSrv must satisfy port.BatchUploader
var _ port.BatchUploader = (*batchUploaderSrv)(nil)

// NewBatchUploader constructs the batch orchestrator. analyzer may be nil
// when no provider is configured; analysis then degrades to no-metadata.
func NewBatchUploader(strg port.Storage, norm port.Normalizer, analyzer port.Analyzer, cache port.AnalysisCache, cfg Config) port.BatchUploader {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.CallTimeout <= 0 {
		cfg.CallTimeout = 30 * time.Second
	}
	return &batchUploaderSrv{strg: strg, norm: norm, analyzer: analyzer, cache: cache, cfg: cfg}
}

// workItem tracks one media item through the pipeline states.
type workItem struct {
	idx        int
	item       model.MediaItem
	state      model.ItemState
	asset      *model.ProcessedAsset
	identity   address.Identity
	fullDigest string
	analysis   *model.AnalysisRecord
	result     model.UploadResult
	err        error
}

func (w *workItem) fail(err error) {
	w.state = model.StateFailed
	w.err = err
}

// UploadBatch drives every item through normalize → identify → analyze →
// resolve-or-upload under bounded parallelism. Results are ordered to match
// the input. Item failures are isolated in errs; only a fatal condition
// (auth, quota) is returned as err, and it never erases completions that
// happened before it.
func (s *batchUploaderSrv) UploadBatch(ctx context.Context, items []model.MediaItem, opts model.ProcessingOptions) ([]model.UploadResult, []error, error) {
	work := make([]*workItem, len(items))
	for i, item := range items {
		work[i] = &workItem{idx: i, item: item, state: model.StatePending}
	}

	concurrency := opts.Concurrency
	if concurrency <= 0 {
		concurrency = 4
	}

	// batch-scoped; no cross-batch state
	flights := newFlightGroup()
	batchCtx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)

	// Phase one: normalize and identify everything, so batch-capable
	// analysis can run over the whole set before uploads begin.
	runPool(batchCtx, concurrency, work, func(ctx context.Context, w *workItem) {
		s.normalizeAndIdentify(ctx, w, opts)
	})

	if opts.Analyze {
		s.analyzeBatch(batchCtx, work, concurrency)
	}

	// Phase two: resolve duplicates and upload, single-flight per identity.
	runPool(batchCtx, concurrency, work, func(ctx context.Context, w *workItem) {
		if w.err != nil {
			return
		}
		res, err := flights.do(ctx, w.identity, func() (model.UploadResult, error) {
			return s.resolveOrUpload(ctx, w, opts)
		})
		if err != nil {
			if model.IsFatal(err) {
				cancel(err)
			}
			w.fail(err)
			return
		}
		if res.Analysis == nil {
			res.Analysis = w.analysis
		}
		w.result = res
		w.state = model.StateCompleted
		if res.Duplicate {
			w.state = model.StateDuplicateFound
		}
	})

	results := make([]model.UploadResult, len(items))
	errs := make([]error, len(items))
	for i, w := range work {
		results[i] = w.result
		errs[i] = w.err
	}

	var fatal error
	if cause := context.Cause(batchCtx); cause != nil && !errors.Is(cause, context.Canceled) {
		fatal = cause
	} else if ctx.Err() != nil {
		fatal = ctx.Err()
	}
	return results, errs, fatal
}

// runPool fans work out to a bounded set of workers. A cancelled context
// stops not-yet-started work; in-flight items run to completion.
func runPool(ctx context.Context, workers int, work []*workItem, fn func(context.Context, *workItem)) {
	ch := make(chan *workItem)
	var wg sync.WaitGroup

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for w := range ch {
				fn(ctx, w)
			}
		}()
	}

feed:
	for _, w := range work {
		select {
		case ch <- w:
		case <-ctx.Done():
			break feed
		}
	}
	close(ch)
	wg.Wait()

	// Work never scheduled because of a fatal abort is marked, not lost.
	if cause := context.Cause(ctx); cause != nil {
		for _, w := range work {
			if w.state == model.StatePending && w.err == nil {
				w.fail(fmt.Errorf("batch aborted: %w", cause))
			}
		}
	}
}

func (s *batchUploaderSrv) normalizeAndIdentify(ctx context.Context, w *workItem, opts model.ProcessingOptions) {
	w.state = model.StateNormalizing
	logger.Debugf(ctx, "normalizing %q...", w.item.Path)

	asset, err := s.norm.Normalize(ctx, w.item, opts)
	if err != nil {
		w.fail(fmt.Errorf("normalize %q: %w", w.item.Path, err))
		return
	}

	w.asset = asset
	w.identity = address.Identify(asset.Data)
	w.fullDigest = address.FullDigest(asset.Data)
	w.state = model.StateIdentified
	logger.Debugf(ctx, "identified %q as %s", w.item.Path, w.identity)
}

// analyzeBatch fills w.analysis for every identified item: cached records
// first, then the provider, batched when it has the capability. A failed
// analysis only logs a warning; the item uploads without metadata.
func (s *batchUploaderSrv) analyzeBatch(ctx context.Context, work []*workItem, concurrency int) {
	var pending []*workItem
	var seenMu sync.Mutex
	seen := map[address.Identity]*model.AnalysisRecord{}

	record := func(ctx context.Context, w *workItem, rec *model.AnalysisRecord) {
		if rec == nil {
			return
		}
		w.analysis = rec
		seenMu.Lock()
		seen[w.identity] = rec
		seenMu.Unlock()
		if err := s.cache.Put(ctx, w.identity, rec); err != nil {
			logger.Warnf(ctx, "analysis cache write for %s failed: %v", w.identity, err)
		}
	}

	for _, w := range work {
		if w.err != nil {
			continue
		}
		w.state = model.StateAnalyzing

		if rec, ok := seen[w.identity]; ok {
			w.analysis = rec
			continue
		}
		rec, err := s.cache.Get(ctx, w.identity)
		if err != nil {
			logger.Warnf(ctx, "analysis cache read for %s failed: %v", w.identity, err)
		}
		if rec != nil {
			seen[w.identity] = rec
			w.analysis = rec
			continue
		}
		seen[w.identity] = nil
		pending = append(pending, w)
	}

	if len(pending) == 0 || s.analyzer == nil {
		return
	}

	if s.analyzer.SupportsBatch() {
		payloads := make([][]byte, len(pending))
		for i, w := range pending {
			payloads[i] = w.asset.Data
		}
		records, err := s.analyzer.AnalyzeBatch(ctx, payloads)
		if err != nil {
			logger.Warnf(ctx, "batch analysis failed, proceeding without metadata: %v", err)
			return
		}
		for i, w := range pending {
			record(ctx, w, records[i])
		}
		s.propagateAnalysis(work, seen)
		return
	}

	runPool(ctx, concurrency, pending, func(ctx context.Context, w *workItem) {
		callCtx, cancel := context.WithTimeout(ctx, s.cfg.CallTimeout)
		defer cancel()
		rec, err := s.analyzer.Analyze(callCtx, w.asset.Data)
		if err != nil {
			logger.Warnf(ctx, "analysis of %q failed, proceeding without metadata: %v", w.item.Path, err)
			return
		}
		record(ctx, w, rec)
	})
	s.propagateAnalysis(work, seen)
}

// propagateAnalysis copies records to items that shared an identity with an
// analyzed one.
func (s *batchUploaderSrv) propagateAnalysis(work []*workItem, seen map[address.Identity]*model.AnalysisRecord) {
	for _, w := range work {
		if w.err == nil && w.analysis == nil {
			w.analysis = seen[w.identity]
		}
	}
}

// resolveOrUpload is the single-flight leader body: checks the remote
// partition for an equal-content object and uploads when there is none.
func (s *batchUploaderSrv) resolveOrUpload(ctx context.Context, w *workItem, opts model.ProcessingOptions) (model.UploadResult, error) {
	day := s.cfg.Now().UTC()

	if opts.DryRun {
		key := s.canonicalKey(w, opts, day)
		return s.buildResult(w, key, false), nil
	}

	existing, collisions, err := s.resolveDuplicate(ctx, w.identity, w.fullDigest, opts.Category, day)
	if err != nil {
		return model.UploadResult{}, err
	}
	if existing != nil {
		logger.Infof(ctx, "duplicate of %q already hosted at %s", w.item.Path, existing.URL)
		res := *existing
		res.Filename = filepath.Base(w.item.Path)
		res.Width = w.asset.Width
		res.Height = w.asset.Height
		res.Analysis = w.analysis
		return res, nil
	}

	key, err := disambiguatedKey(s.canonicalKey(w, opts, day), collisions)
	if err != nil {
		return model.UploadResult{}, err
	}

	w.state = model.StateUploading
	metadata := analysisMetadata(w.analysis)
	err = retry.Do(ctx, s.cfg.Retry, func() error {
		callCtx, cancel := context.WithTimeout(ctx, s.cfg.CallTimeout)
		defer cancel()
		err := s.strg.SaveFile(callCtx, key, w.asset.Data, w.asset.ContentType, cacheControl, metadata)
		if err != nil && !model.IsRetryable(err) {
			return retry.NonRetryable(err)
		}
		return err
	})
	if err != nil {
		return model.UploadResult{}, err
	}

	logger.Infof(ctx, "uploaded %q as %s", w.item.Path, key)
	return s.buildResult(w, key, false), nil
}

func (s *batchUploaderSrv) canonicalKey(w *workItem, opts model.ProcessingOptions, day time.Time) string {
	label := ""
	if w.analysis != nil && w.analysis.Description != "" {
		label = address.SanitizeLabel(w.analysis.Description)
	} else {
		base := filepath.Base(w.item.Path)
		label = address.SanitizeLabel(strings.TrimSuffix(base, filepath.Ext(base)))
	}
	return address.NameFor(w.identity, opts.Category, day, label, extensionFor(w.asset.ContentType))
}

func (s *batchUploaderSrv) buildResult(w *workItem, key string, duplicate bool) model.UploadResult {
	return model.UploadResult{
		URL:       s.cdnURL(key),
		Key:       key,
		Identity:  string(w.identity),
		Filename:  filepath.Base(w.item.Path),
		SizeBytes: int64(len(w.asset.Data)),
		Width:     w.asset.Width,
		Height:    w.asset.Height,
		Analysis:  w.analysis,
		Duplicate: duplicate,
	}
}

func (s *batchUploaderSrv) cdnURL(key string) string {
	return fmt.Sprintf("https://%s/%s", s.cfg.CustomDomain, key)
}

func (s *batchUploaderSrv) listPartition(ctx context.Context, prefix string) ([]storedObject, error) {
	callCtx, cancel := context.WithTimeout(ctx, s.cfg.CallTimeout)
	defer cancel()
	objs, err := s.strg.ListByPrefix(callCtx, prefix)
	if err != nil && !model.IsRetryable(err) {
		return nil, retry.NonRetryable(err)
	}
	return objs, err
}

func (s *batchUploaderSrv) getObject(ctx context.Context, key string) ([]byte, error) {
	callCtx, cancel := context.WithTimeout(ctx, s.cfg.CallTimeout)
	defer cancel()
	data, err := s.strg.GetFile(callCtx, key)
	if err != nil && !model.IsRetryable(err) {
		return nil, retry.NonRetryable(err)
	}
	return data, err
}

func extensionFor(contentType string) string {
	switch contentType {
	case "image/webp":
		return ".webp"
	case "image/png":
		return ".png"
	case "image/jpeg":
		return ".jpg"
	case "image/gif":
		return ".gif"
	default:
		return ""
	}
}

func analysisMetadata(rec *model.AnalysisRecord) map[string]string {
	if rec == nil {
		return nil
	}
	md := map[string]string{"description": rec.Description}
	if len(rec.Tags) > 0 {
		md["tags"] = strings.Join(rec.Tags, ",")
	}
	return md
}

package upload

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/autumnsgrove/cdnup/internal/address"
	"github.com/autumnsgrove/cdnup/internal/mock"
	"github.com/autumnsgrove/cdnup/internal/model"
	"github.com/autumnsgrove/cdnup/internal/port"
	"github.com/autumnsgrove/cdnup/internal/retry"
)

var testDay = time.Date(2026, 3, 7, 12, 0, 0, 0, time.UTC)

func testConfig() Config {
	return Config{
		CustomDomain: "cdn.example.com",
		Retry:        retry.Config{MaxAttempts: 2, InitialDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond},
		CallTimeout:  time.Second,
		Now:          func() time.Time { return testDay },
	}
}

func testOptions() model.ProcessingOptions {
	opts := model.DefaultOptions()
	opts.Analyze = false
	return opts
}

func testItem(path, payload string) model.MediaItem {
	return model.MediaItem{
		Path:      path,
		Data:      []byte(payload),
		Kind:      model.KindImage,
		SizeBytes: int64(len(payload)),
	}
}

func TestUploadBatchUploadsAndNames(t *testing.T) {
	strg := &mock.Storage{}
	srv := NewBatchUploader(strg, &mock.Normalizer{}, nil, &mock.AnalysisCache{}, testConfig())

	results, errs, err := srv.UploadBatch(context.Background(), []model.MediaItem{testItem("cat photo.jpg", "payload-1")}, testOptions())

	if err != nil {
		t.Fatalf("expected no fatal error, got %v", err)
	}
	if errs[0] != nil {
		t.Fatalf("expected no item error, got %v", errs[0])
	}

	id := address.Identify([]byte("payload-1"))
	wantKey := fmt.Sprintf("photos/2026/03/07/cat-photo_%s.webp", id)
	if results[0].Key != wantKey {
		t.Fatalf("expected key %q, got %q", wantKey, results[0].Key)
	}
	if results[0].URL != "https://cdn.example.com/"+wantKey {
		t.Fatalf("unexpected URL %q", results[0].URL)
	}
	if results[0].Duplicate {
		t.Fatal("expected a fresh upload, not a duplicate")
	}
	if results[0].Filename != "cat photo.jpg" {
		t.Fatalf("expected the source basename carried, got %q", results[0].Filename)
	}
	if len(strg.SavedKeys) != 1 || strg.SavedKeys[0] != wantKey {
		t.Fatalf("expected one save under %q, got %v", wantKey, strg.SavedKeys)
	}
	if strg.CacheControl != "public, max-age=31536000" {
		t.Fatalf("unexpected cache control %q", strg.CacheControl)
	}
}

func TestUploadBatchDeduplicatesIdenticalItems(t *testing.T) {
	strg := &mock.Storage{}
	srv := NewBatchUploader(strg, &mock.Normalizer{}, nil, &mock.AnalysisCache{}, testConfig())

	items := []model.MediaItem{
		testItem("a.jpg", "same payload"),
		testItem("b.jpg", "same payload"),
		testItem("c.jpg", "same payload"),
	}
	results, _, err := srv.UploadBatch(context.Background(), items, testOptions())
	if err != nil {
		t.Fatalf("expected no fatal error, got %v", err)
	}

	if len(strg.SavedKeys) != 1 {
		t.Fatalf("expected a single store write, got %d", len(strg.SavedKeys))
	}
	fresh := 0
	for _, r := range results {
		if !r.Duplicate {
			fresh++
		}
		if r.URL != results[0].URL {
			t.Fatalf("expected every item to share one URL, got %q and %q", results[0].URL, r.URL)
		}
	}
	if fresh != 1 {
		t.Fatalf("expected exactly one fresh upload, got %d", fresh)
	}
}

func TestUploadBatchFindsRemoteDuplicate(t *testing.T) {
	payload := []byte("already hosted")
	id := address.Identify(payload)
	remoteKey := fmt.Sprintf("photos/2026/03/07/old_%s.webp", id)

	strg := &mock.Storage{
		ListOut: []port.ObjectInfo{{Key: remoteKey, SizeBytes: int64(len(payload)), LastModified: testDay}},
		GetOut:  map[string][]byte{remoteKey: payload},
	}

	srv := NewBatchUploader(strg, &mock.Normalizer{}, nil, &mock.AnalysisCache{}, testConfig())

	results, errs, err := srv.UploadBatch(context.Background(), []model.MediaItem{testItem("new.jpg", string(payload))}, testOptions())
	if err != nil || errs[0] != nil {
		t.Fatalf("expected success, got %v, %v", err, errs[0])
	}

	if !results[0].Duplicate {
		t.Fatal("expected the remote copy to be reported as a duplicate")
	}
	if results[0].Key != remoteKey {
		t.Fatalf("expected the existing key %q, got %q", remoteKey, results[0].Key)
	}
	if strg.SaveCalled {
		t.Fatal("expected no store write for an existing object")
	}
}

func TestUploadBatchDisambiguatesPrefixCollision(t *testing.T) {
	payload := []byte("new bytes")
	id := address.Identify(payload)
	collidingKey := fmt.Sprintf("photos/2026/03/07/cat_%s.webp", id)

	strg := &mock.Storage{}
	strg.ListOut = []port.ObjectInfo{{Key: collidingKey, LastModified: testDay}}
	strg.GetOut = map[string][]byte{collidingKey: []byte("other bytes under the same prefix")}

	srv := NewBatchUploader(strg, &mock.Normalizer{}, nil, &mock.AnalysisCache{}, testConfig())

	results, errs, err := srv.UploadBatch(context.Background(), []model.MediaItem{testItem("cat.jpg", string(payload))}, testOptions())
	if err != nil || errs[0] != nil {
		t.Fatalf("expected success, got %v, %v", err, errs[0])
	}

	wantKey := fmt.Sprintf("photos/2026/03/07/cat_%s_1.webp", id)
	if results[0].Key != wantKey {
		t.Fatalf("expected disambiguated key %q, got %q", wantKey, results[0].Key)
	}
	if results[0].Duplicate {
		t.Fatal("expected a fresh upload: same prefix does not mean same content")
	}
}

func TestUploadBatchIsolatesInputFailures(t *testing.T) {
	norm := &mock.Normalizer{
		NormalizeFn: func(item model.MediaItem) (*model.ProcessedAsset, error) {
			if item.Path == "broken.jpg" {
				return nil, model.ErrCorrupted
			}
			return &model.ProcessedAsset{Data: item.Data, ContentType: "image/webp", Width: 10, Height: 10}, nil
		},
	}
	strg := &mock.Storage{}
	srv := NewBatchUploader(strg, norm, nil, &mock.AnalysisCache{}, testConfig())

	items := []model.MediaItem{
		testItem("ok.jpg", "fine"),
		testItem("broken.jpg", "junk"),
		testItem("also-ok.jpg", "also fine"),
	}
	results, errs, err := srv.UploadBatch(context.Background(), items, testOptions())
	if err != nil {
		t.Fatalf("an input failure must not be fatal, got %v", err)
	}

	if errs[0] != nil || errs[2] != nil {
		t.Fatalf("expected healthy items to succeed, got %v, %v", errs[0], errs[2])
	}
	if !errors.Is(errs[1], model.ErrCorrupted) {
		t.Fatalf("expected ErrCorrupted for the broken item, got %v", errs[1])
	}
	if results[1].URL != "" {
		t.Fatalf("expected no result for the broken item, got %+v", results[1])
	}
	if len(strg.SavedKeys) != 2 {
		t.Fatalf("expected 2 uploads, got %v", strg.SavedKeys)
	}
}

func TestUploadBatchAbortsOnAuthFailure(t *testing.T) {
	strg := &mock.Storage{SaveErr: model.ErrAuth}
	srv := NewBatchUploader(strg, &mock.Normalizer{}, nil, &mock.AnalysisCache{}, testConfig())

	opts := testOptions()
	opts.Concurrency = 1
	items := []model.MediaItem{
		testItem("a.jpg", "one"),
		testItem("b.jpg", "two"),
		testItem("c.jpg", "three"),
	}
	_, errs, err := srv.UploadBatch(context.Background(), items, opts)

	if !errors.Is(err, model.ErrAuth) {
		t.Fatalf("expected a fatal auth error, got %v", err)
	}
	for i, e := range errs {
		if e == nil {
			t.Fatalf("expected item %d to carry an error", i)
		}
	}
}

func TestUploadBatchRetriesTransientFailuresPerItem(t *testing.T) {
	strg := &mock.Storage{SaveErr: model.ErrTransient}
	srv := NewBatchUploader(strg, &mock.Normalizer{}, nil, &mock.AnalysisCache{}, testConfig())

	_, errs, err := srv.UploadBatch(context.Background(), []model.MediaItem{testItem("a.jpg", "one")}, testOptions())

	if err != nil {
		t.Fatalf("a transient failure must not be fatal, got %v", err)
	}
	if !errors.Is(errs[0], model.ErrTransient) {
		t.Fatalf("expected the item error to wrap ErrTransient, got %v", errs[0])
	}
}

func TestUploadBatchDryRunTouchesNothing(t *testing.T) {
	strg := &mock.Storage{}
	srv := NewBatchUploader(strg, &mock.Normalizer{}, nil, &mock.AnalysisCache{}, testConfig())

	opts := testOptions()
	opts.DryRun = true
	results, errs, err := srv.UploadBatch(context.Background(), []model.MediaItem{testItem("cat.jpg", "payload")}, opts)

	if err != nil || errs[0] != nil {
		t.Fatalf("expected success, got %v, %v", err, errs[0])
	}
	if strg.SaveCalled || strg.ListCalled || strg.GetCalled {
		t.Fatal("dry run must not touch the remote store")
	}
	if results[0].URL == "" || !strings.Contains(results[0].Key, string(address.Identify([]byte("payload")))) {
		t.Fatalf("expected a computed result, got %+v", results[0])
	}
}

func TestUploadBatchUsesCachedAnalysis(t *testing.T) {
	payload := "bicycle bytes"
	id := address.Identify([]byte(payload))
	cached := &model.AnalysisRecord{Description: "A red bicycle", AltText: "red bicycle"}

	cache := &mock.AnalysisCache{Records: map[address.Identity]*model.AnalysisRecord{id: cached}}
	analyzer := &mock.Analyzer{Batch: true}
	strg := &mock.Storage{}
	srv := NewBatchUploader(strg, &mock.Normalizer{}, analyzer, cache, testConfig())

	opts := testOptions()
	opts.Analyze = true
	results, errs, err := srv.UploadBatch(context.Background(), []model.MediaItem{testItem("any.jpg", payload)}, opts)
	if err != nil || errs[0] != nil {
		t.Fatalf("expected success, got %v, %v", err, errs[0])
	}

	if analyzer.AnalyzeCalled || analyzer.AnalyzeBatchCalled {
		t.Fatal("expected the cached record to short-circuit the provider")
	}
	if results[0].Analysis == nil || results[0].Analysis.Description != cached.Description {
		t.Fatalf("expected the cached record on the result, got %+v", results[0].Analysis)
	}
	if !strings.Contains(results[0].Key, "a-red-bicycle_") {
		t.Fatalf("expected the description to label the key, got %q", results[0].Key)
	}
}

func TestUploadBatchDegradesWhenAnalysisFails(t *testing.T) {
	analyzer := &mock.Analyzer{Batch: true, Err: model.ErrAnalysis}
	strg := &mock.Storage{}
	srv := NewBatchUploader(strg, &mock.Normalizer{}, analyzer, &mock.AnalysisCache{}, testConfig())

	opts := testOptions()
	opts.Analyze = true
	results, errs, err := srv.UploadBatch(context.Background(), []model.MediaItem{testItem("seaside.jpg", "waves")}, opts)
	if err != nil || errs[0] != nil {
		t.Fatalf("an analysis failure must not block the upload, got %v, %v", err, errs[0])
	}

	if results[0].Analysis != nil {
		t.Fatalf("expected no metadata, got %+v", results[0].Analysis)
	}
	if !strings.Contains(results[0].Key, "seaside_") {
		t.Fatalf("expected the filename to label the key, got %q", results[0].Key)
	}
}

func TestUploadBatchBatchesAnalysisOnce(t *testing.T) {
	rec := &model.AnalysisRecord{Description: "some scene"}
	analyzer := &mock.Analyzer{Batch: true, Out: rec}
	cache := &mock.AnalysisCache{}
	srv := NewBatchUploader(&mock.Storage{}, &mock.Normalizer{}, analyzer, cache, testConfig())

	opts := testOptions()
	opts.Analyze = true
	items := []model.MediaItem{
		testItem("a.jpg", "one"),
		testItem("b.jpg", "two"),
		testItem("c.jpg", "one"), // same content as a.jpg
	}
	_, errs, err := srv.UploadBatch(context.Background(), items, opts)
	if err != nil {
		t.Fatalf("expected no fatal error, got %v", err)
	}
	for i, e := range errs {
		if e != nil {
			t.Fatalf("expected item %d to succeed, got %v", i, e)
		}
	}

	if !analyzer.AnalyzeBatchCalled {
		t.Fatal("expected the batch-capable provider to get one batch call")
	}
	if len(analyzer.BatchSizes) != 1 || analyzer.BatchSizes[0] != 2 {
		t.Fatalf("expected one batch of 2 distinct payloads, got %v", analyzer.BatchSizes)
	}
	if !cache.PutCalled {
		t.Fatal("expected fresh records to be cached")
	}
}

func TestUploadBatchKeepsInputOrder(t *testing.T) {
	strg := &mock.Storage{}
	srv := NewBatchUploader(strg, &mock.Normalizer{}, nil, &mock.AnalysisCache{}, testConfig())

	items := []model.MediaItem{
		testItem("first.jpg", "payload one"),
		testItem("second.jpg", "payload two"),
		testItem("third.jpg", "payload three"),
	}
	results, _, err := srv.UploadBatch(context.Background(), items, testOptions())
	if err != nil {
		t.Fatalf("expected no fatal error, got %v", err)
	}

	labels := []string{"first_", "second_", "third_"}
	for i, want := range labels {
		if !strings.Contains(results[i].Key, want) {
			t.Fatalf("expected result %d to be for %q, got %q", i, want, results[i].Key)
		}
	}
}

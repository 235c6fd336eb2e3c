package document

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	docref "github.com/autumnsgrove/cdnup/internal/document"
	"github.com/autumnsgrove/cdnup/internal/logger"
	"github.com/autumnsgrove/cdnup/internal/model"
	"github.com/autumnsgrove/cdnup/internal/output"
	"github.com/autumnsgrove/cdnup/internal/port"
	"github.com/autumnsgrove/cdnup/internal/usecase/upload"
)

type rewriterSrv struct {
	uploader  port.BatchUploader
	cdnDomain string
}

// compile-time check: *rewriterSrv must satisfy port.DocumentRewriter
var _ port.DocumentRewriter = (*rewriterSrv)(nil)

// NewDocumentRewriter builds the document rewriting usecase on top of the
// batch uploader.
func NewDocumentRewriter(uploader port.BatchUploader, cdnDomain string) port.DocumentRewriter {
	return &rewriterSrv{uploader: uploader, cdnDomain: cdnDomain}
}

// RewriteDocument uploads every local image a document references and writes
// a sibling copy pointing at the hosted URLs. The original file is never
// touched; references that cannot be uploaded keep their original text.
func (s *rewriterSrv) RewriteDocument(ctx context.Context, docPath string, opts model.ProcessingOptions) (string, port.RewriteStats, error) {
	var stats port.RewriteStats

	format, err := docref.DetectFormat(docPath)
	if err != nil {
		return "", stats, err
	}

	raw, err := os.ReadFile(docPath)
	if err != nil {
		return "", stats, fmt.Errorf("reading document %q: %w", docPath, err)
	}
	content := string(raw)
	docDir := filepath.Dir(docPath)

	refs := docref.Extract(content, format)
	for i := range refs {
		refs[i].Class = docref.Classify(refs[i].Raw, s.cdnDomain)
		if refs[i].Class == docref.RefLocal {
			refs[i].Path = docref.ResolveLocal(refs[i].Raw, docDir)
		}
	}

	// One upload per distinct local file, however many times it appears.
	byPath := map[string][]string{}
	var paths []string
	for _, r := range refs {
		switch r.Class {
		case docref.RefCDN:
			stats.Skipped++
		case docref.RefExternal:
			stats.External++
		case docref.RefLocal:
			if _, ok := byPath[r.Path]; !ok {
				paths = append(paths, r.Path)
			}
			byPath[r.Path] = append(byPath[r.Path], r.Raw)
		}
	}

	resolved := map[string]model.UploadResult{}
	if len(paths) > 0 {
		resolved, err = s.uploadLocals(ctx, paths, byPath, opts, &stats)
		if err != nil {
			return "", stats, err
		}
	}

	rewritten := rewrite(content, refs, resolved, opts.Output)
	outPath := docref.SiblingOutputPath(docPath)

	if opts.DryRun {
		logger.Infof(ctx, "dry run: would write %q", outPath)
		return outPath, stats, nil
	}

	if err := os.WriteFile(outPath, []byte(rewritten), 0o644); err != nil {
		return "", stats, fmt.Errorf("writing rewritten document %q: %w", outPath, err)
	}
	return outPath, stats, nil
}

// rewrite substitutes hosted URLs into the resolved reference spans. A
// markdown or html output format swaps the whole syntax fragment for one
// rendered in that format; plain keeps the document's own syntax and only
// replaces the path.
func rewrite(content string, refs []docref.Reference, resolved map[string]model.UploadResult, format model.OutputFormat) string {
	switch format {
	case model.FormatMarkdown, model.FormatHTML:
		frags := make(map[string]string, len(resolved))
		for raw, res := range resolved {
			frags[raw] = output.Line(res, format)
		}
		return docref.RewriteFragments(content, refs, frags)
	default:
		urls := make(map[string]string, len(resolved))
		for raw, res := range resolved {
			urls[raw] = res.URL
		}
		return docref.Rewrite(content, refs, urls)
	}
}

// uploadLocals loads and uploads the referenced files and maps every raw
// reference text of a successful upload to its result. A file that fails
// to load or upload counts as failed for each reference to it.
func (s *rewriterSrv) uploadLocals(ctx context.Context, paths []string, byPath map[string][]string, opts model.ProcessingOptions, stats *port.RewriteStats) (map[string]model.UploadResult, error) {
	var items []model.MediaItem
	var itemPaths []string
	for _, p := range paths {
		item, err := upload.LoadItem(p)
		if err != nil {
			logger.Warnf(ctx, "skipping reference: %v", err)
			stats.Failed += len(byPath[p])
			continue
		}
		items = append(items, item)
		itemPaths = append(itemPaths, p)
	}

	resolved := map[string]model.UploadResult{}
	if len(items) == 0 {
		return resolved, nil
	}

	results, errs, fatalErr := s.uploader.UploadBatch(ctx, items, opts)
	for i, p := range itemPaths {
		if errs[i] != nil {
			logger.Warnf(ctx, "upload of %q failed: %v", p, errs[i])
			stats.Failed += len(byPath[p])
			continue
		}
		stats.Uploaded += len(byPath[p])
		for _, raw := range byPath[p] {
			resolved[raw] = results[i]
		}
	}
	if fatalErr != nil {
		return resolved, fmt.Errorf("batch upload aborted: %w", fatalErr)
	}
	return resolved, nil
}

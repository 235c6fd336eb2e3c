package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/autumnsgrove/cdnup/internal/batchctx"
	"github.com/autumnsgrove/cdnup/internal/model"
	"github.com/autumnsgrove/cdnup/internal/output"
	"github.com/autumnsgrove/cdnup/internal/usecase/upload"
)

var (
	quality        int
	fullResolution bool
	analyze        bool
	category       string
	outputFormat   string
	dryRun         bool
	concurrency    int
)

var uploadCmd = &cobra.Command{
	Use:   "upload <file>...",
	Short: "Upload media files or rewrite a document's image references",
	Long: "Upload normalises each file, skips uploads whose content already " +
		"exists remotely and prints one hosted URL per input. Markdown and " +
		"HTML documents are processed by uploading their local image " +
		"references and writing a _cdn sibling copy.",
	Args: cobra.MinimumNArgs(1),
	RunE: runUpload,
}

func init() {
	uploadCmd.Flags().IntVarP(&quality, "quality", "q", 75, "WebP quality 1-100; also picks the resize tier")
	uploadCmd.Flags().BoolVarP(&fullResolution, "full", "f", false, "Keep full resolution, no resizing")
	uploadCmd.Flags().BoolVarP(&analyze, "analyze", "a", false, "Enable AI descriptions, alt text and tags")
	uploadCmd.Flags().StringVarP(&category, "category", "c", "photos", "Top-level key prefix for uploaded objects")
	uploadCmd.Flags().StringVarP(&outputFormat, "output-format", "o", "plain", "Result format: plain, markdown or html")
	uploadCmd.Flags().BoolVarP(&dryRun, "dry-run", "n", false, "Preview names and URLs without uploading")
	uploadCmd.Flags().IntVar(&concurrency, "concurrency", 0, "Parallel workers (default from CONCURRENCY)")
}

func buildOptions(a *app) (model.ProcessingOptions, error) {
	opts := model.DefaultOptions()
	if quality < 1 || quality > 100 {
		return opts, fmt.Errorf("quality must be between 1 and 100, got %d", quality)
	}
	switch model.OutputFormat(outputFormat) {
	case model.FormatPlain, model.FormatMarkdown, model.FormatHTML:
	default:
		return opts, fmt.Errorf("unknown output format %q", outputFormat)
	}

	opts.Quality = quality
	opts.FullResolution = fullResolution
	opts.Analyze = analyze
	opts.Category = category
	opts.Output = model.OutputFormat(outputFormat)
	opts.DryRun = dryRun
	opts.Concurrency = a.cfg.Concurrency
	if concurrency > 0 {
		opts.Concurrency = concurrency
	}
	return opts, nil
}

func runUpload(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	opts, err := buildOptions(a)
	if err != nil {
		return err
	}

	ctx, _ := batchctx.NewBatch(cmd.Context())

	// Documents and media can be mixed on one invocation.
	var mediaPaths, docPaths []string
	for _, arg := range args {
		if isDocument(arg) {
			docPaths = append(docPaths, arg)
		} else {
			mediaPaths = append(mediaPaths, arg)
		}
	}

	var failures int

	if len(mediaPaths) > 0 {
		n, err := uploadMedia(ctx, a, mediaPaths, opts)
		if err != nil {
			return err
		}
		failures += n
	}
	for _, doc := range docPaths {
		if err := runRewrite(ctx, a, doc, opts); err != nil {
			fmt.Printf("FAILED %s: %v\n", doc, err)
			failures++
		}
	}

	if failures > 0 {
		return fmt.Errorf("%d of %d inputs failed", failures, len(args))
	}
	return nil
}

// uploadMedia runs the batch pipeline over plain media files and prints one
// formatted line per success. It returns the number of failed items; only a
// fatal batch error comes back as err.
func uploadMedia(ctx context.Context, a *app, paths []string, opts model.ProcessingOptions) (int, error) {
	items, err := upload.LoadItems(paths)
	if err != nil {
		return 0, err
	}

	results, errs, fatalErr := a.uploader.UploadBatch(ctx, items, opts)

	failed := 0
	for i, item := range items {
		if errs[i] != nil {
			failed++
			fmt.Printf("FAILED %s: %v\n", item.Path, errs[i])
			continue
		}
		fmt.Println(output.Line(results[i], opts.Output))
	}
	if fatalErr != nil {
		return failed, fmt.Errorf("batch aborted: %w", fatalErr)
	}
	return failed, nil
}

func isDocument(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".md", ".markdown", ".html", ".htm":
		return true
	}
	return false
}

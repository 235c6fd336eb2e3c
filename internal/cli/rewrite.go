package cli

import (
	"context"
	"fmt"

	"github.com/autumnsgrove/cdnup/internal/model"
)

func runRewrite(ctx context.Context, a *app, docPath string, opts model.ProcessingOptions) error {
	outPath, stats, err := a.rewriter.RewriteDocument(ctx, docPath, opts)
	if err != nil {
		return err
	}

	fmt.Printf("Rewrote %s -> %s\n", docPath, outPath)
	fmt.Printf("  uploaded: %d\n", stats.Uploaded)
	fmt.Printf("  already hosted: %d\n", stats.Skipped)
	fmt.Printf("  external, untouched: %d\n", stats.External)
	if stats.Failed > 0 {
		fmt.Printf("  failed: %d\n", stats.Failed)
		return fmt.Errorf("%d references could not be uploaded", stats.Failed)
	}
	return nil
}

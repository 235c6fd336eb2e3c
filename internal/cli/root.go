// Package cli defines the cdnup command tree.
package cli

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "cdnup",
	Short: "Upload media to a content-addressed CDN",
	Long: "cdnup normalises images and short videos to WebP, names them by " +
		"content hash, deduplicates against the remote store and returns " +
		"stable CDN URLs. Point it at a markdown or HTML document and it " +
		"uploads every local image the document references and writes a " +
		"rewritten copy alongside the original.",
	SilenceUsage:  true,
	SilenceErrors: false,
}

// NewRootCmd returns the assembled command tree.
func NewRootCmd() *cobra.Command {
	return rootCmd
}

func init() {
	rootCmd.AddCommand(uploadCmd)
	rootCmd.AddCommand(authCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(pruneCmd)
	rootCmd.AddCommand(versionCmd)
}

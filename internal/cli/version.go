package cli

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

// set at build time via ldflags
var (
	version   = "dev"
	gitCommit = "none"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("cdnup %s (%s, %s/%s)\n", version, gitCommit, runtime.GOOS, runtime.GOARCH)
	},
}

package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var (
	pruneCategory  string
	pruneOlderThan int
	pruneYes       bool
)

var pruneCmd = &cobra.Command{
	Use:   "prune [key]...",
	Short: "Delete hosted objects",
	Long: "Prune deletes the given object keys. With no keys it sweeps a " +
		"category prefix for objects older than the cutoff; the sweep only " +
		"reports matches unless --yes is set.",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		keys := args
		if len(keys) == 0 {
			keys, err = sweepKeys(cmd, a)
			if err != nil || keys == nil {
				return err
			}
		}

		removed, failed := a.strg.RemoveFiles(cmd.Context(), keys)
		fmt.Printf("Removed %d objects", removed)
		if failed > 0 {
			fmt.Printf(", %d failed", failed)
		}
		fmt.Println()
		if failed > 0 {
			return fmt.Errorf("%d objects could not be removed", failed)
		}
		return nil
	},
}

// sweepKeys collects keys older than the cutoff. It returns nil keys after
// printing a report when --yes was not given.
func sweepKeys(cmd *cobra.Command, a *app) ([]string, error) {
	if pruneOlderThan < 1 {
		return nil, fmt.Errorf("--older-than must be at least 1 day")
	}

	prefix := ""
	if pruneCategory != "" {
		prefix = pruneCategory + "/"
	}
	objs, err := a.strg.ListByPrefix(cmd.Context(), prefix)
	if err != nil {
		return nil, fmt.Errorf("listing objects: %w", err)
	}

	cutoff := time.Now().AddDate(0, 0, -pruneOlderThan)
	var keys []string
	for _, obj := range objs {
		if obj.LastModified.Before(cutoff) {
			keys = append(keys, obj.Key)
		}
	}
	if len(keys) == 0 {
		fmt.Println("Nothing to prune.")
		return nil, nil
	}
	if !pruneYes {
		for _, k := range keys {
			fmt.Printf("would remove %s\n", k)
		}
		fmt.Printf("%d objects match; re-run with --yes to delete them\n", len(keys))
		return nil, nil
	}
	return keys, nil
}

func init() {
	pruneCmd.Flags().StringVarP(&pruneCategory, "category", "c", "", "Restrict the sweep to one category prefix")
	pruneCmd.Flags().IntVar(&pruneOlderThan, "older-than", 365, "Sweep age cutoff in days")
	pruneCmd.Flags().BoolVar(&pruneYes, "yes", false, "Actually delete swept objects")
}

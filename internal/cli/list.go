package cli

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"
)

const listPageSize = 10

var (
	listCategory string
	listPage     int
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List hosted objects, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		prefix := ""
		if listCategory != "" {
			prefix = listCategory + "/"
		}
		objs, err := a.strg.ListByPrefix(cmd.Context(), prefix)
		if err != nil {
			return fmt.Errorf("listing objects: %w", err)
		}
		if len(objs) == 0 {
			fmt.Println("No objects found.")
			return nil
		}

		sort.Slice(objs, func(i, j int) bool {
			return objs[i].LastModified.After(objs[j].LastModified)
		})

		pages := (len(objs) + listPageSize - 1) / listPageSize
		if listPage < 1 || listPage > pages {
			return fmt.Errorf("page %d out of range, have %d", listPage, pages)
		}
		start := (listPage - 1) * listPageSize
		end := start + listPageSize
		if end > len(objs) {
			end = len(objs)
		}

		for _, obj := range objs[start:end] {
			fmt.Printf("%s  %8d  https://%s/%s\n",
				obj.LastModified.Format("2006-01-02 15:04"), obj.SizeBytes, a.cfg.CustomDomain, obj.Key)
		}
		fmt.Printf("Page %d/%d, %d objects total\n", listPage, pages, len(objs))
		return nil
	},
}

func init() {
	listCmd.Flags().StringVarP(&listCategory, "category", "c", "", "Restrict to one category prefix")
	listCmd.Flags().IntVarP(&listPage, "page", "p", 1, "Page to show")
}

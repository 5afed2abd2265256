package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newSearchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "search <query>",
		Short: "Search the dataset schema",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, _, loader, err := newManager()
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			stop := withSpinner(ctx, "Searching...")
			results, err := loader.Search(ctx, args[0])
			stop()
			if err != nil {
				return err
			}

			if len(results) == 0 {
				fmt.Printf("\n%s No datasets match %q\n", dim("○"), args[0])
				return nil
			}

			for _, ds := range results {
				fmt.Printf(" %s %s\n", bold(fmt.Sprintf("%s-%s", ds.Name, ds.Version)), cyan(ds.Title))
				if ds.Description != "" {
					desc := ds.Description
					if idx := strings.IndexByte(desc, '\n'); idx > 0 {
						desc = desc[:idx]
					}
					fmt.Printf("   %s\n", dim(desc))
				}
			}
			return nil
		},
	}
}

package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newInfoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info <name[@version]>",
		Short: "Show dataset details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, _, loader, err := newManager()
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			name, version := splitSpec(args[0])

			ds, err := loader.Get(ctx, name, version)
			if err != nil {
				return err
			}

			fmt.Printf("%s %s\n", bold(fmt.Sprintf("%s-%s", ds.Name, ds.Version)), cyan(ds.Title))
			if ds.Description != "" {
				fmt.Printf("%s\n", ds.Description)
			}
			fmt.Println()
			if ds.Homepage != "" {
				fmt.Printf("  homepage:  %s\n", ds.Homepage)
			}
			fmt.Printf("  download:  %s\n", ds.DownloadURL)
			if ds.EstimatedSize != "" {
				fmt.Printf("  size:      %s\n", ds.EstimatedSize)
			}
			if ds.Published != "" {
				fmt.Printf("  published: %s\n", ds.Published)
			}

			if ds.Format != "" {
				if f, err := loader.Format(ctx, ds.Format); err == nil {
					fmt.Printf("  format:    %s\n", f.Name)
				} else {
					fmt.Printf("  format:    %s\n", ds.Format)
				}
			}
			if ds.License != "" {
				if lic, err := loader.License(ctx, ds.License); err == nil {
					fmt.Printf("  license:   %s\n", lic.Name)
				} else {
					fmt.Printf("  license:   %s\n", ds.License)
				}
			}

			ok, err := mgr.IsDownloaded(name)
			if err == nil && ok {
				fmt.Printf("\n%s pulled\n", green("✓"))
			} else {
				fmt.Printf("\n%s not pulled\n", dim("○"))
			}
			return nil
		},
	}
}

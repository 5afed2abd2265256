package cli

import (
	"fmt"
	"sort"
	"sync"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List pulled datasets",
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, cfg, loader, err := newManager()
			if err != nil {
				return err
			}

			if removed := mgr.Reconcile(); len(removed) > 0 {
				for _, name := range removed {
					fmt.Printf("%s %s removed externally\n", dim("○"), name)
				}
				fmt.Println()
			}

			pulled, err := mgr.ListPulled()
			if err != nil {
				return err
			}

			if len(pulled) == 0 {
				fmt.Printf("\n%s No datasets pulled\n", dim("○"))
				return nil
			}

			names := make([]string, 0, len(pulled))
			for name := range pulled {
				names = append(names, name)
			}
			sort.Strings(names)

			ctx := cmd.Context()
			latest := make(map[string]string)
			mu := &sync.Mutex{}

			g, gctx := errgroup.WithContext(ctx)
			g.SetLimit(cfg.MaxParallel)

			for _, name := range names {
				name := name
				g.Go(func() error {
					ver, err := loader.LatestVersion(gctx, name)
					if err != nil {
						return nil
					}
					mu.Lock()
					latest[name] = ver
					mu.Unlock()
					return nil
				})
			}
			_ = g.Wait()

			fmt.Printf("Pulled datasets:\n\n")
			for _, name := range names {
				ds := pulled[name]
				line := fmt.Sprintf(" %s", bold(fmt.Sprintf("%s-%s", ds.Name, ds.Version)))

				if ver, ok := latest[name]; ok && ver != ds.Version {
					line += fmt.Sprintf("  %s", yellow(fmt.Sprintf("↑ %s", ver)))
				}
				if ok, err := mgr.IsDownloaded(name); err == nil && !ok {
					line += fmt.Sprintf("  %s", yellow("! incomplete"))
				}
				line += fmt.Sprintf("  %s", dim(ds.Path))
				fmt.Println(line)
			}

			return nil
		},
	}
}

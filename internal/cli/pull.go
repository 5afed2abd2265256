package cli

import (
	"fmt"
	"strings"
	"sync"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/daxhub/dax/internal/dataset"
)

func newPullCmd() *cobra.Command {
	var verify bool

	cmd := &cobra.Command{
		Use:   "pull <name[@version]>...",
		Short: "Download and extract datasets",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, cfg, loader, err := newManager()
			if err != nil {
				return err
			}

			mode := dataset.ModeDownloadOnly
			if verify {
				mode = dataset.ModeDownloadAndLoad
			}

			ctx := cmd.Context()
			mu := &sync.Mutex{}
			var failed []string

			g, gctx := errgroup.WithContext(ctx)
			g.SetLimit(min(len(args), cfg.MaxParallel))

			for _, arg := range args {
				arg := arg
				g.Go(func() error {
					name, version := splitSpec(arg)

					stop := withSpinner(gctx, fmt.Sprintf("Resolving %s...", name))
					ds, err := loader.Get(gctx, name, version)
					stop()
					if err != nil {
						mu.Lock()
						failed = append(failed, arg)
						mu.Unlock()
						fmt.Printf("%s %s: %v\n", red("✗"), arg, err)
						return nil
					}

					row, err := mgr.Init(gctx, *ds, mode)
					if err != nil {
						mu.Lock()
						failed = append(failed, arg)
						mu.Unlock()
						fmt.Printf("%s %s: %v\n", red("✗"), arg, err)
						return nil
					}

					fmt.Printf("%s %s %s\n", green("✓"), bold(fmt.Sprintf("%s-%s", row.Name, row.Version)), dim(row.Path))
					return nil
				})
			}
			_ = g.Wait()

			if len(failed) > 0 {
				return fmt.Errorf("failed to pull: %s", strings.Join(failed, ", "))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&verify, "verify", false, "Verify extracted files against the file list after pulling")
	return cmd
}

// splitSpec parses "name" or "name@version".
func splitSpec(arg string) (name, version string) {
	if idx := strings.LastIndex(arg, "@"); idx > 0 {
		return arg[:idx], arg[idx+1:]
	}
	return arg, ""
}

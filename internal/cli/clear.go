package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/daxhub/dax/internal/cache"
	"github.com/daxhub/dax/internal/config"
)

func newClearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Clear the archive cache",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			c, err := cache.New(cfg.CacheDir)
			if err != nil {
				return err
			}

			size, _ := c.Size()

			if err := c.Clear(); err != nil {
				return fmt.Errorf("failed to clear cache: %w", err)
			}

			fmt.Printf("%s Cache cleared (%s freed)\n", green("✓"), formatSize(size))
			return nil
		},
	}
}

package cli

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/daxhub/dax/internal/cache"
	"github.com/daxhub/dax/internal/config"
	"github.com/daxhub/dax/internal/dataset"
	"github.com/daxhub/dax/internal/domain"
	"github.com/daxhub/dax/internal/extractor"
	"github.com/daxhub/dax/internal/fetcher"
	"github.com/daxhub/dax/internal/schema"
	"github.com/daxhub/dax/internal/state"
)

func Execute() error {
	rootCmd := &cobra.Command{
		Use:   "dax",
		Short: "Download, extract and index datasets",
	}
	rootCmd.AddCommand(
		newPullCmd(),
		newListCmd(),
		newSearchCmd(),
		newInfoCmd(),
		newRemoveCmd(),
		newClearCmd(),
		newVersionCmd(),
	)
	return rootCmd.Execute()
}

func newManager() (*dataset.Manager, *config.Config, domain.Schemata, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, nil, err
	}

	c, err := cache.New(cfg.CacheDir)
	if err != nil {
		return nil, nil, nil, err
	}

	st, err := state.NewSQLite(cfg.StateDB, cfg.ManifestFile)
	if err != nil {
		return nil, nil, nil, err
	}

	loader := schema.New(cfg.DatasetSchemaURL, cfg.FormatSchemaURL, cfg.LicenseSchemaURL, cfg.CacheDir)

	mgr := dataset.New(
		fetcher.New(cfg.CacheDir, 1*time.Hour),
		c,
		extractor.NewDispatcher(nil),
		st,
		cfg.DataDir,
	)
	return mgr, cfg, loader, nil
}

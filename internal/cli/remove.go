package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <name>...",
		Short: "Remove pulled datasets and their cached archives",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, _, _, err := newManager()
			if err != nil {
				return err
			}

			var failed []string
			for _, name := range args {
				removedName, version, err := mgr.Remove(name)
				if err != nil {
					failed = append(failed, name)
					fmt.Printf("%s %s: %v\n", red("✗"), name, err)
					continue
				}
				fmt.Printf("%s %s removed\n", green("✓"), bold(fmt.Sprintf("%s-%s", removedName, version)))
			}

			if len(failed) > 0 {
				return fmt.Errorf("failed to remove: %s", strings.Join(failed, ", "))
			}
			return nil
		},
	}
}

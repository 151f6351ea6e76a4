package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/adeilh/quill/legacy"
)

func newMigrateCommand(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate <export.json>",
		Short: "Import posts saved by the legacy browser storage into the API",
		Long: `migrate reads a JSON export of the legacy "` + legacy.StorageKey + `" storage entry
and creates every post and comment the API does not already have. Posts that
fail are logged and skipped, so the command can be re-run safely.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			importer := legacy.NewImporter(apiTransport(e.cfg.API), e.log.Named("legacy"))
			n, err := importer.ImportFile(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), successStyle.Render(fmt.Sprintf("Migrated %d posts", n)))
			return nil
		},
	}
}

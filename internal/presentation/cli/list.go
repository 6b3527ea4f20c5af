package cli

import (
	"github.com/spf13/cobra"
)

func newListCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls", "scan"},
		Short:   "Найти камеры и вывести каталог",
		RunE: func(cmd *cobra.Command, args []string) error {
			service, err := ctx.catalogService()
			if err != nil {
				return err
			}

			catalog, err := service.Scan(cmd.Context())
			if err != nil {
				return err
			}

			if jsonOutput {
				return writeJSON(cmd, catalog)
			}
			renderCatalog(cmd.OutOrStdout(), catalog, isTerminal(cmd.OutOrStdout()))
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Вывести каталог в JSON")
	return cmd
}

package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Показать последние сканирования",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if !cfg.History.Enabled {
				return fmt.Errorf("история отключена в конфигурации ([history] enabled = false)")
			}
			if !cmd.Flags().Changed("limit") {
				limit = cfg.History.Limit
			}

			store, err := ctx.openHistory()
			if err != nil {
				return err
			}
			scans, err := store.Recent(cmd.Context(), limit)
			if err != nil {
				return err
			}

			if jsonOutput {
				return writeJSON(cmd, scans)
			}

			out := cmd.OutOrStdout()
			if len(scans) == 0 {
				fmt.Fprintln(out, "Сканирований пока нет")
				return nil
			}

			headers := []string{"Время", "Камер", "Камеры", "ID скана"}
			aligns := []columnAlignment{alignLeft, alignRight, alignLeft, alignLeft}
			rows := make([][]string, 0, len(scans))
			for _, scan := range scans {
				names := ""
				for i, cam := range scan.Cameras {
					if i > 0 {
						names += ", "
					}
					names += fmt.Sprintf("%s (%s)", cam.Label, cam.Role)
				}
				rows = append(rows, []string{
					scan.ScannedAt.Local().Format("2006-01-02 15:04:05"),
					strconv.Itoa(len(scan.Cameras)),
					names,
					scan.ID,
				})
			}
			fmt.Fprintln(out, renderTable(headers, rows, aligns, isTerminal(out)))
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "Количество сканирований (по умолчанию из конфигурации)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Вывести историю в JSON")
	return cmd
}

package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"camscope/internal/domain"
)

type columnAlignment int

const (
	alignLeft columnAlignment = iota
	alignRight
)

func renderTable(headers []string, rows [][]string, aligns []columnAlignment, pretty bool) string {
	columns := len(headers)
	if columns == 0 {
		return ""
	}

	tw := table.NewWriter()
	if pretty {
		tw.SetStyle(table.StyleRounded)
	} else {
		tw.SetStyle(table.StyleLight)
		tw.Style().Options = table.OptionsNoBordersAndSeparators
	}

	header := make(table.Row, columns)
	for i := 0; i < columns; i++ {
		header[i] = headers[i]
	}
	tw.AppendHeader(header)

	for _, row := range rows {
		r := make(table.Row, columns)
		for i := 0; i < columns; i++ {
			if i < len(row) {
				r[i] = row[i]
			} else {
				r[i] = ""
			}
		}
		tw.AppendRow(r)
	}

	columnConfigs := make([]table.ColumnConfig, 0, columns)
	for i := 0; i < columns; i++ {
		align := text.AlignLeft
		if i < len(aligns) && aligns[i] == alignRight {
			align = text.AlignRight
		}
		columnConfigs = append(columnConfigs, table.ColumnConfig{
			Number:      i + 1,
			Align:       align,
			AlignHeader: text.AlignLeft,
		})
	}
	tw.SetColumnConfigs(columnConfigs)

	return tw.Render()
}

// isTerminal сообщает, что поток подключён к терминалу
func isTerminal(stream any) bool {
	file, ok := stream.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// writeJSON пишет v в stdout команды с отступами
func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// renderCatalog печатает каталог таблицей или сообщением о пустом каталоге
func renderCatalog(w io.Writer, catalog domain.Catalog, pretty bool) {
	if catalog.Empty() {
		fmt.Fprintln(w, domain.NoCameraMessage)
		return
	}

	headers := []string{"#", "Камера", "Тип", "Ориентация", "Разрешение", "FPS", "ID устройства"}
	aligns := []columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignLeft}
	rows := make([][]string, 0, catalog.Len())
	for i, cam := range catalog.Cameras {
		settings := cam.Profile.Settings
		fps := "-"
		if settings.FrameRate > 0 {
			fps = strconv.FormatFloat(settings.FrameRate, 'f', -1, 64)
		}
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			cam.DisplayLabel,
			fmt.Sprintf("%s %s", cam.Icon, cam.Role),
			string(cam.Orientation),
			settings.Resolution().String(),
			fps,
			cam.DeviceID,
		})
	}
	fmt.Fprintln(w, renderTable(headers, rows, aligns, pretty))
}

package result

import (
	"fmt"
	"io"

	"github.com/pterm/pterm"

	"github.com/CompassSecurity/logleek/pkg/scanner/types"
)

// NoSourcesMessage is printed instead of an empty catalog table.
const NoSourcesMessage = "No log groups or streams found in any region"

// RenderCatalog renders the log sources as a table with a Region, Log Group and Log Stream column.
func RenderCatalog(sources []types.LogSource) (string, error) {
	if len(sources) == 0 {
		return NoSourcesMessage + "\n", nil
	}

	data := pterm.TableData{{"Region", "Log Group", "Log Stream"}}
	for _, s := range sources {
		data = append(data, []string{CleanText(s.Region), CleanText(s.Group), CleanText(s.Stream)})
	}

	return pterm.DefaultTable.WithHasHeader().WithBoxed().WithData(data).Srender()
}

// PrintCatalog writes the rendered catalog to w.
func PrintCatalog(w io.Writer, sources []types.LogSource) error {
	table, err := RenderCatalog(sources)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, table)
	return err
}

package result

import (
	"fmt"
	"io"

	"github.com/pterm/pterm"

	"github.com/CompassSecurity/logleek/pkg/scanner/types"
)

// RenderPatterns renders the detection rules in declaration order.
func RenderPatterns(set *types.PatternSet) (string, error) {
	if set.Len() == 0 {
		return "No patterns loaded\n", nil
	}

	data := pterm.TableData{{"Name", "Confidence", "Description", "Regex"}}
	for _, p := range set.Patterns {
		data = append(data, []string{p.Name, p.Confidence, p.Description, p.Regex})
	}
	return pterm.DefaultTable.WithHasHeader().WithBoxed().WithData(data).Srender()
}

// PrintPatterns writes the rendered rules to w.
func PrintPatterns(w io.Writer, set *types.PatternSet) error {
	table, err := RenderPatterns(set)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, table)
	return err
}

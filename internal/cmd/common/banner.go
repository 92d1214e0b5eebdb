package common

import (
	"fmt"
	"io"
	"os"

	"github.com/pterm/pterm"
	"golang.org/x/term"
)

const banner = `
 _                 _           _
| | ___   __ _    | | ___  ___| | __
| |/ _ \ / _' |   | |/ _ \/ _ \ |/ /
| | (_) | (_| |   | |  __/  __/   <
|_|\___/ \__, |   |_|\___|\___|_|\_\
         |___/
`

// PrintBanner writes the startup banner and the version to w.
func PrintBanner(w io.Writer) {
	_, _ = fmt.Fprintln(w, pterm.FgLightCyan.Sprint(banner))
	_, _ = fmt.Fprintf(w, "  logleek %s (%s)\n\n", Version, Commit)
}

// printBannerIfInteractive shows the banner on stderr for console runs only.
func printBannerIfInteractive() {
	if JsonLogoutput || !term.IsTerminal(int(os.Stderr.Fd())) {
		return
	}
	PrintBanner(os.Stderr)
}

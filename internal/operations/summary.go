package operations

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/UdayIND/MC3-Summit/internal/config"
)

// PrintSummary prints the end-of-run summary: the number of years in every
// theme followed by the files written.
func PrintSummary(w io.Writer, catalog *config.Catalog, outputDir string, result *RunResult) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Data processing summary:")
	for i, theme := range result.Themes {
		label := theme.Name
		if i < len(catalog.Themes) && catalog.Themes[i].Name == theme.Name {
			label = catalog.Themes[i].Label()
		}
		fmt.Fprintf(w, "%s data: %d years\n", label, len(theme.Rows))
	}

	if degraded := result.Manifest.Degraded(); len(degraded) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Indicators without data:")
		for _, ind := range degraded {
			fmt.Fprintf(w, "  - %s (%s: %s)\n", ind.Name, ind.Status, ind.Reason)
		}
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "Processed files created in '%s' directory:\n", filepath.Base(outputDir)+"/")
	for _, path := range result.Files {
		fmt.Fprintf(w, "  - %s\n", filepath.Base(path))
	}
}

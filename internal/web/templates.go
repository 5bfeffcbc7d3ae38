package web

import (
	"embed"
	"fmt"
	"html/template"
	"time"

	"ledgerdash.mini/ldm/internal/types"
	"ledgerdash.mini/ldm/internal/views"
)

//go:embed templates/*.html
var templateFS embed.FS

var templateFuncs = template.FuncMap{
	"blockTime": func(b types.Block) string {
		return b.CreatedAt().Local().Format("2006-01-02 15:04:05")
	},
	"clock": func(t time.Time) string {
		if t.IsZero() {
			return "never"
		}
		return t.Local().Format("15:04:05")
	},
	"output":  views.FormatOutput,
	"amount":  func(f float64) string { return fmt.Sprintf("%g", f) },
	"errText": errText,
	"short": shorten,
}

// parseTemplates parses the templates embedded in the binary.
func parseTemplates() (*template.Template, error) {
	return template.New("").Funcs(templateFuncs).ParseFS(templateFS, "templates/*.html")
}

// shorten keeps the first 15 runes of a hash or address for display.
func shorten(s string) string {
	r := []rune(s)
	if len(r) <= 15 {
		return s
	}
	return string(r[:15]) + "..."
}

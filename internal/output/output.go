// Package output renders upload results for the terminal.
package output

import (
	"fmt"
	"html"
	"strings"

	"github.com/autumnsgrove/cdnup/internal/model"
)

// Render formats one line per result in the requested format. Failed items
// are not in results and are reported separately by the caller.
func Render(results []model.UploadResult, format model.OutputFormat) string {
	var b strings.Builder
	for _, r := range results {
		b.WriteString(Line(r, format))
		b.WriteByte('\n')
	}
	return b.String()
}

// Line renders a single result.
func Line(r model.UploadResult, format model.OutputFormat) string {
	switch format {
	case model.FormatMarkdown:
		return fmt.Sprintf("![%s](%s)", description(r), r.URL)
	case model.FormatHTML:
		return fmt.Sprintf("<img src=%q alt=%q>", r.URL, html.EscapeString(altText(r)))
	default:
		return r.URL
	}
}

func description(r model.UploadResult) string {
	if r.Analysis == nil {
		return r.Filename
	}
	// Brackets would break the markdown image syntax.
	repl := strings.NewReplacer("[", "", "]", "")
	return repl.Replace(r.Analysis.Description)
}

func altText(r model.UploadResult) string {
	if r.Analysis == nil {
		return r.Filename
	}
	if r.Analysis.AltText != "" {
		return r.Analysis.AltText
	}
	return r.Analysis.Description
}

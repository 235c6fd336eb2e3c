// Package analyzer produces AI-generated descriptions, alt text and tags for
// processed images. Providers are selected once at configuration time; the
// orchestrator only ever sees the port.Analyzer capability flag.
package analyzer

import (
	"encoding/json"
	"strings"

	"github.com/autumnsgrove/cdnup/internal/model"
)

const analysisPrompt = `Analyze this image and provide:
1. A concise description (maximum 15 words)
2. Detailed alt text for accessibility (1-2 sentences)
3. 3-5 relevant tags for categorization

Return as JSON:
{
  "description": "...",
  "alt_text": "...",
  "tags": ["tag1", "tag2", ...]
}`

// parseRecord extracts an AnalysisRecord from a model response. Providers
// do not always return bare JSON, so fall back to scanning for the first
// balanced object and, failing that, degrade the raw text into a record.
func parseRecord(text string) *model.AnalysisRecord {
	var rec model.AnalysisRecord
	if err := json.Unmarshal([]byte(text), &rec); err == nil && rec.Description != "" {
		return &rec
	}

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start >= 0 && end > start {
		if err := json.Unmarshal([]byte(text[start:end+1]), &rec); err == nil {
			return &rec
		}
	}

	desc := text
	if len(desc) > 100 {
		desc = desc[:100]
	}
	return &model.AnalysisRecord{
		Description: desc,
		AltText:     text,
	}
}

package output

import (
	"testing"

	"github.com/autumnsgrove/cdnup/internal/model"
)

func testResult() model.UploadResult {
	return model.UploadResult{
		URL: "https://cdn.example.com/photos/2026/03/07/a-red-bicycle_abcd1234.webp",
		Analysis: &model.AnalysisRecord{
			Description: "A red bicycle against a wall",
			AltText:     "red bicycle leaning on a brick wall",
		},
	}
}

func TestLinePlain(t *testing.T) {
	r := testResult()
	if got := Line(r, model.FormatPlain); got != r.URL {
		t.Fatalf("expected the raw URL, got %q", got)
	}
}

func TestLineMarkdown(t *testing.T) {
	got := Line(testResult(), model.FormatMarkdown)
	want := "![A red bicycle against a wall](https://cdn.example.com/photos/2026/03/07/a-red-bicycle_abcd1234.webp)"
	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestLineMarkdownStripsBrackets(t *testing.T) {
	r := testResult()
	r.Analysis.Description = "A [weird] caption"

	got := Line(r, model.FormatMarkdown)
	want := "![A weird caption](https://cdn.example.com/photos/2026/03/07/a-red-bicycle_abcd1234.webp)"
	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestLineHTML(t *testing.T) {
	got := Line(testResult(), model.FormatHTML)
	want := `<img src="https://cdn.example.com/photos/2026/03/07/a-red-bicycle_abcd1234.webp" alt="red bicycle leaning on a brick wall">`
	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestLineWithoutAnalysisFallsBackToFilename(t *testing.T) {
	r := testResult()
	r.Analysis = nil
	r.Filename = "bicycle.jpg"

	if got := Line(r, model.FormatMarkdown); got != "![bicycle.jpg]("+r.URL+")" {
		t.Fatalf("expected the filename as caption, got %q", got)
	}
	if got := Line(r, model.FormatHTML); got != `<img src="`+r.URL+`" alt="bicycle.jpg">` {
		t.Fatalf("expected the filename as alt, got %q", got)
	}
}

func TestLineWithoutAnalysisOrFilename(t *testing.T) {
	r := testResult()
	r.Analysis = nil

	if got := Line(r, model.FormatMarkdown); got != "![]("+r.URL+")" {
		t.Fatalf("expected an empty caption, got %q", got)
	}
}

func TestRenderOneLinePerResult(t *testing.T) {
	results := []model.UploadResult{
		{URL: "https://cdn.example.com/a.webp"},
		{URL: "https://cdn.example.com/b.webp"},
	}

	got := Render(results, model.FormatPlain)
	want := "https://cdn.example.com/a.webp\nhttps://cdn.example.com/b.webp\n"
	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

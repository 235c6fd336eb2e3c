// Package document extracts image references from Markdown and HTML
// documents and rewrites them span-exactly with resolved CDN URLs.
package document

import (
	"fmt"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"golang.org/x/net/html"
)

// Format is the declared flavor of a document.
type Format string

const (
	Markdown Format = "markdown"
	HTML     Format = "html"
)

// RefClass says what a reference points at.
type RefClass string

const (
	// RefCDN: already hosted on the configured custom domain; skip.
	RefCDN RefClass = "cdn"
	// RefExternal: absolute URL on another host; leave as-is.
	RefExternal RefClass = "external"
	// RefLocal: a path to resolve against the document's directory.
	RefLocal RefClass = "local"
)

// Reference is one image reference found in a document. Start and End are
// byte offsets of the reference path itself, so URL replacement is
// surgical; FragStart and FragEnd span the whole syntax fragment around it
// (the `![alt](path)` or `<img>` markup), for rewrites that swap the syntax
// too.
type Reference struct {
	Raw       string
	Start     int
	End       int
	FragStart int
	FragEnd   int
	Class     RefClass
	// Path is the absolute local path for RefLocal references.
	Path string
}

// markdownImage captures the path group of ![alt](path.ext). The path is
// matched lazily so filenames with spaces survive.
var markdownImage = regexp.MustCompile(`(?i)!\[[^\]]*\]\(\s*(.+?\.(?:jpg|jpeg|png|gif|webp))\s*\)`)

var imageExt = regexp.MustCompile(`(?i)\.(jpg|jpeg|png|gif|webp)$`)

// Extract finds every image reference in document order. Markdown documents
// are scanned for both Markdown image syntax and literal <img> markup, since
// the two flavors routinely mix.
func Extract(content string, format Format) []Reference {
	var refs []Reference

	if format == Markdown {
		for _, m := range markdownImage.FindAllStringSubmatchIndex(content, -1) {
			refs = append(refs, Reference{
				Raw:       content[m[2]:m[3]],
				Start:     m[2],
				End:       m[3],
				FragStart: m[0],
				FragEnd:   m[1],
			})
		}
	}

	refs = append(refs, extractIMGTags(content)...)

	sort.Slice(refs, func(i, j int) bool { return refs[i].Start < refs[j].Start })
	return dedupeOverlaps(refs)
}

// extractIMGTags walks the content with the html tokenizer, tracking byte
// offsets through the raw token stream so each src value gets an exact span.
func extractIMGTags(content string) []Reference {
	var refs []Reference

	z := html.NewTokenizer(strings.NewReader(content))
	offset := 0
	for {
		tt := z.Next()
		raw := string(z.Raw())
		if tt == html.ErrorToken {
			break
		}
		if tt == html.StartTagToken || tt == html.SelfClosingTagToken {
			name, hasAttr := z.TagName()
			if string(name) == "img" && hasAttr {
				for {
					key, val, more := z.TagAttr()
					if string(key) == "src" {
						src := string(val)
						if imageExt.MatchString(src) {
							if idx := strings.Index(raw, src); idx >= 0 {
								refs = append(refs, Reference{
									Raw:       src,
									Start:     offset + idx,
									End:       offset + idx + len(src),
									FragStart: offset,
									FragEnd:   offset + len(raw),
								})
							}
						}
					}
					if !more {
						break
					}
				}
			}
		}
		offset += len(raw)
	}
	return refs
}

// dedupeOverlaps drops references whose span falls inside an earlier one,
// which happens when the Markdown and HTML scans both hit the same text.
func dedupeOverlaps(refs []Reference) []Reference {
	out := refs[:0]
	lastEnd := -1
	for _, r := range refs {
		if r.Start < lastEnd {
			continue
		}
		out = append(out, r)
		lastEnd = r.End
	}
	return out
}

// Classify decides, in priority order: already on the configured CDN domain;
// an absolute URL on some other host; otherwise a local path.
func Classify(ref, cdnDomain string) RefClass {
	if cdnDomain != "" && strings.Contains(ref, cdnDomain) {
		return RefCDN
	}
	if strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") || strings.HasPrefix(ref, "//") {
		return RefExternal
	}
	return RefLocal
}

// ResolveLocal resolves a local reference against the document's directory.
func ResolveLocal(ref, docDir string) string {
	if filepath.IsAbs(ref) {
		return filepath.Clean(ref)
	}
	return filepath.Clean(filepath.Join(docDir, ref))
}

// Rewrite replaces the spans of references whose raw text has a resolved URL
// in urls. All other bytes of the document are copied through untouched; the
// input is never mutated.
func Rewrite(content string, refs []Reference, urls map[string]string) string {
	var b strings.Builder
	b.Grow(len(content))

	prev := 0
	for _, r := range refs {
		url, ok := urls[r.Raw]
		if !ok {
			continue
		}
		b.WriteString(content[prev:r.Start])
		b.WriteString(url)
		prev = r.End
	}
	b.WriteString(content[prev:])
	return b.String()
}

// RewriteFragments replaces the whole syntax fragment of each mapped
// reference instead of just its path, for documents rewritten into a
// different image syntax than they were written in. Unmapped fragments are
// copied through untouched.
func RewriteFragments(content string, refs []Reference, frags map[string]string) string {
	var b strings.Builder
	b.Grow(len(content))

	prev := 0
	for _, r := range refs {
		frag, ok := frags[r.Raw]
		if !ok {
			continue
		}
		b.WriteString(content[prev:r.FragStart])
		b.WriteString(frag)
		prev = r.FragEnd
	}
	b.WriteString(content[prev:])
	return b.String()
}

// DetectFormat maps a document path to its format.
func DetectFormat(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".md", ".markdown":
		return Markdown, nil
	case ".html", ".htm":
		return HTML, nil
	default:
		return "", fmt.Errorf("unsupported document type: %q", filepath.Ext(path))
	}
}

// SiblingOutputPath returns the path the rewritten document is saved to:
// a _cdn-suffixed sibling, so the original is never overwritten.
func SiblingOutputPath(path string) string {
	ext := filepath.Ext(path)
	return strings.TrimSuffix(path, ext) + "_cdn" + ext
}

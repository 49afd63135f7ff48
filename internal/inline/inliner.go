// Package inline enriches markdown with text recognised from its images.
//
// Image references are located in three forms: standard markdown images,
// wiki-style embeds, and raw HTML img tags. For every referenced image
// whose bytes are available, OCR output is inlined directly after the
// reference so the chunker and keyword search see the recognised text.
package inline

import (
	"context"
	"net/url"
	"path"
	"regexp"
	"sort"
	"strings"

	"github.com/vellum-search/vellum/internal/core/ports/driven"
	"github.com/vellum-search/vellum/internal/logger"
)

var (
	markdownImagePattern = regexp.MustCompile(`!\[[^\]]*\]\(([^)\s]+)(?:\s+"[^"]*")?\)`)
	wikiImagePattern     = regexp.MustCompile(`!\[\[([^\]]+)\]\]`)
	htmlImagePattern     = regexp.MustCompile(`(?i)<img[^>]*src=["']([^"']+)["'][^>]*>`)
)

// Inliner runs OCR over a document's images and splices the recognised
// text back into the markdown body.
type Inliner struct {
	ocr      driven.OCRService
	language string
}

// New creates an inliner backed by the given OCR service.
// Language selects the OCR recognition language; empty uses the
// service default.
func New(ocr driven.OCRService, language string) *Inliner {
	return &Inliner{ocr: ocr, language: language}
}

// Enrich OCRs every supplied image and inserts an "[OCR: <name>]" marker
// line followed by the recognised text immediately after each reference
// to that image. References whose image is unreadable, or whose OCR
// output is blank, are left untouched; a single bad image never fails
// the enrichment. Recognised text for images never referenced in the
// body, and the list of supplied image names, are appended as trailers.
//
// Insertion follows the order the references appear in the markdown, so
// output is deterministic for a given input.
func (in *Inliner) Enrich(ctx context.Context, markdown string, images map[string][]byte) string {
	if len(images) == 0 {
		return markdown
	}

	recognised := in.runOCR(ctx, images)

	used := make(map[string]bool)
	out := markdown
	for _, pattern := range []*regexp.Regexp{markdownImagePattern, wikiImagePattern, htmlImagePattern} {
		out = insertAfterRefs(out, pattern, recognised, used)
	}

	var b strings.Builder
	b.WriteString(strings.TrimSpace(out))

	leftover := make([]string, 0, len(recognised))
	for name := range recognised {
		if !used[name] {
			leftover = append(leftover, name)
		}
	}
	if len(leftover) > 0 {
		sort.Strings(leftover)
		b.WriteString("\n\n---\nImage OCR (unreferenced)\n")
		for _, name := range leftover {
			b.WriteString("[OCR: ")
			b.WriteString(name)
			b.WriteString("]\n")
			b.WriteString(recognised[name])
			b.WriteString("\n")
		}
	}

	names := make([]string, 0, len(images))
	for name := range images {
		names = append(names, name)
	}
	sort.Strings(names)
	b.WriteString("\n\n---\nImage attachments\n")
	for _, name := range names {
		b.WriteString("- ")
		b.WriteString(name)
		b.WriteString("\n")
	}

	return strings.TrimSpace(b.String())
}

// RefsTrailer appends a trailer listing the image paths referenced in
// the markdown, resolved against the directory of sourcePath when one
// is given. Markdown without image references is returned unchanged.
func RefsTrailer(markdown, sourcePath string) string {
	matches := markdownImagePattern.FindAllStringSubmatch(markdown, -1)
	if len(matches) == 0 {
		return markdown
	}

	baseDir := ""
	if strings.TrimSpace(sourcePath) != "" {
		baseDir = path.Dir(strings.ReplaceAll(sourcePath, "\\", "/"))
	}

	seen := make(map[string]bool)
	refs := make([]string, 0, len(matches))
	for _, m := range matches {
		ref := strings.TrimSpace(m[1])
		if ref == "" {
			continue
		}
		if baseDir != "" && !strings.Contains(ref, "://") {
			ref = path.Join(baseDir, ref)
		}
		if !seen[ref] {
			seen[ref] = true
			refs = append(refs, ref)
		}
	}
	if len(refs) == 0 {
		return markdown
	}

	var b strings.Builder
	b.WriteString(strings.TrimSpace(markdown))
	b.WriteString("\n\n---\nImage references")
	if strings.TrimSpace(sourcePath) != "" {
		b.WriteString(" (source: ")
		b.WriteString(strings.TrimSpace(sourcePath))
		b.WriteString(")")
	}
	b.WriteString(":\n")
	for _, ref := range refs {
		b.WriteString("- ")
		b.WriteString(ref)
		b.WriteString("\n")
	}
	return strings.TrimSpace(b.String())
}

// runOCR extracts text for every usable image, keyed by normalized name.
func (in *Inliner) runOCR(ctx context.Context, images map[string][]byte) map[string]string {
	names := make([]string, 0, len(images))
	for name := range images {
		names = append(names, name)
	}
	sort.Strings(names)

	recognised := make(map[string]string, len(images))
	for _, name := range names {
		data := images[name]
		if strings.TrimSpace(name) == "" || len(data) == 0 {
			continue
		}
		text, err := in.ocr.ExtractText(ctx, data, name, in.language)
		if err != nil {
			logger.Warn("OCR failed for %s: %v", name, err)
			continue
		}
		text = strings.TrimSpace(text)
		if text == "" {
			logger.Debug("OCR recognised nothing in %s", name)
			continue
		}
		recognised[NormalizeImageName(name)] = text
	}
	return recognised
}

// insertAfterRefs appends the recognised text after every reference the
// pattern finds, marking consumed names in used.
func insertAfterRefs(markdown string, pattern *regexp.Regexp, recognised map[string]string, used map[string]bool) string {
	locs := pattern.FindAllStringSubmatchIndex(markdown, -1)
	if len(locs) == 0 {
		return markdown
	}

	var b strings.Builder
	last := 0
	for _, loc := range locs {
		end := loc[1]
		b.WriteString(markdown[last:end])
		name := NormalizeImageName(markdown[loc[2]:loc[3]])
		if text, ok := recognised[name]; ok {
			b.WriteString("\n\n[OCR: ")
			b.WriteString(name)
			b.WriteString("]\n")
			b.WriteString(text)
			b.WriteString("\n")
			used[name] = true
		}
		last = end
	}
	b.WriteString(markdown[last:])
	return b.String()
}

// NormalizeImageName reduces an image reference to a lowercase base
// filename: wiki display suffixes ("|"), fragments ("#") and directory
// components are stripped, and URLs are reduced to their final path
// segment.
func NormalizeImageName(raw string) string {
	clean := strings.TrimSpace(raw)
	if clean == "" {
		return ""
	}
	if idx := strings.Index(clean, "|"); idx > 0 {
		clean = clean[:idx]
	}
	if idx := strings.Index(clean, "#"); idx > 0 {
		clean = clean[:idx]
	}
	clean = strings.ReplaceAll(clean, "\\", "/")
	if strings.HasPrefix(clean, "http://") || strings.HasPrefix(clean, "https://") {
		if u, err := url.Parse(clean); err == nil && u.Path != "" {
			clean = u.Path
		}
	}
	name := path.Base(clean)
	if name == "." || name == "/" {
		return ""
	}
	return strings.ToLower(name)
}

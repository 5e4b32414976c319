package seeder

import (
	"crypto/md5"
	"encoding/hex"
	"net/url"
	"path"
	"regexp"
	"strings"
	"unicode"
)

// ContentProcessor handles text processing and cleanup
type ContentProcessor struct {
	inlineWhitespace *regexp.Regexp
	htmlTags         *regexp.Regexp
	citationMarks    *regexp.Regexp
	nonSlug          *regexp.Regexp
}

func NewContentProcessor() *ContentProcessor {
	return &ContentProcessor{
		inlineWhitespace: regexp.MustCompile(`[ \t\f\r\v\x{00a0}]+`),
		htmlTags:         regexp.MustCompile(`<[^>]*>`),
		citationMarks:    regexp.MustCompile(`\[(\d+|edit|citation needed)\]`),
		nonSlug:          regexp.MustCompile(`[^a-z0-9]+`),
	}
}

// CleanContent strips leftover markup and normalizes whitespace. Paragraph
// breaks survive, with at most one blank line between paragraphs.
func (cp *ContentProcessor) CleanContent(content string) string {
	content = cp.htmlTags.ReplaceAllString(content, "")
	content = cp.citationMarks.ReplaceAllString(content, "")

	lines := strings.Split(content, "\n")
	var cleaned []string
	emptyLines := 0

	for _, line := range lines {
		line = strings.TrimSpace(cp.inlineWhitespace.ReplaceAllString(line, " "))
		if line == "" {
			emptyLines++
			if emptyLines == 1 && len(cleaned) > 0 {
				cleaned = append(cleaned, "")
			}
			continue
		}
		emptyLines = 0
		cleaned = append(cleaned, line)
	}

	return strings.TrimSpace(strings.Join(cleaned, "\n"))
}

// CountWords estimates word count in text
func (cp *ContentProcessor) CountWords(text string) int {
	if text == "" {
		return 0
	}

	words := strings.FieldsFunc(text, func(c rune) bool {
		return unicode.IsSpace(c) || unicode.IsPunct(c)
	})

	count := 0
	for _, word := range words {
		if len(word) > 1 {
			count++
		}
	}
	return count
}

// ContentHash fingerprints cleaned text so unchanged pages can be skipped.
func (cp *ContentProcessor) ContentHash(content string) string {
	hash := md5.Sum([]byte(content))
	return hex.EncodeToString(hash[:])
}

// Slug turns a title or path into a lowercase dash separated token.
func (cp *ContentProcessor) Slug(s string) string {
	slug := cp.nonSlug.ReplaceAllString(strings.ToLower(s), "-")
	slug = strings.Trim(slug, "-")
	if len(slug) > 80 {
		slug = strings.TrimRight(slug[:80], "-")
	}
	return slug
}

// FileName picks the upload name for a page: the slug of its URL path,
// then of its title, then of its host. The name is what answers cite.
func (cp *ContentProcessor) FileName(pageURL, title string) string {
	var candidates []string
	if u, err := url.Parse(pageURL); err == nil {
		p := strings.TrimSuffix(u.Path, "/")
		p = strings.TrimSuffix(p, path.Ext(p))
		candidates = append(candidates, p, title, u.Host)
	} else {
		candidates = append(candidates, title)
	}

	for _, c := range candidates {
		if slug := cp.Slug(c); slug != "" {
			return slug + ".txt"
		}
	}
	return "page.txt"
}

// Document renders the uploaded text with a small header so retrieved
// chunks carry their origin.
func (cp *ContentProcessor) Document(title, pageURL, content string) []byte {
	var b strings.Builder
	if title != "" {
		b.WriteString("Title: " + title + "\n")
	}
	b.WriteString("Source: " + pageURL + "\n\n")
	b.WriteString(content)
	b.WriteString("\n")
	return []byte(b.String())
}

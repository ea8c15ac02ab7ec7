package render

import (
	"regexp"
	"strings"

	"github.com/starford/ansuz/internal/models"
)

const (
	defaultTitle  = "Untitled"
	titleMaxRunes = 60
	descMaxRunes  = 200
)

var (
	mdImageRe   = regexp.MustCompile(`!\[[^\]]*\]\(([^)\s]+)\)`)
	htmlImageRe = regexp.MustCompile(`<img[^>]*src="([^"]+)"`)
)

// Metadata holds preview fields for a note (link previews, page head tags).
type Metadata struct {
	Title       string
	Description string
	Image       string
}

// ExtractMetadata derives preview metadata from the raw note.
//
// Title is the explicit title when set, otherwise the first non-empty
// content line with leading '#' markers stripped. Description is the
// leading content; when the title was inferred from a multi-line body the
// first line is skipped. Image is the first markdown or HTML image in the
// content, whichever occurs first.
func ExtractMetadata(n *models.Note) Metadata {
	m := Metadata{
		Title: strings.TrimSpace(n.Title),
		Image: firstImage(n.Content),
	}

	descSource := n.Content
	if m.Title == "" {
		m.Title = inferredTitle(n.Content)
		if parts := strings.SplitN(n.Content, "\n", 2); len(parts) == 2 {
			descSource = parts[1]
		}
	}
	if m.Title == "" {
		m.Title = defaultTitle
	}

	m.Description = truncate(strings.TrimSpace(descSource), descMaxRunes)
	if a := strings.TrimSpace(n.Author); a != "" {
		m.Description = "By " + a + ". " + m.Description
	}
	return m
}

func inferredTitle(content string) string {
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		line = strings.TrimSpace(strings.TrimLeft(line, "#"))
		return truncate(line, titleMaxRunes)
	}
	return ""
}

// firstImage returns the URL of the lexically first markdown or HTML image
// in content, or empty string.
func firstImage(content string) string {
	md := mdImageRe.FindStringSubmatchIndex(content)
	htm := htmlImageRe.FindStringSubmatchIndex(content)

	switch {
	case md == nil && htm == nil:
		return ""
	case htm == nil || (md != nil && md[0] < htm[0]):
		return content[md[2]:md[3]]
	default:
		return content[htm[2]:htm[3]]
	}
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max])
}

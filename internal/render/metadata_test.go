package render

import (
	"strings"
	"testing"

	"github.com/starford/ansuz/internal/models"
)

func TestExtractMetadata_ExplicitTitle(t *testing.T) {
	m := ExtractMetadata(&models.Note{Title: "My Note", Content: "# Ignored\n\nBody."})
	if m.Title != "My Note" {
		t.Errorf("title = %q", m.Title)
	}
	// Explicit title: description keeps the whole content.
	if !strings.Contains(m.Description, "# Ignored") {
		t.Errorf("description = %q", m.Description)
	}
}

func TestExtractMetadata_InferredTitle(t *testing.T) {
	m := ExtractMetadata(&models.Note{Content: "# Title\n\nBody **bold**."})
	if m.Title != "Title" {
		t.Errorf("title = %q, want Title", m.Title)
	}
	if strings.Contains(m.Description, "Title") {
		t.Errorf("inferred title leaked into description: %q", m.Description)
	}
	if !strings.Contains(m.Description, "Body **bold**.") {
		t.Errorf("description = %q", m.Description)
	}
}

func TestExtractMetadata_DefaultTitle(t *testing.T) {
	m := ExtractMetadata(&models.Note{Content: ""})
	if m.Title != defaultTitle {
		t.Errorf("title = %q, want %q", m.Title, defaultTitle)
	}
}

func TestExtractMetadata_TitleTruncated(t *testing.T) {
	long := strings.Repeat("x", 100)
	m := ExtractMetadata(&models.Note{Content: long})
	if len(m.Title) != titleMaxRunes {
		t.Errorf("len(title) = %d, want %d", len(m.Title), titleMaxRunes)
	}
}

func TestExtractMetadata_DescriptionTruncatedAndPrefixed(t *testing.T) {
	body := strings.Repeat("a", 300)
	m := ExtractMetadata(&models.Note{Title: "T", Author: "Alice", Content: body})
	if !strings.HasPrefix(m.Description, "By Alice. ") {
		t.Errorf("description = %q", m.Description)
	}
	if got := strings.TrimPrefix(m.Description, "By Alice. "); len(got) != descMaxRunes {
		t.Errorf("trimmed description length = %d, want %d", len(got), descMaxRunes)
	}
}

func TestExtractMetadata_ImageMarkdownFirst(t *testing.T) {
	content := "intro ![alt](https://img.example/a.png) then <img src=\"https://img.example/b.png\">"
	m := ExtractMetadata(&models.Note{Title: "T", Content: content})
	if m.Image != "https://img.example/a.png" {
		t.Errorf("image = %q", m.Image)
	}
}

func TestExtractMetadata_ImageHTMLFirst(t *testing.T) {
	content := "<img src=\"https://img.example/b.png\"> then ![alt](https://img.example/a.png)"
	m := ExtractMetadata(&models.Note{Title: "T", Content: content})
	if m.Image != "https://img.example/b.png" {
		t.Errorf("image = %q", m.Image)
	}
}

func TestExtractMetadata_NoImage(t *testing.T) {
	m := ExtractMetadata(&models.Note{Title: "T", Content: "no pictures here"})
	if m.Image != "" {
		t.Errorf("image = %q, want empty", m.Image)
	}
}

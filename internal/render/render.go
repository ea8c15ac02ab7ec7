// Package render converts note markdown into display HTML and extracts
// preview metadata.
//
// Post-processing is regular-expression driven text rewriting, not an
// HTML-aware transform; pathological nested markup can misfire. That is an
// accepted property of this pipeline — the rewrites are anchored to the
// shapes the markdown engine actually emits.
package render

import (
	"bytes"
	"regexp"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	ghtml "github.com/yuin/goldmark/renderer/html"

	"github.com/starford/ansuz/internal/models"
)

var (
	// ~~...~~ spans multiple lines, non-greedy.
	strikeRe = regexp.MustCompile(`(?s)~~(.*?)~~`)

	anchorRe   = regexp.MustCompile(`<a(.*?)href="(.*?)"(.*?)>`)
	anchorYTRe = regexp.MustCompile(`<p><a href="https?://(?:www\.)?youtu\.be/([^"]+)".*?>.*?</a></p>`)
	plainYTRe  = regexp.MustCompile(`<p>https?://(?:www\.)?youtu\.be/([^<]+)</p>`)
)

const ytEmbed = `<iframe width="560" height="315" src="https://www.youtube.com/embed/${1}" frameborder="0" allowfullscreen></iframe>`

// engine renders note markdown with fenced code (native CommonMark),
// tables, and footnotes. Raw HTML passes through so the strikethrough
// pre-pass output survives conversion.
var engine = goldmark.New(
	goldmark.WithExtensions(extension.Table, extension.Footnote),
	goldmark.WithRendererOptions(ghtml.WithUnsafe()),
)

// HTML renders markdown into display HTML.
//
// Pipeline order matters: the strikethrough pre-pass runs on the raw text
// before markdown conversion, and the generic anchor rewrite runs before
// embed substitution so anchors targeted for embedding still match.
func HTML(md, linkTarget string) string {
	pre := strikeRe.ReplaceAllString(md, "<del>$1</del>")

	var buf bytes.Buffer
	if err := engine.Convert([]byte(pre), &buf); err != nil {
		// Convert only fails on writer errors, which a Buffer never has.
		return ""
	}
	return postProcess(buf.String(), linkTarget)
}

// postProcess forces target/rel on every anchor, then replaces paragraphs
// holding exactly a youtu.be short link (anchored or bare) with an embed
// iframe. Each substitution tolerates absence of matches.
func postProcess(content, linkTarget string) string {
	if linkTarget == "" {
		linkTarget = models.LinkTargetBlank
	}
	content = anchorRe.ReplaceAllString(content,
		`<a${1}href="${2}"${3} target="`+linkTarget+`" rel="noopener noreferrer">`)
	content = anchorYTRe.ReplaceAllString(content, ytEmbed)
	content = plainYTRe.ReplaceAllString(content, ytEmbed)
	return content
}

package telegraph

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	ghtml "github.com/yuin/goldmark/renderer/html"
	xhtml "golang.org/x/net/html"
)

// codecMD renders markdown for the node boundary with plain CommonMark
// rules. Raw HTML must pass through so inline tags like <u> survive the
// round trip.
var codecMD = goldmark.New(
	goldmark.WithRendererOptions(ghtml.WithUnsafe()),
)

// voidTags never carry children; they produce no stack push and expect no
// matching end tag.
var voidTags = map[string]bool{
	"br":   true,
	"img":  true,
	"hr":   true,
	"meta": true,
	"link": true,
}

// NodesToMarkdown serializes a node tree depth-first into markdown.
// Unknown tags are transparent: their children are rendered with no
// wrapping. Empty input yields an empty string.
func NodesToMarkdown(nodes []Node) string {
	var b strings.Builder
	for _, n := range nodes {
		writeNode(&b, n)
	}
	return b.String()
}

func writeNode(b *strings.Builder, n Node) {
	if n.IsText() {
		b.WriteString(n.Text)
		return
	}

	switch n.Tag {
	case "p":
		fmt.Fprintf(b, "%s\n\n", NodesToMarkdown(n.Children))
	case "h3":
		fmt.Fprintf(b, "### %s\n\n", NodesToMarkdown(n.Children))
	case "h4":
		fmt.Fprintf(b, "#### %s\n\n", NodesToMarkdown(n.Children))
	case "b", "strong":
		fmt.Fprintf(b, "**%s**", NodesToMarkdown(n.Children))
	case "i", "em":
		fmt.Fprintf(b, "*%s*", NodesToMarkdown(n.Children))
	case "u":
		fmt.Fprintf(b, "<u>%s</u>", NodesToMarkdown(n.Children))
	case "s":
		fmt.Fprintf(b, "~~%s~~", NodesToMarkdown(n.Children))
	case "a":
		fmt.Fprintf(b, "[%s](%s)", NodesToMarkdown(n.Children), n.Attrs["href"])
	case "img":
		fmt.Fprintf(b, "![image](%s)\n\n", n.Attrs["src"])
	case "ul":
		for _, c := range n.Children {
			if c.Tag == "li" {
				fmt.Fprintf(b, "- %s\n", NodesToMarkdown(c.Children))
			}
		}
		b.WriteString("\n")
	case "ol":
		idx := 1
		for _, c := range n.Children {
			if c.Tag == "li" {
				fmt.Fprintf(b, "%d. %s\n", idx, NodesToMarkdown(c.Children))
				idx++
			}
		}
		b.WriteString("\n")
	case "code":
		fmt.Fprintf(b, "`%s`", NodesToMarkdown(n.Children))
	case "pre":
		fmt.Fprintf(b, "```\n%s\n```\n\n", NodesToMarkdown(n.Children))
	case "br":
		b.WriteString("  \n")
	case "hr":
		b.WriteString("---\n\n")
	case "blockquote":
		inner := NodesToMarkdown(n.Children)
		var quoted []string
		for _, line := range strings.Split(inner, "\n") {
			if strings.TrimSpace(line) == "" {
				continue
			}
			quoted = append(quoted, "> "+line)
		}
		fmt.Fprintf(b, "%s\n\n", strings.Join(quoted, "\n"))
	case "li":
		// Normally handled by the parent list; standalone fallback.
		fmt.Fprintf(b, "- %s\n", NodesToMarkdown(n.Children))
	default:
		b.WriteString(NodesToMarkdown(n.Children))
	}
}

// MarkdownToNodes renders markdown to HTML and rebuilds it as a node tree.
//
// The HTML pass uses a streaming tokenizer with an explicit ancestor stack:
// each start tag opens a node, text runs attach to the current top (or the
// root list when the stack is empty), end tags pop. Malformed input never
// errors: unmatched end tags are ignored and unclosed elements are simply
// left where they are. The function is total over its input domain.
func MarkdownToNodes(md string) []Node {
	if md == "" {
		return []Node{}
	}

	var buf bytes.Buffer
	if err := codecMD.Convert([]byte(md), &buf); err != nil {
		return []Node{}
	}
	return parseHTML(buf.String())
}

// parseHTML builds the node tree from an HTML fragment.
//
// Appends only ever target the current top of the stack, so pointers held
// in the stack stay valid: a node's children slice never grows while one of
// its descendants is still open.
func parseHTML(fragment string) []Node {
	root := []Node{}
	var stack []*Node

	appendChild := func(n Node) *Node {
		if len(stack) == 0 {
			root = append(root, n)
			return &root[len(root)-1]
		}
		top := stack[len(stack)-1]
		top.Children = append(top.Children, n)
		return &top.Children[len(top.Children)-1]
	}

	tz := xhtml.NewTokenizer(strings.NewReader(fragment))
	for {
		tt := tz.Next()
		if tt == xhtml.ErrorToken {
			return root
		}
		tok := tz.Token()

		switch tt {
		case xhtml.StartTagToken, xhtml.SelfClosingTagToken:
			n := Node{Tag: tok.Data}
			if len(tok.Attr) > 0 {
				n.Attrs = make(map[string]string, len(tok.Attr))
				for _, a := range tok.Attr {
					n.Attrs[a.Key] = a.Val
				}
			}
			ptr := appendChild(n)
			if tt == xhtml.StartTagToken && !voidTags[tok.Data] {
				stack = append(stack, ptr)
			}
		case xhtml.EndTagToken:
			if voidTags[tok.Data] {
				continue
			}
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
		case xhtml.TextToken:
			if tok.Data == "" {
				continue
			}
			// Whitespace between top-level blocks carries no content.
			if len(stack) == 0 && strings.TrimSpace(tok.Data) == "" {
				continue
			}
			appendChild(TextNode(tok.Data))
		}
	}
}

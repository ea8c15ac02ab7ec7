package mcpserver

// MarkdownGuide describes the markdown dialect notes are written in. It is
// exposed both as a tool and as an MCP resource so clients can learn the
// format before publishing.
const MarkdownGuide = `# Ansuz note format

Notes are plain Markdown with a few extras.

## Basics

The first line becomes the note title when it is a heading:

` + "```markdown" + `
# My Note Title

Body text in **bold**, *italic*, and [links](https://example.com).
` + "```" + `

## Supported extensions

- Fenced code blocks and tables.
- Footnotes: ` + "`text[^1]`" + ` with ` + "`[^1]: definition`" + ` at the bottom.
- Strikethrough: ` + "`~~crossed out~~`" + `, which may span multiple lines.
- Raw inline HTML such as ` + "`<u>underline</u>`" + ` passes through.

## Embeds

A paragraph containing only a youtu.be link becomes an embedded player:

` + "```markdown" + `
https://youtu.be/VIDEO_ID
` + "```" + `

The same happens for a paragraph holding a single youtu.be anchor.

## Links

All links in the rendered page open in a new tab unless the note's link
target is set to _self.
`

package render

import (
	"fmt"
	"strings"

	"github.com/gomarkdown/markdown"
	mdhtml "github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
)

// MarkdownOptions controls Markdown formatting.
type MarkdownOptions struct {
	// ShowJSON includes each expanded section's full JSON.
	ShowJSON bool
}

// Markdown formats the tree as CommonMark-style Markdown. Values from the
// result are escaped so scraped text cannot inject markup.
func Markdown(tree *Tree, opts MarkdownOptions) string {
	if tree == nil {
		return ""
	}

	var sb strings.Builder

	sb.WriteString("## Page Information\n\n")
	for _, f := range tree.Meta {
		fmt.Fprintf(&sb, "- **%s:** %s\n", f.Label, escapeMD(f.Value))
	}

	if in := tree.Interactions; in != nil {
		sb.WriteString("\n## Interactions\n\n")
		fmt.Fprintf(&sb, "- **Clicks:** %d\n- **Scrolls:** %d\n- **Pages Visited:** %d\n", in.Clicks, in.Scrolls, in.Pages)
		if len(in.ClickSelectors) > 0 {
			sb.WriteString("\n**Click Selectors:**\n\n")
			for _, c := range in.ClickSelectors {
				sb.WriteString("- `" + codeSpan(c) + "`\n")
			}
		}
	}

	if len(tree.Errors) > 0 {
		sb.WriteString("\n## Errors\n\n")
		for _, e := range tree.Errors {
			fmt.Fprintf(&sb, "- **%s:** %s\n", escapeMD(e.Phase), escapeMD(e.Message))
		}
	}

	fmt.Fprintf(&sb, "\n## Sections (%d)\n", len(tree.Sections))
	for _, n := range tree.Sections {
		fmt.Fprintf(&sb, "\n### %s `%s` %s\n", n.Marker(), codeSpan(strings.ToUpper(n.Type)), escapeMD(n.Label))
		if n.Body != nil {
			writeMarkdownBody(&sb, n.Body, opts)
		}
	}

	return sb.String()
}

func writeMarkdownBody(sb *strings.Builder, b *SectionBody, opts MarkdownOptions) {
	sb.WriteString("\n")
	for _, f := range b.Fields {
		fmt.Fprintf(sb, "- **%s:** %s\n", f.Label, escapeMD(f.Value))
	}

	if len(b.Headings) > 0 {
		sb.WriteString("\n**Headings:**\n\n")
		for _, h := range b.Headings {
			sb.WriteString("- " + escapeMD(h) + "\n")
		}
	}

	if b.Text != "" {
		sb.WriteString("\n**Text:**\n\n")
		sb.WriteString(escapeMD(b.Text) + "\n")
	}

	if b.Links != nil {
		fmt.Fprintf(sb, "\n**Links (%d):**\n\n", b.Links.Total)
		writeMarkdownItems(sb, *b.Links)
	}

	if b.Images != nil {
		fmt.Fprintf(sb, "\n**Images (%d):**\n\n", b.Images.Total)
		writeMarkdownItems(sb, *b.Images)
	}

	if len(b.Lists) > 0 {
		fmt.Fprintf(sb, "\n**Lists (%d):**\n", len(b.Lists))
		for _, l := range b.Lists {
			sb.WriteString("\n")
			for _, it := range l {
				sb.WriteString("- " + escapeMD(it) + "\n")
			}
		}
	}

	if len(b.Tables) > 0 {
		fmt.Fprintf(sb, "\n**Tables (%d):**\n", len(b.Tables))
		for _, tv := range b.Tables {
			writeMarkdownTable(sb, tv)
		}
	}

	if b.RawHTML != nil {
		raw := b.RawHTML.Text
		if b.RawHTML.Truncated {
			raw += Ellipsis
		}
		sb.WriteString("\n**Raw HTML:**\n\n")
		writeFence(sb, "html", raw)
	}

	if opts.ShowJSON {
		sb.WriteString("\n**Full JSON:**\n\n")
		writeFence(sb, "json", b.JSON)
	}
}

func writeMarkdownItems(sb *strings.Builder, b Bounded[Item]) {
	for _, it := range b.Shown {
		fmt.Fprintf(sb, "- [%s](%s)\n", escapeMD(it.Label), escapeHref(it.Target))
	}
	if b.Remaining > 0 {
		sb.WriteString("- *" + escapeMD(RemainderLabel(b.Remaining, "")) + "*\n")
	}
}

func writeMarkdownTable(sb *strings.Builder, tv TableView) {
	rows := tv.Rows.Shown
	if len(rows) > 0 {
		width := 0
		for _, r := range rows {
			width = max(width, len(r))
		}
		if width > 0 {
			sb.WriteString("\n")
			for i, r := range rows {
				cells := make([]string, width)
				for j := range cells {
					if j < len(r) {
						cells[j] = strings.ReplaceAll(escapeMD(r[j]), "\n", " ")
					}
				}
				sb.WriteString("| " + strings.Join(cells, " | ") + " |\n")
				if i == 0 {
					sb.WriteString("|" + strings.Repeat(" --- |", width) + "\n")
				}
			}
		}
	}
	if tv.Rows.Remaining > 0 {
		sb.WriteString("\n*" + escapeMD(RemainderLabel(tv.Rows.Remaining, "rows")) + "*\n")
	}
}

// writeFence writes body in a fenced block whose fence is longer than any
// backtick run inside body.
func writeFence(sb *strings.Builder, lang, body string) {
	fence := "```"
	for strings.Contains(body, fence) {
		fence += "`"
	}
	sb.WriteString(fence + lang + "\n" + body + "\n" + fence + "\n")
}

var mdEscaper = strings.NewReplacer(
	`\`, `\\`, "`", "\\`", `*`, `\*`, `_`, `\_`,
	`[`, `\[`, `]`, `\]`, `<`, `&lt;`, `>`, `&gt;`,
	`#`, `\#`, `|`, `\|`, `!`, `\!`,
)

func escapeMD(s string) string {
	return mdEscaper.Replace(s)
}

var hrefEscaper = strings.NewReplacer(" ", "%20", "(", "%28", ")", "%29", "<", "%3C", ">", "%3E")

func escapeHref(s string) string {
	return hrefEscaper.Replace(s)
}

func codeSpan(s string) string {
	return strings.ReplaceAll(s, "`", "'")
}

// HTML renders the tree as a standalone HTML page.
func HTML(tree *Tree, title string, opts MarkdownOptions) []byte {
	return Page(Markdown(tree, opts), title)
}

// Page converts Markdown to a standalone HTML page. Raw HTML in the
// Markdown is dropped and only safe link schemes are emitted.
func Page(md, title string) []byte {
	p := parser.NewWithExtensions(parser.CommonExtensions | parser.NoEmptyLineBeforeBlock)
	doc := p.Parse([]byte(md))

	r := mdhtml.NewRenderer(mdhtml.RendererOptions{
		Title: title,
		Flags: mdhtml.CommonFlags | mdhtml.CompletePage | mdhtml.SkipHTML | mdhtml.Safelink | mdhtml.HrefTargetBlank,
	})
	return markdown.Render(doc, r)
}

// EscapeMarkdown escapes s for use as inline Markdown text.
func EscapeMarkdown(s string) string {
	return escapeMD(s)
}

package render

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

var (
	headingStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#CDD6F4"))

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6C7086"))

	tagStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(lipgloss.Color("#2563EB")).
			Padding(0, 1)

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#10B981")).
			Bold(true)

	partialErrorStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#EF4444"))

	mutedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6C7086")).
			Italic(true)

	linkStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#60A5FA"))

	codeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#9CA3AF"))
)

// TextOptions controls terminal formatting.
type TextOptions struct {
	// Selected is the id of the section under the cursor, if any.
	Selected string

	// ShowJSON includes each expanded section's full JSON.
	ShowJSON bool
}

// Text formats the tree for a terminal.
func Text(tree *Tree, opts TextOptions) string {
	if tree == nil {
		return ""
	}

	var sb strings.Builder

	sb.WriteString(headingStyle.Render("Page Information") + "\n")
	writeFields(&sb, tree.Meta, "  ")

	if in := tree.Interactions; in != nil {
		sb.WriteString("\n" + headingStyle.Render("Interactions") + "\n")
		writeFields(&sb, []Field{
			{Label: "Clicks", Value: fmt.Sprint(in.Clicks)},
			{Label: "Scrolls", Value: fmt.Sprint(in.Scrolls)},
			{Label: "Pages Visited", Value: fmt.Sprint(in.Pages)},
		}, "  ")
		if len(in.ClickSelectors) > 0 {
			sb.WriteString("  " + labelStyle.Render("Click Selectors:") + "\n")
			writeBullets(&sb, in.ClickSelectors, "    ")
		}
	}

	if len(tree.Errors) > 0 {
		sb.WriteString("\n" + partialErrorStyle.Bold(true).Render("Errors") + "\n")
		for _, e := range tree.Errors {
			sb.WriteString("  • " + partialErrorStyle.Render(e.Phase+": "+e.Message) + "\n")
		}
	}

	sb.WriteString("\n" + headingStyle.Render(fmt.Sprintf("Sections (%d)", len(tree.Sections))) + "\n")
	for _, n := range tree.Sections {
		writeSection(&sb, n, opts)
	}

	return sb.String()
}

func writeSection(sb *strings.Builder, n SectionNode, opts TextOptions) {
	cursor := "  "
	label := n.Label
	if n.ID == opts.Selected {
		cursor = selectedStyle.Render("> ")
		label = selectedStyle.Render(label)
	}
	fmt.Fprintf(sb, "%s%s %s %s\n", cursor, n.Marker(), tagStyle.Render(strings.ToUpper(n.Type)), label)

	b := n.Body
	if b == nil {
		return
	}

	const indent = "      "
	writeFields(sb, b.Fields, indent)

	if len(b.Headings) > 0 {
		sb.WriteString(indent + labelStyle.Render("Headings:") + "\n")
		writeBullets(sb, b.Headings, indent+"  ")
	}

	if b.Text != "" {
		sb.WriteString(indent + labelStyle.Render("Text:") + "\n")
		for _, line := range strings.Split(b.Text, "\n") {
			sb.WriteString(indent + "  " + line + "\n")
		}
	}

	if b.Links != nil {
		sb.WriteString(indent + labelStyle.Render(fmt.Sprintf("Links (%d):", b.Links.Total)) + "\n")
		writeItems(sb, *b.Links, indent+"  ", "")
	}

	if b.Images != nil {
		sb.WriteString(indent + labelStyle.Render(fmt.Sprintf("Images (%d):", b.Images.Total)) + "\n")
		writeItems(sb, *b.Images, indent+"  ", "")
	}

	if len(b.Lists) > 0 {
		sb.WriteString(indent + labelStyle.Render(fmt.Sprintf("Lists (%d):", len(b.Lists))) + "\n")
		for i, l := range b.Lists {
			if i > 0 {
				sb.WriteString("\n")
			}
			writeBullets(sb, l, indent+"  ")
		}
	}

	if len(b.Tables) > 0 {
		sb.WriteString(indent + labelStyle.Render(fmt.Sprintf("Tables (%d):", len(b.Tables))) + "\n")
		for _, tv := range b.Tables {
			if len(tv.Rows.Shown) > 0 {
				t := table.New().
					Border(lipgloss.NormalBorder()).
					BorderStyle(labelStyle).
					Rows(tv.Rows.Shown...)
				for _, line := range strings.Split(t.String(), "\n") {
					sb.WriteString(indent + "  " + line + "\n")
				}
			}
			if tv.Rows.Remaining > 0 {
				sb.WriteString(indent + "  " + mutedStyle.Render(RemainderLabel(tv.Rows.Remaining, "rows")) + "\n")
			}
		}
	}

	if b.RawHTML != nil {
		sb.WriteString(indent + labelStyle.Render("Raw HTML:") + "\n")
		raw := b.RawHTML.Text
		if b.RawHTML.Truncated {
			raw += Ellipsis
		}
		for _, line := range strings.Split(raw, "\n") {
			sb.WriteString(indent + "  " + codeStyle.Render(line) + "\n")
		}
	}

	if opts.ShowJSON {
		sb.WriteString(indent + labelStyle.Render("Full JSON:") + "\n")
		for _, line := range strings.Split(b.JSON, "\n") {
			sb.WriteString(indent + "  " + codeStyle.Render(line) + "\n")
		}
	}
}

func writeFields(sb *strings.Builder, fields []Field, indent string) {
	for _, f := range fields {
		sb.WriteString(indent + labelStyle.Render(f.Label+":") + " " + f.Value + "\n")
	}
}

func writeBullets(sb *strings.Builder, items []string, indent string) {
	for _, it := range items {
		sb.WriteString(indent + "• " + it + "\n")
	}
}

func writeItems(sb *strings.Builder, b Bounded[Item], indent, noun string) {
	for _, it := range b.Shown {
		sb.WriteString(indent + "• " + linkStyle.Render(it.Label) + "\n")
	}
	if b.Remaining > 0 {
		sb.WriteString(indent + mutedStyle.Render(RemainderLabel(b.Remaining, noun)) + "\n")
	}
}

package main

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/use-agent/scrapeview/render"
	"github.com/use-agent/scrapeview/session"
)

// newServer registers the viewer tools on a fresh MCP server.
func newServer(sess *session.Session, exportDir string) *server.MCPServer {
	s := server.NewMCPServer(
		"scrapeview",
		"0.1.0",
		server.WithToolCapabilities(false),
	)

	scrapeTool := mcp.NewTool("scrape_url",
		mcp.WithDescription("Submit a URL to the scraping backend and return the result as a section tree in Markdown. Sections start collapsed; use toggle_section or set_expansion to see their content."),
		mcp.WithString("url",
			mcp.Required(),
			mcp.Description("Absolute http:// or https:// URL to scrape"),
		),
		mcp.WithBoolean("expand_all",
			mcp.Description("Expand every section of the new result"),
		),
	)
	s.AddTool(scrapeTool, handleScrape(sess))

	toggleTool := mcp.NewTool("toggle_section",
		mcp.WithDescription("Expand a collapsed section of the current result, or collapse an expanded one."),
		mcp.WithString("id",
			mcp.Required(),
			mcp.Description("The section id, as shown in the result"),
		),
	)
	s.AddTool(toggleTool, handleToggle(sess))

	expansionTool := mcp.NewTool("set_expansion",
		mcp.WithDescription("Expand or collapse every section of the current result at once."),
		mcp.WithString("mode",
			mcp.Required(),
			mcp.Description("'all' expands every section, 'none' collapses them"),
			mcp.Enum("all", "none"),
		),
	)
	s.AddTool(expansionTool, handleSetExpansion(sess))

	viewTool := mcp.NewTool("view_result",
		mcp.WithDescription("Return the current result tree in Markdown without changing it."),
		mcp.WithBoolean("show_json",
			mcp.Description("Include the full JSON of each expanded section"),
		),
	)
	s.AddTool(viewTool, handleView(sess))

	exportTool := mcp.NewTool("export_result",
		mcp.WithDescription("Write the complete current result as a JSON file and return its path."),
	)
	s.AddTool(exportTool, handleExport(sess, exportDir))

	return s
}

func handleScrape(sess *session.Session) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		url, err := request.RequireString("url")
		if err != nil {
			return mcp.NewToolResultError("url is required"), nil
		}

		if _, err := sess.Submit(ctx, url); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		v := sess.View()
		if request.GetBool("expand_all", false) {
			if v, err = sess.ExpandAll(); err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
		}
		return mcp.NewToolResultText(v.Markdown(render.MarkdownOptions{})), nil
	}
}

func handleToggle(sess *session.Session) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, err := request.RequireString("id")
		if err != nil {
			return mcp.NewToolResultError("id is required"), nil
		}

		v, err := sess.Toggle(id)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(v.Markdown(render.MarkdownOptions{})), nil
	}
}

func handleSetExpansion(sess *session.Session) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		mode, err := request.RequireString("mode")
		if err != nil {
			return mcp.NewToolResultError("mode is required"), nil
		}

		var v session.View
		switch mode {
		case "all":
			if v, err = sess.ExpandAll(); err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
		case "none":
			v = sess.CollapseAll()
		default:
			return mcp.NewToolResultError(fmt.Sprintf("mode must be 'all' or 'none', got %q", mode)), nil
		}
		return mcp.NewToolResultText(v.Markdown(render.MarkdownOptions{})), nil
	}
}

func handleView(sess *session.Session) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		opts := render.MarkdownOptions{ShowJSON: request.GetBool("show_json", false)}
		return mcp.NewToolResultText(sess.View().Markdown(opts)), nil
	}
}

func handleExport(sess *session.Session, dir string) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		a, err := sess.Export()
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		path, err := a.WriteTo(dir)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to write export: %v", err)), nil
		}
		return mcp.NewToolResultText(fmt.Sprintf("Exported %d bytes to %s", a.Size(), path)), nil
	}
}

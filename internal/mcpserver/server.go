// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes Booker tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/booker/internal/apperr"
	"github.com/starford/booker/internal/bookservice"
	"github.com/starford/booker/internal/host"
	"github.com/starford/booker/internal/library"
	"github.com/starford/booker/internal/models"
	"github.com/starford/booker/internal/templates"
)

const formatURI = "booker://table-format"

// Server wraps the MCP server with Booker tools.
type Server struct {
	mcp             *server.MCPServer
	svc             *library.Service
	defaultTemplate string
}

// New creates a new MCP server with all Booker tools registered.
// defaultTemplate is used by create_table when no template is given.
func New(svc *library.Service, defaultTemplate string) *Server {
	s := &Server{svc: svc, defaultTemplate: defaultTemplate}

	s.mcp = server.NewMCPServer(
		"Booker",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("insert_book",
		mcp.WithDescription("Insert a book into a reading-log table. The ISBN is read from the "+
			"addressed block of the document; the book fills the first empty row of the table "+
			"directly above it and a fresh empty row is appended. Read the contract first via "+
			"the get_table_contract tool or the booker://table-format resource."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Relative path to the document (e.g. 2025/reading.md)")),
		mcp.WithNumber("block", mcp.Description("Block holding the ISBN; negative counts from the end (default -1)")),
		mcp.WithString("title", mcp.Description("Book title")),
		mcp.WithString("authors", mcp.Description("Authors separated by commas")),
		mcp.WithNumber("page_count", mcp.Description("Number of pages")),
		mcp.WithString("date_added", mcp.Description("Date the book was added")),
		mcp.WithString("date_finished", mcp.Description("Date the book was finished")),
		mcp.WithNumber("rating", mcp.Description("Rating, written only to tables with 7 or more columns")),
		mcp.WithString("review", mcp.Description("Review, written only to tables with 8 columns")),
	), s.insertBook)

	s.mcp.AddTool(mcp.NewTool("create_table",
		mcp.WithDescription("Seed an empty block of a document with a reading-log table template."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Relative path to the document (created if missing)")),
		mcp.WithString("template", mcp.Description("Template name: "+strings.Join(templates.Names(), ", "))),
		mcp.WithNumber("block", mcp.Description("Block to fill; omit to append a new block")),
	), s.createTable)

	s.mcp.AddTool(mcp.NewTool("search_books",
		mcp.WithDescription("Search logged books by ISBN, title, author or review."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query string")),
	), s.searchBooks)

	s.mcp.AddTool(mcp.NewTool("list_templates",
		mcp.WithDescription("List the available table templates with their markdown."),
	), s.listTemplates)

	s.mcp.AddTool(mcp.NewTool("read_document",
		mcp.WithDescription("Read the full content of a document together with its tables and logged books."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Relative path to the document")),
	), s.readDocument)

	s.mcp.AddTool(mcp.NewTool("get_table_contract",
		mcp.WithDescription("Returns the Booker reading-log table format contract. "+
			"Call this before editing tables by hand."),
	), s.getTableContract)

	s.mcp.AddResource(
		mcp.NewResource(formatURI, "Table Format Contract",
			mcp.WithResourceDescription("Reading-log table format that all logged books follow."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readTableFormatResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying protocol server.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func (s *Server) insertBook(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	book := models.Book{
		Title:        req.GetString("title", ""),
		Authors:      splitList(req.GetString("authors", "")),
		DateAdded:    req.GetString("date_added", ""),
		DateFinished: req.GetString("date_finished", ""),
		Review:       req.GetString("review", ""),
	}
	if _, ok := req.GetArguments()["page_count"]; ok {
		n := req.GetInt("page_count", 0)
		if n < 0 {
			return mcp.NewToolResultError("page_count must not be negative"), nil
		}
		book.PageCount = &n
	}
	if r := req.GetFloat("rating", -1); r >= 0 {
		book.Rating = &r
	}

	res, err := s.svc.InsertBook(ctx, path, req.GetInt("block", -1), bookservice.Static{Book: book})
	if err != nil {
		return commandError(res, err), nil
	}
	return jsonResult(res)
}

func (s *Server) createTable(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	template := req.GetString("template", s.defaultTemplate)
	if template == "" {
		template = templates.Basic
	}

	res, err := s.svc.CreateTable(ctx, path, req.GetInt("block", host.NewBlock), template)
	if err != nil {
		return commandError(res, err), nil
	}
	return jsonResult(res)
}

func (s *Server) searchBooks(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	results, err := s.svc.Search(ctx, query, 20)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(results) == 0 {
		return mcp.NewToolResultText("no books found"), nil
	}
	return jsonResult(results)
}

func (s *Server) listTemplates(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var b strings.Builder
	for _, name := range templates.Names() {
		md, _ := templates.Get(name)
		fmt.Fprintf(&b, "## %s\n\n%s\n\n", name, md)
	}
	return mcp.NewToolResultText(strings.TrimSuffix(b.String(), "\n")), nil
}

func (s *Server) readDocument(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	doc, err := s.svc.GetDocument(ctx, path)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return mcp.NewToolResultError(fmt.Sprintf("not found: %s", path)), nil
		}
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(doc)
}

func (s *Server) getTableContract(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(TableFormatContract), nil
}

func (s *Server) readTableFormatResource(_ context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      formatURI,
			MIMEType: "text/markdown",
			Text:     TableFormatContract,
		},
	}, nil
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}

// commandError turns a failed command into a tool error that carries the
// notifications the command produced.
func commandError(res *library.Result, err error) *mcp.CallToolResult {
	var msgs []string
	if res != nil {
		for _, m := range res.Messages {
			msgs = append(msgs, fmt.Sprintf("[%s] %s", m.Level, m.Text))
		}
	}
	msgs = append(msgs, err.Error())
	return mcp.NewToolResultError(strings.Join(msgs, "\n"))
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes the Muse workspace to LLM clients via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/muse/internal/apperr"
	"github.com/starford/muse/internal/block"
	"github.com/starford/muse/internal/outline"
	"github.com/starford/muse/internal/storage"
)

// BlockFormatURI names the block format resource.
const BlockFormatURI = "muse://block-format"

// Server wraps the MCP server with the workspace tools.
type Server struct {
	mcp *server.MCPServer
	gw  storage.Gateway
	log *slog.Logger
}

// New creates a new MCP server with every tool registered.
func New(gw storage.Gateway, version string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{gw: gw, log: logger}

	s.mcp = server.NewMCPServer(
		"Muse",
		version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("list_files",
		mcp.WithDescription("List the markdown files of the workspace, sorted by name."),
	), s.listFiles)

	s.mcp.AddTool(mcp.NewTool("read_file",
		mcp.WithDescription("Read the full text of a markdown file."),
		mcp.WithString("name", mcp.Required(), mcp.Description("File name inside the workspace (e.g. Welcome.md)")),
	), s.readFile)

	s.mcp.AddTool(mcp.NewTool("create_file",
		mcp.WithDescription("Create a new markdown file. Fails if the name is taken; existing files are never overwritten. "+
			"Separate blocks with one blank line, see get_block_format or the "+BlockFormatURI+" resource."),
		mcp.WithString("name", mcp.Required(), mcp.Description("File name; .md is appended when missing")),
		mcp.WithString("content", mcp.Description("Initial markdown content")),
	), s.createFile)

	s.mcp.AddTool(mcp.NewTool("get_blocks",
		mcp.WithDescription("Return a file split into the blocks the editor shows, as JSON."),
		mcp.WithString("name", mcp.Required(), mcp.Description("File name inside the workspace")),
	), s.getBlocks)

	s.mcp.AddTool(mcp.NewTool("get_outline",
		mcp.WithDescription("Return the title, headings, tags and wikilinks of a file as JSON."),
		mcp.WithString("name", mcp.Required(), mcp.Description("File name inside the workspace")),
	), s.getOutline)

	s.mcp.AddTool(mcp.NewTool("get_block_format",
		mcp.WithDescription("Describe how Muse splits markdown files into blocks. "+
			"Call this before creating files so content lands in the intended blocks."),
	), s.getBlockFormat)

	s.mcp.AddResource(
		mcp.NewResource(BlockFormatURI, "Block Format",
			mcp.WithResourceDescription("How markdown files map to editor blocks."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readBlockFormatResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

// blockJSON is one entry of the get_blocks result.
type blockJSON struct {
	Index   int    `json:"index"`
	Type    string `json:"type"`
	Content string `json:"content"`
}

func (s *Server) listFiles(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	files, err := s.gw.ListFiles()
	if err != nil {
		s.log.Error("mcp: list files", slog.String("error", err.Error()))
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(files) == 0 {
		return mcp.NewToolResultText("no files"), nil
	}
	names := make([]string, 0, len(files))
	for _, f := range files {
		names = append(names, f.Name)
	}
	return mcp.NewToolResultText(strings.Join(names, "\n")), nil
}

func (s *Server) read(req mcp.CallToolRequest) (string, string, *mcp.CallToolResult) {
	name, err := req.RequireString("name")
	if err != nil {
		return "", "", mcp.NewToolResultError(err.Error())
	}
	name = strings.TrimSpace(name)
	if err := storage.ValidateName(name); err != nil {
		return "", "", mcp.NewToolResultError(err.Error())
	}
	if !strings.HasSuffix(name, storage.Extension) {
		name += storage.Extension
	}
	text, err := s.gw.ReadFile(name)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return "", "", mcp.NewToolResultError(fmt.Sprintf("not found: %s", name))
		}
		return "", "", mcp.NewToolResultError(err.Error())
	}
	return name, text, nil
}

func (s *Server) readFile(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	_, text, errResult := s.read(req)
	if errResult != nil {
		return errResult, nil
	}
	return mcp.NewToolResultText(text), nil
}

func (s *Server) createFile(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := req.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	content := req.GetString("content", "")

	path, err := s.gw.CreateFile(name, content)
	if err != nil {
		switch {
		case errors.Is(err, apperr.ErrAlreadyExists):
			return mcp.NewToolResultError(fmt.Sprintf("file already exists: %s", strings.TrimSpace(name))), nil
		case errors.Is(err, apperr.ErrInvalidName):
			return mcp.NewToolResultError(err.Error()), nil
		}
		s.log.Error("mcp: create file", slog.String("name", name), slog.String("error", err.Error()))
		return mcp.NewToolResultError(err.Error()), nil
	}
	s.log.Info("mcp: created file", slog.String("path", path))
	return mcp.NewToolResultText(fmt.Sprintf("created: %s", filepath.Base(path))), nil
}

func (s *Server) getBlocks(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	_, text, errResult := s.read(req)
	if errResult != nil {
		return errResult, nil
	}
	var seq block.Sequence
	blocks := block.Load(text, &seq)
	out := make([]blockJSON, 0, len(blocks))
	for i, b := range blocks {
		out = append(out, blockJSON{Index: i, Type: b.Type.String(), Content: b.Content})
	}
	data, _ := json.MarshalIndent(out, "", "  ")
	return mcp.NewToolResultText(string(data)), nil
}

func (s *Server) getOutline(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, text, errResult := s.read(req)
	if errResult != nil {
		return errResult, nil
	}
	o := outline.Parse(text)
	o.Title = o.TitleOr(strings.TrimSuffix(name, storage.Extension))
	data, _ := json.MarshalIndent(o, "", "  ")
	return mcp.NewToolResultText(string(data)), nil
}

func (s *Server) getBlockFormat(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(BlockFormat), nil
}

func (s *Server) readBlockFormatResource(_ context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      BlockFormatURI,
			MIMEType: "text/markdown",
			Text:     BlockFormat,
		},
	}, nil
}

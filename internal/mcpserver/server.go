// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes VisProject tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/visproject/internal/models"
	"github.com/starford/visproject/internal/schedule"
	"github.com/starford/visproject/internal/stats"
	"github.com/starford/visproject/internal/studyservice"
)

// DocumentFormatURI is the resource URI of the tree document contract.
const DocumentFormatURI = "visproject://document-format"

// Server wraps the MCP server with VisProject tools.
type Server struct {
	mcp *server.MCPServer
	svc *studyservice.Service
}

// New creates a new MCP server with all VisProject tools registered.
func New(svc *studyservice.Service, version string) *Server {
	s := &Server{svc: svc}

	s.mcp = server.NewMCPServer(
		"VisProject",
		version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("get_tree",
		mcp.WithDescription("Return the laid-out project tree as JSON, or one subtree when node_id is given."),
		mcp.WithString("node_id", mcp.Description("Optional node id; defaults to the root")),
	), s.getTree)

	s.mcp.AddTool(mcp.NewTool("suggest_reviews",
		mcp.WithDescription("Rank review-enrolled nodes by how overdue they are, most overdue first."),
		mcp.WithNumber("limit", mcp.Description(fmt.Sprintf("Maximum suggestions (default %d)", schedule.DefaultLimit))),
	), s.suggestReviews)

	s.mcp.AddTool(mcp.NewTool("node_time",
		mcp.WithDescription("Total learn or review time of a node's subtree, optionally within a date range."),
		mcp.WithString("node_id", mcp.Required(), mcp.Description("Node id")),
		mcp.WithString("mode", mcp.Enum(string(models.ModeLearn), string(models.ModeReview)), mcp.Description("learn (default) or review")),
		mcp.WithString("from", mcp.Description("First day, YYYY-MM-DD")),
		mcp.WithString("to", mcp.Description("Last day, YYYY-MM-DD")),
	), s.nodeTime)

	s.mcp.AddTool(mcp.NewTool("add_node",
		mcp.WithDescription("Append a child node. Read the document contract first via "+
			"get_document_contract or the "+DocumentFormatURI+" resource."),
		mcp.WithString("name", mcp.Required(), mcp.Description("Display name of the new node")),
		mcp.WithString("parent_id", mcp.Description("Parent node id; defaults to the root")),
	), s.addNode)

	s.mcp.AddTool(mcp.NewTool("toggle_done",
		mcp.WithDescription("Flip a node's done flag. Marking done stamps done_time with the current time."),
		mcp.WithString("node_id", mcp.Required(), mcp.Description("Node id")),
	), s.toggleDone)

	s.mcp.AddTool(mcp.NewTool("log_record",
		mcp.WithDescription("Append one timed learn or review record for a node."),
		mcp.WithString("node_id", mcp.Required(), mcp.Description("Node id")),
		mcp.WithString("mode", mcp.Required(), mcp.Enum(string(models.ModeLearn), string(models.ModeReview))),
		mcp.WithNumber("start", mcp.Required(), mcp.Description("Start, unix seconds")),
		mcp.WithNumber("end", mcp.Required(), mcp.Description("End, unix seconds; must be after start")),
		mcp.WithString("date", mcp.Description("Day the record counts toward, YYYY-MM-DD; defaults to the local day of end")),
	), s.logRecord)

	s.mcp.AddTool(mcp.NewTool("get_document_contract",
		mcp.WithDescription("Returns the canonical VisProject tree document contract. "+
			"Call this before editing the tree to keep its structure valid."),
	), s.getDocumentContract)

	// Resource: tree document contract.
	s.mcp.AddResource(
		mcp.NewResource(DocumentFormatURI, "Tree Document Contract",
			mcp.WithResourceDescription("Canonical JSON tree document format shared by every VisProject host."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readDocumentFormatResource,
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

func jsonResult(v any) *mcp.CallToolResult {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error())
	}
	return mcp.NewToolResultText(string(out))
}

func (s *Server) getTree(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if id := req.GetString("node_id", ""); id != "" {
		n, err := s.svc.Node(ctx, id)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return jsonResult(n), nil
	}
	root, _ := s.svc.Tree(ctx)
	return jsonResult(root), nil
}

func (s *Server) suggestReviews(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	res := s.svc.Suggest(ctx, req.GetInt("limit", schedule.DefaultLimit))
	if res.AllCaughtUp {
		return mcp.NewToolResultText("all caught up"), nil
	}
	return jsonResult(res.Items), nil
}

func (s *Server) nodeTime(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("node_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	mode, err := models.ParseMode(req.GetString("mode", string(models.ModeLearn)))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	rng := models.DateRange{From: req.GetString("from", ""), To: req.GetString("to", "")}
	secs, err := s.svc.NodeTime(ctx, id, mode, rng)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(map[string]any{
		"node_id": id,
		"mode":    mode,
		"seconds": secs,
		"label":   stats.FormatSeconds(secs),
	}), nil
}

func (s *Server) addNode(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := req.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	n, err := s.svc.AddNode(ctx, req.GetString("parent_id", ""), name)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(n), nil
}

func (s *Server) toggleDone(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("node_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	n, err := s.svc.ToggleDone(ctx, id)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(n), nil
}

func (s *Server) logRecord(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("node_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	rawMode, err := req.RequireString("mode")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	mode, err := models.ParseMode(rawMode)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	start, err := req.RequireFloat("start")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	end, err := req.RequireFloat("end")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	rec, err := s.svc.AddRecord(ctx, mode, models.Record{
		NodeID: id,
		Date:   req.GetString("date", ""),
		Start:  int64(start),
		End:    int64(end),
	})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(rec), nil
}

func (s *Server) getDocumentContract(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(DocumentFormatContract), nil
}

func (s *Server) readDocumentFormatResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      DocumentFormatURI,
			MIMEType: "text/markdown",
			Text:     DocumentFormatContract,
		},
	}, nil
}

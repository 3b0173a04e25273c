package mcpserver

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/starford/visproject/internal/docstore"
	"github.com/starford/visproject/internal/models"
	"github.com/starford/visproject/internal/studyservice"
	"github.com/starford/visproject/internal/testutil"
)

func testServer(t *testing.T) *Server {
	t.Helper()

	_, fs := testutil.TestData(t)
	trees := docstore.NewTreeStore(fs, "", testutil.Logger())
	settings := docstore.NewSettingsStore(fs, "", testutil.Logger())
	if err := trees.Load(); err != nil {
		t.Fatal(err)
	}
	if err := settings.Load(); err != nil {
		t.Fatal(err)
	}
	now := time.Unix(2_000_000, 0)
	svc := studyservice.New(trees, settings, testutil.TestDB(t),
		studyservice.WithClock(func() time.Time { return now }),
		studyservice.WithLogger(testutil.Logger()))
	return New(svc, "test")
}

func callTool(t *testing.T, srv *Server, name string, args map[string]interface{}) *mcp.CallToolResult {
	t.Helper()
	ctx := context.Background()
	req := mcp.CallToolRequest{}
	req.Method = "tools/call"
	req.Params.Name = name
	req.Params.Arguments = args

	// mcp-go has no direct "call tool" test helper, so dispatch to the
	// handler functions directly.
	var result *mcp.CallToolResult
	var err error

	switch name {
	case "get_tree":
		result, err = srv.getTree(ctx, req)
	case "suggest_reviews":
		result, err = srv.suggestReviews(ctx, req)
	case "node_time":
		result, err = srv.nodeTime(ctx, req)
	case "add_node":
		result, err = srv.addNode(ctx, req)
	case "toggle_done":
		result, err = srv.toggleDone(ctx, req)
	case "log_record":
		result, err = srv.logRecord(ctx, req)
	case "get_document_contract":
		result, err = srv.getDocumentContract(ctx, req)
	default:
		t.Fatalf("unknown tool: %s", name)
	}

	if err != nil {
		t.Fatalf("tool %s error: %v", name, err)
	}
	return result
}

func resultText(r *mcp.CallToolResult) string {
	if len(r.Content) > 0 {
		if tc, ok := r.Content[0].(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

func addNode(t *testing.T, srv *Server, parent, name string) models.Node {
	t.Helper()
	r := callTool(t, srv, "add_node", map[string]interface{}{"name": name, "parent_id": parent})
	if r.IsError {
		t.Fatalf("add_node: %s", resultText(r))
	}
	var n models.Node
	if err := json.Unmarshal([]byte(resultText(r)), &n); err != nil {
		t.Fatalf("decode node: %v", err)
	}
	return n
}

func TestAddNodeAndGetTree(t *testing.T) {
	srv := testServer(t)
	a := addNode(t, srv, "", "Algebra")
	addNode(t, srv, a.ID, "Groups")

	var root models.Node
	r := callTool(t, srv, "get_tree", map[string]interface{}{})
	if err := json.Unmarshal([]byte(resultText(r)), &root); err != nil {
		t.Fatalf("decode tree: %v", err)
	}
	if len(root.Children) != 1 || len(root.Children[0].Children) != 1 {
		t.Fatalf("tree = %+v", root)
	}

	r = callTool(t, srv, "get_tree", map[string]interface{}{"node_id": a.ID})
	if !strings.Contains(resultText(r), "Groups") {
		t.Errorf("subtree = %s", resultText(r))
	}
	r = callTool(t, srv, "get_tree", map[string]interface{}{"node_id": "ghost"})
	if !r.IsError {
		t.Error("expected error for missing node")
	}
}

func TestAddNodeMissingName(t *testing.T) {
	srv := testServer(t)
	r := callTool(t, srv, "add_node", map[string]interface{}{})
	if !r.IsError {
		t.Error("expected error without name")
	}
}

func TestToggleDone(t *testing.T) {
	srv := testServer(t)
	a := addNode(t, srv, "", "A")

	r := callTool(t, srv, "toggle_done", map[string]interface{}{"node_id": a.ID})
	var n models.Node
	_ = json.Unmarshal([]byte(resultText(r)), &n)
	if !n.Done || n.DoneTime == nil || *n.DoneTime != 2_000_000 {
		t.Errorf("toggled = %+v", n)
	}
}

func TestLogRecordAndNodeTime(t *testing.T) {
	srv := testServer(t)
	a := addNode(t, srv, "", "A")

	r := callTool(t, srv, "log_record", map[string]interface{}{
		"node_id": a.ID, "mode": "review", "start": float64(100), "end": float64(1000),
	})
	if r.IsError {
		t.Fatalf("log_record: %s", resultText(r))
	}
	var rec models.Record
	_ = json.Unmarshal([]byte(resultText(r)), &rec)
	if rec.ID == 0 || rec.Date == "" {
		t.Errorf("record = %+v", rec)
	}

	r = callTool(t, srv, "node_time", map[string]interface{}{"node_id": "root", "mode": "review"})
	var got struct {
		Seconds int64  `json:"seconds"`
		Label   string `json:"label"`
	}
	_ = json.Unmarshal([]byte(resultText(r)), &got)
	if got.Seconds != 900 || got.Label != "0h 15m 0s" {
		t.Errorf("node_time = %+v", got)
	}

	r = callTool(t, srv, "node_time", map[string]interface{}{"node_id": "root"})
	_ = json.Unmarshal([]byte(resultText(r)), &got)
	if got.Seconds != 0 {
		t.Errorf("learn time = %d, want 0", got.Seconds)
	}
}

func TestLogRecordRejectsInvalid(t *testing.T) {
	srv := testServer(t)
	r := callTool(t, srv, "log_record", map[string]interface{}{
		"node_id": "x", "mode": "learn", "start": float64(50), "end": float64(10),
	})
	if !r.IsError {
		t.Error("expected error for end before start")
	}
	r = callTool(t, srv, "log_record", map[string]interface{}{
		"node_id": "x", "mode": "nap", "start": float64(1), "end": float64(2),
	})
	if !r.IsError {
		t.Error("expected error for unknown mode")
	}
}

func TestLogRecordEndMustBeAfterStart(t *testing.T) {
	srv := testServer(t)
	a := addNode(t, srv, "", "A")
	r := callTool(t, srv, "log_record", map[string]interface{}{
		"node_id": a.ID, "mode": "learn", "start": float64(500), "end": float64(500),
	})
	if !r.IsError || !strings.Contains(resultText(r), "after start") {
		t.Errorf("zero-length record result = %q", resultText(r))
	}
	r = callTool(t, srv, "log_record", map[string]interface{}{
		"node_id": a.ID, "mode": "learn", "start": float64(500), "end": float64(501),
	})
	if r.IsError {
		t.Errorf("one-second record rejected: %s", resultText(r))
	}
}

func TestSuggestReviews(t *testing.T) {
	srv := testServer(t)
	r := callTool(t, srv, "suggest_reviews", map[string]interface{}{})
	if resultText(r) != "all caught up" {
		t.Errorf("empty suggestions = %q", resultText(r))
	}

	a := addNode(t, srv, "", "A")
	if _, err := srv.svc.SetReview(context.Background(), a.ID, 7); err != nil {
		t.Fatal(err)
	}
	r = callTool(t, srv, "suggest_reviews", map[string]interface{}{"limit": float64(5)})
	if !strings.Contains(resultText(r), a.ID) {
		t.Errorf("suggestions = %s", resultText(r))
	}
}

func TestDocumentContract(t *testing.T) {
	srv := testServer(t)
	r := callTool(t, srv, "get_document_contract", nil)
	if resultText(r) != DocumentFormatContract {
		t.Error("contract text mismatch")
	}

	res, err := srv.readDocumentFormatResource(context.Background(), mcp.ReadResourceRequest{})
	if err != nil || len(res) != 1 {
		t.Fatalf("resource = %v, %v", res, err)
	}
	if tc, ok := res[0].(mcp.TextResourceContents); !ok || tc.URI != DocumentFormatURI {
		t.Errorf("resource contents = %+v", res[0])
	}
}

// Package mcpserver exposes the Cognitive Kernel Core's ingest/status/sleep
// and holographic file store operations as an MCP tool surface.
//
// Grounded directly on the teacher's pkg/mcp/server.go: same streamable-HTTP
// wiring via github.com/mark3labs/mcp-go, same API-key + token-bucket
// rate-limit middleware stack, tools renamed from qubicdb_* to cogkernel_*.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	mcpproto "github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
)

const (
	toolIngest    = "cogkernel_ingest"
	toolStatus    = "cogkernel_status"
	toolSleep     = "cogkernel_sleep"
	toolHFSWrite  = "cogkernel_hfs_write"
	toolHFSSearch = "cogkernel_hfs_search"
)

// Config controls MCP route behavior.
type Config struct {
	APIKey         string
	Stateless      bool
	RateLimitRPS   float64
	RateLimitBurst int
	EnablePrompts  bool
	AllowedTools   []string
}

// Backend is the minimal capability contract exposed to MCP tools. It lets
// pkg/mcpserver stay decoupled from pkg/kernel's concrete types — the
// cmd/cogkerneld daemon supplies the adapter wrapping a live KernelLoop/HFS
// store pair.
type Backend interface {
	Ingest(ctx context.Context, datasetType, datasetID, payload string, dimHint int) (map[string]any, error)
	Status(ctx context.Context) (map[string]any, error)
	Sleep(ctx context.Context, reason string) (map[string]any, error)
	HFSWrite(ctx context.Context, intent, content string, dim int) (map[string]any, error)
	HFSSearch(ctx context.Context, query string, dim, limit int) (map[string]any, error)
}

// NewHandler builds an MCP streamable HTTP handler with optional API-key
// auth and endpoint-local rate limiting.
func NewHandler(cfg Config, backend Backend) (http.Handler, error) {
	if backend == nil {
		return nil, fmt.Errorf("mcp backend is required")
	}

	s := mcpserver.NewMCPServer(
		"cogkernel-mcp",
		"1.0.0",
		mcpserver.WithToolCapabilities(true),
		mcpserver.WithPromptCapabilities(cfg.EnablePrompts),
		mcpserver.WithRecovery(),
	)

	registerTools(s, backend, cfg.AllowedTools)
	if cfg.EnablePrompts {
		registerPrompts(s)
	}

	streamable := mcpserver.NewStreamableHTTPServer(s, mcpserver.WithStateLess(cfg.Stateless))
	var h http.Handler = http.HandlerFunc(streamable.ServeHTTP)

	if strings.TrimSpace(cfg.APIKey) != "" {
		h = apiKeyMiddleware(strings.TrimSpace(cfg.APIKey), h)
	}
	if cfg.RateLimitRPS > 0 && cfg.RateLimitBurst > 0 {
		h = rateLimitMiddleware(newRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst), h)
	}

	return h, nil
}

func registerTools(s *mcpserver.MCPServer, backend Backend, allowed []string) {
	allowedSet := make(map[string]struct{}, len(allowed))
	for _, name := range allowed {
		name = strings.TrimSpace(name)
		if name != "" {
			allowedSet[name] = struct{}{}
		}
	}
	isAllowed := func(name string) bool {
		if len(allowedSet) == 0 {
			return true
		}
		_, ok := allowedSet[name]
		return ok
	}

	if isAllowed(toolIngest) {
		s.AddTool(mcpproto.NewTool(toolIngest,
			mcpproto.WithDescription("Ingest one data stream into the cognitive kernel."),
			mcpproto.WithString("dataset_type", mcpproto.Required(), mcpproto.Description("Dataset type tag routing heuristics and ruleset symbols.")),
			mcpproto.WithString("dataset_id", mcpproto.Description("Optional dataset id; auto-generated when omitted.")),
			mcpproto.WithString("payload", mcpproto.Required(), mcpproto.Description("Raw text payload to encode and route.")),
			mcpproto.WithNumber("dim", mcpproto.Description("Optional vector dimension override.")),
		), func(ctx context.Context, req mcpproto.CallToolRequest) (*mcpproto.CallToolResult, error) {
			args := req.GetArguments()
			datasetType := getString(args, "dataset_type", "")
			payload := getString(args, "payload", "")
			if datasetType == "" {
				return errResult("dataset_type is required"), nil
			}
			if strings.TrimSpace(payload) == "" {
				return errResult("payload is required"), nil
			}
			datasetID := getString(args, "dataset_id", "")
			dim := getInt(args, "dim", 0)
			result, err := backend.Ingest(ctx, datasetType, datasetID, payload, dim)
			if err != nil {
				return errResult(err.Error()), nil
			}
			return structuredResult("ingest completed", result)
		})
	}

	if isAllowed(toolStatus) {
		s.AddTool(mcpproto.NewTool(toolStatus,
			mcpproto.WithDescription("Report the cognitive kernel's current energy, cache, and sleep-scheduler state."),
		), func(ctx context.Context, req mcpproto.CallToolRequest) (*mcpproto.CallToolResult, error) {
			result, err := backend.Status(ctx)
			if err != nil {
				return errResult(err.Error()), nil
			}
			return structuredResult("status reported", result)
		})
	}

	if isAllowed(toolSleep) {
		s.AddTool(mcpproto.NewTool(toolSleep,
			mcpproto.WithDescription("Trigger a manual sleep/consolidation cycle on the cognitive kernel."),
			mcpproto.WithString("reason", mcpproto.Description("Optional label recorded alongside the manual trigger.")),
		), func(ctx context.Context, req mcpproto.CallToolRequest) (*mcpproto.CallToolResult, error) {
			args := req.GetArguments()
			reason := getString(args, "reason", "manual")
			result, err := backend.Sleep(ctx, reason)
			if err != nil {
				return errResult(err.Error()), nil
			}
			return structuredResult("sleep cycle triggered", result)
		})
	}

	if isAllowed(toolHFSWrite) {
		s.AddTool(mcpproto.NewTool(toolHFSWrite,
			mcpproto.WithDescription("Write an intent/content pair into the holographic file store."),
			mcpproto.WithString("intent", mcpproto.Required(), mcpproto.Description("Short intent label for the entry.")),
			mcpproto.WithString("content", mcpproto.Required(), mcpproto.Description("Full content payload for the entry.")),
			mcpproto.WithNumber("dim", mcpproto.Description("Optional vector dimension override.")),
		), func(ctx context.Context, req mcpproto.CallToolRequest) (*mcpproto.CallToolResult, error) {
			args := req.GetArguments()
			intent := getString(args, "intent", "")
			content := getString(args, "content", "")
			if intent == "" || strings.TrimSpace(content) == "" {
				return errResult("intent and content are required"), nil
			}
			dim := getInt(args, "dim", 0)
			result, err := backend.HFSWrite(ctx, intent, content, dim)
			if err != nil {
				return errResult(err.Error()), nil
			}
			return structuredResult("entry written", result)
		})
	}

	if isAllowed(toolHFSSearch) {
		s.AddTool(mcpproto.NewTool(toolHFSSearch,
			mcpproto.WithDescription("Search the holographic file store for entries matching a query."),
			mcpproto.WithString("query", mcpproto.Required(), mcpproto.Description("Search query text.")),
			mcpproto.WithNumber("dim", mcpproto.Description("Optional vector dimension override.")),
			mcpproto.WithNumber("limit", mcpproto.Description("Result limit (optional, default 10).")),
		), func(ctx context.Context, req mcpproto.CallToolRequest) (*mcpproto.CallToolResult, error) {
			args := req.GetArguments()
			query := getString(args, "query", "")
			if strings.TrimSpace(query) == "" {
				return errResult("query is required"), nil
			}
			dim := getInt(args, "dim", 0)
			limit := getInt(args, "limit", 10)
			result, err := backend.HFSSearch(ctx, query, dim, limit)
			if err != nil {
				return errResult(err.Error()), nil
			}
			return structuredResult("search completed", result)
		})
	}
}

func registerPrompts(s *mcpserver.MCPServer) {
	s.AddPrompt(mcpproto.NewPrompt("cogkernel_ingest_then_recall",
		mcpproto.WithPromptDescription("Generate an ingest-then-recall workflow for a payload."),
		mcpproto.WithArgument("dataset_type", mcpproto.RequiredArgument(), mcpproto.ArgumentDescription("Dataset type tag.")),
		mcpproto.WithArgument("payload", mcpproto.RequiredArgument(), mcpproto.ArgumentDescription("Payload to ingest.")),
	), func(_ context.Context, req mcpproto.GetPromptRequest) (*mcpproto.GetPromptResult, error) {
		datasetType := req.Params.Arguments["dataset_type"]
		payload := req.Params.Arguments["payload"]
		return &mcpproto.GetPromptResult{
			Description: "cognitive kernel ingest-then-recall workflow",
			Messages: []mcpproto.PromptMessage{
				{
					Role: mcpproto.RoleUser,
					Content: mcpproto.TextContent{
						Type: "text",
						Text: fmt.Sprintf("Ingest dataset_type %q with payload %q via cogkernel_ingest, then call cogkernel_status and summarize whether the kernel took the reflex or deep-think path.", datasetType, payload),
					},
				},
			},
		}, nil
	})
}

func errResult(msg string) *mcpproto.CallToolResult {
	return &mcpproto.CallToolResult{
		Content: []mcpproto.Content{
			mcpproto.TextContent{Type: "text", Text: "Error: " + msg},
		},
		IsError: true,
	}
}

func structuredResult(summary string, data any) (*mcpproto.CallToolResult, error) {
	blob, err := json.Marshal(data)
	if err != nil {
		return errResult(fmt.Sprintf("failed to marshal result: %v", err)), nil
	}
	return &mcpproto.CallToolResult{
		Content: []mcpproto.Content{
			mcpproto.TextContent{Type: "text", Text: summary},
			mcpproto.TextContent{Type: "text", Text: string(blob)},
		},
	}, nil
}

func getString(args map[string]any, key string, def string) string {
	if args == nil {
		return def
	}
	if v, ok := args[key].(string); ok {
		return v
	}
	return def
}

func getInt(args map[string]any, key string, def int) int {
	if args == nil {
		return def
	}
	v, ok := args[key].(float64)
	if !ok {
		return def
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return def
	}
	return int(v)
}

func apiKeyMiddleware(expected string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		provided := strings.TrimSpace(r.Header.Get("X-API-Key"))
		if provided == "" {
			auth := strings.TrimSpace(r.Header.Get("Authorization"))
			if strings.HasPrefix(strings.ToLower(auth), "bearer ") {
				provided = strings.TrimSpace(auth[7:])
			}
		}

		if provided == "" || provided != expected {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte("unauthorized"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

type rateLimitEntry struct {
	tokens float64
	last   time.Time
}

type rateLimiter struct {
	rps   float64
	burst float64

	mu      sync.Mutex
	clients map[string]rateLimitEntry
}

func newRateLimiter(rps float64, burst int) *rateLimiter {
	return &rateLimiter{
		rps:     rps,
		burst:   float64(burst),
		clients: make(map[string]rateLimitEntry),
	}
}

func (rl *rateLimiter) allow(key string) bool {
	now := time.Now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	entry, ok := rl.clients[key]
	if !ok {
		rl.clients[key] = rateLimitEntry{tokens: rl.burst - 1, last: now}
		return true
	}

	elapsed := now.Sub(entry.last).Seconds()
	entry.tokens = math.Min(rl.burst, entry.tokens+elapsed*rl.rps)
	entry.last = now
	if entry.tokens < 1 {
		rl.clients[key] = entry
		return false
	}
	entry.tokens -= 1
	rl.clients[key] = entry
	return true
}

func rateLimitMiddleware(rl *rateLimiter, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := clientAddr(r)
		if !rl.allow(key) {
			w.Header().Set("Retry-After", "1")
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte("rate limit exceeded"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func clientAddr(r *http.Request) string {
	if fwd := strings.TrimSpace(r.Header.Get("X-Forwarded-For")); fwd != "" {
		parts := strings.Split(fwd, ",")
		if len(parts) > 0 {
			return strings.TrimSpace(parts[0])
		}
	}
	host, _, err := net.SplitHostPort(strings.TrimSpace(r.RemoteAddr))
	if err == nil && host != "" {
		return host
	}
	if strings.TrimSpace(r.RemoteAddr) != "" {
		return strings.TrimSpace(r.RemoteAddr)
	}
	return "unknown"
}

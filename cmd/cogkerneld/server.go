package main

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/json"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/denizumutdereli/cogkernel/pkg/hfs"
	"github.com/denizumutdereli/cogkernel/pkg/kernel"
)

// rateLimitEntry is one fixed-window counter, grounded in the teacher's
// pkg/api/server.go allowRequestByRateLimit.
type rateLimitEntry struct {
	windowStart time.Time
	count       int
}

// Server is the thin HTTP status/ingest surface named in SPEC_FULL.md's
// ambient-stack section, grounded in the teacher's pkg/api/server.go
// stdlib net/http.ServeMux + SHA-256/subtle constant-time API key style.
type Server struct {
	loop   *kernel.KernelLoop
	store  *hfs.Store
	enc    hfs.Encoder
	cfg    *kernel.Config
	server *http.Server

	rateLimitMu      sync.Mutex
	rateLimitEntries map[string]rateLimitEntry
}

const (
	defaultRateLimitWindow   = time.Minute
	defaultRateLimitRequests = 600
)

// NewServer builds the HTTP surface around an already-constructed kernel loop.
func NewServer(cfg *kernel.Config, loop *kernel.KernelLoop, store *hfs.Store, enc hfs.Encoder) *Server {
	s := &Server{
		loop:             loop,
		store:            store,
		enc:              enc,
		cfg:              cfg,
		rateLimitEntries: make(map[string]rateLimitEntry),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/v1/ingest", s.handleIngest)
	mux.HandleFunc("/v1/status", s.handleStatus)
	mux.HandleFunc("/v1/sleep", s.handleSleep)
	mux.HandleFunc("/v1/hfs/write", s.handleHFSWrite)
	mux.HandleFunc("/v1/hfs/search", s.handleHFSSearch)

	s.server = &http.Server{Addr: cfg.Server.HTTPAddr, Handler: s.withMiddleware(mux)}
	return s
}

func (s *Server) withMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.allowRequestByRateLimit(r) {
			w.Header().Set("Retry-After", "60")
			http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
			return
		}
		if s.cfg.MCP.APIKey != "" && r.URL.Path != "/health" {
			if !s.checkAPIKey(r) {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
		}
		w.Header().Set("Content-Type", "application/json")
		next.ServeHTTP(w, r)
	})
}

func (s *Server) checkAPIKey(r *http.Request) bool {
	provided := strings.TrimSpace(r.Header.Get("X-API-Key"))
	expectedHash := sha256.Sum256([]byte(s.cfg.MCP.APIKey))
	providedHash := sha256.Sum256([]byte(provided))
	return subtle.ConstantTimeCompare(providedHash[:], expectedHash[:]) == 1
}

func (s *Server) allowRequestByRateLimit(r *http.Request) bool {
	key := clientKey(r)
	now := time.Now()

	s.rateLimitMu.Lock()
	defer s.rateLimitMu.Unlock()

	entry := s.rateLimitEntries[key]
	if entry.windowStart.IsZero() || now.Sub(entry.windowStart) >= defaultRateLimitWindow {
		s.rateLimitEntries[key] = rateLimitEntry{windowStart: now, count: 1}
		return true
	}
	if entry.count >= defaultRateLimitRequests {
		return false
	}
	entry.count++
	s.rateLimitEntries[key] = entry
	return true
}

func clientKey(r *http.Request) string {
	if ip := strings.TrimSpace(r.Header.Get("X-Forwarded-For")); ip != "" {
		return strings.TrimSpace(strings.Split(ip, ",")[0])
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil && host != "" {
		return host
	}
	return "unknown"
}

// Start begins serving. Blocks until Stop is called or the listener fails.
func (s *Server) Start() error {
	return s.server.ListenAndServe()
}

// Stop gracefully shuts down the HTTP server.
func (s *Server) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	json.NewEncoder(w).Encode(map[string]any{"status": "healthy", "timestamp": time.Now()})
}

type ingestRequest struct {
	DatasetType string `json:"dataset_type"`
	DatasetID   string `json:"dataset_id"`
	Payload     string `json:"payload"`
	DimHint     int    `json:"dim_hint"`
}

func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req ingestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}

	ds := kernel.NewDataStream(req.DatasetType, req.DatasetID, req.Payload, req.DimHint)
	result := s.loop.Ingest(time.Now(), ds)
	json.NewEncoder(w).Encode(result)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	json.NewEncoder(w).Encode(s.loop.Status())
}

func (s *Server) handleSleep(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	s.loop.TriggerManualSleep(time.Now())
	json.NewEncoder(w).Encode(s.loop.Status())
}

type hfsWriteRequest struct {
	Intent  string `json:"intent"`
	Content string `json:"content"`
	Dim     int    `json:"dim"`
}

func (s *Server) handleHFSWrite(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req hfsWriteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	dim := req.Dim
	if dim <= 0 {
		dim = s.cfg.HFS.DefaultDim
	}
	entry, err := s.store.Write(s.enc, req.Intent, req.Content, dim, time.Now().UnixNano())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	json.NewEncoder(w).Encode(entry)
}

func (s *Server) handleHFSSearch(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		http.Error(w, "q query parameter required", http.StatusBadRequest)
		return
	}
	dim := s.cfg.HFS.DefaultDim
	if raw := r.URL.Query().Get("dim"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 0 {
			dim = v
		}
	}
	limit := 10
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 0 {
			limit = v
		}
	}
	results, err := s.store.Search(s.enc, query, dim, limit)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	json.NewEncoder(w).Encode(results)
}

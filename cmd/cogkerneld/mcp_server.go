package main

import (
	"context"
	"net/http"
)

// mcpHTTPServer wraps the handler returned by pkg/mcpserver.NewHandler in a
// plain http.Server so it can be started/stopped alongside the status HTTP
// surface, mirroring the teacher's pattern of running several listeners off
// one daemon process.
type mcpHTTPServer struct {
	server *http.Server
}

func newMCPHTTPServer(addr string, handler http.Handler) *mcpHTTPServer {
	return &mcpHTTPServer{server: &http.Server{Addr: addr, Handler: handler}}
}

func (m *mcpHTTPServer) Start() error {
	return m.server.ListenAndServe()
}

func (m *mcpHTTPServer) Stop(ctx context.Context) error {
	return m.server.Shutdown(ctx)
}

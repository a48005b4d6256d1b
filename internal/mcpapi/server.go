// Package mcpapi exposes booking operations as MCP tools so conversational
// assistants can search businesses and manage appointments.
package mcpapi

import (
	"context"
	"errors"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/plannio/plannio/internal/app/directory"
	"github.com/plannio/plannio/internal/app/scheduling"
	"github.com/plannio/plannio/internal/auth"
)

const (
	// serverName identifies this MCP server to clients.
	serverName = "Plannio MCP"
	// serverVersion identifies the MCP server version.
	serverVersion = "0.1.0"
	// defaultServiceAccount is the actor recorded for tool calls when no
	// account is configured.
	defaultServiceAccount = "mcp-assistant"
)

// TransportKind identifies the MCP transport implementation.
type TransportKind string

// TransportStdio uses standard input/output for MCP.
const TransportStdio TransportKind = "stdio"

// Config configures the MCP server.
type Config struct {
	// ServiceAccount is the user ID tool calls act under.
	ServiceAccount string `env:"PLANNIO_MCP_SERVICE_ACCOUNT" envDefault:"mcp-assistant"`
	// Transport selects the MCP transport. Only stdio is supported.
	Transport TransportKind `env:"PLANNIO_MCP_TRANSPORT" envDefault:"stdio"`
}

// Services holds the application services the tools call into.
type Services struct {
	Directory  *directory.Service
	Scheduling *scheduling.Service
}

// Server hosts the MCP server.
type Server struct {
	mcpServer *mcp.Server
	transport TransportKind
}

// New creates a configured MCP server. Tool calls run under a platform
// service account so they can reach any business on behalf of customers.
func New(services Services, cfg Config) *Server {
	mcpServer := mcp.NewServer(&mcp.Implementation{Name: serverName, Version: serverVersion}, nil)

	account := cfg.ServiceAccount
	if account == "" {
		account = defaultServiceAccount
	}
	principal := auth.Principal{UserID: account, PlatformAdmin: true}

	mcp.AddTool(mcpServer, BusinessSearchTool(), BusinessSearchHandler(services.Directory, principal))
	mcp.AddTool(mcpServer, ServiceListTool(), ServiceListHandler(services.Directory, principal))
	mcp.AddTool(mcpServer, SlotListTool(), SlotListHandler(services.Scheduling, principal))
	mcp.AddTool(mcpServer, AppointmentBookTool(), AppointmentBookHandler(services.Scheduling, principal))
	mcp.AddTool(mcpServer, AppointmentCancelTool(), AppointmentCancelHandler(services.Scheduling, principal))
	mcp.AddTool(mcpServer, AppointmentListTool(), AppointmentListHandler(services.Scheduling, principal))

	transport := cfg.Transport
	if transport == "" {
		transport = TransportStdio
	}
	return &Server{mcpServer: mcpServer, transport: transport}
}

// Serve starts the MCP server and blocks until it stops or the context ends.
func (s *Server) Serve(ctx context.Context) error {
	switch s.transport {
	case TransportStdio:
		return s.serveWithTransport(ctx, &mcp.StdioTransport{})
	default:
		return fmt.Errorf("transport %q is not supported", s.transport)
	}
}

// serveWithTransport runs the MCP server over the given transport. A
// context cancellation is a clean shutdown, not an error.
func (s *Server) serveWithTransport(ctx context.Context, transport mcp.Transport) error {
	if s == nil || s.mcpServer == nil {
		return fmt.Errorf("MCP server is not configured")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	err := s.mcpServer.Run(ctx, transport)
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		err = nil
	}
	if err != nil {
		return fmt.Errorf("serve MCP: %w", err)
	}
	return nil
}

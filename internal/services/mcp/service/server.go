package service

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/skylog-dev/skylog/internal/services/mcp/domain"
	"github.com/skylog-dev/skylog/internal/services/tracker/app"
	"github.com/skylog-dev/skylog/internal/services/tracker/storage/sqlite"
)

// Implementation details reported to MCP clients during initialization.
const (
	serverName    = "skylog MCP"
	serverVersion = "0.1.0"
)

// Config carries the settings the MCP server needs to reach tracker data.
type Config struct {
	// DBPath is the tracker SQLite database the tools read. Empty uses
	// the tracker default.
	DBPath string
}

// Server hosts the MCP server over the tracker facade.
type Server struct {
	mcpServer *mcp.Server
	// store is owned by the server when New opened it; nil when the
	// caller owns the service lifetime.
	store *sqlite.Store
}

// New opens the tracker store, brings the read models current, and binds
// the MCP tools to a service facade over it.
func New(ctx context.Context, cfg Config) (*Server, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	store, err := app.OpenStore(ctx, cfg.DBPath)
	if err != nil {
		return nil, err
	}
	svc := app.NewService(app.StoresFrom(store), nil)
	if err := svc.CatchUp(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("catch up projections: %w", err)
	}

	server, err := newServer(svc)
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	server.store = store
	return server, nil
}

// newServer creates MCP tool handler bindings over the given facade.
func newServer(svc *app.Service) (*Server, error) {
	if svc == nil {
		return nil, fmt.Errorf("tracker service is required")
	}
	mcpServer := mcp.NewServer(&mcp.Implementation{Name: serverName, Version: serverVersion}, nil)
	registerTools(mcpServer, svc)
	return &Server{mcpServer: mcpServer}, nil
}

// registerTools binds every tracker tool to the server. The facade
// satisfies each of the narrow reader interfaces the handlers consume.
func registerTools(server *mcp.Server, svc *app.Service) {
	mcp.AddTool(server, domain.AircraftStateGetTool(), domain.AircraftStateGetHandler(svc))
	mcp.AddTool(server, domain.AircraftListTool(), domain.AircraftListHandler(svc))
	mcp.AddTool(server, domain.SnapshotAtTool(), domain.SnapshotAtHandler(svc))
	mcp.AddTool(server, domain.AircraftFindNearTool(), domain.AircraftFindNearHandler(svc))
	mcp.AddTool(server, domain.SnapshotCompareTool(), domain.SnapshotCompareHandler(svc))
	mcp.AddTool(server, domain.CommentsListTool(), domain.CommentsListHandler(svc))
	mcp.AddTool(server, domain.FavouritesListTool(), domain.FavouritesListHandler(svc))
	mcp.AddTool(server, domain.EventsQueryTool(), domain.EventsQueryHandler(svc))
	mcp.AddTool(server, domain.TrackerStatsTool(), domain.TrackerStatsHandler(svc))
	mcp.AddTool(server, domain.ProjectionsRebuildTool(), domain.ProjectionsRebuildHandler(svc, svc))
}

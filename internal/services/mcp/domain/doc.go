// Package domain holds the MCP tool surface for the tracker: typed tool
// inputs and results, their validation, and handlers that answer each call
// from the tracker read models. Handlers depend on narrow reader interfaces
// rather than the full facade, so tests can stub exactly what a tool uses.
package domain

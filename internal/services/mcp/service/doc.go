// Package service assembles and runs the skylog MCP server: it opens the
// tracker store, registers the domain tool handlers, and serves the MCP
// protocol over stdio.
package service

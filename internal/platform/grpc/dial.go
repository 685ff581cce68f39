// Package grpc holds client helpers for the tracker health endpoint.
package grpc

import (
	"context"

	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	gogrpc "google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// Dial opens a client connection to a tracker endpoint. Transport is
// plaintext; the health endpoint is meant for loopback supervision.
func Dial(addr string) (*gogrpc.ClientConn, error) {
	return gogrpc.NewClient(addr,
		gogrpc.WithTransportCredentials(insecure.NewCredentials()),
		gogrpc.WithStatsHandler(otelgrpc.NewClientHandler()),
	)
}

// DialWithHealth dials addr and blocks until its health check reports
// SERVING or the context ends. The connection is closed when the wait
// fails.
func DialWithHealth(ctx context.Context, addr string, logf func(string, ...any)) (*gogrpc.ClientConn, error) {
	conn, err := Dial(addr)
	if err != nil {
		return nil, err
	}
	if err := WaitForHealth(ctx, conn, "", logf); err != nil {
		_ = conn.Close()
		return nil, err
	}
	return conn, nil
}

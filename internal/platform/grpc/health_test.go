package grpc

import (
	"context"
	"net"
	"testing"
	"time"

	gogrpc "google.golang.org/grpc"
	"google.golang.org/grpc/health"
	grpc_health_v1 "google.golang.org/grpc/health/grpc_health_v1"
)

func startHealthServer(t *testing.T, status grpc_health_v1.HealthCheckResponse_ServingStatus) (string, func(grpc_health_v1.HealthCheckResponse_ServingStatus)) {
	t.Helper()

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}

	grpcServer := gogrpc.NewServer()
	healthServer := health.NewServer()
	grpc_health_v1.RegisterHealthServer(grpcServer, healthServer)
	healthServer.SetServingStatus("", status)

	go func() {
		_ = grpcServer.Serve(listener)
	}()

	t.Cleanup(func() {
		healthServer.Shutdown()
		grpcServer.GracefulStop()
		_ = listener.Close()
	})

	setStatus := func(next grpc_health_v1.HealthCheckResponse_ServingStatus) {
		healthServer.SetServingStatus("", next)
	}
	return listener.Addr().String(), setStatus
}

func TestWaitForHealthServing(t *testing.T) {
	addr, _ := startHealthServer(t, grpc_health_v1.HealthCheckResponse_SERVING)

	conn, err := Dial(addr)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := WaitForHealth(ctx, conn, "", nil); err != nil {
		t.Fatalf("wait for health: %v", err)
	}
}

func TestWaitForHealthRetriesUntilServing(t *testing.T) {
	addr, setStatus := startHealthServer(t, grpc_health_v1.HealthCheckResponse_NOT_SERVING)

	conn, err := Dial(addr)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	flipTimer := time.NewTimer(200 * time.Millisecond)
	defer flipTimer.Stop()
	go func() {
		<-flipTimer.C
		setStatus(grpc_health_v1.HealthCheckResponse_SERVING)
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := WaitForHealth(ctx, conn, "", t.Logf); err != nil {
		t.Fatalf("wait for health: %v", err)
	}
}

func TestWaitForHealthTimeout(t *testing.T) {
	addr, _ := startHealthServer(t, grpc_health_v1.HealthCheckResponse_NOT_SERVING)

	conn, err := Dial(addr)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()
	if err := WaitForHealth(ctx, conn, "", nil); err == nil {
		t.Fatal("expected timeout error")
	}
}

func TestWaitForHealthRequiresConn(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := WaitForHealth(ctx, nil, "", nil); err == nil {
		t.Fatal("expected error for missing connection")
	}
}

func TestDialWithHealth(t *testing.T) {
	addr, _ := startHealthServer(t, grpc_health_v1.HealthCheckResponse_SERVING)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	conn, err := DialWithHealth(ctx, addr, nil)
	if err != nil {
		t.Fatalf("dial with health: %v", err)
	}
	defer conn.Close()
}

func TestDialWithHealthFailsWhenNotServing(t *testing.T) {
	addr, _ := startHealthServer(t, grpc_health_v1.HealthCheckResponse_NOT_SERVING)

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()
	if _, err := DialWithHealth(ctx, addr, nil); err == nil {
		t.Fatal("expected error while endpoint is not serving")
	}
}

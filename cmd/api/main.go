// Command api serves the stateless JSON flow authenticated with bearer tokens.
package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"noticeboard/internal/bootstrap"
	"noticeboard/internal/server"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rt, err := bootstrap.InitRuntime(ctx, "noticeboard-api")
	if err != nil {
		log.Fatalf("Failed to initialize runtime: %v", err)
	}
	defer rt.ShutdownTracing(context.Background())

	srv, err := server.NewServerWithDeps(rt.Config, rt.DB, rt.Redis, rt.Blobs)
	if err != nil {
		rt.Close(context.Background())
		log.Fatalf("Failed to create server: %v", err)
	}

	if err := srv.Run(ctx, server.SurfaceAPI); err != nil {
		log.Printf("Server error: %v", err)
	}
}

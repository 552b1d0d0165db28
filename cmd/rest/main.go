package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"design-companion-be/internal/bootstrap"
	"design-companion-be/internal/config"
	"design-companion-be/internal/server"
	"design-companion-be/internal/tracer"
)

func main() {
	// 1. Load Configuration
	cfg := config.Load()

	// 2. Bootstrap Dependencies (Container)
	container := bootstrap.NewContainer(cfg)
	defer container.Close()
	log := container.Logger

	shutdownTracer := tracer.InitTracer(log)
	defer func() { _ = shutdownTracer(context.Background()) }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. Start Background Services
	go func() {
		if err := container.ProgressService.Consume(ctx); err != nil {
			log.Error("MAIN", "Progress consumer stopped", map[string]interface{}{"error": err.Error()})
		}
	}()
	container.ActivityService.Start(ctx)

	// 4. Initialize Server
	srv := server.New(cfg, container)

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("MAIN", "Graceful shutdown failed", map[string]interface{}{"error": err.Error()})
		}
	}()

	// 5. Run Server
	if err := srv.Run(); err != nil {
		log.Error("MAIN", "Server stopped", map[string]interface{}{"error": err.Error()})
	}
}

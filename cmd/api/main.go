package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"devlink.org/internal/auth"
	"devlink.org/internal/httpapi"
	"devlink.org/internal/obs"
	"devlink.org/internal/social"
	"devlink.org/internal/store/pg"
	"devlink.org/internal/stream"
)

// Overridden at build time via -ldflags.
var (
	version = "0.3.0"
	commit  = "none"
)

func main() {
	obs.Init()
	obs.InitBuildInfo(version, commit)

	addr := os.Getenv("DEVLINK_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	// Postgres when a DSN is set, in-memory otherwise (dev and tests).
	var (
		store social.Store
		probe httpapi.ReadyProbe
	)
	if dsn := os.Getenv("DEVLINK_PG_DSN"); dsn != "" {
		pgStore, err := pg.Open(dsn)
		if err != nil {
			log.Fatalf("open db: %v", err)
		}
		defer pgStore.Close()
		store = pgStore
		probe = httpapi.ReadyProbe{DB: pgStore.DB()}
	} else {
		log.Println("DEVLINK_PG_DSN not set; using in-memory store")
		store = social.NewInMemory()
	}

	var authOpts []auth.ServiceOption
	if ttl := os.Getenv("DEVLINK_TOKEN_TTL"); ttl != "" {
		secs, err := strconv.Atoi(ttl)
		if err != nil || secs <= 0 {
			log.Fatalf("invalid DEVLINK_TOKEN_TTL %q", ttl)
		}
		authOpts = append(authOpts, auth.WithTokenTTL(time.Duration(secs)*time.Second))
	}
	authSvc := auth.NewService(store.Users(), authOpts...)

	api := httpapi.New(probe, version, store, authSvc, stream.New())

	srv := &http.Server{
		Addr:              addr,
		Handler:           api.Handler(),
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		// No write timeout: /api/posts/stream holds the connection open.
		WriteTimeout: 0,
		IdleTimeout:  60 * time.Second,
	}

	log.Printf("Starting devlink-api %s on %s", version, srv.Addr)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	<-stop
	log.Println("Shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_ = srv.Shutdown(ctx)
	log.Println("Stopped")
}

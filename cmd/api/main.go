package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"fusionhub.org/internal/auth"
	"fusionhub.org/internal/feedback"
	"fusionhub.org/internal/httpapi"
	"fusionhub.org/internal/obs"
	"fusionhub.org/internal/project"
	"fusionhub.org/internal/sprint"
	"fusionhub.org/internal/store/memory"
	"fusionhub.org/internal/store/pg"
	"fusionhub.org/internal/stream"
	"fusionhub.org/internal/task"
)

var version = "0.3.0"

func main() {
	obs.Init()
	obs.InitBuildInfo(version, os.Getenv("FUSION_COMMIT"))

	secret := os.Getenv("FUSION_AUTH_SECRET")
	if secret == "" {
		log.Fatal("FUSION_AUTH_SECRET is required")
	}

	addr := os.Getenv("FUSION_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	// Without a DSN the service runs fully in memory with a seeded demo
	// tenant. That mode exists for local development only.
	var (
		creds   auth.CredentialStore
		catalog auth.RoleCatalog
		pjStore project.Store
		fbStore feedback.Store
		spStore sprint.Store
		tkStore task.Store
		probe   httpapi.ReadyProbe
		pgClose func() error
	)
	if dsn := os.Getenv("FUSION_PG_DSN"); dsn != "" {
		store, err := pg.Open(dsn)
		if err != nil {
			log.Fatalf("open db: %v", err)
		}
		creds, catalog = store, store
		pjStore, fbStore, spStore, tkStore = store.Projects(), store.Feedback(), store.Sprints(), store.Tasks()
		probe = httpapi.ReadyProbe{DB: store.DB()}
		pgClose = store.Close
	} else {
		log.Print("FUSION_PG_DSN not set, using in-memory store")
		store := memory.New()
		store.SeedTenant("demo", "Demo Workspace")
		creds, catalog = store, store
		pjStore, fbStore, spStore, tkStore = store.Projects(), store.Feedback(), store.Sprints(), store.Tasks()
	}

	tokenOpts := []auth.TokenOption{}
	if ttl := durationEnv("FUSION_ACCESS_TTL"); ttl > 0 {
		tokenOpts = append(tokenOpts, auth.WithAccessTTL(ttl))
	}
	if ttl := durationEnv("FUSION_REFRESH_TTL"); ttl > 0 {
		tokenOpts = append(tokenOpts, auth.WithRefreshTTL(ttl))
	}
	tokens, err := auth.NewTokenService([]byte(secret), creds, tokenOpts...)
	if err != nil {
		log.Fatalf("token service: %v", err)
	}
	authSvc, err := auth.NewService(creds, catalog, tokens)
	if err != nil {
		log.Fatalf("auth service: %v", err)
	}

	events := stream.New()
	pjEngine := project.NewEngine(pjStore)
	fbEngine := feedback.NewEngine(fbStore)
	spEngine := sprint.NewEngine(spStore, tkStore)

	api := httpapi.New(authSvc, pjEngine, fbEngine, spEngine, events, probe, version)

	srv := &http.Server{
		Addr:              addr,
		Handler:           api.Handler(),
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	log.Printf("Starting fusionhub-api %s on %s", version, srv.Addr)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()
	obs.SetReady(true)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	<-stop
	log.Println("Shutting down...")
	obs.SetReady(false)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_ = srv.Shutdown(ctx)
	if pgClose != nil {
		_ = pgClose()
	}
	log.Println("Stopped")
}

func durationEnv(key string) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return 0
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		log.Fatalf("%s: %v", key, err)
	}
	return d
}

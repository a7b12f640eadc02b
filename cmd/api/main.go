package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"forkplace.org/internal/auth"
	"forkplace.org/internal/config"
	"forkplace.org/internal/httpapi"
	"forkplace.org/internal/obs"
)

var (
	version = "0.3.1"
	commit  = "dev"
)

func main() {
	log.SetFlags(0)

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	obs.Init()
	obs.InitBuildInfo(version, commit)

	if cfg.DatabaseDSN == "" {
		log.Fatal("missing DSN: set FORKPLACE_PG_DSN")
	}
	store, err := auth.Open(cfg.DatabaseDSN)
	if err != nil {
		log.Fatalf("open db: %v", err)
	}

	bootCtx, cancelBoot := context.WithTimeout(context.Background(), 30*time.Second)
	if err := auth.Bootstrap(bootCtx, store); err != nil {
		cancelBoot()
		log.Fatalf("bootstrap permission catalog: %v", err)
	}
	cancelBoot()

	issuer, err := auth.NewIssuer(auth.IssuerConfig{
		AccessSecret:  cfg.AccessSecret,
		RefreshSecret: cfg.RefreshSecret,
		AccessTTL:     cfg.AccessTTL,
		RefreshTTL:    cfg.RefreshTTL,
		Issuer:        cfg.TokenIssuer,
	})
	if err != nil {
		log.Fatalf("token issuer: %v", err)
	}

	policy := auth.DefaultPasswordPolicy()
	policy.MinLength = cfg.PasswordMinLength
	policy.MaxLength = cfg.PasswordMaxLength
	if p := cfg.CompilePasswordPattern(); p != nil {
		policy.Pattern = p
	}

	hasher := auth.NewHasher(cfg.BcryptCost)
	sessions, err := auth.NewSessions(store, issuer, hasher, auth.WithPasswordPolicy(policy))
	if err != nil {
		log.Fatalf("session manager: %v", err)
	}
	engine, err := auth.NewEngine(store)
	if err != nil {
		log.Fatalf("authorization engine: %v", err)
	}

	api := httpapi.New(httpapi.Config{
		Sessions: sessions,
		Engine:   engine,
		Issuer:   issuer,
		Store:    store,
		Ready:    httpapi.ReadyProbe{DB: store.DB()},
		Version:  version,
		Cookie: httpapi.CookieConfig{
			Name:   cfg.RefreshCookieName,
			MaxAge: cfg.RefreshTTL,
		},
		Limits: httpapi.Limits{
			RatePerSecond: cfg.RateLimitPerSecond,
			RateBurst:     cfg.RateLimitBurst,
			MaxBodyBytes:  cfg.MaxBodyBytes,
		},
	})

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           api.Handler(),
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	log.Printf("starting forkplace-auth %s on %s", version, srv.Addr)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	<-stop
	log.Println("shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_ = srv.Shutdown(ctx)
	_ = store.Close()
	log.Println("stopped")
}

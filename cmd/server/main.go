package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"

	"github.com/GoodWork0903/Amplify-Mother-Kid-MVP/idp"
	"github.com/GoodWork0903/Amplify-Mother-Kid-MVP/internal/config"
	"github.com/GoodWork0903/Amplify-Mother-Kid-MVP/internal/logging"
	"github.com/GoodWork0903/Amplify-Mother-Kid-MVP/server"
)

func main() {
	if err := run(); err != nil {
		logging.Fatal().Err(err).Msg("server exited")
	}
	logging.Info().Msg("server stopped")
}

func run() (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			debug.PrintStack()
			returnError = fmt.Errorf("panic recovered: %v", r)
		}
	}()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config.Load: %w", err)
	}
	logging.Init(logging.Config{Level: cfg.Logging.Level, Format: cfg.Logging.Format})
	displayAppname(cfg.Server.AppName)

	srv, err := buildServer(cfg)
	if err != nil {
		return err
	}

	httpServer := &http.Server{Addr: cfg.GetPort(), Handler: srv}
	go listenAndServe(httpServer)
	waitForStopSignal()
	return shutdown(httpServer)
}

func buildServer(cfg *config.Config) (*server.Server, error) {
	registry := idp.NewRegistry(
		idp.Registration{ID: cfg.Provider.AdminClientID, Secret: cfg.Provider.AdminClientSecret, App: idp.AppAdmin},
		idp.Registration{ID: cfg.Provider.TenantClientID, Secret: cfg.Provider.TenantClientSecret, App: idp.AppTenant},
	)
	client := idp.New(cfg.Provider.Domain, cfg.Provider.RedirectURI, registry)

	verifier, err := buildVerifier(cfg)
	if err != nil {
		return nil, err
	}
	return server.New(cfg, client, verifier)
}

func buildVerifier(cfg *config.Config) (idp.Verifier, error) {
	if cfg.Provider.VerifySignatures {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		verifier, err := idp.NewOIDCVerifier(ctx, cfg.Provider.Domain)
		if err != nil {
			return nil, fmt.Errorf("idp.NewOIDCVerifier: %w", err)
		}
		return verifier, nil
	}
	logging.Warn().Msg("id token signatures are NOT verified; enable provider.verify_signatures outside development")
	return idp.NewUnverifiedParser(), nil
}

func listenAndServe(httpServer *http.Server) {
	logging.Info().Str("addr", httpServer.Addr).Msg("server listening")
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logging.Fatal().Err(err).Msg("server.ListenAndServe")
	}
}

func waitForStopSignal() {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
}

func shutdown(httpServer *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server.Shutdown: %w", err)
	}
	return nil
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/plst/internal/events"
	"github.com/desertthunder/plst/internal/server"
)

const shutdownTimeout = 10 * time.Second

// Serve runs the HTTP API until the context is cancelled.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	if err := r.open(ctx); err != nil {
		return err
	}

	cfg := r.config.Server
	if cmd.IsSet("host") {
		cfg.Host = cmd.String("host")
	}
	if cmd.IsSet("port") {
		cfg.Port = int(cmd.Int("port"))
	}

	verifier := server.NewTokenVerifier(r.config.Auth.JWTSecret, r.config.Auth.Issuer)
	router := server.NewAPI(cfg, verifier, r.service, r.logger, r.healthChecks()...)
	srv := server.NewHTTPServer(cfg, router)

	errCh := make(chan error, 1)
	go func() {
		r.logger.Info("listening", "addr", srv.Addr, "catalog", r.config.Catalog.Mode, "database", r.config.Database.Driver)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	r.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down: %w", err)
	}
	return nil
}

func (r *Runner) healthChecks() []server.HealthCheck {
	var checks []server.HealthCheck
	if r.db != nil {
		checks = append(checks, server.HealthCheck{Name: "database", Check: r.db.PingContext})
	}
	if pub, ok := r.publisher.(*events.RedisPublisher); ok {
		checks = append(checks, server.HealthCheck{Name: "events", Check: pub.Ping})
	}
	return checks
}

// Token prints a signed access token for the subject argument.
func (r *Runner) Token(ctx context.Context, cmd *cli.Command) error {
	subject := cmd.StringArg("subject")
	if subject == "" {
		var err error
		if subject, err = r.user(cmd); err != nil {
			return err
		}
	}

	verifier := server.NewTokenVerifier(r.config.Auth.JWTSecret, r.config.Auth.Issuer)
	token, err := verifier.Issue(subject, cmd.Duration("ttl"))
	if err != nil {
		return fmt.Errorf("failed to sign token: %w", err)
	}

	r.writePlain("%s\n", token)
	return nil
}

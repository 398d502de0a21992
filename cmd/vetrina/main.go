package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"

	"github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/platinummonkey/vetrina/pkg/api"
	"github.com/platinummonkey/vetrina/pkg/auth"
	"github.com/platinummonkey/vetrina/pkg/config"
	"github.com/platinummonkey/vetrina/pkg/middleware"
	"github.com/platinummonkey/vetrina/pkg/observability"
	"github.com/platinummonkey/vetrina/pkg/payment"
	"github.com/platinummonkey/vetrina/pkg/session"
	"github.com/platinummonkey/vetrina/pkg/sso"
	"github.com/platinummonkey/vetrina/pkg/storage"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		observability.NewLogger("info", os.Stderr).WithError(err).Fatal("failed to load configuration")
	}

	log := observability.NewLogger(cfg.Log.Level, os.Stdout)
	if cfg.Auth.UsingDevSecret {
		log.Warn("VETRINA_JWT_SECRET is not set, using the development fallback secret")
	}

	store, err := storage.Open(cfg.StorageConfig())
	if err != nil {
		log.WithError(err).Fatal("failed to open storage")
	}

	ctx := context.Background()
	if cfg.Storage.Seed {
		if err := store.Seed(ctx); err != nil {
			log.WithError(err).Fatal("failed to seed storage")
		}
	}

	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.TokenValidity)
	registry := session.NewRegistry(store.DB())

	cleaner := session.NewCleaner(registry, cfg.Auth.CleanupSchedule)
	if err := cleaner.Start(); err != nil {
		log.WithError(err).Fatal("failed to start session cleaner")
	}

	var redisClient *redis.Client
	var loginLimiter func(http.Handler) http.Handler
	if cfg.Redis.Enabled {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := redisClient.Ping(ctx).Err(); err != nil {
			log.WithError(err).Warn("redis unreachable at startup, login rate limiting will fail open")
		}
		limiter := middleware.NewDistributedRateLimiter(redisClient, middleware.LoginRateLimitConfig(), "vetrina:ratelimit:login")
		loginLimiter = limiter.Handler(log)
	} else {
		limiter := middleware.NewRateLimiter(middleware.LoginRateLimitConfig())
		loginLimiter = limiter.Handler
	}

	var ssoAuthn *sso.Authenticator
	if cfg.SSO.Enabled {
		ssoAuthn, err = sso.NewAuthenticator(ctx, sso.Config{
			IssuerURL:    cfg.SSO.IssuerURL,
			ClientID:     cfg.SSO.ClientID,
			ClientSecret: cfg.SSO.ClientSecret,
			RedirectURL:  cfg.SSO.RedirectURL,
		})
		if err != nil {
			log.WithError(err).Fatal("failed to initialize SSO")
		}
		log.WithField("issuer", cfg.SSO.IssuerURL).Info("SSO enabled")
	}

	var payments payment.Provider = payment.AcceptAllProvider{}
	if cfg.Payment.BaseURL != "" {
		payments = payment.NewRESTProvider(payment.RESTConfig{
			BaseURL:      cfg.Payment.BaseURL,
			TokenURL:     cfg.Payment.TokenURL,
			ClientID:     cfg.Payment.ClientID,
			ClientSecret: cfg.Payment.ClientSecret,
		})
		log.WithField("provider", cfg.Payment.BaseURL).Info("payment provider configured")
	} else {
		log.Warn("no payment provider configured, accepting all captures")
	}

	promRegistry := prometheus.NewRegistry()
	metrics := observability.NewMetrics(promRegistry)
	health := observability.NewHealthChecker(store.DB(), redisClient)

	server := api.NewServer(api.ServerOptions{
		Store:         store,
		Registry:      registry,
		Tokens:        tokens,
		Log:           log,
		Metrics:       metrics,
		Payments:      payments,
		Health:        health,
		SSO:           ssoAuthn,
		LoginLimiter:  loginLimiter,
		TokenValidity: cfg.Auth.TokenValidity,
		SecureCookies: cfg.SecureCookies(),
		PromRegistry:  promRegistry,
	})

	addr := net.JoinHostPort(cfg.Server.Host, cfg.Server.Port)
	httpServer := &http.Server{
		Addr:         addr,
		Handler:      server.Router(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	shutdown := observability.NewShutdownManager(log, httpServer, cfg.Server.ShutdownTimeout)
	shutdown.RegisterShutdownFunc(cleaner.Stop)
	shutdown.RegisterShutdownFunc(func(context.Context) error { return store.Close() })
	if redisClient != nil {
		shutdown.RegisterShutdownFunc(func(context.Context) error { return redisClient.Close() })
	}

	var g errgroup.Group
	g.Go(func() error {
		log.WithFields(logrus.Fields{
			"addr":        addr,
			"environment": cfg.Environment,
			"driver":      cfg.Storage.Driver,
		}).Info("starting vetrina")
		if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(shutdown.WaitForShutdown)

	if err := g.Wait(); err != nil {
		log.WithError(err).Fatal("server exited with error")
	}
}

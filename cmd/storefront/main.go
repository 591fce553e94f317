package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/keymarket/internal/catalog"
	"github.com/Skotchmaster/keymarket/internal/checkout"
	"github.com/Skotchmaster/keymarket/internal/config"
	"github.com/Skotchmaster/keymarket/internal/delivery"
	"github.com/Skotchmaster/keymarket/internal/events"
	"github.com/Skotchmaster/keymarket/internal/httpserver"
	"github.com/Skotchmaster/keymarket/internal/logging"
	"github.com/Skotchmaster/keymarket/internal/repo"
	"github.com/Skotchmaster/keymarket/internal/service"
	"github.com/Skotchmaster/keymarket/internal/session"
	"github.com/Skotchmaster/keymarket/pkg/db"
)

func main() {
	cfg := config.Load()

	logger := logging.New(cfg.LogLevel).With("service", cfg.ServiceName)
	slog.SetDefault(logger)

	config.MustNonEmptyBytes(cfg.SessionSecret, "SESSION_SECRET")

	initCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	gdb, err := db.Open(initCtx, cfg.DatabaseURL)
	if err == nil {
		err = repo.Migrate(initCtx, gdb)
	}
	cancel()
	if err != nil {
		logger.Error("db_init_error", "error", err)
		os.Exit(1)
	}

	orderRepo := &repo.GormRepo{DB: gdb}
	publisher := events.New(cfg.KafkaBrokers)
	sessions := session.NewManager(cfg.SessionTTL)
	cat := catalog.Default()

	cartService := &service.CartService{
		Catalog: cat,
		Events:  publisher,
	}
	checkoutService := &service.CheckoutService{
		Orders: orderRepo,
		Events: publisher,
		Options: checkout.Options{
			Currency:       cfg.Currency,
			Processor:      checkout.SimulatedProcessor{Delay: cfg.PaymentDelay},
			Issuer:         &delivery.Issuer{Repo: orderRepo},
			PaymentTimeout: cfg.PaymentTimeout,
		},
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Server.ReadTimeout = 10 * time.Second
	e.Server.WriteTimeout = cfg.PaymentTimeout + 15*time.Second
	e.Server.ReadHeaderTimeout = 3 * time.Second

	for _, m := range httpserver.Common(logger) {
		e.Use(m)
	}

	httpserver.Register(e, &httpserver.Deps{
		CatalogHandler:  &httpserver.CatalogHTTP{Catalog: cat},
		CartHandler:     &httpserver.CartHTTP{Svc: cartService, Currency: cfg.Currency},
		CheckoutHandler: &httpserver.CheckoutHTTP{Svc: checkoutService, Currency: cfg.Currency},
		Session:         sessionConfig(cfg, sessions),
		Ready: func() error {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			sqlDB, err := gdb.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
	})

	runCtx, stopSweeper := context.WithCancel(logging.IntoContext(context.Background(), logger))
	go sessions.Run(runCtx, cfg.SweepInterval)

	addr := fmt.Sprintf(":%d", cfg.ServerPort)
	go func() {
		logger.Info("server_starting", "addr", addr, "kafka", len(cfg.KafkaBrokers) > 0)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("echo_start_error", "error", err)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	logger.Info("server_shutting_down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.PaymentTimeout+5*time.Second)
	defer shutdownCancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("echo_shutdown_error", "error", err)
	}
	stopSweeper()

	if err := publisher.Close(); err != nil {
		logger.Error("publisher_close_error", "error", err)
	}
	if err := db.Close(gdb); err != nil {
		logger.Error("db_close_error", "error", err)
	}

	logger.Info("server_stopped")
}

func sessionConfig(cfg config.Config, m *session.Manager) httpserver.SessionConfig {
	return httpserver.SessionConfig{
		Manager: m,
		Secret:  cfg.SessionSecret,
		TTL:     cfg.SessionTTL,
		Secure:  cfg.CookieSecure,
	}
}

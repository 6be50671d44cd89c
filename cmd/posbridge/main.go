package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/shopspring/decimal"

	"posbridge/internal/config"
	"posbridge/internal/handler"
	"posbridge/internal/metrics"
	"posbridge/internal/model"
	"posbridge/internal/mw"
	"posbridge/internal/service"
	"posbridge/internal/store"
	"posbridge/internal/worker"
)

func main() {
	cfg := config.New()

	// the POS parses money fields as JSON numbers
	decimal.MarshalJSONWithoutQuotes = true

	st := store.New()
	m := metrics.NewRegistry()
	ysClient := service.NewYemekSepetiClient(cfg.YemekSepetiBaseURL, cfg.ChainCode, cfg.Username, cfg.Password)

	// Background tasks
	reconciler := worker.NewReconciler(st, ysClient, m, cfg.CheckInterval)
	sweeper := worker.NewSweeper(st, m)

	// Router
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "x-api-key", "x-restaurant-secret-key"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Platform webhooks (inbound, unauthenticated by contract)
	r.Post("/order/{remoteId}", handler.OrderDispatchHandler(st, cfg.PublicBaseURL, m))
	r.Put("/remoteId/{remoteId}/remoteOrder/{remoteOrderId}/posOrderStatus", handler.OrderStatusUpdateHandler(st, m))
	r.Post("/remoteId/{remoteId}/remoteOrder/{remoteOrderId}/cancel", handler.OrderCancelHandler(st, m))
	r.Get("/menuimport/{remoteId}", handler.MenuImportHandler())

	r.Post("/webhook/newOrder", handler.PlatformEventHandler(st, model.EventNewOrder, cfg.GetirSecretKey, m))
	r.Post("/webhook/cancelOrder", handler.PlatformEventHandler(st, model.EventCancelOrder, cfg.GetirSecretKey, m))
	r.Post("/webhook/courierArrival", handler.PlatformEventHandler(st, model.EventCourierArrival, cfg.GetirSecretKey, m))

	// Test callbacks simulating the platform's async order lifecycle
	r.Post("/test-callbacks/order-accepted/{orderId}", handler.TerminalCallback(st, model.StatusAccepted, cfg.TerminalDelete))
	r.Post("/test-callbacks/order-rejected/{orderId}", handler.TerminalCallback(st, model.StatusRejected, cfg.TerminalDelete))
	r.Post("/test-callbacks/order-prepared/{orderId}", handler.ProgressCallback(st, model.StatusPrepared))
	r.Post("/test-callbacks/order-pickedup/{orderId}", handler.ProgressCallback(st, model.StatusPickedUp))

	// POS polling surface
	r.Group(func(r chi.Router) {
		r.Use(mw.APIKey(cfg.YemekSepetiAPIKey))

		r.Get("/api/yemeksepeti/pending-orders", handler.PendingOrdersHandler(st, m))
		r.Delete("/api/yemeksepeti/orders/{orderId}", handler.DeleteOrderHandler(st))
		r.Get("/api/yemeksepeti/cancellations", handler.ListCancellationsHandler(st, m))
		r.Delete("/api/yemeksepeti/cancellations/{cancellationId}", handler.DeleteCancellationHandler(st))
	})

	r.Group(func(r chi.Router) {
		r.Use(mw.APIKey(cfg.GetirYemekAPIKey))

		r.Get("/poll/webhooks", handler.PollEventsHandler(st, m))
		r.Delete("/api/getiryemek/webhooks/{webhookId}", handler.DeleteEventHandler(st))
	})

	r.Get("/health", handler.HealthHandler())
	r.Get("/", handler.RootHandler(st))
	r.Method(http.MethodGet, "/metrics", m.Handler())

	srv := &http.Server{
		Addr:         cfg.RunAddress,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	ctx, cancel := context.WithCancel(context.Background())
	go reconciler.Start(ctx)
	go sweeper.Start(ctx)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	slog.Info("starting server", "addr", cfg.RunAddress, "checkInterval", cfg.CheckInterval)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server failed", "error", err)
		}
	}()

	<-quit
	slog.Info("shutting down...")

	cancel() // stop background tasks
	ctxShut, cancelShut := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShut()

	if err := srv.Shutdown(ctxShut); err != nil {
		slog.Error("server shutdown failed", "error", err)
	}

	slog.Info("server stopped")
}

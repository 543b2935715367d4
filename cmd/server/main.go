package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"expense-api/internal/blob"
	"expense-api/internal/config"
	"expense-api/internal/deadletter"
	"expense-api/internal/handlers"
	"expense-api/internal/storage"

	"go.uber.org/zap"
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("failed to load configuration", zap.Error(err))
	}

	db, err := storage.NewDB("postgres", cfg.DSN())
	if err != nil {
		logger.Fatal("failed to open database", zap.Error(err))
	}
	defer db.Close()

	receipts := blob.NewStore(cfg.StorageURL, cfg.StorageKey, cfg.ReceiptBucket)

	writer := deadletter.NewWriter(cfg.KafkaBrokers, cfg.DLQTopic)
	defer writer.Close()
	reporter := deadletter.NewReporter(writer, logger)

	h := handlers.NewHandlers(db, receipts, reporter, logger)
	mux := setupRouter(h)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("server listening", zap.String("addr", cfg.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	logger.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("shutdown failed", zap.Error(err))
	}
}

// setupRouter registers the API routes. Route names mirror the function
// names the dashboard frontend calls.
func setupRouter(h *handlers.Handlers) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/CreateExpense", h.Wrap("CreateExpense", h.CreateExpense))
	mux.HandleFunc("GET /api/GetExpenses", h.Wrap("GetExpenses", h.GetExpenses))
	mux.HandleFunc("PUT /api/UpdateExpense", h.Wrap("UpdateExpense", h.UpdateExpense))
	mux.HandleFunc("DELETE /api/DeleteExpense", h.Wrap("DeleteExpense", h.DeleteExpense))
	mux.HandleFunc("GET /api/GetCategories", h.Wrap("GetCategories", h.GetCategories))
	mux.HandleFunc("POST /api/Login", h.Wrap("Login", h.Login))
	mux.HandleFunc("POST /api/Signup", h.Wrap("Signup", h.Signup))

	return mux
}

package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/julienschmidt/httprouter"
	"golang.org/x/time/rate"

	"bookstore/internal/auth"
	"bookstore/internal/book"
	"bookstore/internal/config"
	"bookstore/internal/handlers"
	"bookstore/internal/order"
	"bookstore/internal/storage"
	"bookstore/internal/user"
	"bookstore/package/client/jsondb"
	"bookstore/package/logger"
	"bookstore/package/metrics"
)

const healthUrl = "/health"

func main() {
	cfg := config.GetConfig()
	logger.Configure(cfg.Debug(), cfg.LogFormat)

	logger.Log.Info("Starting storage")
	db, err := storage.Open(cfg.Storage)
	if err != nil {
		logger.Log.Fatal("Can not open storage: ", err)
	}

	defer func(db *jsondb.DB) {
		if err := db.Close(); err != nil {
			logger.Log.Error("Can not close storage")
		}
	}(db)

	logger.Log.Info("Starting app")
	if err := start(newRootHandler(cfg, db), cfg); err != nil {
		logger.Log.Error(err)
	}
}

// newRootHandler wires every API handler, the health check and, when
// enabled, the metrics endpoint around one router.
func newRootHandler(cfg *config.Config, db *jsondb.DB) http.Handler {
	tokens := auth.NewTokens(cfg.Key.SecretKey, cfg.Key.TokenTTL)
	users := user.NewService(db)
	mw := auth.NewMiddleware(tokens).WithAccounts(users)
	limiter := auth.NewRateLimiter(rate.Limit(cfg.Key.LoginRate), cfg.Key.LoginBurst)

	router := httprouter.New()
	for _, handler := range []handlers.Handler{
		book.NewHandler(book.NewService(db), mw),
		order.NewHandler(order.NewService(db), mw),
		user.NewHandler(users, mw, tokens, limiter),
	} {
		handler.Register(router)
	}
	router.GET(healthUrl, func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		handlers.WriteJSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
	})

	var root http.Handler = router
	if cfg.Metrics.Enabled {
		m := metrics.New()
		router.Handler(http.MethodGet, cfg.Metrics.Path, m.Handler())
		root = m.Instrument(router, cfg.Metrics.Path)
	}

	return root
}

// start serves until SIGINT or SIGTERM and then drains in-flight requests
// for at most the configured shutdown timeout.
func start(handler http.Handler, cfg *config.Config) error {
	address := fmt.Sprintf("%s:%s", cfg.Listen.BindIp, cfg.Listen.Port)
	listener, err := net.Listen("tcp", address)
	if err != nil {
		return fmt.Errorf("listener was not created: %w", err)
	}
	logger.Log.Info("Listening ", address)

	server := &http.Server{
		Handler:      handler,
		WriteTimeout: cfg.Listen.WriteTimeout,
		ReadTimeout:  cfg.Listen.ReadTimeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- server.Serve(listener)
	}()

	select {
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server stopped: %w", err)
	case <-ctx.Done():
	}

	logger.Log.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Listen.ShutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

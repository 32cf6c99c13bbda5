package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/udyambharat/storefront-client/internal/fakeshop"
)

func main() {
	addr := flag.String("addr", "127.0.0.1:5000", "Listen address")
	transcript := flag.String("transcript", "Handwoven cotton saree", "Text returned by the transcribe endpoint")
	confidence := flag.Float64("confidence", 0.92, "Confidence returned by the transcribe endpoint")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	shop := fakeshop.New(fakeshop.SampleProducts(), logger)
	shop.SetTranscript(fakeshop.Transcript{Text: *transcript, Confidence: *confidence})

	srv := &http.Server{
		Addr:         *addr,
		Handler:      shop.Handler(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("Fake storefront listening", slog.String("address", *addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server failed", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Shutdown failed", slog.String("error", err.Error()))
	}

	stats := shop.Stats()
	logger.Info("Fake storefront stopped",
		slog.Int("cart_adds", stats.CartAdds),
		slog.Int("checkouts", stats.Checkouts),
		slog.Int("transcribes", stats.Transcribes),
	)
}

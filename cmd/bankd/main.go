package main

import (
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/minibank/minibank/internal/config"
	"github.com/minibank/minibank/internal/handler"
	"github.com/minibank/minibank/internal/integrations/rates"
	"github.com/minibank/minibank/internal/ledger"
	"github.com/minibank/minibank/internal/notify"
	"github.com/minibank/minibank/internal/scheduler"
	"github.com/minibank/minibank/internal/service"
	"github.com/minibank/minibank/internal/store"
)

func main() {
	// Initialize logger
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logLevel, err := logrus.ParseLevel(os.Getenv("LOG_LEVEL"))
	if err != nil {
		logLevel = logrus.InfoLevel
	}
	logger.SetLevel(logLevel)

	// Load configuration
	cfg, err := config.NewConfig()
	if err != nil {
		logger.Fatalf("Failed to load config: %v", err)
	}

	// Load the ledger from disk; a missing or corrupt data file starts
	// an empty ledger rather than failing.
	st := store.New(cfg.DataFile, logger)
	led := ledger.New(ledger.HashScheme(cfg.HashScheme))
	led.Restore(st.Load())

	// Initialize layers
	var notifier service.Notifier
	if cfg.SMTPConfigured() {
		notifier = notify.NewSender(cfg, logger)
	}
	svc := service.NewService(led, st, logger, cfg, notifier)
	ratesClient := rates.NewClient(cfg, logger)
	h := handler.NewHandler(svc, ratesClient, logger)

	// Optional scheduled interest
	sched, err := scheduler.New(cfg, svc, logger)
	if err != nil {
		logger.Fatalf("Failed to set up interest scheduler: %v", err)
	}
	if sched != nil {
		sched.Start()
		defer sched.Stop()
	}

	// Setup router
	r := h.Routes(cfg)

	// Flush the ledger on shutdown signals
	go func() {
		ch := make(chan os.Signal, 1)
		signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
		<-ch
		if err := svc.Save(); err != nil {
			logger.Errorf("Final save failed: %v", err)
		}
		os.Exit(0)
	}()

	// Start server
	addr := fmt.Sprintf(":%s", cfg.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	logger.Infof("Starting server on %s", addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatalf("Server failed: %v", err)
	}
}

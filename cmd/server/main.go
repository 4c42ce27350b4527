package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/SPY-Github22/Shining-Zenith/internal/agent"
	"github.com/SPY-Github22/Shining-Zenith/internal/api"
	"github.com/SPY-Github22/Shining-Zenith/internal/archive"
	"github.com/SPY-Github22/Shining-Zenith/internal/config"
	"github.com/SPY-Github22/Shining-Zenith/internal/dialogue"
	"github.com/SPY-Github22/Shining-Zenith/internal/httpserver"
	"github.com/SPY-Github22/Shining-Zenith/internal/intel"
	"github.com/SPY-Github22/Shining-Zenith/internal/llm"
	"github.com/SPY-Github22/Shining-Zenith/internal/speech"
)

func main() {
	cfg := config.Load()
	logrus.SetLevel(cfg.ParseLevel())
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true, TimestampFormat: time.RFC3339Nano})
	log := logrus.WithField("component", "server")

	store, err := archive.NewSQLiteStore(cfg.SQLitePath)
	if err != nil {
		log.WithError(err).Fatal("failed to open session archive")
	}
	defer store.Close()

	var chat llm.Client
	if cfg.GroqKey != "" {
		chat = llm.NewGroqClient(cfg.GroqKey, cfg.GroqModelID)
	}

	var primary, fallback speech.Synthesizer
	if cfg.EdgeTTSURL != "" {
		primary = speech.NewEdgeClient(cfg.EdgeTTSURL)
	}
	if cfg.DeepgramKey != "" {
		fallback = speech.NewDeepgramClient(cfg.DeepgramKey, cfg.DeepgramModel)
	}
	speaker := speech.NewSpeaker(primary, fallback, logrus.WithField("component", "speech"))

	manager := agent.NewManager(agent.Deps{
		Dialogue: dialogue.NewService(chat, logrus.WithField("component", "dialogue")),
		Analyzer: intel.NewAnalyzer(chat, logrus.WithField("component", "intel")),
		Archive:  store,
	}, agent.Options{}, logrus.WithField("component", "agent"))

	e := httpserver.New()
	handlers := api.NewHandlers(manager, store, speaker, logrus.WithField("component", "api"))
	if cfg.AssemblyAIKey != "" {
		handlers = handlers.WithTranscripts(api.NewAssemblyAITranscripts(cfg.AssemblyAIKey))
	}
	handlers.Register(e)

	server := &http.Server{
		Addr:              cfg.HTTPAddress,
		Handler:           e,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		log.WithField("address", cfg.HTTPAddress).Info("server listening")
		serverErrors <- server.ListenAndServe()
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("server error")
		}
	case sig := <-sigChan:
		log.WithField("signal", sig.String()).Info("shutdown signal received")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.WithError(err).Warn("graceful shutdown failed")
		_ = server.Close()
	}
}

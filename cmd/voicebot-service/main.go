// main package for the voicebot-service
package main

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/book-expert/logger"
	"github.com/nats-io/nats.go"

	"github.com/order-expert/voicebot-service/internal/bangla"
	"github.com/order-expert/voicebot-service/internal/config"
	"github.com/order-expert/voicebot-service/internal/llm"
	"github.com/order-expert/voicebot-service/internal/objectstore"
	"github.com/order-expert/voicebot-service/internal/orders"
	"github.com/order-expert/voicebot-service/internal/server"
	"github.com/order-expert/voicebot-service/internal/telephony"
	"github.com/order-expert/voicebot-service/internal/tts"
	"github.com/order-expert/voicebot-service/internal/worker"
)

const (
	readHeaderTimeout = 10 * time.Second
	shutdownTimeout   = 10 * time.Second
)

func setupLogger(logPath string) (*logger.Logger, error) {
	log, err := logger.New(logPath, "voicebot-service-bootstrap.log")
	if err != nil {
		return nil, fmt.Errorf("failed to create bootstrap logger: %w", err)
	}

	return log, nil
}

func secondsOrDefault(seconds int, fallback time.Duration) time.Duration {
	if seconds <= 0 {
		return fallback
	}

	return time.Duration(seconds) * time.Second
}

func buildServer(
	cfg *config.Config,
	natsConnection *nats.Conn,
	orderStore *orders.MemoryStore,
	synthesizer *tts.Synthesizer,
	ttsClient *tts.Client,
	store *objectstore.NatsObjectStore,
	log *logger.Logger,
) *server.Server {
	groqClient := llm.NewGroqClient(
		cfg.Groq.BaseURL,
		cfg.Groq.APIKey,
		cfg.Groq.Model,
		secondsOrDefault(cfg.Groq.TimeoutSeconds, 30*time.Second),
	)

	signalwireClient := telephony.NewClient(
		cfg.SignalWire.SpaceURL,
		cfg.SignalWire.ProjectID,
		cfg.SignalWire.APIToken,
		30*time.Second,
	)

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	return server.New(server.Deps{
		Orders:              orderStore,
		Parser:              llm.NewOrderParser(groqClient),
		Agent:               llm.NewAgent(groqClient),
		PostProcessor:       bangla.NewPostProcessor(rng),
		Synthesizer:         synthesizer,
		Store:               store,
		Calls:               signalwireClient,
		Sidecar:             ttsClient,
		Publisher:           natsConnection,
		BaseURL:             cfg.HTTP.BaseURL,
		CallerID:            cfg.SignalWire.CallerID,
		OrderCreatedSubject: cfg.NATS.OrderCreatedSubject,
		Log:                 log,
	})
}

func run() error {
	// 1. Create a temporary logger for the bootstrap process
	bootstrapLog, err := setupLogger(os.TempDir())
	if err != nil {
		// If bootstrap logger fails, we can only print to stderr
		fmt.Fprintf(os.Stderr, "FATAL: Failed to create bootstrap logger: %v\n", err)

		return err
	}

	bootstrapLog.Info("Bootstrap logger created.")

	// 2. Load configuration using the central configurator
	cfg, err := config.Load(bootstrapLog)
	if err != nil {
		bootstrapLog.Error("Failed to load configuration: %v", err)

		return fmt.Errorf("failed to load configuration: %w", err)
	}

	bootstrapLog.Info("Configuration loaded successfully.")

	// 3. Initialize the final logger based on the loaded configuration
	finalLog, err := setupLogger(cfg.Paths.BaseLogsDir)
	if err != nil {
		bootstrapLog.Error("Failed to create final logger: %v", err)

		return fmt.Errorf("failed to create final logger: %w", err)
	}

	defer func() {
		closeErr := finalLog.Close()
		if closeErr != nil {
			fmt.Fprintf(os.Stderr, "error closing final logger: %v\n", closeErr)
		}
	}()

	return runService(cfg, finalLog)
}

func runService(cfg *config.Config, log *logger.Logger) error {
	// 4. Connect to NATS and bind the audio object store
	natsConnection, err := nats.Connect(cfg.NATS.URL)
	if err != nil {
		return fmt.Errorf("failed to connect to NATS at %s: %w", cfg.NATS.URL, err)
	}
	defer natsConnection.Close()

	jetstreamContext, err := natsConnection.JetStream()
	if err != nil {
		return fmt.Errorf("failed to get JetStream context: %w", err)
	}

	store, err := objectstore.New(jetstreamContext, cfg.NATS.AudioObjectStoreBucket)
	if err != nil {
		return fmt.Errorf("failed to initialize audio object store: %w", err)
	}

	// 5. Build the synthesis pipeline and the HTTP layer
	ttsClient := tts.NewClient(
		cfg.TTS.ServiceURL,
		secondsOrDefault(cfg.TTS.TimeoutSeconds, 120*time.Second),
	)

	synthesizer := tts.NewSynthesizer(ttsClient, tts.Options{
		Language:    cfg.TTS.Language,
		Temperature: cfg.TTS.Temperature,
		TargetDBFS:  cfg.TTS.TargetDBFS,
		FadeIn:      time.Duration(cfg.TTS.FadeInMillis) * time.Millisecond,
		FadeOut:     time.Duration(cfg.TTS.FadeOutMillis) * time.Millisecond,
	}, log)

	orderStore := orders.NewMemoryStore()

	srv := buildServer(cfg, natsConnection, orderStore, synthesizer, ttsClient, store, log)

	speechWorker, err := worker.NewSpeechWorker(
		natsConnection,
		cfg.NATS.OrderCreatedSubject,
		cfg.NATS.ScriptAudioReadySubject,
		store,
		synthesizer,
		orderStore,
		log,
	)
	if err != nil {
		return fmt.Errorf("failed to create speech worker: %w", err)
	}

	// 6. Run until interrupted
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	httpServer := &http.Server{
		Addr:              cfg.HTTP.Bind,
		Handler:           srv.Router(),
		ReadHeaderTimeout: readHeaderTimeout,
	}

	workerDone := make(chan error, 1)

	go func() {
		workerDone <- speechWorker.Run(ctx)
	}()

	serverDone := make(chan error, 1)

	go func() {
		serverDone <- httpServer.ListenAndServe()
	}()

	log.System("Voicebot service listening on %s, pre-synthesis subject: %s",
		cfg.HTTP.Bind, cfg.NATS.OrderCreatedSubject)

	return awaitShutdown(ctx, stop, httpServer, serverDone, workerDone, log)
}

// awaitShutdown blocks until a signal arrives or the HTTP server fails, then
// stops the worker and drains both goroutines. The worker must finish before
// the caller closes the NATS connection.
func awaitShutdown(
	ctx context.Context,
	cancel context.CancelFunc,
	httpServer *http.Server,
	serverDone <-chan error,
	workerDone <-chan error,
	log *logger.Logger,
) error {
	var serveFailure error

	select {
	case <-ctx.Done():
		log.Info("Shutdown signal received.")
	case serveErr := <-serverDone:
		if serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			serveFailure = fmt.Errorf("http server failed: %w", serveErr)
		}
	}

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	shutdownErr := httpServer.Shutdown(shutdownCtx)
	if shutdownErr != nil {
		log.Warn("HTTP server shutdown was not clean: %v", shutdownErr)
	}

	workerErr := <-workerDone
	if workerErr != nil && serveFailure == nil {
		return fmt.Errorf("speech worker failed: %w", workerErr)
	}

	return serveFailure
}

func main() {
	err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Service exited with error: %v\n", err)
		os.Exit(1)
	}
}

// Package worker provides a NATS worker that pre-synthesizes confirmation
// audio for newly created orders.
package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/book-expert/logger"
	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/order-expert/voicebot-service/internal/core"
	"github.com/order-expert/voicebot-service/internal/events"
)

const handleMessageTimeout = 60 * time.Second

// Audio keys follow the original static-file naming scheme.
const audioKeyFormat = "tts_%s.wav"

var (
	// ErrEmptyScript indicates that the event carried no script to speak.
	ErrEmptyScript = errors.New("script cannot be empty")
	// ErrMissingOrderID indicates that the event header lacked an order ID.
	ErrMissingOrderID = errors.New("order id must be positive")
)

// SpeechWorker listens for order-created events and synthesizes the Bangla
// confirmation script ahead of the outbound call.
type SpeechWorker struct {
	natsConnection *nats.Conn
	subject        string
	replySubject   string
	store          core.ObjectStore
	synthesizer    core.SpeechSynthesizer
	orders         core.OrderStore
	log            *logger.Logger
}

// NewSpeechWorker creates a new instance of the speech worker. Ready events
// are published on replySubject once the audio is uploaded.
func NewSpeechWorker(
	natsConnection *nats.Conn,
	subject string,
	replySubject string,
	store core.ObjectStore,
	synthesizer core.SpeechSynthesizer,
	orders core.OrderStore,
	log *logger.Logger,
) (*SpeechWorker, error) {
	return &SpeechWorker{
		natsConnection: natsConnection,
		subject:        subject,
		replySubject:   replySubject,
		store:          store,
		synthesizer:    synthesizer,
		orders:         orders,
		log:            log,
	}, nil
}

// Run starts the worker and begins listening for messages.
func (w *SpeechWorker) Run(ctx context.Context) error {
	sub, err := w.natsConnection.Subscribe(w.subject, w.handleMessage)
	if err != nil {
		return fmt.Errorf("failed to subscribe to subject %s: %w", w.subject, err)
	}

	<-ctx.Done()

	drainErr := sub.Drain()
	if drainErr != nil {
		return fmt.Errorf("failed to drain subscription: %w", drainErr)
	}

	return nil
}

func (w *SpeechWorker) handleMessage(msg *nats.Msg) {
	ctx, cancel := context.WithTimeout(context.Background(), handleMessageTimeout)
	defer cancel()

	event, err := w.parseAndValidateEvent(msg)
	if err != nil {
		w.log.Error("Failed to parse and validate event: %v", err)

		return
	}

	audioKey, processErr := w.processScript(ctx, event)
	if processErr != nil {
		w.log.Error("Failed to synthesize script for order %d: %v",
			event.Header.OrderID, processErr)

		return
	}

	w.recordAudioKey(ctx, event.Header.OrderID, audioKey)

	replyEvent := &events.ScriptAudioReadyEvent{
		Header:   event.Header,
		AudioKey: audioKey,
	}

	err = w.publishReplyEvent(msg, replyEvent)
	if err != nil {
		w.log.Error("Failed to publish reply event for order %d: %v",
			event.Header.OrderID, err)
	}
}

// processScript synthesizes the confirmation script and uploads the audio.
func (w *SpeechWorker) processScript(
	ctx context.Context,
	event *events.OrderCreatedEvent,
) (string, error) {
	audioData, err := w.synthesizer.Synthesize(ctx, event.Script)
	if err != nil {
		return "", fmt.Errorf("failed to synthesize confirmation script: %w", err)
	}

	audioKey := fmt.Sprintf(audioKeyFormat, uuid.NewString())

	err = w.store.Upload(ctx, audioKey, audioData)
	if err != nil {
		return "", fmt.Errorf("failed to upload audio data for key '%s': %w", audioKey, err)
	}

	return audioKey, nil
}

// recordAudioKey stores the fresh key on the order and deletes any audio it
// supersedes.
func (w *SpeechWorker) recordAudioKey(ctx context.Context, orderID int, audioKey string) {
	var previousKey string

	_, ok := w.orders.Update(orderID, func(order *core.Order) {
		previousKey = order.AudioKey
		order.AudioKey = audioKey
	})
	if !ok {
		w.log.Warn("Order %d vanished before its audio key could be recorded", orderID)

		return
	}

	if previousKey != "" && previousKey != audioKey {
		deleteErr := w.store.Delete(ctx, previousKey)
		if deleteErr != nil {
			w.log.Warn("Failed to delete superseded audio '%s': %v", previousKey, deleteErr)
		}
	}
}

// publishReplyEvent marshals the ScriptAudioReadyEvent and publishes it on
// the reply subject. The reply inbox is answered too when the event came in
// via request/reply.
func (w *SpeechWorker) publishReplyEvent(msg *nats.Msg, replyEvent *events.ScriptAudioReadyEvent) error {
	replyData, err := json.Marshal(replyEvent)
	if err != nil {
		return fmt.Errorf("failed to marshal reply event: %w", err)
	}

	err = w.natsConnection.Publish(w.replySubject, replyData)
	if err != nil {
		return fmt.Errorf("failed to publish reply event to subject %s: %w", w.replySubject, err)
	}

	if msg.Reply != "" {
		err = msg.Respond(replyData)
		if err != nil {
			return fmt.Errorf("failed to respond to reply inbox: %w", err)
		}
	}

	return nil
}

func (w *SpeechWorker) parseAndValidateEvent(msg *nats.Msg) (*events.OrderCreatedEvent, error) {
	var event events.OrderCreatedEvent

	err := json.Unmarshal(msg.Data, &event)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal event: %w", err)
	}

	if event.Header.OrderID <= 0 {
		return nil, ErrMissingOrderID
	}

	if event.Script == "" {
		return nil, ErrEmptyScript
	}

	return &event, nil
}

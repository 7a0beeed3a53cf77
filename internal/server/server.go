// Package server exposes the REST API and telephony webhooks of the voicebot
// service.
package server

import (
	"context"
	"fmt"
	"net/http"

	"github.com/book-expert/logger"
	"github.com/gorilla/mux"

	"github.com/order-expert/voicebot-service/internal/bangla"
	"github.com/order-expert/voicebot-service/internal/core"
	"github.com/order-expert/voicebot-service/internal/llm"
)

// CallCreator originates an outbound confirmation call.
type CallCreator interface {
	CreateCall(ctx context.Context, to, callerID, webhookURL string) (string, error)
}

// SidecarHealth reports whether the speech-synthesis sidecar is reachable.
type SidecarHealth interface {
	HealthCheck(ctx context.Context) error
}

// EventPublisher publishes raw event payloads. *nats.Conn satisfies it.
type EventPublisher interface {
	Publish(subject string, data []byte) error
}

// Deps bundles everything the HTTP layer depends on.
type Deps struct {
	Orders        core.OrderStore
	Parser        *llm.OrderParser
	Agent         *llm.Agent
	PostProcessor *bangla.PostProcessor
	Synthesizer   core.SpeechSynthesizer
	Store         core.ObjectStore
	Calls         CallCreator
	Sidecar       SidecarHealth
	Publisher     EventPublisher

	// BaseURL is the public address SignalWire reaches the webhooks on.
	BaseURL             string
	CallerID            string
	OrderCreatedSubject string

	Log *logger.Logger
}

// Server handles the order, voice-webhook and local-bot routes.
type Server struct {
	orders        core.OrderStore
	parser        *llm.OrderParser
	agent         *llm.Agent
	postProcessor *bangla.PostProcessor
	synthesizer   core.SpeechSynthesizer
	store         core.ObjectStore
	calls         CallCreator
	sidecar       SidecarHealth
	publisher     EventPublisher

	baseURL             string
	callerID            string
	orderCreatedSubject string

	log *logger.Logger
}

// New creates the server from its dependencies.
func New(deps Deps) *Server {
	return &Server{
		orders:              deps.Orders,
		parser:              deps.Parser,
		agent:               deps.Agent,
		postProcessor:       deps.PostProcessor,
		synthesizer:         deps.Synthesizer,
		store:               deps.Store,
		calls:               deps.Calls,
		sidecar:             deps.Sidecar,
		publisher:           deps.Publisher,
		baseURL:             deps.BaseURL,
		callerID:            deps.CallerID,
		orderCreatedSubject: deps.OrderCreatedSubject,
		log:                 deps.Log,
	}
}

// Router creates an http handler handling all the voicebot routes.
func (s *Server) Router() http.Handler {
	router := mux.NewRouter()

	router.Path("/orders").Methods(http.MethodPost).HandlerFunc(s.errorHandler(s.createOrder))
	router.Path("/orders").Methods(http.MethodGet, http.MethodHead).
		HandlerFunc(s.errorHandler(s.listOrders))
	router.Path("/orders/{order_id:[0-9]+}").Methods(http.MethodGet, http.MethodHead).
		HandlerFunc(s.errorHandler(s.getOrder))
	router.Path("/orders/{order_id:[0-9]+}/call").Methods(http.MethodPost).
		HandlerFunc(s.errorHandler(s.startCall))

	router.Path("/voice/entry/{order_id:[0-9]+}").Methods(http.MethodGet, http.MethodPost).
		HandlerFunc(s.errorHandler(s.voiceEntry))
	router.Path("/voice/reply/{order_id:[0-9]+}").Methods(http.MethodGet, http.MethodPost).
		HandlerFunc(s.errorHandler(s.voiceReply))

	router.Path("/api/interpret").Methods(http.MethodPost).
		HandlerFunc(s.errorHandler(s.interpret))
	router.Path("/api/local-bot/welcome").Methods(http.MethodGet).
		HandlerFunc(s.errorHandler(s.localBotWelcome))
	router.Path("/api/local-bot").Methods(http.MethodPost).
		HandlerFunc(s.errorHandler(s.localBot))

	router.Path("/audio/{key}").Methods(http.MethodGet, http.MethodHead).
		HandlerFunc(s.errorHandler(s.getAudio))
	router.Path("/healthz").Methods(http.MethodGet, http.MethodHead).
		HandlerFunc(s.errorHandler(s.healthz))

	router.NotFoundHandler = s.notFound()

	return router
}

func (s *Server) notFound() http.HandlerFunc {
	return func(responseWriter http.ResponseWriter, request *http.Request) {
		httpErr := NewHTTPError(http.StatusNotFound,
			fmt.Sprintf("%s not found", request.URL.Path), nil)

		responseWriter.WriteHeader(httpErr.Status)

		_ = encodeJSONResponse(responseWriter, httpErr)
	}
}

type healthResponse struct {
	Status string `json:"status"`
	TTS    string `json:"tts"`
}

func (s *Server) healthz(responseWriter http.ResponseWriter, request *http.Request) error {
	health := healthResponse{Status: "ok", TTS: "ok"}

	err := s.sidecar.HealthCheck(request.Context())
	if err != nil {
		health.TTS = "unavailable"

		s.log.Warn("tts sidecar health check failed: %v", err)
	}

	responseWriter.WriteHeader(http.StatusOK)

	return encodeJSONResponse(responseWriter, &health)
}

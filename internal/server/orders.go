package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/order-expert/voicebot-service/internal/core"
	"github.com/order-expert/voicebot-service/internal/events"
	"github.com/order-expert/voicebot-service/internal/orders"
)

type createOrderRequest struct {
	OrderText   string `json:"order_text"`
	PhoneManual string `json:"phone_manual"`
}

type startCallResponse struct {
	CallSID string      `json:"call_sid"`
	Order   *core.Order `json:"order"`
}

func orderIDFromRequest(request *http.Request) (int, error) {
	vars := mux.Vars(request)

	orderID, err := strconv.Atoi(vars["order_id"])
	if err != nil {
		return 0, NewHTTPError(http.StatusBadRequest,
			fmt.Sprintf("invalid order id %q", vars["order_id"]), err)
	}

	return orderID, nil
}

func (s *Server) createOrder(responseWriter http.ResponseWriter, request *http.Request) error {
	var body createOrderRequest

	err := decodeJSONBody(responseWriter, request, &body)
	if err != nil {
		return err
	}

	rawText := strings.TrimSpace(body.OrderText)
	if rawText == "" {
		return NewHTTPError(http.StatusBadRequest, "order_text must not be empty", nil)
	}

	parsed, err := s.parser.Parse(request.Context(), rawText)
	if err != nil {
		return NewHTTPError(http.StatusBadGateway, "failed to parse the order message", err)
	}

	// A manually entered phone number overrides whatever the model found.
	phoneManual := strings.TrimSpace(body.PhoneManual)
	if phoneManual != "" {
		parsed.Phone = phoneManual
	}

	order := s.orders.Create(&core.Order{
		ID:          0,
		RawText:     rawText,
		Parsed:      parsed,
		Script:      orders.BuildScript(parsed),
		Status:      core.StatusPending,
		CreatedAt:   time.Time{},
		LastCallSID: "",
		AudioKey:    "",
		LastResult:  nil,
	})

	s.publishOrderCreated(order)

	responseWriter.WriteHeader(http.StatusCreated)

	return encodeJSONResponse(responseWriter, order)
}

// publishOrderCreated hands the confirmation script to the speech worker so
// the audio is ready before the call goes out. Best effort.
func (s *Server) publishOrderCreated(order *core.Order) {
	event := events.OrderCreatedEvent{
		Header: events.NewHeader(order.ID),
		Script: order.Script,
	}

	data, err := json.Marshal(&event)
	if err != nil {
		s.log.Warn("failed to marshal order-created event for order %d: %v", order.ID, err)

		return
	}

	err = s.publisher.Publish(s.orderCreatedSubject, data)
	if err != nil {
		s.log.Warn("failed to publish order-created event for order %d: %v", order.ID, err)
	}
}

func (s *Server) listOrders(responseWriter http.ResponseWriter, _ *http.Request) error {
	responseWriter.WriteHeader(http.StatusOK)

	return encodeJSONResponse(responseWriter, s.orders.List())
}

func (s *Server) getOrder(responseWriter http.ResponseWriter, request *http.Request) error {
	orderID, err := orderIDFromRequest(request)
	if err != nil {
		return err
	}

	order, ok := s.orders.Get(orderID)
	if !ok {
		return NewHTTPError(http.StatusNotFound,
			fmt.Sprintf("order %d not found", orderID), nil)
	}

	responseWriter.WriteHeader(http.StatusOK)

	return encodeJSONResponse(responseWriter, order)
}

func (s *Server) startCall(responseWriter http.ResponseWriter, request *http.Request) error {
	orderID, err := orderIDFromRequest(request)
	if err != nil {
		return err
	}

	order, ok := s.orders.Get(orderID)
	if !ok {
		return NewHTTPError(http.StatusNotFound,
			fmt.Sprintf("order %d not found", orderID), nil)
	}

	phone, err := orders.NormalizePhone(order.Parsed.Phone)
	if err != nil {
		return NewHTTPError(http.StatusBadRequest,
			fmt.Sprintf("invalid or missing phone number: %q", order.Parsed.Phone), err)
	}

	webhookURL := fmt.Sprintf("%s/voice/entry/%d", s.baseURL, orderID)

	callSID, err := s.calls.CreateCall(request.Context(), phone, s.callerID, webhookURL)
	if err != nil {
		return NewHTTPError(http.StatusBadGateway, "failed to start the call", err)
	}

	updated, _ := s.orders.Update(orderID, func(order *core.Order) {
		order.LastCallSID = callSID
	})

	s.log.Info("Started confirmation call %s for order %d", callSID, orderID)

	responseWriter.WriteHeader(http.StatusOK)

	return encodeJSONResponse(responseWriter, &startCallResponse{
		CallSID: callSID,
		Order:   updated,
	})
}

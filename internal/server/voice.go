package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/order-expert/voicebot-service/internal/core"
	"github.com/order-expert/voicebot-service/internal/orders"
	"github.com/order-expert/voicebot-service/internal/telephony"
)

// Lines spoken by the call flow itself, outside the per-order script.
const (
	sayOrderNotFound = "দুঃখিত, অর্ডারটি খুঁজে পাওয়া যায়নি।"
	sayNoReply       = "দুঃখিত, আপনার কাছ থেকে কোনো উত্তর পাওয়া যায়নি। পরে আবার চেষ্টা করা হবে।"
	sayConfirmed     = "ধন্যবাদ। আপনার অর্ডার কনফার্ম করা হয়েছে। ইনশাআল্লাহ খুব দ্রুতই ডেলিভারি দেওয়া হবে।"
	sayCancelled     = "আপনার অর্ডার বাতিল করা হয়েছে। ধন্যবাদ। ভবিষ্যতে আবার আমাদের সাথে থাকবেন ইনশাআল্লাহ।"
	sayUnclear       = "দুঃখিত, আপনার কথা ঠিকভাবে বোঝা যায়নি। আমাদের টিম থেকে একজন মানুষ আপনার সাথে যোগাযোগ করবে। ধন্যবাদ।"
)

func writeVoiceResponse(
	responseWriter http.ResponseWriter,
	voiceResponse *telephony.VoiceResponse,
) error {
	document, err := voiceResponse.Render()
	if err != nil {
		return NewHTTPError(http.StatusInternalServerError,
			"failed to render the voice document", err)
	}

	responseWriter.Header().Set("Content-Type", "text/xml")
	responseWriter.WriteHeader(http.StatusOK)

	_, err = responseWriter.Write(document)
	if err != nil {
		return fmt.Errorf("failed to write voice document: %w", err)
	}

	return nil
}

func writeApology(responseWriter http.ResponseWriter) error {
	var voiceResponse telephony.VoiceResponse

	voiceResponse.AddSay(sayOrderNotFound)
	voiceResponse.AddHangup()

	return writeVoiceResponse(responseWriter, &voiceResponse)
}

// voiceEntry answers the provider webhook once the outbound call connects. It
// gathers a speech reply while the confirmation script plays.
func (s *Server) voiceEntry(responseWriter http.ResponseWriter, request *http.Request) error {
	orderID, err := orderIDFromRequest(request)
	if err != nil {
		return err
	}

	order, ok := s.orders.Get(orderID)
	if !ok {
		return writeApology(responseWriter)
	}

	actionURL := fmt.Sprintf("%s/voice/reply/%d", s.baseURL, orderID)

	var voiceResponse telephony.VoiceResponse

	voiceResponse.AddGather(actionURL, order.Script)
	// Spoken only when the gather captured no speech.
	voiceResponse.AddSay(sayNoReply)
	voiceResponse.AddHangup()

	return writeVoiceResponse(responseWriter, &voiceResponse)
}

// voiceReply receives the SpeechResult posted after the gather, classifies it
// and closes the call with the matching Bangla line.
func (s *Server) voiceReply(responseWriter http.ResponseWriter, request *http.Request) error {
	orderID, err := orderIDFromRequest(request)
	if err != nil {
		return err
	}

	_, ok := s.orders.Get(orderID)
	if !ok {
		return writeApology(responseWriter)
	}

	speech := request.FormValue("SpeechResult")
	digits := request.FormValue("Digits")

	decision := orders.ClassifyReply(speech)

	status, closingLine := outcomeForDecision(decision)

	s.orders.Update(orderID, func(order *core.Order) {
		order.Status = status
		order.LastResult = &core.CallResult{
			Speech:   speech,
			Digits:   digits,
			Decision: decision,
			At:       time.Now().UTC(),
		}
	})

	s.log.Info("Order %d call reply classified as %s", orderID, decision)

	var voiceResponse telephony.VoiceResponse

	voiceResponse.AddSay(closingLine)
	voiceResponse.AddHangup()

	return writeVoiceResponse(responseWriter, &voiceResponse)
}

func outcomeForDecision(decision core.Decision) (core.OrderStatus, string) {
	switch decision {
	case core.DecisionConfirmed:
		return core.StatusConfirmed, sayConfirmed
	case core.DecisionCancelled:
		return core.StatusCancelled, sayCancelled
	case core.DecisionUnclear:
		return core.StatusNeedsReview, sayUnclear
	default:
		return core.StatusNeedsReview, sayUnclear
	}
}

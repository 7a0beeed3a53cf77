package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/google/uuid"

	"github.com/order-expert/voicebot-service/internal/core"
	"github.com/order-expert/voicebot-service/internal/orders"
)

// Replies returned by the browser-side interpret endpoint.
const (
	interpretConfirmed = "ধন্যবাদ। আপনার অর্ডার কনফার্ম করা হয়েছে। " +
		"খুব শিগগিরই আমরা ডেলিভারি প্রসেস শুরু করব ইনশাআল্লাহ।"
	interpretCancelled = "আপনার অর্ডার বাতিল করা হয়েছে। " +
		"ধন্যবাদ আমাদেরকে জানানোর জন্য। ভবিষ্যতে আবার আমাদের সাথে থাকবেন।"
	interpretUnclear = "দুঃখিত, আপনার উত্তরটি পরিষ্কারভাবে বোঝা যায়নি। " +
		"যদি কনফার্ম করতে চান, বলুন ‘হ্যাঁ, অর্ডার কনফার্ম’। " +
		"বাতিল করতে চাইলে বলুন ‘না, অর্ডার ক্যান্সেল’।"
)

// botIntro is the first sentence spoken when the local voice bot starts.
const botIntro = "আসসালামু আলাইকুম। আমি একজন বট কথা বলছি। " +
	"আপনি একটি শার্ট অর্ডার করেছেন। " +
	"অনুগ্রহ করে শার্টের মডেল, রঙ আর সাইজ বলুন। " +
	"অর্ডার ঠিক থাকলে বলবেন – ‘হ্যাঁ, অর্ডার কনফার্ম’। " +
	"বাতিল করতে চাইলে বলবেন – ‘না, অর্ডার ক্যান্সেল’।"

const botAudioKeyFormat = "tts_%s.wav"

type interpretRequest struct {
	Text string `json:"text"`
}

type interpretResponse struct {
	Decision core.Decision `json:"decision"`
	Reply    string        `json:"reply"`
}

type localBotRequest struct {
	Messages json.RawMessage `json:"messages"`
}

type botResponse struct {
	Reply    string  `json:"reply"`
	AudioURL *string `json:"audio_url"`
	Error    string  `json:"error,omitempty"`
}

// interpret classifies recognized speech text from the browser and returns a
// Bangla reply without going through the language model.
func (s *Server) interpret(responseWriter http.ResponseWriter, request *http.Request) error {
	var body interpretRequest

	err := decodeJSONBody(responseWriter, request, &body)
	if err != nil {
		return err
	}

	decision := orders.ClassifyReply(body.Text)

	var reply string

	switch decision {
	case core.DecisionConfirmed:
		reply = interpretConfirmed
	case core.DecisionCancelled:
		reply = interpretCancelled
	case core.DecisionUnclear:
		reply = interpretUnclear
	default:
		reply = interpretUnclear
	}

	responseWriter.WriteHeader(http.StatusOK)

	return encodeJSONResponse(responseWriter, &interpretResponse{
		Decision: decision,
		Reply:    reply,
	})
}

func (s *Server) localBotWelcome(responseWriter http.ResponseWriter, request *http.Request) error {
	return s.respondWithSpeech(responseWriter, request, botIntro)
}

func (s *Server) localBot(responseWriter http.ResponseWriter, request *http.Request) error {
	var body localBotRequest

	err := decodeJSONBody(responseWriter, request, &body)
	if err != nil {
		return err
	}

	var history []core.ChatMessage

	// A missing messages field means the conversation has not started yet.
	// An explicit null is not a list and gets rejected like any other
	// non-list value.
	if len(body.Messages) > 0 {
		if string(bytes.TrimSpace(body.Messages)) == "null" {
			return NewHTTPError(http.StatusBadRequest, "messages must be a list", nil)
		}

		err = json.Unmarshal(body.Messages, &history)
		if err != nil {
			return NewHTTPError(http.StatusBadRequest, "messages must be a list", err)
		}
	}

	reply, err := s.agent.Reply(request.Context(), history)
	if err != nil {
		s.log.Error("language model error in local bot: %v", err)

		responseWriter.WriteHeader(http.StatusInternalServerError)

		return encodeJSONResponse(responseWriter, &botResponse{
			Reply:    "",
			AudioURL: nil,
			Error:    fmt.Sprintf("language model error: %v", err),
		})
	}

	reply = s.postProcessor.Process(reply)

	return s.respondWithSpeech(responseWriter, request, reply)
}

// respondWithSpeech synthesizes the reply, stores the audio and returns both.
// A synthesis failure keeps the text reply so the browser can still show it.
func (s *Server) respondWithSpeech(
	responseWriter http.ResponseWriter,
	request *http.Request,
	reply string,
) error {
	audioData, err := s.synthesizer.Synthesize(request.Context(), reply)
	if err != nil {
		s.log.Error("speech synthesis failed: %v", err)

		responseWriter.WriteHeader(http.StatusInternalServerError)

		return encodeJSONResponse(responseWriter, &botResponse{
			Reply:    reply,
			AudioURL: nil,
			Error:    fmt.Sprintf("speech synthesis error: %v", err),
		})
	}

	audioKey := fmt.Sprintf(botAudioKeyFormat, uuid.NewString())

	err = s.store.Upload(request.Context(), audioKey, audioData)
	if err != nil {
		s.log.Error("failed to store bot audio '%s': %v", audioKey, err)

		responseWriter.WriteHeader(http.StatusInternalServerError)

		return encodeJSONResponse(responseWriter, &botResponse{
			Reply:    reply,
			AudioURL: nil,
			Error:    fmt.Sprintf("audio storage error: %v", err),
		})
	}

	audioURL := "/audio/" + audioKey

	responseWriter.WriteHeader(http.StatusOK)

	return encodeJSONResponse(responseWriter, &botResponse{
		Reply:    reply,
		AudioURL: &audioURL,
		Error:    "",
	})
}

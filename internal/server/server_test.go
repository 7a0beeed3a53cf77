// Package server_test tests the REST API and telephony webhooks.
package server_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/book-expert/logger"
	"github.com/order-expert/voicebot-service/internal/bangla"
	"github.com/order-expert/voicebot-service/internal/core"
	"github.com/order-expert/voicebot-service/internal/llm"
	"github.com/order-expert/voicebot-service/internal/orders"
	"github.com/order-expert/voicebot-service/internal/server"
)

var (
	errMockComplete   = errors.New("mock completion error")
	errMockSynthesize = errors.New("mock synthesis error")
	errMockNotFound   = errors.New("mock object not found")
	errMockSidecar    = errors.New("mock sidecar down")
	errMockCall       = errors.New("mock call error")
)

// mockCompleter is a scripted chat completer.
type mockCompleter struct {
	reply string
	err   error
}

func (m *mockCompleter) Complete(
	_ context.Context, _ []core.ChatMessage, _ bool,
) (string, error) {
	return m.reply, m.err
}

// mockSynthesizer is a scripted speech synthesizer.
type mockSynthesizer struct {
	err     error
	gotText string
}

func (m *mockSynthesizer) Synthesize(_ context.Context, text string) ([]byte, error) {
	m.gotText = text

	if m.err != nil {
		return nil, m.err
	}

	return []byte("RIFF fake audio"), nil
}

// mapObjectStore keeps uploaded blobs in memory.
type mapObjectStore struct {
	objects map[string][]byte
}

func newMapObjectStore() *mapObjectStore {
	return &mapObjectStore{objects: make(map[string][]byte)}
}

func (m *mapObjectStore) Download(_ context.Context, key string) ([]byte, error) {
	data, ok := m.objects[key]
	if !ok {
		return nil, errMockNotFound
	}

	return data, nil
}

func (m *mapObjectStore) Upload(_ context.Context, key string, data []byte) error {
	m.objects[key] = data

	return nil
}

func (m *mapObjectStore) Delete(_ context.Context, key string) error {
	delete(m.objects, key)

	return nil
}

// mockCallCreator records the last originated call.
type mockCallCreator struct {
	err           error
	gotTo         string
	gotCallerID   string
	gotWebhookURL string
}

func (m *mockCallCreator) CreateCall(
	_ context.Context, to, callerID, webhookURL string,
) (string, error) {
	if m.err != nil {
		return "", m.err
	}

	m.gotTo = to
	m.gotCallerID = callerID
	m.gotWebhookURL = webhookURL

	return "CA0123", nil
}

type mockSidecar struct {
	err error
}

func (m *mockSidecar) HealthCheck(_ context.Context) error {
	return m.err
}

// mockPublisher captures published events.
type mockPublisher struct {
	gotSubject string
	gotData    []byte
}

func (m *mockPublisher) Publish(subject string, data []byte) error {
	m.gotSubject = subject
	m.gotData = data

	return nil
}

type fixture struct {
	handler     http.Handler
	orders      *orders.MemoryStore
	completer   *mockCompleter
	synthesizer *mockSynthesizer
	store       *mapObjectStore
	calls       *mockCallCreator
	sidecar     *mockSidecar
	publisher   *mockPublisher
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	testLogger, err := logger.New(t.TempDir(), "server-test.log")
	require.NoError(t, err)

	fix := &fixture{
		handler:     nil,
		orders:      orders.NewMemoryStore(),
		completer:   &mockCompleter{reply: "", err: nil},
		synthesizer: &mockSynthesizer{err: nil, gotText: ""},
		store:       newMapObjectStore(),
		calls:       &mockCallCreator{err: nil, gotTo: "", gotCallerID: "", gotWebhookURL: ""},
		sidecar:     &mockSidecar{err: nil},
		publisher:   &mockPublisher{gotSubject: "", gotData: nil},
	}

	srv := server.New(server.Deps{
		Orders:              fix.orders,
		Parser:              llm.NewOrderParser(fix.completer),
		Agent:               llm.NewAgent(fix.completer),
		PostProcessor:       bangla.NewPostProcessor(nil),
		Synthesizer:         fix.synthesizer,
		Store:               fix.store,
		Calls:               fix.calls,
		Sidecar:             fix.sidecar,
		Publisher:           fix.publisher,
		BaseURL:             "https://bot.example.com",
		CallerID:            "+15551230000",
		OrderCreatedSubject: "orders.created",
		Log:                 testLogger,
	})

	fix.handler = srv.Router()

	return fix
}

func (f *fixture) record(
	t *testing.T, method, route string, body io.Reader, contentType string,
) *httptest.ResponseRecorder {
	t.Helper()

	request := httptest.NewRequest(method, route, body)
	if contentType != "" {
		request.Header.Set("Content-Type", contentType)
	}

	recorder := httptest.NewRecorder()
	f.handler.ServeHTTP(recorder, request)

	return recorder
}

func (f *fixture) recordJSON(
	t *testing.T, method, route, body string,
) *httptest.ResponseRecorder {
	t.Helper()

	return f.record(t, method, route, strings.NewReader(body), "application/json")
}

func seedOrder(f *fixture, phone string) *core.Order {
	return f.orders.Create(&core.Order{
		Parsed: core.ParsedOrder{Phone: phone},
		Script: "আসসালামু আলাইকুম স্যার, অর্ডার কনফার্ম করবেন?",
	})
}

func TestCreateOrder(t *testing.T) {
	t.Parallel()

	fix := newFixture(t)
	fix.completer.reply = `{
		"customer_name": "রহিম",
		"quantity": 2,
		"color": "নীল",
		"size": "M",
		"price_total": 1200,
		"phone": "01712345678",
		"address": "মিরপুর, ঢাকা",
		"other_notes": null
	}`

	recorder := fix.recordJSON(t, http.MethodPost, "/orders",
		`{"order_text":"২টা নীল শার্ট লাগবে, মিরপুর","phone_manual":""}`)

	require.Equal(t, http.StatusCreated, recorder.Code, recorder.Body.String())

	body := recorder.Body.String()
	assert.Contains(t, body, `"id":1`)
	assert.Contains(t, body, `"status":"pending"`)
	assert.Contains(t, body, `"phone":"01712345678"`)
	assert.Contains(t, body, "রহিম")

	assert.Equal(t, "orders.created", fix.publisher.gotSubject)
	assert.Contains(t, string(fix.publisher.gotData), `"order_id":1`)
}

func TestCreateOrder_ManualPhoneOverride(t *testing.T) {
	t.Parallel()

	fix := newFixture(t)
	fix.completer.reply = `{"phone": "wrong"}`

	recorder := fix.recordJSON(t, http.MethodPost, "/orders",
		`{"order_text":"শার্ট লাগবে","phone_manual":"01812345678"}`)

	require.Equal(t, http.StatusCreated, recorder.Code)
	assert.Contains(t, recorder.Body.String(), `"phone":"01812345678"`)
}

func TestCreateOrder_EmptyText(t *testing.T) {
	t.Parallel()

	fix := newFixture(t)

	recorder := fix.recordJSON(t, http.MethodPost, "/orders",
		`{"order_text":"  ","phone_manual":""}`)

	assert.Equal(t, http.StatusBadRequest, recorder.Code)
}

func TestCreateOrder_CompleterError(t *testing.T) {
	t.Parallel()

	fix := newFixture(t)
	fix.completer.err = errMockComplete

	recorder := fix.recordJSON(t, http.MethodPost, "/orders",
		`{"order_text":"শার্ট","phone_manual":""}`)

	assert.Equal(t, http.StatusBadGateway, recorder.Code)
}

func TestGetOrder(t *testing.T) {
	t.Parallel()

	fix := newFixture(t)
	order := seedOrder(fix, "01712345678")

	recorder := fix.record(t, http.MethodGet, "/orders/1", nil, "")
	require.Equal(t, http.StatusOK, recorder.Code)
	assert.Contains(t, recorder.Body.String(), order.Script)

	recorder = fix.record(t, http.MethodGet, "/orders/99", nil, "")
	assert.Equal(t, http.StatusNotFound, recorder.Code)
}

func TestListOrders(t *testing.T) {
	t.Parallel()

	fix := newFixture(t)

	recorder := fix.record(t, http.MethodGet, "/orders", nil, "")
	require.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, "[]\n", recorder.Body.String())

	seedOrder(fix, "01712345678")
	seedOrder(fix, "01812345678")

	recorder = fix.record(t, http.MethodGet, "/orders", nil, "")
	require.Equal(t, http.StatusOK, recorder.Code)
	assert.Contains(t, recorder.Body.String(), `"id":1`)
	assert.Contains(t, recorder.Body.String(), `"id":2`)
}

func TestStartCall(t *testing.T) {
	t.Parallel()

	fix := newFixture(t)
	seedOrder(fix, "01712345678")

	recorder := fix.record(t, http.MethodPost, "/orders/1/call", nil, "")
	require.Equal(t, http.StatusOK, recorder.Code, recorder.Body.String())

	assert.Equal(t, "+8801712345678", fix.calls.gotTo)
	assert.Equal(t, "+15551230000", fix.calls.gotCallerID)
	assert.Equal(t, "https://bot.example.com/voice/entry/1", fix.calls.gotWebhookURL)
	assert.Contains(t, recorder.Body.String(), `"call_sid":"CA0123"`)

	order, ok := fix.orders.Get(1)
	require.True(t, ok)
	assert.Equal(t, "CA0123", order.LastCallSID)
}

func TestStartCall_InvalidPhone(t *testing.T) {
	t.Parallel()

	fix := newFixture(t)
	seedOrder(fix, "12345")

	recorder := fix.record(t, http.MethodPost, "/orders/1/call", nil, "")
	assert.Equal(t, http.StatusBadRequest, recorder.Code)
}

func TestStartCall_ProviderError(t *testing.T) {
	t.Parallel()

	fix := newFixture(t)
	fix.calls.err = errMockCall

	seedOrder(fix, "01712345678")

	recorder := fix.record(t, http.MethodPost, "/orders/1/call", nil, "")
	assert.Equal(t, http.StatusBadGateway, recorder.Code)
}

func TestVoiceEntry(t *testing.T) {
	t.Parallel()

	fix := newFixture(t)
	order := seedOrder(fix, "01712345678")

	recorder := fix.record(t, http.MethodPost, "/voice/entry/1", nil, "")
	require.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, "text/xml", recorder.Header().Get("Content-Type"))

	document := recorder.Body.String()
	assert.Contains(t, document, `action="https://bot.example.com/voice/reply/1"`)
	assert.Contains(t, document, order.Script)
	assert.Contains(t, document, "<Hangup>")
}

func TestVoiceEntry_UnknownOrder(t *testing.T) {
	t.Parallel()

	fix := newFixture(t)

	recorder := fix.record(t, http.MethodPost, "/voice/entry/42", nil, "")
	require.Equal(t, http.StatusOK, recorder.Code)
	assert.Contains(t, recorder.Body.String(), "দুঃখিত, অর্ডারটি খুঁজে পাওয়া যায়নি।")
	assert.Contains(t, recorder.Body.String(), "<Hangup>")
}

func TestVoiceReply(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		speech     string
		wantStatus core.OrderStatus
		wantLine   string
	}{
		{
			name:       "confirmed",
			speech:     "হ্যাঁ, অর্ডার কনফার্ম",
			wantStatus: core.StatusConfirmed,
			wantLine:   "আপনার অর্ডার কনফার্ম করা হয়েছে",
		},
		{
			name:       "cancelled",
			speech:     "না, ক্যান্সেল করেন",
			wantStatus: core.StatusCancelled,
			wantLine:   "আপনার অর্ডার বাতিল করা হয়েছে",
		},
		{
			name:       "unclear",
			speech:     "আবহাওয়া কেমন",
			wantStatus: core.StatusNeedsReview,
			wantLine:   "আপনার কথা ঠিকভাবে বোঝা যায়নি",
		},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			fix := newFixture(t)
			seedOrder(fix, "01712345678")

			form := url.Values{"SpeechResult": {testCase.speech}}
			recorder := fix.record(t, http.MethodPost, "/voice/reply/1",
				strings.NewReader(form.Encode()), "application/x-www-form-urlencoded")

			require.Equal(t, http.StatusOK, recorder.Code)
			assert.Contains(t, recorder.Body.String(), testCase.wantLine)

			order, ok := fix.orders.Get(1)
			require.True(t, ok)
			assert.Equal(t, testCase.wantStatus, order.Status)
			require.NotNil(t, order.LastResult)
			assert.Equal(t, testCase.speech, order.LastResult.Speech)
		})
	}
}

func TestInterpret(t *testing.T) {
	t.Parallel()

	fix := newFixture(t)

	recorder := fix.recordJSON(t, http.MethodPost, "/api/interpret",
		`{"text":"হ্যাঁ, অর্ডার কনফার্ম"}`)

	require.Equal(t, http.StatusOK, recorder.Code)
	assert.Contains(t, recorder.Body.String(), `"decision":"confirmed"`)
	assert.Contains(t, recorder.Body.String(), "ডেলিভারি প্রসেস")
}

func TestLocalBotWelcome(t *testing.T) {
	t.Parallel()

	fix := newFixture(t)

	recorder := fix.record(t, http.MethodGet, "/api/local-bot/welcome", nil, "")
	require.Equal(t, http.StatusOK, recorder.Code)

	body := recorder.Body.String()
	assert.Contains(t, body, "আসসালামু আলাইকুম। আমি একজন বট কথা বলছি।")
	assert.Contains(t, body, `"audio_url":"/audio/tts_`)

	require.Len(t, fix.store.objects, 1)
}

func TestLocalBotWelcome_SynthesisFailureKeepsReply(t *testing.T) {
	t.Parallel()

	fix := newFixture(t)
	fix.synthesizer.err = errMockSynthesize

	recorder := fix.record(t, http.MethodGet, "/api/local-bot/welcome", nil, "")
	require.Equal(t, http.StatusInternalServerError, recorder.Code)

	body := recorder.Body.String()
	assert.Contains(t, body, "আসসালামু আলাইকুম")
	assert.Contains(t, body, `"audio_url":null`)
	assert.Contains(t, body, `"error"`)
}

func TestLocalBot(t *testing.T) {
	t.Parallel()

	fix := newFixture(t)
	fix.completer.reply = "জি, আপনার অর্ডারটা কনফার্ম করছি।"

	recorder := fix.recordJSON(t, http.MethodPost, "/api/local-bot",
		`{"messages":[{"role":"user","content":"হ্যালো"}]}`)

	require.Equal(t, http.StatusOK, recorder.Code, recorder.Body.String())

	body := recorder.Body.String()
	assert.Contains(t, body, "অর্ডারটা কনফার্ম")
	assert.Contains(t, body, `"audio_url":"/audio/tts_`)
	assert.NotEmpty(t, fix.synthesizer.gotText)
}

func TestLocalBot_MessagesMustBeAList(t *testing.T) {
	t.Parallel()

	fix := newFixture(t)

	recorder := fix.recordJSON(t, http.MethodPost, "/api/local-bot",
		`{"messages":"not a list"}`)

	assert.Equal(t, http.StatusBadRequest, recorder.Code)
	assert.Contains(t, recorder.Body.String(), "messages must be a list")
}

func TestLocalBot_NullMessagesRejected(t *testing.T) {
	t.Parallel()

	fix := newFixture(t)

	recorder := fix.recordJSON(t, http.MethodPost, "/api/local-bot",
		`{"messages":null}`)

	assert.Equal(t, http.StatusBadRequest, recorder.Code)
	assert.Contains(t, recorder.Body.String(), "messages must be a list")
}

func TestLocalBot_ModelFailure(t *testing.T) {
	t.Parallel()

	fix := newFixture(t)
	fix.completer.err = errMockComplete

	recorder := fix.recordJSON(t, http.MethodPost, "/api/local-bot",
		`{"messages":[{"role":"user","content":"হ্যালো"}]}`)

	require.Equal(t, http.StatusInternalServerError, recorder.Code)
	assert.Contains(t, recorder.Body.String(), `"reply":""`)
}

func TestGetAudio(t *testing.T) {
	t.Parallel()

	fix := newFixture(t)
	fix.store.objects["tts_abc.wav"] = []byte("RIFF fake audio")

	recorder := fix.record(t, http.MethodGet, "/audio/tts_abc.wav", nil, "")
	require.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, "audio/wav", recorder.Header().Get("Content-Type"))
	assert.Equal(t, "RIFF fake audio", recorder.Body.String())

	recorder = fix.record(t, http.MethodGet, "/audio/missing.wav", nil, "")
	assert.Equal(t, http.StatusNotFound, recorder.Code)
}

func TestHealthz(t *testing.T) {
	t.Parallel()

	fix := newFixture(t)

	recorder := fix.record(t, http.MethodGet, "/healthz", nil, "")
	require.Equal(t, http.StatusOK, recorder.Code)
	assert.Contains(t, recorder.Body.String(), `"tts":"ok"`)

	fix.sidecar.err = errMockSidecar

	recorder = fix.record(t, http.MethodGet, "/healthz", nil, "")
	require.Equal(t, http.StatusOK, recorder.Code)
	assert.Contains(t, recorder.Body.String(), `"tts":"unavailable"`)
}

func Test404(t *testing.T) {
	t.Parallel()

	fix := newFixture(t)

	recorder := fix.record(t, http.MethodGet, "/nope", nil, "")
	assert.Equal(t, http.StatusNotFound, recorder.Code)
	assert.Contains(t, recorder.Body.String(), "/nope not found")
}

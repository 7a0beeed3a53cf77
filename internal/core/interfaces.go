// Package core defines the domain types and interfaces for the voicebot service.
package core

import "context"

// ObjectStore defines the interface for interacting with a key-value blob store.
type ObjectStore interface {
	Download(ctx context.Context, key string) ([]byte, error)
	Upload(ctx context.Context, key string, data []byte) error
	Delete(ctx context.Context, key string) error
}

// SpeechSynthesizer converts Bangla text into WAV audio ready for playback.
type SpeechSynthesizer interface {
	Synthesize(ctx context.Context, text string) ([]byte, error)
}

// ChatMessage is one turn of a conversation sent to the language model.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatCompleter defines the interface for a chat-completion language model.
// When jsonMode is true the model is instructed to return a single JSON object.
type ChatCompleter interface {
	Complete(ctx context.Context, messages []ChatMessage, jsonMode bool) (string, error)
}

// OrderStore persists orders for the lifetime of the service.
type OrderStore interface {
	Create(order *Order) *Order
	Get(id int) (*Order, bool)
	List() []*Order
	Update(id int, mutate func(*Order)) (*Order, bool)
}

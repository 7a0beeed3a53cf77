// Package telephony provides SignalWire call origination and cXML (LaML)
// voice response documents.
package telephony

import (
	"encoding/xml"
	"fmt"
)

// Defaults for speech gathering on confirmation calls.
const (
	LanguageBanglaBD     = "bn-BD"
	gatherInputSpeech    = "speech"
	gatherSpeechTimeout  = "auto"
	gatherTimeoutSeconds = 10
)

// Say speaks text to the caller in the given language.
type Say struct {
	XMLName  xml.Name `xml:"Say"`
	Language string   `xml:"language,attr,omitempty"`
	Text     string   `xml:",chardata"`
}

// Gather collects speech input and posts the result to Action.
type Gather struct {
	XMLName       xml.Name `xml:"Gather"`
	Action        string   `xml:"action,attr"`
	Method        string   `xml:"method,attr"`
	Input         string   `xml:"input,attr"`
	SpeechTimeout string   `xml:"speechTimeout,attr"`
	Language      string   `xml:"language,attr"`
	Timeout       int      `xml:"timeout,attr"`
	Say           *Say     `xml:"Say,omitempty"`
}

// Hangup ends the call.
type Hangup struct {
	XMLName xml.Name `xml:"Hangup"`
}

// VoiceResponse is the root cXML document returned to the telephony
// provider's webhook request.
type VoiceResponse struct {
	XMLName xml.Name `xml:"Response"`
	Verbs   []any
}

// AddSay appends a spoken line in Bangla.
func (r *VoiceResponse) AddSay(text string) {
	r.Verbs = append(r.Verbs, Say{Language: LanguageBanglaBD, Text: text})
}

// AddGather appends a speech gather that speaks the prompt and posts the
// recognized speech to actionURL.
func (r *VoiceResponse) AddGather(actionURL, prompt string) {
	r.Verbs = append(r.Verbs, Gather{
		Action:        actionURL,
		Method:        "POST",
		Input:         gatherInputSpeech,
		SpeechTimeout: gatherSpeechTimeout,
		Language:      LanguageBanglaBD,
		Timeout:       gatherTimeoutSeconds,
		Say:           &Say{Language: LanguageBanglaBD, Text: prompt},
	})
}

// AddHangup appends a hangup verb.
func (r *VoiceResponse) AddHangup() {
	r.Verbs = append(r.Verbs, Hangup{})
}

// Render marshals the document with the XML declaration the provider
// expects.
func (r *VoiceResponse) Render() ([]byte, error) {
	body, err := xml.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal voice response: %w", err)
	}

	return append([]byte(xml.Header), body...), nil
}

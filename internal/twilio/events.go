// Package twilio implements the media-stream wire protocol and the TwiML
// call-setup document.
package twilio

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
)

// Event names carried on a media stream.
const (
	EventStart = "start"
	EventMedia = "media"
	EventStop  = "stop"
)

// Event is one inbound frame on a media-stream connection.
type Event struct {
	Event          string `json:"event"`
	SequenceNumber string `json:"sequenceNumber,omitempty"`
	StreamSid      string `json:"streamSid,omitempty"`
	Start          *Start `json:"start,omitempty"`
	Media          *Media `json:"media,omitempty"`
}

// Start carries call metadata on the first frame of a stream.
type Start struct {
	AccountSid       string            `json:"accountSid"`
	CallSid          string            `json:"callSid"`
	Tracks           []string          `json:"tracks"`
	MediaFormat      MediaFormat       `json:"mediaFormat"`
	CustomParameters map[string]string `json:"customParameters,omitempty"`
}

// MediaFormat describes the audio encoding of a stream.
type MediaFormat struct {
	Encoding   string `json:"encoding"`
	SampleRate int    `json:"sampleRate"`
	Channels   int    `json:"channels"`
}

// Media carries one base64-encoded audio chunk.
type Media struct {
	Track     string `json:"track,omitempty"`
	Chunk     string `json:"chunk,omitempty"`
	Timestamp string `json:"timestamp,omitempty"`
	Payload   string `json:"payload"`
}

// DecodePayload returns the raw audio bytes of a media frame.
func (m *Media) DecodePayload() ([]byte, error) {
	audio, err := base64.StdEncoding.DecodeString(m.Payload)
	if err != nil {
		return nil, fmt.Errorf("decode media payload: %w", err)
	}
	return audio, nil
}

// ParseEvent decodes one inbound frame. A frame without an event name is
// malformed.
func ParseEvent(data []byte) (*Event, error) {
	var ev Event
	if err := json.Unmarshal(data, &ev); err != nil {
		return nil, fmt.Errorf("decode stream event: %w", err)
	}
	if ev.Event == "" {
		return nil, fmt.Errorf("stream event missing event field")
	}
	return &ev, nil
}

// OutEvent is an outbound frame carrying synthesized reply audio.
type OutEvent struct {
	Event     string   `json:"event"`
	StreamSid string   `json:"streamSid,omitempty"`
	Media     OutMedia `json:"media"`
}

// OutMedia is the payload of an outbound media frame.
type OutMedia struct {
	Payload string `json:"payload"`
}

// NewMediaEvent wraps raw reply audio as an outbound media frame for the
// given call.
func NewMediaEvent(streamSid string, audio []byte) *OutEvent {
	return &OutEvent{
		Event:     EventMedia,
		StreamSid: streamSid,
		Media:     OutMedia{Payload: base64.StdEncoding.EncodeToString(audio)},
	}
}

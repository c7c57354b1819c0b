// Package domain provides the core types shared by the call pipeline,
// the session registry, and the speech/completion adapters.
package domain

// Role identifies the speaker of a transcript turn.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one role-tagged utterance in a call transcript. Transcript order
// is semantically meaningful: turns are replayed verbatim to the completion
// adapter.
type Turn struct {
	Role Role   `json:"role"`
	Text string `json:"text"`
}

// AudioFormat describes the encoding of raw audio bytes handed to the
// transcription adapter or produced by the synthesis adapter.
type AudioFormat struct {
	Encoding   string
	SampleRate int
	Channels   int
}

// MulawNarrowband is the companded 8 kHz single-channel telephony encoding
// carried by Twilio media streams.
var MulawNarrowband = AudioFormat{
	Encoding:   "mulaw",
	SampleRate: 8000,
	Channels:   1,
}

package domain

import "context"

// Transcriber converts a chunk of raw audio bytes into text.
type Transcriber interface {
	// Transcribe returns the best transcript for the audio, or an empty
	// string when the chunk contained no recognizable speech.
	Transcribe(ctx context.Context, audio []byte, format AudioFormat) (string, error)
}

// Completer produces the next assistant utterance for an ordered transcript.
type Completer interface {
	Complete(ctx context.Context, transcript []Turn) (string, error)
}

// Synthesizer converts an utterance into raw audio bytes in the telephony
// codec.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string) ([]byte, error)
}

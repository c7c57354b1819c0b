// Package pipeline drives a single phone call's lifecycle: start, repeated
// audio-in / transcribe / respond / synthesize / audio-out, stop.
//
// Error policy lives here and nowhere else: any adapter failure while
// handling a media event is logged and the event dropped. The caller may
// hear silence for that turn, but the call is never terminated by the
// pipeline itself. Only a stop event or transport close ends a call.
package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/apexai-labs/onyx/internal/cache"
	"github.com/apexai-labs/onyx/internal/domain"
	"github.com/apexai-labs/onyx/internal/session"
	"github.com/apexai-labs/onyx/internal/twilio"
)

// Default bounded waits per adapter call. Expiry is treated as an ordinary
// adapter failure.
const (
	DefaultTranscribeTimeout = 10 * time.Second
	DefaultCompleteTimeout   = 30 * time.Second
	DefaultSynthesizeTimeout = 30 * time.Second
)

// Recorder receives best-effort call log writes. Implemented by
// callrecord.Store; may be nil.
type Recorder interface {
	StartCall(ctx context.Context, streamSid string) error
	AddTurn(ctx context.Context, streamSid string, role domain.Role, text string) error
	EndCall(ctx context.Context, streamSid string) error
}

// Config tunes the pipeline.
type Config struct {
	// SystemPrompt seeds every new session's transcript.
	SystemPrompt string

	TranscribeTimeout time.Duration
	CompleteTimeout   time.Duration
	SynthesizeTimeout time.Duration
}

func (c *Config) withDefaults() Config {
	out := *c
	if out.TranscribeTimeout <= 0 {
		out.TranscribeTimeout = DefaultTranscribeTimeout
	}
	if out.CompleteTimeout <= 0 {
		out.CompleteTimeout = DefaultCompleteTimeout
	}
	if out.SynthesizeTimeout <= 0 {
		out.SynthesizeTimeout = DefaultSynthesizeTimeout
	}
	return out
}

// Pipeline orchestrates the per-call state machine over the registry, the
// response cache, and the three external adapters.
type Pipeline struct {
	registry    *session.Registry
	cache       *cache.Cache
	transcriber domain.Transcriber
	completer   domain.Completer
	synthesizer domain.Synthesizer
	recorder    Recorder
	logger      *slog.Logger
	tracer      trace.Tracer
	cfg         Config
}

// New assembles a pipeline. recorder may be nil.
func New(registry *session.Registry, responseCache *cache.Cache, transcriber domain.Transcriber, completer domain.Completer, synthesizer domain.Synthesizer, recorder Recorder, logger *slog.Logger, cfg Config) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		registry:    registry,
		cache:       responseCache,
		transcriber: transcriber,
		completer:   completer,
		synthesizer: synthesizer,
		recorder:    recorder,
		logger:      logger,
		tracer:      otel.Tracer("onyx/pipeline"),
		cfg:         cfg.withDefaults(),
	}
}

// HandleStart creates the session for a new stream. A start event naming
// an already-active id is rejected with domain.ErrDuplicateSession; the
// existing session is left untouched.
func (p *Pipeline) HandleStart(ctx context.Context, ev *twilio.Event) error {
	if _, err := p.registry.Create(ev.StreamSid, p.cfg.SystemPrompt); err != nil {
		return err
	}
	if p.recorder != nil {
		if err := p.recorder.StartCall(ctx, ev.StreamSid); err != nil {
			p.logger.Warn("call log write failed",
				slog.String("stream_sid", ev.StreamSid),
				slog.String("error", err.Error()))
		}
	}
	return nil
}

// HandleMedia runs the per-event algorithm for one inbound audio chunk and
// returns the outbound reply frame, or nil when this turn produces no
// reply (empty transcript, or a recovered adapter failure).
//
// A cache hit deliberately skips both the completion adapter and the user
// turn: repeated questions are answered from recorded variants at the cost
// of transcript drift. The assistant turn is appended on both paths.
func (p *Pipeline) HandleMedia(ctx context.Context, ev *twilio.Event) (*twilio.OutEvent, error) {
	sess, ok := p.registry.Get(ev.StreamSid)
	if !ok {
		return nil, domain.ErrUnknownSession
	}
	if err := sess.MarkActive(); err != nil {
		return nil, err
	}
	if ev.Media == nil {
		return nil, errors.New("media event missing media payload")
	}

	audio, err := ev.Media.DecodePayload()
	if err != nil {
		// Malformed event: discard it, keep the stream open.
		return nil, err
	}

	// Adapter calls run under the session context so teardown cancels any
	// work in flight for this call.
	ctx, span := p.tracer.Start(sess.Context(), "pipeline.media",
		trace.WithAttributes(attribute.String("stream_sid", ev.StreamSid)))
	defer span.End()

	question, ok := p.transcribe(ctx, sess, audio)
	if !ok {
		return nil, nil
	}

	answer, ok := p.respond(ctx, sess, question)
	if !ok {
		return nil, nil
	}

	// Late-result guard: the session may have been torn down while an
	// adapter call was in flight. A closed session rejects the append and
	// the result is dropped.
	if err := sess.Append(domain.RoleAssistant, answer); err != nil {
		p.logger.Info("dropping reply for closed session", slog.String("stream_sid", sess.ID()))
		return nil, nil
	}
	p.record(ctx, sess.ID(), domain.RoleUser, question)
	p.record(ctx, sess.ID(), domain.RoleAssistant, answer)

	reply, ok := p.synthesize(ctx, sess, answer)
	if !ok {
		return nil, nil
	}

	return twilio.NewMediaEvent(sess.ID(), reply), nil
}

// HandleStop tears down the session. Idempotent: stop for an unknown or
// already-closed id is a no-op.
func (p *Pipeline) HandleStop(ctx context.Context, ev *twilio.Event) {
	_, existed := p.registry.Get(ev.StreamSid)
	p.registry.Remove(ev.StreamSid)
	if existed && p.recorder != nil {
		if err := p.recorder.EndCall(ctx, ev.StreamSid); err != nil {
			p.logger.Warn("call log write failed",
				slog.String("stream_sid", ev.StreamSid),
				slog.String("error", err.Error()))
		}
	}
}

func (p *Pipeline) transcribe(ctx context.Context, sess *session.Session, audio []byte) (string, bool) {
	ctx, cancel := context.WithTimeout(ctx, p.cfg.TranscribeTimeout)
	defer cancel()
	ctx, span := p.tracer.Start(ctx, "pipeline.transcribe")
	defer span.End()

	question, err := p.transcriber.Transcribe(ctx, audio, domain.MulawNarrowband)
	if err != nil {
		p.dropTurn(sess, domain.NewAdapterError(domain.StageTranscribe, err))
		return "", false
	}
	if question == "" {
		p.logger.Debug("empty transcript, skipping turn", slog.String("stream_sid", sess.ID()))
		return "", false
	}
	return question, true
}

// respond resolves the answer for a question: recorded variants on a cache
// hit, completion adapter on a miss (with write-back).
func (p *Pipeline) respond(ctx context.Context, sess *session.Session, question string) (string, bool) {
	if answers := p.cache.Lookup(question); len(answers) > 0 {
		p.logger.Debug("cache hit",
			slog.String("stream_sid", sess.ID()),
			slog.Int("variants", len(answers)))
		return cache.PickAnswer(answers), true
	}

	if err := sess.Append(domain.RoleUser, question); err != nil {
		return "", false
	}

	ctx, cancel := context.WithTimeout(ctx, p.cfg.CompleteTimeout)
	defer cancel()
	ctx, span := p.tracer.Start(ctx, "pipeline.complete")
	defer span.End()

	answer, err := p.completer.Complete(ctx, sess.Transcript())
	if err != nil {
		p.dropTurn(sess, domain.NewAdapterError(domain.StageComplete, err))
		return "", false
	}

	if err := p.cache.RecordAnswer(question, answer); err != nil {
		// In-memory cache is already updated; the flush failure must not
		// abort the in-flight call.
		p.logger.Warn("cache persistence failed",
			slog.String("stream_sid", sess.ID()),
			slog.String("error", err.Error()))
	}
	return answer, true
}

func (p *Pipeline) synthesize(ctx context.Context, sess *session.Session, answer string) ([]byte, bool) {
	ctx, cancel := context.WithTimeout(ctx, p.cfg.SynthesizeTimeout)
	defer cancel()
	ctx, span := p.tracer.Start(ctx, "pipeline.synthesize")
	defer span.End()

	reply, err := p.synthesizer.Synthesize(ctx, answer)
	if err != nil {
		p.dropTurn(sess, domain.NewAdapterError(domain.StageSynthesize, err))
		return nil, false
	}
	return reply, true
}

// dropTurn applies the log-and-continue policy for a failed adapter call.
func (p *Pipeline) dropTurn(sess *session.Session, err *domain.AdapterError) {
	p.logger.Warn("turn dropped",
		slog.String("stream_sid", sess.ID()),
		slog.String("stage", string(err.Stage)),
		slog.String("error", err.Err.Error()))
}

// record writes one spoken turn to the call log, best-effort.
func (p *Pipeline) record(ctx context.Context, streamSid string, role domain.Role, text string) {
	if p.recorder == nil {
		return
	}
	if err := p.recorder.AddTurn(ctx, streamSid, role, text); err != nil {
		p.logger.Warn("call log write failed",
			slog.String("stream_sid", streamSid),
			slog.String("error", err.Error()))
	}
}

package pipeline

import (
	"context"

	"github.com/corvid-assistant/corvid/internal/corerrors"
	"github.com/corvid-assistant/corvid/internal/coordinator"
	"github.com/corvid-assistant/corvid/internal/donation"
	"github.com/corvid-assistant/corvid/internal/provider"
	"github.com/corvid-assistant/corvid/internal/session"
	"github.com/corvid-assistant/corvid/internal/telemetry"
	"github.com/corvid-assistant/corvid/internal/textproc"
)

// StageSet holds every dependency a workflow's stages close over. Built
// once at startup and shared by every in-flight RequestContext.
type StageSet struct {
	ASR       *coordinator.ASR
	TTS       *coordinator.TTS
	Audio     *coordinator.Audio
	WakeWord  *coordinator.WakeWord // nil disables the wake_gate check
	Processor *textproc.Processor
	Donations *donation.Store
	Sessions  *session.Store
	Handlers  *HandlerRegistry
	Metrics   *telemetry.Metrics
}

// NewVoiceWorkflow builds the canonical voice workflow of spec §4.4:
// capture -> wake_gate -> asr -> normalize(asr_output) -> intent ->
// handler -> normalize(tts_input) -> tts -> audio_out.
func NewVoiceWorkflow(s StageSet) Workflow {
	return Workflow{
		Name: "voice",
		Stages: []Stage{
			StageFunc{StageName: "capture", Fn: s.capture},
			StageFunc{StageName: "wake_gate", Fn: s.wakeGate},
			StageFunc{StageName: "asr", Fn: s.asr},
			StageFunc{StageName: "normalize_asr_output", Fn: s.normalize(textproc.StageASROutput, "PartialText", "FinalText")},
			StageFunc{StageName: "intent", Fn: s.intent},
			StageFunc{StageName: "handler", Fn: s.handler},
			StageFunc{StageName: "normalize_tts_input", Fn: s.normalizeResponse(textproc.StageTTSInput)},
			StageFunc{StageName: "tts", Fn: s.tts},
			StageFunc{StageName: "audio_out", Fn: s.audioOut},
		},
	}
}

// NewTextWorkflow builds the canonical text workflow of spec §4.4:
// ingest -> normalize(command_input) -> intent -> handler -> render.
func NewTextWorkflow(s StageSet) Workflow {
	return Workflow{
		Name: "text",
		Stages: []Stage{
			StageFunc{StageName: "ingest", Fn: s.ingest},
			StageFunc{StageName: "normalize_command_input", Fn: s.normalize(textproc.StageCommandInput, "FinalText")},
			StageFunc{StageName: "intent", Fn: s.intent},
			StageFunc{StageName: "handler", Fn: s.handler},
			StageFunc{StageName: "render", Fn: s.render},
		},
	}
}

// capture is a no-op placement-holder in the per-request engine: the real
// audio capture loop lives upstream of RequestContext creation (a
// dedicated realtime task pushing into the wake-word ring buffer per spec
// §5); by the time a RequestContext reaches this stage, rc.AudioIn already
// holds the utterance captured after a wake-word trigger (or the caller's
// posted clip, for web/API sources).
func (s StageSet) capture(ctx context.Context, rc *RequestContext) outcome {
	if len(rc.AudioIn) == 0 {
		return fail(corerrors.New(corerrors.Internal, "voice workflow requires non-empty audio input"))
	}
	return ok()
}

// wakeGate enforces spec §4.4's gate: a request that didn't originate from
// an already-confirmed wake-word trigger must re-probe one frame through
// the WakeWord coordinator before being let through to ASR. Metadata key
// "wake_confirmed" lets the caller (e.g. the detector's own onDetect
// callback) skip the re-probe when it already knows the answer.
func (s StageSet) wakeGate(ctx context.Context, rc *RequestContext) outcome {
	if rc.Metadata["wake_confirmed"] == true {
		return ok()
	}
	if s.WakeWord == nil {
		return ok()
	}
	frame := bytesToInt16(rc.AudioIn)
	state, err := s.WakeWord.ProcessFrame(frame, "")
	if err != nil {
		return fail(err)
	}
	if !state.Detected {
		// Silent short-circuit: dropped for lack of a wake word is not a
		// user-visible failure, it's the backpressure gate working as
		// designed (spec §4.4/§5 "drop-oldest ... prior to wake gating").
		return stop(Response{})
	}
	return ok()
}

func bytesToInt16(raw []byte) []int16 {
	out := make([]int16, len(raw)/2)
	for i := range out {
		out[i] = int16(uint16(raw[2*i]) | uint16(raw[2*i+1])<<8)
	}
	return out
}

// asr runs the ASR coordinator against rc.AudioIn and writes FinalText,
// the only field this stage owns (single-writer rule).
func (s StageSet) asr(ctx context.Context, rc *RequestContext) outcome {
	text, err := s.ASR.Transcribe(ctx, rc.AudioIn, "", provider.TranscribeOpts{Language: rc.Language})
	if err != nil {
		return fail(err)
	}
	rc.FinalText = text
	return ok()
}

// normalize returns a stage that runs the shared text-processing chain
// over the named RequestContext fields for one stage tag. fields lists
// which of PartialText/FinalText to normalize in place; at least one must
// be non-empty at call time, or the stage is a no-op.
func (s StageSet) normalize(stage textproc.Stage, fields ...string) func(context.Context, *RequestContext) outcome {
	return func(ctx context.Context, rc *RequestContext) outcome {
		for _, f := range fields {
			var cur string
			switch f {
			case "PartialText":
				cur = rc.PartialText
			case "FinalText":
				cur = rc.FinalText
			}
			if cur == "" {
				continue
			}
			out, err := s.Processor.Apply(cur, stage)
			if err != nil {
				return fail(err)
			}
			switch f {
			case "PartialText":
				rc.PartialText = out
			case "FinalText":
				rc.FinalText = out
			}
		}
		return ok()
	}
}

// normalizeResponse runs the text-processing chain over the handler's
// Response.Text before it reaches TTS, e.g. tts_input locale cleanup.
func (s StageSet) normalizeResponse(stage textproc.Stage) func(context.Context, *RequestContext) outcome {
	return func(ctx context.Context, rc *RequestContext) outcome {
		if rc.Response.Text == "" {
			return ok()
		}
		out, err := s.Processor.Apply(rc.Response.Text, stage)
		if err != nil {
			return fail(err)
		}
		rc.Response.Text = out
		return ok()
	}
}

// intent resolves rc.FinalText against the compiled donation matcher for
// rc.Language and writes Intent/Slots, the fields this stage owns.
func (s StageSet) intent(ctx context.Context, rc *RequestContext) outcome {
	snap := s.Donations.Get()
	matcher, ok2 := snap.Matchers[rc.Language]
	if !ok2 {
		return fail(corerrors.New(corerrors.IntentUnresolved, "no donations compiled for language").WithField("language", rc.Language))
	}
	result, err := matcher.Match(rc.FinalText)
	if err != nil {
		if s.Metrics != nil {
			s.Metrics.IntentsUnresolved.Add(ctx, 1)
		}
		return fail(err)
	}
	if s.Metrics != nil {
		s.Metrics.IntentsResolved.Add(ctx, 1)
	}
	rc.Intent = result.HandlerDomain + "." + result.IntentSuffix
	rc.Slots = result.Slots
	rc.Metadata["handler_domain"] = result.HandlerDomain
	rc.Metadata["method_name"] = result.MethodName
	rc.Metadata["intent_suffix"] = result.IntentSuffix
	return ok()
}

// handler dispatches the resolved intent to its domain Handler and writes
// rc.Response, the only field this stage owns.
func (s StageSet) handler(ctx context.Context, rc *RequestContext) outcome {
	domain, _ := rc.Metadata["handler_domain"].(string)
	method, _ := rc.Metadata["method_name"].(string)
	suffix, _ := rc.Metadata["intent_suffix"].(string)

	s.Sessions.Get(rc.SessionID) // touch the session so its TTL clock resets for this turn
	if rc.Language != "" {
		s.Sessions.SetLocale(rc.SessionID, rc.Language)
	}

	resp, err := s.Handlers.Dispatch(ctx, HandlerCall{
		RequestID:     rc.RequestID,
		SessionID:     rc.SessionID,
		Language:      rc.Language,
		HandlerDomain: domain,
		MethodName:    method,
		IntentSuffix:  suffix,
		Slots:         rc.Slots,
	})
	if err != nil {
		return fail(err)
	}

	s.Sessions.RecordInteraction(rc.SessionID, session.Interaction{
		RequestID: rc.RequestID,
		Text:      rc.FinalText,
		Intent:    rc.Intent,
	})

	rc.Response = resp
	return ok()
}

// tts speaks rc.Response.Text through the TTS coordinator's Speak; any
// playback is up to the provider, and this stage does not set
// Metadata["tts_audio"]. A handler response with an empty Text (e.g. a
// silent acknowledgement) skips synthesis entirely.
func (s StageSet) tts(ctx context.Context, rc *RequestContext) outcome {
	if rc.Response.Text == "" {
		return ok()
	}
	// Speak is the only synthesis call on this realtime path; a
	// provider that only supports to-file synthesis is still reachable
	// through ToFile from the admin/API surface, not this realtime path.
	if err := s.TTS.Speak(ctx, rc.Response.Text, "", provider.SpeakOpts{Language: rc.Language}); err != nil {
		return fail(err)
	}
	return ok()
}

// audioOut plays Metadata["tts_audio"] through the Audio coordinator when
// it is set; the tts stage above never sets it, so on the built-in voice
// path this stage does nothing. It exists as its own stage so a
// future TTS provider that only renders bytes (rather than playing them)
// has a single place to hand those bytes to the Audio coordinator.
func (s StageSet) audioOut(ctx context.Context, rc *RequestContext) outcome {
	raw, has := rc.Metadata["tts_audio"].([]byte)
	if !has || len(raw) == 0 {
		return ok()
	}
	ch := make(chan []byte, 1)
	ch <- raw
	close(ch)
	if err := s.Audio.PlayStream(ctx, ch, "", provider.PlayOpts{Blocking: true}); err != nil {
		return fail(err)
	}
	return ok()
}

// ingest is the Text workflow's entry stage: rc.FinalText is already
// populated by the caller (CLI/HTTP handler) before Run is invoked, so
// this stage only validates it's non-empty.
func (s StageSet) ingest(ctx context.Context, rc *RequestContext) outcome {
	if rc.FinalText == "" {
		return fail(corerrors.New(corerrors.Internal, "text workflow requires non-empty input text"))
	}
	return ok()
}

// render is the Text workflow's terminal stage: the handler's Response is
// already the value Run returns, so render only downgrades a tts-typed
// response (a handler written for voice, reused in a text session) to
// plain text, since there is no audio_out stage to speak it.
func (s StageSet) render(ctx context.Context, rc *RequestContext) outcome {
	if rc.Response.Type == ResponseTTS {
		rc.Response.Type = ResponseText
	}
	return ok()
}

package pipeline

import (
	"context"
	"time"

	"github.com/corvid-assistant/corvid/internal/corerrors"
	"github.com/corvid-assistant/corvid/internal/telemetry"
	"github.com/corvid-assistant/corvid/pkg/logger"
)

// Engine runs a RequestContext through a Workflow's stages in order,
// enforcing per-stage deadlines and mapping typed errors to a final
// Response instead of leaking them to the caller (spec §4.4/§7).
type Engine struct {
	log     *logger.Logger
	metrics *telemetry.Metrics
}

func New(log *logger.Logger, metrics *telemetry.Metrics) *Engine {
	if metrics == nil {
		metrics = telemetry.Default()
	}
	return &Engine{log: log, metrics: metrics}
}

// Run executes every stage of wf against rc in order and returns the final
// Response, whether the run completed, short-circuited, or failed; it never
// returns a bare Go error to the caller — a failure becomes an apology
// Response from errorResponse, typed text or tts by the request's source.
func (e *Engine) Run(ctx context.Context, wf Workflow, rc *RequestContext) Response {
	for _, st := range wf.Stages {
		select {
		case <-ctx.Done():
			return e.cancelledResponse(rc, wf.Name, st.Name())
		default:
		}

		stageCtx, cancel := context.WithTimeout(ctx, DeadlineFor(st.Name()))
		started := time.Now()
		out := e.runStage(stageCtx, st, rc)
		elapsed := time.Since(started)
		cancel()

		e.metrics.RecordStage(ctx, wf.Name, st.Name(), elapsed.Seconds())
		rc.mark(st.Name())

		if out.err != nil {
			return e.errorResponse(rc, wf.Name, st.Name(), out.err)
		}
		if out.shortCircuit {
			rc.Response = out.response
			return out.response
		}
	}
	return rc.Response
}

// runStage recovers a stage panic into an Internal error so one faulty
// stage cannot take the whole engine down (spec §7: every failure maps to
// a typed kind, panics included).
func (e *Engine) runStage(ctx context.Context, st Stage, rc *RequestContext) (result outcome) {
	done := make(chan outcome, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- fail(corerrors.New(corerrors.Internal, "stage panicked").WithField("stage", st.Name()).WithField("recover", panicString(r)))
			}
		}()
		done <- st.Run(ctx, rc)
	}()

	select {
	case o := <-done:
		return o
	case <-ctx.Done():
		return fail(corerrors.New(corerrors.StageTimeout, "stage deadline exceeded").WithField("stage", st.Name()))
	}
}

func panicString(r any) string {
	if err, ok := r.(error); ok {
		return err.Error()
	}
	if s, ok := r.(string); ok {
		return s
	}
	return "unknown panic"
}

// errorResponse maps a stage's typed error to a user-visible Response
// (spec §7): IntentUnresolved is a conversational outcome, not a failure,
// so it gets the polite "not understood" text; StageTimeout/Cancelled get
// a short apology; everything else is logged as an operational failure.
func (e *Engine) errorResponse(rc *RequestContext, workflow, stage string, err error) Response {
	kind := corerrors.KindOf(err)
	log := e.log.With("requestID", rc.RequestID, "workflow", workflow, "stage", stage, "kind", string(kind))

	switch {
	case corerrors.IsUserFacingOutcome(err):
		log.Infow("intent unresolved")
		return Response{Text: "Sorry, I didn't understand that.", Type: ResponseType(outcomeType(rc)), Priority: 0}
	case kind == corerrors.StageTimeout || kind == corerrors.Cancelled:
		log.Warnw("stage timed out or cancelled", "error", err)
		return Response{Text: "Sorry, that took too long. Please try again.", Type: ResponseType(outcomeType(rc)), Priority: 0}
	default:
		log.Errorw("stage failed", "error", err)
		return Response{Text: "Something went wrong handling that request.", Type: ResponseType(outcomeType(rc)), Priority: 1,
			Metadata: map[string]any{"error_kind": string(kind)}}
	}
}

func (e *Engine) cancelledResponse(rc *RequestContext, workflow, nextStage string) Response {
	e.log.With("requestID", rc.RequestID, "workflow", workflow, "stage", nextStage).Warnw("request cancelled before stage")
	return Response{Text: "Request cancelled.", Type: ResponseType(outcomeType(rc)), Priority: 0}
}

// outcomeType picks text vs tts response type based on where the request
// came from, so a voice-sourced failure still gets spoken back.
func outcomeType(rc *RequestContext) string {
	if rc.Source == SourceMic || rc.Source == SourceWS {
		return string(ResponseTTS)
	}
	return string(ResponseText)
}

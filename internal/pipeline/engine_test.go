package pipeline

import (
	"context"
	"testing"
	"time"

	"github.com/corvid-assistant/corvid/internal/corerrors"
	"github.com/corvid-assistant/corvid/pkg/logger"
)

func testEngine() *Engine {
	return New(logger.New(true), nil)
}

func TestRunCompletesAllStagesInOrder(t *testing.T) {
	var ran []string
	wf := Workflow{
		Name: "test",
		Stages: []Stage{
			StageFunc{StageName: "a", Fn: func(ctx context.Context, rc *RequestContext) outcome {
				ran = append(ran, "a")
				return ok()
			}},
			StageFunc{StageName: "b", Fn: func(ctx context.Context, rc *RequestContext) outcome {
				ran = append(ran, "b")
				rc.Response = Response{Text: "done", Type: ResponseText}
				return ok()
			}},
		},
	}
	rc := NewRequestContext("req1", SourceCLI, "en", "sess1")
	resp := testEngine().Run(context.Background(), wf, rc)

	if len(ran) != 2 || ran[0] != "a" || ran[1] != "b" {
		t.Fatalf("expected stages a,b to run in order, got %v", ran)
	}
	if resp.Text != "done" {
		t.Errorf("expected response text %q, got %q", "done", resp.Text)
	}
	if _, has := rc.Timestamps["a"]; !has {
		t.Errorf("expected stage a to leave a timestamp")
	}
}

func TestRunShortCircuitsAndSkipsLaterStages(t *testing.T) {
	var ranB bool
	wf := Workflow{
		Name: "test",
		Stages: []Stage{
			StageFunc{StageName: "a", Fn: func(ctx context.Context, rc *RequestContext) outcome {
				return stop(Response{Text: "not understood", Type: ResponseText})
			}},
			StageFunc{StageName: "b", Fn: func(ctx context.Context, rc *RequestContext) outcome {
				ranB = true
				return ok()
			}},
		},
	}
	rc := NewRequestContext("req1", SourceCLI, "en", "sess1")
	resp := testEngine().Run(context.Background(), wf, rc)

	if ranB {
		t.Fatalf("expected stage b to be skipped after short-circuit")
	}
	if resp.Text != "not understood" {
		t.Errorf("expected short-circuit response to propagate, got %q", resp.Text)
	}
}

func TestRunMapsIntentUnresolvedToPoliteResponse(t *testing.T) {
	wf := Workflow{
		Name: "test",
		Stages: []Stage{
			StageFunc{StageName: "a", Fn: func(ctx context.Context, rc *RequestContext) outcome {
				return fail(corerrors.New(corerrors.IntentUnresolved, "no match"))
			}},
		},
	}
	rc := NewRequestContext("req1", SourceCLI, "en", "sess1")
	resp := testEngine().Run(context.Background(), wf, rc)

	if resp.Type != ResponseText {
		t.Errorf("expected text response for CLI source, got %v", resp.Type)
	}
	if resp.Priority != 0 {
		t.Errorf("expected low priority for a conversational outcome, got %d", resp.Priority)
	}
}

func TestRunMapsInternalErrorToHighPriorityErrorResponse(t *testing.T) {
	wf := Workflow{
		Name: "test",
		Stages: []Stage{
			StageFunc{StageName: "a", Fn: func(ctx context.Context, rc *RequestContext) outcome {
				return fail(corerrors.New(corerrors.Internal, "boom"))
			}},
		},
	}
	rc := NewRequestContext("req1", SourceCLI, "en", "sess1")
	resp := testEngine().Run(context.Background(), wf, rc)

	if resp.Priority != 1 {
		t.Errorf("expected elevated priority for an operational failure, got %d", resp.Priority)
	}
	if resp.Metadata["error_kind"] != string(corerrors.Internal) {
		t.Errorf("expected error_kind metadata, got %v", resp.Metadata)
	}
}

func TestRunRespectsPerStageDeadline(t *testing.T) {
	wf := Workflow{
		Name: "test",
		Stages: []Stage{
			StageFunc{StageName: "slow_other_stage", Fn: func(ctx context.Context, rc *RequestContext) outcome {
				select {
				case <-time.After(10 * time.Second):
					return ok()
				case <-ctx.Done():
					return ok()
				}
			}},
		},
	}
	rc := NewRequestContext("req1", SourceCLI, "en", "sess1")

	done := make(chan Response, 1)
	go func() { done <- testEngine().Run(context.Background(), wf, rc) }()

	select {
	case resp := <-done:
		if resp.Priority != 0 {
			t.Errorf("expected a polite timeout response, got priority %d", resp.Priority)
		}
	case <-time.After(6 * time.Second):
		t.Fatalf("expected the default 5s stage deadline to cut the run short")
	}
}

func TestRunHonorsAlreadyCancelledContext(t *testing.T) {
	var ranA bool
	wf := Workflow{
		Name: "test",
		Stages: []Stage{
			StageFunc{StageName: "a", Fn: func(ctx context.Context, rc *RequestContext) outcome {
				ranA = true
				return ok()
			}},
		},
	}
	rc := NewRequestContext("req1", SourceCLI, "en", "sess1")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	resp := testEngine().Run(ctx, wf, rc)
	if ranA {
		t.Fatalf("expected no stage to run against an already-cancelled context")
	}
	if resp.Text == "" {
		t.Errorf("expected a cancellation response")
	}
}

func TestRunRecoversStagePanic(t *testing.T) {
	wf := Workflow{
		Name: "test",
		Stages: []Stage{
			StageFunc{StageName: "a", Fn: func(ctx context.Context, rc *RequestContext) outcome {
				panic("unexpected")
			}},
		},
	}
	rc := NewRequestContext("req1", SourceCLI, "en", "sess1")
	resp := testEngine().Run(context.Background(), wf, rc)

	if resp.Priority != 1 {
		t.Errorf("expected a panic to surface as a high-priority error response, got %d", resp.Priority)
	}
}

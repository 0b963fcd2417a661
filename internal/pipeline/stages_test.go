package pipeline

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/corvid-assistant/corvid/internal/corerrors"
	"github.com/corvid-assistant/corvid/internal/donation"
	"github.com/corvid-assistant/corvid/internal/session"
	"github.com/corvid-assistant/corvid/internal/textproc"
	"github.com/corvid-assistant/corvid/pkg/logger"
)

func writeTimerDonation(t *testing.T, root string) {
	t.Helper()
	d := donation.Donation{
		HandlerDomain: "timer",
		Language:      "en",
		SchemaVersion: donation.CurrentSchemaVersion,
		MethodDonations: []donation.MethodDonation{
			{
				MethodName:   "add",
				IntentSuffix: "timer.add",
				Lemmas:       []string{"set", "timer"},
				TokenPatterns: []donation.TokenPattern{
					{{Lemma: "set"}, {Lemma: "timer"}},
				},
			},
		},
	}
	dir := filepath.Join(root, "timer")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	raw, err := json.Marshal(d)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "en.json"), raw, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func testStageSet(t *testing.T) StageSet {
	t.Helper()
	root := t.TempDir()
	writeTimerDonation(t, root)

	store, err := donation.NewStore(root, 0.3, false, logger.New(true))
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}

	handler := &stubHandler{domain: "timer", resp: Response{Text: "timer set", Type: ResponseTTS}}

	return StageSet{
		Processor: textproc.NewProcessor(nil),
		Donations: store,
		Sessions:  session.NewStore(10, time.Minute),
		Handlers:  NewHandlerRegistry(handler),
	}
}

func TestCaptureFailsOnEmptyAudio(t *testing.T) {
	s := testStageSet(t)
	rc := NewRequestContext("r1", SourceMic, "en", "sess1")
	out := s.capture(context.Background(), rc)
	if out.err == nil {
		t.Fatalf("expected capture to fail on empty audio")
	}
}

func TestWakeGatePassesThroughWhenNoCoordinatorConfigured(t *testing.T) {
	s := testStageSet(t)
	rc := NewRequestContext("r1", SourceMic, "en", "sess1")
	out := s.wakeGate(context.Background(), rc)
	if out.err != nil || out.shortCircuit {
		t.Fatalf("expected wakeGate to pass through with no WakeWord coordinator, got %+v", out)
	}
}

func TestWakeGatePassesThroughWhenAlreadyConfirmed(t *testing.T) {
	s := testStageSet(t)
	rc := NewRequestContext("r1", SourceMic, "en", "sess1")
	rc.Metadata["wake_confirmed"] = true
	out := s.wakeGate(context.Background(), rc)
	if out.err != nil || out.shortCircuit {
		t.Fatalf("expected wakeGate to pass through when already confirmed, got %+v", out)
	}
}

func TestIntentStageResolvesAgainstCompiledDonations(t *testing.T) {
	s := testStageSet(t)
	rc := NewRequestContext("r1", SourceCLI, "en", "sess1")
	rc.FinalText = "set timer"

	out := s.intent(context.Background(), rc)
	if out.err != nil {
		t.Fatalf("unexpected error: %v", out.err)
	}
	if rc.Metadata["handler_domain"] != "timer" {
		t.Errorf("expected handler_domain timer, got %v", rc.Metadata["handler_domain"])
	}
	if rc.Intent != "timer.timer.add" {
		t.Errorf("expected intent timer.timer.add, got %q", rc.Intent)
	}
}

func TestIntentStageReturnsIntentUnresolvedForUnknownLanguage(t *testing.T) {
	s := testStageSet(t)
	rc := NewRequestContext("r1", SourceCLI, "fr", "sess1")
	rc.FinalText = "set timer"

	out := s.intent(context.Background(), rc)
	if corerrors.KindOf(out.err) != corerrors.IntentUnresolved {
		t.Fatalf("expected IntentUnresolved for an uncompiled language, got %v", out.err)
	}
}

func TestHandlerStageDispatchesAndRecordsInteraction(t *testing.T) {
	s := testStageSet(t)
	rc := NewRequestContext("r1", SourceCLI, "en", "sess1")
	rc.FinalText = "set timer"
	rc.Metadata["handler_domain"] = "timer"
	rc.Metadata["method_name"] = "add"
	rc.Metadata["intent_suffix"] = "timer.add"

	out := s.handler(context.Background(), rc)
	if out.err != nil {
		t.Fatalf("unexpected error: %v", out.err)
	}
	if rc.Response.Text != "timer set" {
		t.Errorf("expected handler response text, got %q", rc.Response.Text)
	}

	interactions := s.Sessions.Get("sess1").LastInteractions()
	if len(interactions) != 1 || interactions[0].Text != "set timer" {
		t.Errorf("expected one recorded interaction, got %+v", interactions)
	}
}

func TestIngestFailsOnEmptyText(t *testing.T) {
	s := testStageSet(t)
	rc := NewRequestContext("r1", SourceWeb, "en", "sess1")
	out := s.ingest(context.Background(), rc)
	if out.err == nil {
		t.Fatalf("expected ingest to fail on empty FinalText")
	}
}

func TestRenderDowngradesTTSResponseToText(t *testing.T) {
	s := testStageSet(t)
	rc := NewRequestContext("r1", SourceWeb, "en", "sess1")
	rc.Response = Response{Text: "hi", Type: ResponseTTS}
	out := s.render(context.Background(), rc)
	if out.err != nil {
		t.Fatalf("unexpected error: %v", out.err)
	}
	if rc.Response.Type != ResponseText {
		t.Errorf("expected render to downgrade tts response to text, got %v", rc.Response.Type)
	}
}

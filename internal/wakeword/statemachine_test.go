package wakeword

import "testing"

func TestStateMachineStartsIdleListening(t *testing.T) {
	sm := newStateMachine()
	if sm.current() != StateIdleListening {
		t.Errorf("expected initial state %q, got %q", StateIdleListening, sm.current())
	}
}

func TestOnConfidenceRequiresSustainedThreshold(t *testing.T) {
	sm := newStateMachine()

	if triggered := sm.onConfidence(0.9, 0.5, 50); triggered {
		t.Fatalf("expected single above-threshold reading not to trigger immediately")
	}
	if sm.current() != StateIdleListening {
		t.Fatalf("expected state to remain idle after one reading")
	}
}

func TestOnConfidenceDipResetsRun(t *testing.T) {
	sm := newStateMachine()

	sm.onConfidence(0.9, 0.5, 1000)
	sm.onConfidence(0.3, 0.5, 1000) // dip below threshold resets the run
	if sm.aboveThresholdRun {
		t.Fatalf("expected aboveThresholdRun cleared after dip")
	}
}

func TestOnConfidenceBelowThresholdNeverTriggers(t *testing.T) {
	sm := newStateMachine()
	for i := 0; i < 20; i++ {
		if sm.onConfidence(0.1, 0.5, 10) {
			t.Fatalf("confidence below threshold must never trigger")
		}
	}
	if sm.current() != StateIdleListening {
		t.Errorf("expected state to remain idle, got %q", sm.current())
	}
}

func TestResetTriggerClearsRunWithoutTransition(t *testing.T) {
	sm := newStateMachine()
	sm.onConfidence(0.9, 0.5, 1000)
	sm.resetTrigger()
	if sm.aboveThresholdRun {
		t.Fatalf("expected resetTrigger to clear the above-threshold run")
	}
	if sm.current() != StateIdleListening {
		t.Fatalf("expected resetTrigger not to change state")
	}
}

package wakeword

import (
	"context"
	"time"

	"github.com/looplab/fsm"
)

// Detector lifecycle states (spec §4.6): IdleListening -> Streaming on
// a confirmed trigger, Streaming -> Cooldown on trailing silence or a
// max-utterance timeout, Cooldown -> IdleListening once the cooldown
// window elapses.
const (
	StateIdleListening = "idle_listening"
	StateStreaming     = "streaming"
	StateCooldown      = "cooldown"
)

const (
	eventTrigger   = "trigger"
	eventEndSpeech = "end_speech"
	eventRearm     = "rearm"
)

// stateMachine wraps the looplab/fsm lifecycle transitions plus the
// two hysteresis run-length trackers the transitions depend on: how
// long confidence has stayed above threshold (to fire eventTrigger),
// and how long streaming has seen silence or run past max duration (to
// fire eventEndSpeech).
type stateMachine struct {
	m *fsm.FSM

	aboveThresholdSince time.Time
	aboveThresholdRun   bool

	streamingSince time.Time
	silenceSince   time.Time
	silenceRun     bool

	cooldownSince time.Time
}

func newStateMachine() *stateMachine {
	sm := &stateMachine{}
	sm.m = fsm.NewFSM(
		StateIdleListening,
		fsm.Events{
			{Name: eventTrigger, Src: []string{StateIdleListening}, Dst: StateStreaming},
			{Name: eventEndSpeech, Src: []string{StateStreaming}, Dst: StateCooldown},
			{Name: eventRearm, Src: []string{StateCooldown}, Dst: StateIdleListening},
		},
		fsm.Callbacks{},
	)
	return sm
}

func (sm *stateMachine) current() string {
	return sm.m.Current()
}

// onConfidence feeds one inference result through the detection
// hysteresis (spec §4.6: "confidence >= threshold must persist for at
// least trigger_duration_ms before a detection is emitted; any dip
// below threshold resets the run") and fires the IdleListening ->
// Streaming transition once the run is long enough. Returns true
// exactly on the frame the transition fires.
func (sm *stateMachine) onConfidence(confidence, threshold float64, triggerDurationMS int) bool {
	if sm.current() != StateIdleListening {
		return false
	}

	now := time.Now()
	if confidence < threshold {
		sm.aboveThresholdRun = false
		return false
	}
	if !sm.aboveThresholdRun {
		sm.aboveThresholdRun = true
		sm.aboveThresholdSince = now
	}
	if now.Sub(sm.aboveThresholdSince) < time.Duration(triggerDurationMS)*time.Millisecond {
		return false
	}

	sm.aboveThresholdRun = false
	if err := sm.m.Event(context.Background(), eventTrigger); err != nil {
		return false
	}
	sm.streamingSince = now
	return true
}

// onFrame advances the Streaming -> Cooldown -> IdleListening
// transitions based on VAD silence and elapsed durations; it has no
// effect outside those two states.
func (sm *stateMachine) onFrame(voiced bool, tailSilenceMS, maxUtteranceMS, cooldownMS int) {
	now := time.Now()

	switch sm.current() {
	case StateStreaming:
		if voiced {
			sm.silenceRun = false
		} else if !sm.silenceRun {
			sm.silenceRun = true
			sm.silenceSince = now
		}

		trailingSilence := sm.silenceRun && now.Sub(sm.silenceSince) >= time.Duration(tailSilenceMS)*time.Millisecond
		maxDurationReached := now.Sub(sm.streamingSince) >= time.Duration(maxUtteranceMS)*time.Millisecond

		if trailingSilence || maxDurationReached {
			if err := sm.m.Event(context.Background(), eventEndSpeech); err == nil {
				sm.cooldownSince = now
				sm.silenceRun = false
			}
		}
	case StateCooldown:
		if now.Sub(sm.cooldownSince) >= time.Duration(cooldownMS)*time.Millisecond {
			_ = sm.m.Event(context.Background(), eventRearm)
		}
	}
}

// resetTrigger clears the above-threshold run without transitioning
// state, used when an inference fault makes the current confidence
// reading untrustworthy (spec §4.6: "per-inference faults are caught,
// counted, and logged but do not stop the task").
func (sm *stateMachine) resetTrigger() {
	sm.aboveThresholdRun = false
}

// Package pipeline implements the workflow engine of spec §4.4: a named
// ordered sequence of stages that a RequestContext flows through exactly
// once, with per-stage deadlines, single-writer-per-field discipline, and
// typed-error-to-response mapping.
package pipeline

import (
	"context"
	"time"
)

// Source identifies where a request originated (spec §3 request context).
type Source string

const (
	SourceCLI Source = "cli"
	SourceMic Source = "mic"
	SourceWeb Source = "web"
	SourceWS  Source = "ws"
)

// RequestContext is the per-request record of spec §3. It is created once
// on input and passed stage to stage by the engine; each stage writes only
// the fields it owns (single-writer-per-field rule), except the normalize
// stages, which rewrite PartialText/FinalText or Response.Text in place
// after the stage that produced them.
type RequestContext struct {
	RequestID string
	Source    Source
	Language  string
	SessionID string

	Timestamps map[string]time.Time

	AudioIn []byte

	PartialText string
	FinalText   string

	Intent string
	Slots  map[string]string

	Response Response

	Metadata map[string]any
}

// NewRequestContext seeds a RequestContext with its identity fields; every
// other field is populated by the stages that own them.
func NewRequestContext(requestID string, source Source, language, sessionID string) *RequestContext {
	return &RequestContext{
		RequestID:  requestID,
		Source:     source,
		Language:   language,
		SessionID:  sessionID,
		Timestamps: make(map[string]time.Time),
		Slots:      make(map[string]string),
		Metadata:   make(map[string]any),
	}
}

// mark stamps the current time for a stage, used for latency introspection
// and for the §8 testable property that every stage that ran left a
// timestamp.
func (rc *RequestContext) mark(stage string) {
	rc.Timestamps[stage] = time.Now()
}

// ResponseType is the spec §3 response routing tag.
type ResponseType string

const (
	ResponseText         ResponseType = "text"
	ResponseTTS          ResponseType = "tts"
	ResponseError        ResponseType = "error"
	ResponseNotification ResponseType = "notification"
)

// Response is the spec §3 response record, produced by a handler or by the
// engine itself (e.g. on StageTimeout/Cancelled or "not understood").
type Response struct {
	Text     string
	Type     ResponseType
	Metadata map[string]any
	Priority int
}

// outcome is what a stage hands back to the engine: either it completed
// (continue to the next stage), short-circuited with a final Response, or
// failed with a typed error (spec §4.4 stage execution contract (a)/(b)/(c)).
type outcome struct {
	shortCircuit bool
	response     Response
	err          error
}

func ok() outcome             { return outcome{} }
func stop(r Response) outcome { return outcome{shortCircuit: true, response: r} }
func fail(err error) outcome  { return outcome{err: err} }

// Stage is one named step of a workflow. Implementations must observe
// ctx.Done() at every suspension point (spec §5 cancellation).
type Stage interface {
	Name() string
	Run(ctx context.Context, rc *RequestContext) outcome
}

// StageFunc adapts a plain function to Stage.
type StageFunc struct {
	StageName string
	Fn        func(ctx context.Context, rc *RequestContext) outcome
}

func (f StageFunc) Name() string { return f.StageName }
func (f StageFunc) Run(ctx context.Context, rc *RequestContext) outcome {
	return f.Fn(ctx, rc)
}

// Workflow is a named ordered list of stages (spec §4.4: "Voice" and
// "Text" are the two canonical workflows, but the engine itself is
// workflow-agnostic).
type Workflow struct {
	Name   string
	Stages []Stage
}

// DeadlineFor returns the per-stage default deadline of spec §5: ASR 10s,
// LLM 30s (handlers that call an LLM inherit this via their own context),
// TTS 15s, handler 5s; every other stage gets a generous default so a slow
// normalizer or intent match doesn't get mistaken for a hang.
func DeadlineFor(stageName string) time.Duration {
	switch stageName {
	case "asr":
		return 10 * time.Second
	case "tts":
		return 15 * time.Second
	case "handler":
		return 5 * time.Second
	case "llm_enhance":
		return 30 * time.Second
	default:
		return 5 * time.Second
	}
}

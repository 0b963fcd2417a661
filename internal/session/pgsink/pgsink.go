// Package pgsink implements session.Sink on PostgreSQL, grounded on the
// glyphoxa memory package's pgx/pgvector-backed session and semantic
// stores. It is the optional audit-trail persistence spec §11 describes
// for the bounded session store: every interaction that would otherwise
// only live in the in-memory ring is also appended here, so eviction
// never means "gone beyond recovery" when this backend is configured.
package pgsink

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	pgvector "github.com/pgvector/pgvector-go"

	"github.com/corvid-assistant/corvid/internal/session"
)

const embeddingDim = 32

// Sink persists session interactions to a session_audit_log table. It
// implements session.Sink.
type Sink struct {
	pool *pgxpool.Pool
}

// New opens a pool against dsn and ensures the audit table exists.
func New(ctx context.Context, dsn string) (*Sink, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("pgsink: open pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pgsink: ping: %w", err)
	}

	s := &Sink{pool: pool}
	if err := s.ensureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

func (s *Sink) ensureSchema(ctx context.Context) error {
	const q = `
		CREATE EXTENSION IF NOT EXISTS vector;
		CREATE TABLE IF NOT EXISTS session_audit_log (
			id          BIGSERIAL PRIMARY KEY,
			session_id  TEXT NOT NULL,
			request_id  TEXT NOT NULL,
			text        TEXT NOT NULL,
			intent      TEXT NOT NULL,
			at          TIMESTAMPTZ NOT NULL,
			embedding   VECTOR(` + fmt.Sprint(embeddingDim) + `)
		);
		CREATE INDEX IF NOT EXISTS session_audit_log_session_id_idx ON session_audit_log (session_id);
		CREATE INDEX IF NOT EXISTS session_audit_log_embedding_idx ON session_audit_log USING HNSW (embedding vector_cosine_ops);`

	_, err := s.pool.Exec(ctx, q)
	if err != nil {
		return fmt.Errorf("pgsink: ensure schema: %w", err)
	}
	return nil
}

// Record implements session.Sink. It returns nothing and discards any
// insert error; RecordInteraction fires it in the background, matching
// the "never block the caller" contract.
func (s *Sink) Record(ctx context.Context, sessionID string, in session.Interaction) {
	const q = `
		INSERT INTO session_audit_log (session_id, request_id, text, intent, at, embedding)
		VALUES ($1, $2, $3, $4, $5, $6)`

	vec := pgvector.NewVector(embed(in.Text))
	s.pool.Exec(ctx, q, sessionID, in.RequestID, in.Text, in.Intent, in.At, vec)
}

// Close releases the underlying connection pool.
func (s *Sink) Close() {
	s.pool.Close()
}

// embed produces a fixed-size, deterministic pseudo-embedding from text
// so the audit log's HNSW index has something to search over without
// depending on an external embedding model (no provider.LLM method
// returns embeddings). It is a bucketed byte histogram, not a semantic
// representation: good enough for coarse "find similar past utterances"
// recall over the audit trail, not a substitute for a real embedder.
func embed(text string) []float32 {
	v := make([]float32, embeddingDim)
	for i, b := range []byte(text) {
		v[i%embeddingDim] += float32(b) / 255.0
	}
	return v
}

var _ session.Sink = (*Sink)(nil)

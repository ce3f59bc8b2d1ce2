package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"

	"jamesfarrell.me/youtube-rag/internal/storage/models"
)

const schemaSQL = `
	CREATE EXTENSION IF NOT EXISTS vector;
	CREATE TABLE IF NOT EXISTS transcript_chunk (
		session_id      uuid    NOT NULL,
		position        integer NOT NULL,
		chunk_text      text    NOT NULL,
		chunk_embedding vector  NOT NULL,
		PRIMARY KEY (session_id, position)
	)
`

// ChunkRepository stores embedded transcript chunks keyed by session, so
// concurrent sessions never see each other's chunks.
type ChunkRepository struct {
	db *sql.DB
}

func NewChunkRepository(db *sql.DB) *ChunkRepository {
	return &ChunkRepository{db: db}
}

// EnsureSchema creates the pgvector extension and chunk table if missing.
func (r *ChunkRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

func (r *ChunkRepository) SaveChunks(ctx context.Context, sessionID uuid.UUID, chunks []models.Chunk) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction failed: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO transcript_chunk (session_id, position, chunk_text, chunk_embedding)
		VALUES ($1, $2, $3, $4)
	`)
	if err != nil {
		return fmt.Errorf("prepare statement failed: %w", err)
	}
	defer stmt.Close()

	for _, chunk := range chunks {
		_, err = stmt.ExecContext(ctx,
			sessionID,
			chunk.Position,
			chunk.Text,
			pgvector.NewVector(chunk.Embedding),
		)
		if err != nil {
			return fmt.Errorf("chunk insert failed: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit failed: %w", err)
	}
	return nil
}

// Nearest returns the k chunks of a session closest to embedding by cosine
// distance, most similar first. Ties keep chunk order.
func (r *ChunkRepository) Nearest(ctx context.Context, sessionID uuid.UUID, embedding []float32, k int) ([]models.ScoredChunk, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT position, chunk_text, 1 - (chunk_embedding <=> $1) AS similarity
		FROM transcript_chunk
		WHERE session_id = $2
		ORDER BY chunk_embedding <=> $1, position
		LIMIT $3
	`, pgvector.NewVector(embedding), sessionID, k)
	if err != nil {
		return nil, fmt.Errorf("nearest chunks query failed: %w", err)
	}
	defer rows.Close()

	var results []models.ScoredChunk
	for rows.Next() {
		var sc models.ScoredChunk
		if err := rows.Scan(&sc.Position, &sc.Text, &sc.Similarity); err != nil {
			return nil, fmt.Errorf("scan chunk: %w", err)
		}
		results = append(results, sc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate chunks: %w", err)
	}
	return results, nil
}

func (r *ChunkRepository) DeleteSession(ctx context.Context, sessionID uuid.UUID) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM transcript_chunk WHERE session_id = $1`, sessionID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete session chunks: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rows, nil
}

package rag

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"jamesfarrell.me/youtube-rag/internal/storage/models"
)

// ChunkStore is the storage behind PostgresIndexer; see postgres.ChunkRepository.
type ChunkStore interface {
	SaveChunks(ctx context.Context, sessionID uuid.UUID, chunks []models.Chunk) error
	Nearest(ctx context.Context, sessionID uuid.UUID, embedding []float32, k int) ([]models.ScoredChunk, error)
	DeleteSession(ctx context.Context, sessionID uuid.UUID) (int64, error)
}

// closeTimeout bounds the row cleanup in PostgresIndex.Close.
const closeTimeout = 10 * time.Second

// PostgresIndexer builds indexes backed by a pgvector table. Each index
// writes under its own session ID and deletes its rows on Close.
type PostgresIndexer struct {
	store    ChunkStore
	embedder Embedder
}

func NewPostgresIndexer(store ChunkStore, embedder Embedder) *PostgresIndexer {
	return &PostgresIndexer{store: store, embedder: embedder}
}

func (b *PostgresIndexer) Build(ctx context.Context, texts []string) (Index, error) {
	chunks, err := embedChunks(ctx, b.embedder, texts)
	if err != nil {
		return nil, err
	}
	session := uuid.New()
	if err := b.store.SaveChunks(ctx, session, chunks); err != nil {
		// Rows are written in one transaction, nothing to clean up.
		return nil, fmt.Errorf("store chunks: %w", err)
	}
	return &PostgresIndex{
		store:    b.store,
		embedder: b.embedder,
		session:  session,
		size:     len(chunks),
		timeout:  closeTimeout,
	}, nil
}

type PostgresIndex struct {
	store    ChunkStore
	embedder Embedder
	session  uuid.UUID
	size     int
	timeout  time.Duration
}

func (ix *PostgresIndex) SessionID() uuid.UUID {
	return ix.session
}

func (ix *PostgresIndex) Len() int {
	return ix.size
}

func (ix *PostgresIndex) Query(ctx context.Context, text string, k int) ([]models.ScoredChunk, error) {
	if k <= 0 {
		return nil, errInvalidK
	}
	queryVec, err := embedOne(ctx, ix.embedder, text)
	if err != nil {
		return nil, err
	}
	return ix.store.Nearest(ctx, ix.session, queryVec, k)
}

// Close deletes the session's rows. It uses a fresh context bounded by
// closeTimeout so cleanup still runs after the request context is cancelled.
func (ix *PostgresIndex) Close() error {
	if ix.size == 0 {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), ix.timeout)
	defer cancel()
	if _, err := ix.store.DeleteSession(ctx, ix.session); err != nil {
		return fmt.Errorf("delete session %s: %w", ix.session, err)
	}
	ix.size = 0
	return nil
}

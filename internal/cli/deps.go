package cli

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"jamesfarrell.me/youtube-rag/internal/config"
	"jamesfarrell.me/youtube-rag/internal/embeddings"
	"jamesfarrell.me/youtube-rag/internal/llm"
	"jamesfarrell.me/youtube-rag/internal/rag"
	"jamesfarrell.me/youtube-rag/internal/storage/db"
	"jamesfarrell.me/youtube-rag/internal/storage/postgres"
	"jamesfarrell.me/youtube-rag/internal/transcript"
)

// newTranscriptSource reads captions from vttPath when set, otherwise from
// YouTube, optionally backed by audio transcription.
func newTranscriptSource(cfg *config.Config, vttPath string, logger *zap.Logger) (transcript.Source, error) {
	if vttPath != "" {
		return transcript.VTTFile{Path: vttPath}, nil
	}
	client := &http.Client{Timeout: cfg.RequestTimeout}
	captions := transcript.NewFetcher(client, transcript.WithLogger(logger))
	if !cfg.AudioFallback {
		return captions, nil
	}
	if err := cfg.RequireTranscribeAPIKey(); err != nil {
		return nil, err
	}
	// Audio uploads outlast caption requests, so the STT client has no timeout.
	stt := llm.NewClient(cfg.TranscribeAPIKey, cfg.TranscribeBaseURL, nil)
	audio := transcript.NewAudioTranscriber(stt, cfg.TranscribeModel, transcript.WithAudioLogger(logger))
	return transcript.Fallback{Primary: captions, Secondary: audio, Logger: logger}, nil
}

// buildPipeline wires the full fetch, index and answer stack. The returned
// cleanup closes the database connection when pgvector storage is used.
func buildPipeline(ctx context.Context, cfg *config.Config, vttPath string, logger *zap.Logger) (*rag.Pipeline, func(), error) {
	if err := cfg.RequireAPIKey(); err != nil {
		return nil, nil, err
	}
	source, err := newTranscriptSource(cfg, vttPath, logger)
	if err != nil {
		return nil, nil, err
	}
	splitter, err := rag.NewSplitter(cfg.ChunkSize, cfg.ChunkOverlap)
	if err != nil {
		return nil, nil, err
	}

	client := llm.NewClient(cfg.APIKey, cfg.BaseURL, &http.Client{Timeout: cfg.RequestTimeout})
	embedder := embeddings.NewClient(client, cfg.EmbeddingModel)
	chat := llm.NewChatModel(client, cfg.ChatModel, cfg.Temperature, logger)

	indexer, conn, err := newIndexer(ctx, cfg, embedder, logger)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		if conn != nil {
			conn.Close()
		}
	}

	p := rag.NewPipeline(source, indexer, chat,
		rag.WithLanguages(cfg.Languages...),
		rag.WithTopK(cfg.TopK),
		rag.WithSplitter(splitter),
		rag.WithLogger(logger),
	)
	return p, cleanup, nil
}

func newIndexer(ctx context.Context, cfg *config.Config, embedder rag.Embedder, logger *zap.Logger) (rag.Indexer, *sql.DB, error) {
	if cfg.DatabaseURL == "" {
		return rag.NewMemoryIndexer(embedder), nil, nil
	}

	conn, err := db.NewConnection(ctx, db.Config{URL: cfg.DatabaseURL})
	if err != nil {
		return nil, nil, fmt.Errorf("connect to %s: %w", db.MaskDatabaseURL(cfg.DatabaseURL), err)
	}
	repo := postgres.NewChunkRepository(conn)
	if err := repo.EnsureSchema(ctx); err != nil {
		conn.Close()
		return nil, nil, err
	}
	logger.Info("using pgvector chunk storage", zap.String("database", db.MaskDatabaseURL(cfg.DatabaseURL)))
	return rag.NewPostgresIndexer(repo, embedder), conn, nil
}

package postgres

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jamesfarrell.me/youtube-rag/internal/storage/models"
)

func newMockRepo(t *testing.T) (*ChunkRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewChunkRepository(db), mock
}

func TestEnsureSchema(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS transcript_chunk").WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, repo.EnsureSchema(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSaveChunks(t *testing.T) {
	repo, mock := newMockRepo(t)
	session := uuid.New()
	chunks := []models.Chunk{
		{Position: 0, Text: "Deepseek is a Chinese AI company", Embedding: []float32{1, 0}},
		{Position: 1, Text: "founded in 2023.", Embedding: []float32{0, 1}},
	}

	mock.ExpectBegin()
	prep := mock.ExpectPrepare("INSERT INTO transcript_chunk")
	prep.ExpectExec().WithArgs(session, 0, chunks[0].Text, sqlmock.AnyArg()).WillReturnResult(sqlmock.NewResult(0, 1))
	prep.ExpectExec().WithArgs(session, 1, chunks[1].Text, sqlmock.AnyArg()).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.SaveChunks(context.Background(), session, chunks))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSaveChunksRollsBackOnError(t *testing.T) {
	repo, mock := newMockRepo(t)
	session := uuid.New()

	mock.ExpectBegin()
	prep := mock.ExpectPrepare("INSERT INTO transcript_chunk")
	prep.ExpectExec().WillReturnError(errors.New("dimension mismatch"))
	mock.ExpectRollback()

	err := repo.SaveChunks(context.Background(), session, []models.Chunk{{Text: "x", Embedding: []float32{1}}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "chunk insert failed")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNearest(t *testing.T) {
	repo, mock := newMockRepo(t)
	session := uuid.New()

	rows := sqlmock.NewRows([]string{"position", "chunk_text", "similarity"}).
		AddRow(3, "Deepseek is a Chinese AI company", 0.92).
		AddRow(1, "founded in 2023.", 0.41)
	mock.ExpectQuery("SELECT position, chunk_text").
		WithArgs(sqlmock.AnyArg(), session, 2).
		WillReturnRows(rows)

	got, err := repo.Nearest(context.Background(), session, []float32{1, 0}, 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, 3, got[0].Position)
	assert.Equal(t, "Deepseek is a Chinese AI company", got[0].Text)
	assert.InDelta(t, 0.92, got[0].Similarity, 1e-9)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteSession(t *testing.T) {
	repo, mock := newMockRepo(t)
	session := uuid.New()
	mock.ExpectExec("DELETE FROM transcript_chunk").WithArgs(session).WillReturnResult(sqlmock.NewResult(0, 4))

	n, err := repo.DeleteSession(context.Background(), session)
	require.NoError(t, err)
	assert.Equal(t, int64(4), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

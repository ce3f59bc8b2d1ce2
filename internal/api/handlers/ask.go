package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"jamesfarrell.me/youtube-rag/internal/api/middleware"
	"jamesfarrell.me/youtube-rag/internal/rag"
	"jamesfarrell.me/youtube-rag/internal/storage/models"
	"jamesfarrell.me/youtube-rag/internal/transcript"
)

// Runner runs one fetch-index-answer pass; *rag.Pipeline implements it.
type Runner interface {
	Run(ctx context.Context, videoID, question string) rag.Result
}

// RunnerFactory returns a Runner for the requested caption languages. An
// empty list means the configured default.
type RunnerFactory func(languages []string) Runner

type VideoHandler struct {
	runners  RunnerFactory
	validate *validator.Validate
	logger   *zap.Logger
}

func NewVideoHandler(runners RunnerFactory, logger *zap.Logger) *VideoHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &VideoHandler{runners: runners, validate: validator.New(), logger: logger}
}

// Ask answers a question about a video from its transcript.
func (h *VideoHandler) Ask(w http.ResponseWriter, r *http.Request) {
	var req models.AskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "BadRequest", "invalid JSON body: "+err.Error())
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "BadRequest", validationMessage(err))
		return
	}
	videoID, err := transcript.ExtractVideoID(req.VideoID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "BadRequest", err.Error())
		return
	}

	res := h.runners(req.Languages).Run(r.Context(), videoID, req.Question)
	h.logger.Info("ask",
		zap.String("request_id", middleware.RequestIDFrom(r.Context())),
		zap.String("video_id", videoID),
		zap.Stringer("state", res.State),
		zap.Int("sources", len(res.Chunks)))

	resp := models.AskResponse{
		VideoID: videoID,
		State:   res.State.String(),
		Error:   errorBody(res),
	}
	if req.IncludeTranscript {
		resp.Transcript = res.Transcript
	}
	if res.State == rag.StateAnswered {
		resp.Answer = res.Answer
		resp.Sources = make([]models.SearchResult, len(res.Chunks))
		for i, c := range res.Chunks {
			resp.Sources[i] = models.SearchResult{Position: c.Position, ChunkText: c.Text, Similarity: c.Similarity}
		}
	}
	writeJSON(w, StatusFor(res), resp)
}

// GetTranscript returns the joined transcript of a video. The lang query
// parameter takes a comma-separated preference list.
func (h *VideoHandler) GetTranscript(w http.ResponseWriter, r *http.Request) {
	videoID, err := transcript.ExtractVideoID(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, http.StatusBadRequest, "BadRequest", err.Error())
		return
	}
	var languages []string
	for _, l := range strings.Split(r.URL.Query().Get("lang"), ",") {
		if l = strings.TrimSpace(l); l != "" {
			languages = append(languages, l)
		}
	}

	res := h.runners(languages).Run(r.Context(), videoID, "")
	writeJSON(w, StatusFor(res), models.TranscriptResponse{
		VideoID:    videoID,
		Transcript: res.Transcript,
		Error:      errorBody(res),
	})
}

// StatusFor maps the end state of a run to an HTTP status code.
func StatusFor(res rag.Result) int {
	switch res.State {
	case rag.StateFetchFailed:
		switch transcript.AsFetchError(res.VideoID, res.Err).Kind {
		case transcript.KindVideoUnavailable:
			return http.StatusNotFound
		case transcript.KindTranscriptsDisabled, transcript.KindNoTranscriptFound:
			return http.StatusUnprocessableEntity
		}
		return http.StatusBadGateway
	case rag.StateIndexFailed, rag.StateGenerationFailed:
		return http.StatusBadGateway
	}
	return http.StatusOK
}

func errorBody(res rag.Result) *models.ErrorBody {
	switch res.State {
	case rag.StateFetchFailed:
		fe := transcript.AsFetchError(res.VideoID, res.Err)
		return &models.ErrorBody{Kind: fe.Kind.String(), Message: fe.Message()}
	case rag.StateIndexFailed:
		return &models.ErrorBody{Kind: "IndexFailure", Message: res.Message()}
	case rag.StateGenerationFailed:
		return &models.ErrorBody{Kind: "GenerationFailure", Message: res.Message()}
	}
	return nil
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		if fe.Tag() == "required" {
			msgs = append(msgs, fe.Field()+" is required")
			continue
		}
		msgs = append(msgs, fe.Field()+" must satisfy "+fe.Tag()+"="+fe.Param())
	}
	return strings.Join(msgs, "; ")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, kind, message string) {
	writeJSON(w, status, map[string]models.ErrorBody{"error": {Kind: kind, Message: message}})
}

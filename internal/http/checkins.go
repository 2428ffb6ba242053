package http

import (
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/abishekhariharan076/Academic-Emotional-Support-Portal/internal/model"
)

type createCheckInRequest struct {
	MoodLevel *int   `json:"moodLevel"`
	Message   string `json:"message"`
	Anonymous bool   `json:"anonymous"`
}

type reviewCheckInRequest struct {
	CounselorNote string `json:"counselorNote"`
}

type authorPayload struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type checkInPayload struct {
	ID            string         `json:"id"`
	AuthorID      string         `json:"authorId,omitempty"`
	Author        *authorPayload `json:"author,omitempty"`
	MoodLevel     int            `json:"moodLevel"`
	Message       string         `json:"message,omitempty"`
	Anonymous     bool           `json:"anonymous"`
	Status        string         `json:"status"`
	CounselorNote string         `json:"counselorNote,omitempty"`
	CreatedAt     time.Time      `json:"createdAt"`
	UpdatedAt     time.Time      `json:"updatedAt"`
}

func (s *Server) handleCreateCheckIn(w http.ResponseWriter, r *http.Request) {
	claims := claimsFromContext(r.Context())
	if claims == nil {
		writeError(w, http.StatusUnauthorized, "missing_token")
		return
	}

	var req createCheckInRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	if code := validateMoodLevel(req.MoodLevel); code != "" {
		writeError(w, http.StatusBadRequest, code)
		return
	}

	now := time.Now().UTC()
	checkIn := model.CheckIn{
		ID:        uuid.NewString(),
		AuthorID:  claims.UserID,
		MoodLevel: *req.MoodLevel,
		Message:   strings.TrimSpace(req.Message),
		Anonymous: req.Anonymous,
		Status:    model.CheckInOpen,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.store.CreateCheckIn(r.Context(), checkIn); err != nil {
		writeStoreError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, ownCheckInPayload(checkIn))
}

func (s *Server) handleMyCheckIns(w http.ResponseWriter, r *http.Request) {
	claims := claimsFromContext(r.Context())
	if claims == nil {
		writeError(w, http.StatusUnauthorized, "missing_token")
		return
	}

	checkIns, err := s.store.ListCheckInsByAuthor(r.Context(), claims.UserID)
	if err != nil {
		writeStoreError(w, err)
		return
	}

	resp := make([]checkInPayload, 0, len(checkIns))
	for _, checkIn := range checkIns {
		resp = append(resp, ownCheckInPayload(checkIn))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleAllCheckIns(w http.ResponseWriter, r *http.Request) {
	checkIns, err := s.store.ListCheckIns(r.Context())
	if err != nil {
		writeStoreError(w, err)
		return
	}

	resp := make([]checkInPayload, 0, len(checkIns))
	for _, checkIn := range checkIns {
		resp = append(resp, counselorCheckInPayload(checkIn))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleReviewCheckIn(w http.ResponseWriter, r *http.Request) {
	checkInID := chi.URLParam(r, "checkInId")
	if checkInID == "" {
		writeError(w, http.StatusBadRequest, "missing_checkin_id")
		return
	}

	var req reviewCheckInRequest
	if err := decodeJSON(r, &req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}

	checkIn, err := s.store.ReviewCheckIn(r.Context(), checkInID, strings.TrimSpace(req.CounselorNote), time.Now().UTC())
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusNotFound, "checkin_not_found")
			return
		}
		writeStoreError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, reviewedCheckInPayload(checkIn))
}

func validateMoodLevel(level *int) string {
	if level == nil {
		return "missing_mood_level"
	}
	if *level < 1 || *level > 5 {
		return "invalid_mood_level"
	}
	return ""
}

// ownCheckInPayload renders a check-in for its author; the author id is
// always present since the caller owns the record.
func ownCheckInPayload(checkIn model.CheckIn) checkInPayload {
	return checkInPayload{
		ID:            checkIn.ID,
		AuthorID:      checkIn.AuthorID,
		MoodLevel:     checkIn.MoodLevel,
		Message:       checkIn.Message,
		Anonymous:     checkIn.Anonymous,
		Status:        checkIn.Status,
		CounselorNote: checkIn.CounselorNote,
		CreatedAt:     checkIn.CreatedAt,
		UpdatedAt:     checkIn.UpdatedAt,
	}
}

// counselorCheckInPayload attaches the author identity unless the record
// is anonymous. The linkage stays in storage either way; anonymity is a
// display rule only.
func counselorCheckInPayload(checkIn model.CheckInWithAuthor) checkInPayload {
	payload := checkInPayload{
		ID:            checkIn.ID,
		MoodLevel:     checkIn.MoodLevel,
		Message:       checkIn.Message,
		Anonymous:     checkIn.Anonymous,
		Status:        checkIn.Status,
		CounselorNote: checkIn.CounselorNote,
		CreatedAt:     checkIn.CreatedAt,
		UpdatedAt:     checkIn.UpdatedAt,
	}
	if !checkIn.Anonymous {
		payload.AuthorID = checkIn.AuthorID
		payload.Author = &authorPayload{
			ID:    checkIn.AuthorID,
			Name:  checkIn.AuthorName,
			Email: checkIn.AuthorEmail,
		}
	}
	return payload
}

func reviewedCheckInPayload(checkIn model.CheckIn) checkInPayload {
	payload := ownCheckInPayload(checkIn)
	if checkIn.Anonymous {
		payload.AuthorID = ""
	}
	return payload
}

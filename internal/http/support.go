package http

import (
	"errors"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/abishekhariharan076/Academic-Emotional-Support-Portal/internal/auth"
	"github.com/abishekhariharan076/Academic-Emotional-Support-Portal/internal/model"
)

const (
	maxSubjectLen = 100
	maxMessageLen = 1500
)

type createSupportRequest struct {
	Subject   string `json:"subject"`
	Message   string `json:"message"`
	Anonymous bool   `json:"anonymous"`
}

type respondSupportRequest struct {
	CounselorReply string `json:"counselorReply"`
}

type supportRequestPayload struct {
	ID             string         `json:"id"`
	StudentID      string         `json:"studentId,omitempty"`
	Student        *authorPayload `json:"student,omitempty"`
	Subject        string         `json:"subject"`
	Message        string         `json:"message"`
	Anonymous      bool           `json:"anonymous"`
	Status         string         `json:"status"`
	CounselorID    *string        `json:"counselorId,omitempty"`
	CounselorReply string         `json:"counselorReply,omitempty"`
	RespondedAt    *time.Time     `json:"respondedAt,omitempty"`
	CreatedAt      time.Time      `json:"createdAt"`
	UpdatedAt      time.Time      `json:"updatedAt"`
}

func (s *Server) handleCreateSupportRequest(w http.ResponseWriter, r *http.Request) {
	claims := claimsFromContext(r.Context())
	if claims == nil {
		writeError(w, http.StatusUnauthorized, "missing_token")
		return
	}

	var req createSupportRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}

	req.Subject = strings.TrimSpace(req.Subject)
	req.Message = strings.TrimSpace(req.Message)
	if code := validateSupportInput(req.Subject, req.Message); code != "" {
		writeError(w, http.StatusBadRequest, code)
		return
	}

	now := time.Now().UTC()
	request := model.SupportRequest{
		ID:        uuid.NewString(),
		StudentID: claims.UserID,
		Subject:   req.Subject,
		Message:   req.Message,
		Anonymous: req.Anonymous,
		Status:    model.RequestPending,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.store.CreateSupportRequest(r.Context(), request); err != nil {
		writeStoreError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, ownSupportRequestPayload(request))
}

func (s *Server) handleMySupportRequests(w http.ResponseWriter, r *http.Request) {
	claims := claimsFromContext(r.Context())
	if claims == nil {
		writeError(w, http.StatusUnauthorized, "missing_token")
		return
	}

	requests, err := s.store.ListSupportRequestsByStudent(r.Context(), claims.UserID)
	if err != nil {
		writeStoreError(w, err)
		return
	}

	resp := make([]supportRequestPayload, 0, len(requests))
	for _, request := range requests {
		resp = append(resp, ownSupportRequestPayload(request))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleAllSupportRequests(w http.ResponseWriter, r *http.Request) {
	requests, err := s.store.ListSupportRequests(r.Context())
	if err != nil {
		writeStoreError(w, err)
		return
	}

	resp := make([]supportRequestPayload, 0, len(requests))
	for _, request := range requests {
		resp = append(resp, counselorSupportRequestPayload(request))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleRespondSupportRequest(w http.ResponseWriter, r *http.Request) {
	claims := claimsFromContext(r.Context())
	if claims == nil {
		writeError(w, http.StatusUnauthorized, "missing_token")
		return
	}

	requestID := chi.URLParam(r, "requestId")
	if requestID == "" {
		writeError(w, http.StatusBadRequest, "missing_request_id")
		return
	}

	var req respondSupportRequest
	if err := decodeJSON(r, &req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	reply := strings.TrimSpace(req.CounselorReply)
	if utf8.RuneCountInString(reply) > maxMessageLen {
		writeError(w, http.StatusBadRequest, "reply_too_long")
		return
	}

	request, err := s.store.RespondSupportRequest(r.Context(), requestID, claims.UserID, reply, time.Now().UTC())
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusNotFound, "request_not_found")
			return
		}
		writeStoreError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, respondedSupportRequestPayload(request))
}

func (s *Server) handleDeleteSupportRequest(w http.ResponseWriter, r *http.Request) {
	claims := claimsFromContext(r.Context())
	if claims == nil {
		writeError(w, http.StatusUnauthorized, "missing_token")
		return
	}

	requestID := chi.URLParam(r, "requestId")
	if requestID == "" {
		writeError(w, http.StatusBadRequest, "missing_request_id")
		return
	}

	request, err := s.store.GetSupportRequest(r.Context(), requestID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusNotFound, "request_not_found")
			return
		}
		writeStoreError(w, err)
		return
	}

	if !canDeleteRequest(claims, request) {
		writeError(w, http.StatusForbidden, "forbidden")
		return
	}

	deleted, err := s.store.DeleteSupportRequest(r.Context(), requestID)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	if !deleted {
		writeError(w, http.StatusNotFound, "request_not_found")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func validateSupportInput(subject, message string) string {
	if subject == "" || message == "" {
		return "missing_fields"
	}
	if utf8.RuneCountInString(subject) > maxSubjectLen {
		return "subject_too_long"
	}
	if utf8.RuneCountInString(message) > maxMessageLen {
		return "message_too_long"
	}
	return ""
}

// canDeleteRequest: students may delete only their own requests;
// counselors and admins may delete any.
func canDeleteRequest(claims *auth.Claims, request model.SupportRequest) bool {
	if claims.Role == model.RoleStudent {
		return request.StudentID == claims.UserID
	}
	return true
}

func ownSupportRequestPayload(request model.SupportRequest) supportRequestPayload {
	return supportRequestPayload{
		ID:             request.ID,
		StudentID:      request.StudentID,
		Subject:        request.Subject,
		Message:        request.Message,
		Anonymous:      request.Anonymous,
		Status:         request.Status,
		CounselorID:    request.CounselorID,
		CounselorReply: request.CounselorReply,
		RespondedAt:    request.RespondedAt,
		CreatedAt:      request.CreatedAt,
		UpdatedAt:      request.UpdatedAt,
	}
}

// counselorSupportRequestPayload attaches the student identity unless the
// record is anonymous; same display rule as check-ins.
func counselorSupportRequestPayload(request model.SupportRequestWithStudent) supportRequestPayload {
	payload := supportRequestPayload{
		ID:             request.ID,
		Subject:        request.Subject,
		Message:        request.Message,
		Anonymous:      request.Anonymous,
		Status:         request.Status,
		CounselorID:    request.CounselorID,
		CounselorReply: request.CounselorReply,
		RespondedAt:    request.RespondedAt,
		CreatedAt:      request.CreatedAt,
		UpdatedAt:      request.UpdatedAt,
	}
	if !request.Anonymous {
		payload.StudentID = request.StudentID
		payload.Student = &authorPayload{
			ID:    request.StudentID,
			Name:  request.StudentName,
			Email: request.StudentEmail,
		}
	}
	return payload
}

func respondedSupportRequestPayload(request model.SupportRequest) supportRequestPayload {
	payload := ownSupportRequestPayload(request)
	if request.Anonymous {
		payload.StudentID = ""
	}
	return payload
}

package http

import (
	"net/http"
	"time"
)

type statsResponse struct {
	Users    userStats    `json:"users"`
	CheckIns checkInStats `json:"checkIns"`
}

type userStats struct {
	Total      int64 `json:"total"`
	Students   int64 `json:"students"`
	Counselors int64 `json:"counselors"`
	Admins     int64 `json:"admins"`
}

type checkInStats struct {
	Total     int64 `json:"total"`
	Open      int64 `json:"open"`
	Reviewed  int64 `json:"reviewed"`
	Last7Days int64 `json:"last7Days"`
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	userCounts, err := s.store.CountUsers(r.Context())
	if err != nil {
		writeStoreError(w, err)
		return
	}

	since := time.Now().UTC().Add(-s.cfg.StatsWindow)
	checkInCounts, err := s.store.CountCheckIns(r.Context(), since)
	if err != nil {
		writeStoreError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, statsResponse{
		Users: userStats{
			Total:      userCounts.Total,
			Students:   userCounts.Students,
			Counselors: userCounts.Counselors,
			Admins:     userCounts.Admins,
		},
		CheckIns: checkInStats{
			Total:     checkInCounts.Total,
			Open:      checkInCounts.Open,
			Reviewed:  checkInCounts.Reviewed,
			Last7Days: checkInCounts.LastWindow,
		},
	})
}

func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.store.ListUsers(r.Context())
	if err != nil {
		writeStoreError(w, err)
		return
	}

	resp := make([]userSummary, 0, len(users))
	for _, user := range users {
		resp = append(resp, summarizeUser(user))
	}
	writeJSON(w, http.StatusOK, resp)
}

package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/abishekhariharan076/Academic-Emotional-Support-Portal/internal/auth"
	"github.com/abishekhariharan076/Academic-Emotional-Support-Portal/internal/config"
	"github.com/abishekhariharan076/Academic-Emotional-Support-Portal/internal/crypto"
	"github.com/abishekhariharan076/Academic-Emotional-Support-Portal/internal/db"
	"github.com/abishekhariharan076/Academic-Emotional-Support-Portal/internal/model"
	"github.com/abishekhariharan076/Academic-Emotional-Support-Portal/internal/repository"
)

func testConfig() config.Config {
	return config.Config{
		HTTPAddr:        ":0",
		JWTSecret:       "test-secret",
		JWTIssuer:       "test-issuer",
		AccessTokenTTL:  15 * time.Minute,
		RefreshTokenTTL: time.Hour,
		StatsWindow:     7 * 24 * time.Hour,
	}
}

func TestCheckInLifecycle(t *testing.T) {
	pool := openTestDB(t)
	if pool == nil {
		return
	}
	defer pool.Close()

	cfg := testConfig()
	store := repository.NewStore(pool)
	server := NewServer(cfg, store, nil)
	app := httptest.NewServer(server.Router())
	defer app.Close()

	studentToken, studentID := registerStudent(t, app.URL, "Check Student")
	counselorToken := seedUser(t, store, cfg, model.RoleCounselor)

	// Unauthenticated requests are rejected before any handler logic.
	resp := doReq(t, http.MethodPost, app.URL+"/checkins", "", map[string]interface{}{"moodLevel": 3})
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}

	// Mood level is mandatory and bounded.
	resp = doReq(t, http.MethodPost, app.URL+"/checkins", studentToken, map[string]interface{}{"message": "no mood"})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
	resp = doReq(t, http.MethodPost, app.URL+"/checkins", studentToken, map[string]interface{}{"moodLevel": 9})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}

	// Anonymous submission lands open.
	resp = doReq(t, http.MethodPost, app.URL+"/checkins", studentToken, map[string]interface{}{
		"moodLevel": 1,
		"message":   "rough week",
		"anonymous": true,
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	var created checkInPayload
	decodeBody(t, resp, &created)
	if created.Status != model.CheckInOpen || !created.Anonymous || created.AuthorID != studentID {
		t.Fatalf("unexpected created check-in: %+v", created)
	}

	// Students cannot reach the counselor listing.
	resp = doReq(t, http.MethodGet, app.URL+"/counselor/checkins", studentToken, nil)
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", resp.StatusCode)
	}

	// Counselor sees the record with the author suppressed.
	resp = doReq(t, http.MethodGet, app.URL+"/counselor/checkins", counselorToken, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var all []checkInPayload
	decodeBody(t, resp, &all)
	found := false
	for _, item := range all {
		if item.ID == created.ID {
			found = true
			if item.AuthorID != "" || item.Author != nil {
				t.Fatalf("expected anonymous author to be withheld")
			}
		}
	}
	if !found {
		t.Fatalf("expected counselor listing to include the check-in")
	}

	// Review transitions open -> reviewed.
	resp = doReq(t, http.MethodPut, app.URL+"/counselor/checkins/"+created.ID, counselorToken, map[string]interface{}{
		"counselorNote": "followed up",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var reviewed checkInPayload
	decodeBody(t, resp, &reviewed)
	if reviewed.Status != model.CheckInReviewed || reviewed.CounselorNote != "followed up" {
		t.Fatalf("unexpected reviewed check-in: %+v", reviewed)
	}

	// Unknown ids are 404.
	resp = doReq(t, http.MethodPut, app.URL+"/counselor/checkins/"+uuid.NewString(), counselorToken, nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}

	// The owner still sees the reviewed status.
	resp = doReq(t, http.MethodGet, app.URL+"/checkins/my", studentToken, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var mine []checkInPayload
	decodeBody(t, resp, &mine)
	for _, item := range mine {
		if item.AuthorID != studentID {
			t.Fatalf("listMine leaked a foreign record: %+v", item)
		}
		if item.ID == created.ID && item.Status != model.CheckInReviewed {
			t.Fatalf("expected reviewed status, got %s", item.Status)
		}
	}
}

func TestSupportRequestLifecycle(t *testing.T) {
	pool := openTestDB(t)
	if pool == nil {
		return
	}
	defer pool.Close()

	cfg := testConfig()
	store := repository.NewStore(pool)
	server := NewServer(cfg, store, nil)
	app := httptest.NewServer(server.Router())
	defer app.Close()

	studentToken, studentID := registerStudent(t, app.URL, "Support Student")
	otherToken, _ := registerStudent(t, app.URL, "Other Student")
	counselorToken := seedUser(t, store, cfg, model.RoleCounselor)

	// Counselors cannot create requests.
	resp := doReq(t, http.MethodPost, app.URL+"/support", counselorToken, map[string]interface{}{
		"subject": "Need help",
		"message": "please",
	})
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", resp.StatusCode)
	}

	// Missing fields are rejected.
	resp = doReq(t, http.MethodPost, app.URL+"/support", studentToken, map[string]interface{}{"subject": "Need help"})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}

	resp = doReq(t, http.MethodPost, app.URL+"/support", studentToken, map[string]interface{}{
		"subject": "Need help",
		"message": "struggling with workload",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var created supportRequestPayload
	decodeBody(t, resp, &created)
	if created.Status != model.RequestPending || created.StudentID != studentID {
		t.Fatalf("unexpected created request: %+v", created)
	}

	// Respond on an unknown id is 404 and creates nothing.
	resp = doReq(t, http.MethodPut, app.URL+"/support/"+uuid.NewString()+"/respond", counselorToken, map[string]interface{}{
		"counselorReply": "hello",
	})
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}

	resp = doReq(t, http.MethodPut, app.URL+"/support/"+created.ID+"/respond", counselorToken, map[string]interface{}{
		"counselorReply": "  Let's talk  ",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var responded supportRequestPayload
	decodeBody(t, resp, &responded)
	if responded.Status != model.RequestResponded || responded.CounselorReply != "Let's talk" {
		t.Fatalf("unexpected responded request: %+v", responded)
	}
	if responded.RespondedAt == nil || responded.RespondedAt.Before(responded.CreatedAt) {
		t.Fatalf("expected respondedAt to be set at or after createdAt")
	}
	if responded.CounselorID == nil {
		t.Fatalf("expected counselorId to be set")
	}

	// A non-owning student cannot delete.
	resp = doReq(t, http.MethodDelete, app.URL+"/support/"+created.ID, otherToken, nil)
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", resp.StatusCode)
	}

	// The owner can, and the record is gone afterwards.
	resp = doReq(t, http.MethodDelete, app.URL+"/support/"+created.ID, studentToken, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	resp = doReq(t, http.MethodGet, app.URL+"/support/my", studentToken, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var mine []supportRequestPayload
	decodeBody(t, resp, &mine)
	for _, item := range mine {
		if item.ID == created.ID {
			t.Fatalf("expected deleted request to disappear from listMine")
		}
	}
	resp = doReq(t, http.MethodDelete, app.URL+"/support/"+created.ID, studentToken, nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 after delete, got %d", resp.StatusCode)
	}
}

func TestAdminEndpoints(t *testing.T) {
	pool := openTestDB(t)
	if pool == nil {
		return
	}
	defer pool.Close()

	cfg := testConfig()
	store := repository.NewStore(pool)
	server := NewServer(cfg, store, nil)
	app := httptest.NewServer(server.Router())
	defer app.Close()

	studentToken, _ := registerStudent(t, app.URL, "Stats Student")
	adminToken := seedUser(t, store, cfg, model.RoleAdmin)

	resp := doReq(t, http.MethodGet, app.URL+"/admin/stats", studentToken, nil)
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", resp.StatusCode)
	}

	resp = doReq(t, http.MethodGet, app.URL+"/admin/stats", adminToken, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var stats statsResponse
	decodeBody(t, resp, &stats)
	if stats.Users.Total < stats.Users.Students {
		t.Fatalf("inconsistent user counts: %+v", stats.Users)
	}

	resp = doReq(t, http.MethodGet, app.URL+"/admin/users", adminToken, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var users []userSummary
	decodeBody(t, resp, &users)
	if len(users) == 0 {
		t.Fatalf("expected at least one user")
	}
}

func TestAuthFlows(t *testing.T) {
	pool := openTestDB(t)
	if pool == nil {
		return
	}
	defer pool.Close()

	cfg := testConfig()
	store := repository.NewStore(pool)
	server := NewServer(cfg, store, nil)
	app := httptest.NewServer(server.Router())
	defer app.Close()

	email := "auth." + uuid.NewString() + "@example.local"

	resp := doReq(t, http.MethodPost, app.URL+"/auth/register", "", map[string]interface{}{
		"name":     "Auth Student",
		"email":    email,
		"password": "dev-password",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	var registered authResponse
	decodeBody(t, resp, &registered)
	if registered.User.Role != model.RoleStudent {
		t.Fatalf("expected student role by default, got %s", registered.User.Role)
	}

	// Privileged roles cannot be self-registered.
	resp = doReq(t, http.MethodPost, app.URL+"/auth/register", "", map[string]interface{}{
		"name":     "Sneaky Admin",
		"email":    "sneaky." + uuid.NewString() + "@example.local",
		"password": "dev-password",
		"role":     "admin",
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}

	// Duplicate email is a conflict.
	resp = doReq(t, http.MethodPost, app.URL+"/auth/register", "", map[string]interface{}{
		"name":     "Auth Student",
		"email":    email,
		"password": "dev-password",
	})
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected 409, got %d", resp.StatusCode)
	}

	resp = doReq(t, http.MethodPost, app.URL+"/auth/login", "", map[string]interface{}{
		"email":    email,
		"password": "wrong",
	})
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}

	resp = doReq(t, http.MethodPost, app.URL+"/auth/login", "", map[string]interface{}{
		"email":    email,
		"password": "dev-password",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var loggedIn authResponse
	decodeBody(t, resp, &loggedIn)

	resp = doReq(t, http.MethodGet, app.URL+"/auth/me", loggedIn.AccessToken, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	// Refresh rotates the session: the new pair works, the old refresh
	// token does not.
	resp = doReq(t, http.MethodPost, app.URL+"/auth/refresh", "", map[string]interface{}{
		"refreshToken": loggedIn.RefreshToken,
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	resp = doReq(t, http.MethodPost, app.URL+"/auth/refresh", "", map[string]interface{}{
		"refreshToken": loggedIn.RefreshToken,
	})
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 on reused refresh token, got %d", resp.StatusCode)
	}

	resp = doReq(t, http.MethodPost, app.URL+"/auth/logout", loggedIn.AccessToken, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
}

// Helpers

func openTestDB(t *testing.T) *pgxpool.Pool {
	url := os.Getenv("AESP_TEST_DB")
	if url == "" {
		url = os.Getenv("DATABASE_URL")
	}
	if url == "" {
		t.Skip("AESP_TEST_DB or DATABASE_URL not set")
		return nil
	}
	pool, err := db.NewPool(context.Background(), url)
	if err != nil {
		t.Skipf("db unavailable: %v", err)
		return nil
	}
	return pool
}

func registerStudent(t *testing.T, baseURL, name string) (token, userID string) {
	resp := doReq(t, http.MethodPost, baseURL+"/auth/register", "", map[string]interface{}{
		"name":     name,
		"email":    "student." + uuid.NewString() + "@example.local",
		"password": "dev-password",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("register: expected 201, got %d", resp.StatusCode)
	}
	var body authResponse
	decodeBody(t, resp, &body)
	return body.AccessToken, body.User.ID
}

func seedUser(t *testing.T, store *repository.Store, cfg config.Config, role string) string {
	hash, err := crypto.HashPassword("dev-password")
	if err != nil {
		t.Fatalf("hash error: %v", err)
	}
	now := time.Now().UTC()
	user := model.User{
		ID:           uuid.NewString(),
		Name:         "Seeded " + role,
		Email:        role + "." + uuid.NewString() + "@example.local",
		PasswordHash: hash,
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := store.CreateUser(context.Background(), user); err != nil {
		t.Fatalf("seed user error: %v", err)
	}

	token, err := auth.NewAccessToken(cfg.JWTSecret, cfg.JWTIssuer, 10*time.Minute, auth.Claims{
		UserID: user.ID,
		Role:   user.Role,
		Email:  user.Email,
	})
	if err != nil {
		t.Fatalf("token error: %v", err)
	}
	return token
}

func doReq(t *testing.T, method, url, token string, body interface{}) *http.Response {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode error: %v", err)
		}
	}
	req, err := http.NewRequest(method, url, &buf)
	if err != nil {
		t.Fatalf("request error: %v", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("http error: %v", err)
	}
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, out interface{}) {
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		t.Fatalf("decode error: %v", err)
	}
}

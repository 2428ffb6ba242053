package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/abishekhariharan076/Academic-Emotional-Support-Portal/internal/model"
)

type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Users

func (s *Store) CreateUser(ctx context.Context, user model.User) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO users (id, name, email, password_hash, role, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, user.ID, user.Name, user.Email, user.PasswordHash, user.Role, user.CreatedAt, user.UpdatedAt)
	return err
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (model.User, error) {
	var user model.User
	row := s.pool.QueryRow(ctx, `
		SELECT id, name, email, password_hash, role, created_at, updated_at
		FROM users
		WHERE email = $1
	`, email)
	err := row.Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&user.PasswordHash,
		&user.Role,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	return user, err
}

func (s *Store) GetUserByID(ctx context.Context, userID string) (model.User, error) {
	var user model.User
	row := s.pool.QueryRow(ctx, `
		SELECT id, name, email, password_hash, role, created_at, updated_at
		FROM users
		WHERE id = $1
	`, userID)
	err := row.Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&user.PasswordHash,
		&user.Role,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	return user, err
}

func (s *Store) ListUsers(ctx context.Context) ([]model.User, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, name, email, password_hash, role, created_at, updated_at
		FROM users
		ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []model.User
	for rows.Next() {
		var user model.User
		if err := rows.Scan(
			&user.ID,
			&user.Name,
			&user.Email,
			&user.PasswordHash,
			&user.Role,
			&user.CreatedAt,
			&user.UpdatedAt,
		); err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

func (s *Store) CountUsers(ctx context.Context) (model.UserCounts, error) {
	var counts model.UserCounts
	row := s.pool.QueryRow(ctx, `
		SELECT count(*),
		       count(*) FILTER (WHERE role = 'student'),
		       count(*) FILTER (WHERE role = 'counselor'),
		       count(*) FILTER (WHERE role = 'admin')
		FROM users
	`)
	err := row.Scan(&counts.Total, &counts.Students, &counts.Counselors, &counts.Admins)
	return counts, err
}

// Check-ins

func (s *Store) CreateCheckIn(ctx context.Context, checkIn model.CheckIn) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO check_ins (id, author_id, mood_level, message, anonymous, status, counselor_note, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, checkIn.ID, checkIn.AuthorID, checkIn.MoodLevel, checkIn.Message, checkIn.Anonymous, checkIn.Status, checkIn.CounselorNote, checkIn.CreatedAt, checkIn.UpdatedAt)
	return err
}

func (s *Store) ListCheckInsByAuthor(ctx context.Context, authorID string) ([]model.CheckIn, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, author_id, mood_level, message, anonymous, status, counselor_note, created_at, updated_at
		FROM check_ins
		WHERE author_id = $1
		ORDER BY created_at DESC
	`, authorID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var checkIns []model.CheckIn
	for rows.Next() {
		var checkIn model.CheckIn
		if err := scanCheckIn(rows.Scan, &checkIn); err != nil {
			return nil, err
		}
		checkIns = append(checkIns, checkIn)
	}
	return checkIns, rows.Err()
}

func (s *Store) ListCheckIns(ctx context.Context) ([]model.CheckInWithAuthor, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT c.id, c.author_id, c.mood_level, c.message, c.anonymous, c.status, c.counselor_note, c.created_at, c.updated_at,
		       u.name, u.email
		FROM check_ins c
		JOIN users u ON u.id = c.author_id
		ORDER BY c.created_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var checkIns []model.CheckInWithAuthor
	for rows.Next() {
		var checkIn model.CheckInWithAuthor
		if err := rows.Scan(
			&checkIn.ID,
			&checkIn.AuthorID,
			&checkIn.MoodLevel,
			&checkIn.Message,
			&checkIn.Anonymous,
			&checkIn.Status,
			&checkIn.CounselorNote,
			&checkIn.CreatedAt,
			&checkIn.UpdatedAt,
			&checkIn.AuthorName,
			&checkIn.AuthorEmail,
		); err != nil {
			return nil, err
		}
		checkIns = append(checkIns, checkIn)
	}
	return checkIns, rows.Err()
}

// ReviewCheckIn moves a check-in to reviewed and sets the note in a
// single statement. Returns pgx.ErrNoRows when the id is unknown.
func (s *Store) ReviewCheckIn(ctx context.Context, checkInID, counselorNote string, reviewedAt time.Time) (model.CheckIn, error) {
	var checkIn model.CheckIn
	row := s.pool.QueryRow(ctx, `
		UPDATE check_ins
		SET status = 'reviewed', counselor_note = $2, updated_at = $3
		WHERE id = $1
		RETURNING id, author_id, mood_level, message, anonymous, status, counselor_note, created_at, updated_at
	`, checkInID, counselorNote, reviewedAt)
	err := scanCheckIn(row.Scan, &checkIn)
	return checkIn, err
}

func (s *Store) CountCheckIns(ctx context.Context, since time.Time) (model.CheckInCounts, error) {
	var counts model.CheckInCounts
	row := s.pool.QueryRow(ctx, `
		SELECT count(*),
		       count(*) FILTER (WHERE status = 'open'),
		       count(*) FILTER (WHERE status = 'reviewed'),
		       count(*) FILTER (WHERE created_at >= $1)
		FROM check_ins
	`, since)
	err := row.Scan(&counts.Total, &counts.Open, &counts.Reviewed, &counts.LastWindow)
	return counts, err
}

func scanCheckIn(scan func(dest ...any) error, checkIn *model.CheckIn) error {
	return scan(
		&checkIn.ID,
		&checkIn.AuthorID,
		&checkIn.MoodLevel,
		&checkIn.Message,
		&checkIn.Anonymous,
		&checkIn.Status,
		&checkIn.CounselorNote,
		&checkIn.CreatedAt,
		&checkIn.UpdatedAt,
	)
}

// Support requests

func (s *Store) CreateSupportRequest(ctx context.Context, request model.SupportRequest) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO support_requests (id, student_id, subject, message, anonymous, status, counselor_id, counselor_reply, responded_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`, request.ID, request.StudentID, request.Subject, request.Message, request.Anonymous, request.Status, request.CounselorID, request.CounselorReply, request.RespondedAt, request.CreatedAt, request.UpdatedAt)
	return err
}

func (s *Store) GetSupportRequest(ctx context.Context, requestID string) (model.SupportRequest, error) {
	var request model.SupportRequest
	row := s.pool.QueryRow(ctx, `
		SELECT id, student_id, subject, message, anonymous, status, counselor_id, counselor_reply, responded_at, created_at, updated_at
		FROM support_requests
		WHERE id = $1
	`, requestID)
	err := scanSupportRequest(row.Scan, &request)
	return request, err
}

func (s *Store) ListSupportRequestsByStudent(ctx context.Context, studentID string) ([]model.SupportRequest, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, student_id, subject, message, anonymous, status, counselor_id, counselor_reply, responded_at, created_at, updated_at
		FROM support_requests
		WHERE student_id = $1
		ORDER BY created_at DESC
	`, studentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var requests []model.SupportRequest
	for rows.Next() {
		var request model.SupportRequest
		if err := scanSupportRequest(rows.Scan, &request); err != nil {
			return nil, err
		}
		requests = append(requests, request)
	}
	return requests, rows.Err()
}

func (s *Store) ListSupportRequests(ctx context.Context) ([]model.SupportRequestWithStudent, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT r.id, r.student_id, r.subject, r.message, r.anonymous, r.status, r.counselor_id, r.counselor_reply, r.responded_at, r.created_at, r.updated_at,
		       u.name, u.email
		FROM support_requests r
		JOIN users u ON u.id = r.student_id
		ORDER BY r.created_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var requests []model.SupportRequestWithStudent
	for rows.Next() {
		var request model.SupportRequestWithStudent
		if err := rows.Scan(
			&request.ID,
			&request.StudentID,
			&request.Subject,
			&request.Message,
			&request.Anonymous,
			&request.Status,
			&request.CounselorID,
			&request.CounselorReply,
			&request.RespondedAt,
			&request.CreatedAt,
			&request.UpdatedAt,
			&request.StudentName,
			&request.StudentEmail,
		); err != nil {
			return nil, err
		}
		requests = append(requests, request)
	}
	return requests, rows.Err()
}

// RespondSupportRequest sets status, counselor and reply atomically.
// Returns pgx.ErrNoRows when the id is unknown.
func (s *Store) RespondSupportRequest(ctx context.Context, requestID, counselorID, counselorReply string, respondedAt time.Time) (model.SupportRequest, error) {
	var request model.SupportRequest
	row := s.pool.QueryRow(ctx, `
		UPDATE support_requests
		SET status = 'responded', counselor_id = $2, counselor_reply = $3, responded_at = $4, updated_at = $4
		WHERE id = $1
		RETURNING id, student_id, subject, message, anonymous, status, counselor_id, counselor_reply, responded_at, created_at, updated_at
	`, requestID, counselorID, counselorReply, respondedAt)
	err := scanSupportRequest(row.Scan, &request)
	return request, err
}

func (s *Store) DeleteSupportRequest(ctx context.Context, requestID string) (bool, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM support_requests WHERE id = $1`, requestID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func scanSupportRequest(scan func(dest ...any) error, request *model.SupportRequest) error {
	return scan(
		&request.ID,
		&request.StudentID,
		&request.Subject,
		&request.Message,
		&request.Anonymous,
		&request.Status,
		&request.CounselorID,
		&request.CounselorReply,
		&request.RespondedAt,
		&request.CreatedAt,
		&request.UpdatedAt,
	)
}

// Refresh sessions

func (s *Store) CreateRefreshSession(ctx context.Context, session model.RefreshSession) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO refresh_token_sessions (id, user_id, token_hash, created_at, expires_at, revoked_at, user_agent, ip_address)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, session.ID, session.UserID, session.TokenHash, session.CreatedAt, session.ExpiresAt, session.RevokedAt, session.UserAgent, session.IPAddress)
	return err
}

func (s *Store) GetRefreshSession(ctx context.Context, tokenHash string) (model.RefreshSession, error) {
	var session model.RefreshSession
	row := s.pool.QueryRow(ctx, `
		SELECT id, user_id, token_hash, created_at, expires_at, revoked_at, user_agent, ip_address
		FROM refresh_token_sessions
		WHERE token_hash = $1
	`, tokenHash)
	err := row.Scan(&session.ID, &session.UserID, &session.TokenHash, &session.CreatedAt, &session.ExpiresAt, &session.RevokedAt, &session.UserAgent, &session.IPAddress)
	return session, err
}

func (s *Store) RevokeRefreshSession(ctx context.Context, sessionID string, revokedAt time.Time) error {
	_, err := s.pool.Exec(ctx, `UPDATE refresh_token_sessions SET revoked_at = $1 WHERE id = $2 AND revoked_at IS NULL`, revokedAt, sessionID)
	return err
}

func (s *Store) RevokeRefreshSessionsByUser(ctx context.Context, userID string, revokedAt time.Time) error {
	_, err := s.pool.Exec(ctx, `UPDATE refresh_token_sessions SET revoked_at = $1 WHERE user_id = $2 AND revoked_at IS NULL`, revokedAt, userID)
	return err
}

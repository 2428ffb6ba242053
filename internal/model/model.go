package model

import "time"

const (
	RoleStudent   = "student"
	RoleCounselor = "counselor"
	RoleAdmin     = "admin"
)

const (
	CheckInOpen     = "open"
	CheckInReviewed = "reviewed"
)

const (
	RequestPending   = "pending"
	RequestResponded = "responded"
)

type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Role         string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type CheckIn struct {
	ID            string
	AuthorID      string
	MoodLevel     int
	Message       string
	Anonymous     bool
	Status        string
	CounselorNote string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// CheckInWithAuthor carries the author's identity for counselor listings.
// The author fields stay populated even for anonymous records; redaction
// happens at serialization time only.
type CheckInWithAuthor struct {
	CheckIn
	AuthorName  string
	AuthorEmail string
}

type SupportRequest struct {
	ID             string
	StudentID      string
	Subject        string
	Message        string
	Anonymous      bool
	Status         string
	CounselorID    *string
	CounselorReply string
	RespondedAt    *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

type SupportRequestWithStudent struct {
	SupportRequest
	StudentName  string
	StudentEmail string
}

type RefreshSession struct {
	ID        string
	UserID    string
	TokenHash string
	CreatedAt time.Time
	ExpiresAt time.Time
	RevokedAt *time.Time
	UserAgent *string
	IPAddress *string
}

type UserCounts struct {
	Total      int64
	Students   int64
	Counselors int64
	Admins     int64
}

type CheckInCounts struct {
	Total      int64
	Open       int64
	Reviewed   int64
	LastWindow int64
}

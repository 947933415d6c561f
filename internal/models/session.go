package models

import "time"

// SessionStatus enumerates lifecycle states of a course session.
type SessionStatus string

const (
	SessionPending   SessionStatus = "pending"
	SessionDone      SessionStatus = "done"
	SessionCancelled SessionStatus = "cancelled"
)

// Valid reports whether the status is a known value.
func (s SessionStatus) Valid() bool {
	switch s {
	case SessionPending, SessionDone, SessionCancelled:
		return true
	}
	return false
}

// CourseSession is one scheduled occurrence of a course on a specific date.
// Start and end times are wall-clock "HH:MM" strings; duration is always
// derived, never stored.
type CourseSession struct {
	ID           string        `db:"id" json:"id"`
	CourseID     string        `db:"course_id" json:"course_id"`
	Date         time.Time     `db:"date" json:"date"`
	StartTime    string        `db:"start_time" json:"start_time"`
	EndTime      string        `db:"end_time" json:"end_time"`
	TeacherID    string        `db:"teacher_id" json:"teacher_id"`
	Substitution bool          `db:"substitution" json:"substitution"`
	Status       SessionStatus `db:"status" json:"status"`
	ClassroomID  *string       `db:"classroom_id" json:"classroom_id,omitempty"`
	Modality     *string       `db:"modality" json:"modality,omitempty"`
	CreatedAt    time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time     `db:"updated_at" json:"updated_at"`
}

// SessionFilter captures filtering options for listing sessions.
type SessionFilter struct {
	CourseID  string
	TeacherID string
	Status    SessionStatus
	From      *time.Time
	To        *time.Time
	Page      int
	PageSize  int
	SortOrder string
}

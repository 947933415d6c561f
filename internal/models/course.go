package models

import "time"

// Course is a named teaching offering with a default teacher and classroom.
type Course struct {
	ID          string    `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	Level       *string   `db:"level" json:"level,omitempty"`
	TeacherID   *string   `db:"teacher_id" json:"teacher_id,omitempty"`
	ClassroomID *string   `db:"classroom_id" json:"classroom_id,omitempty"`
	MonthlyFee  float64   `db:"monthly_fee" json:"monthly_fee"`
	Active      bool      `db:"active" json:"active"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// ScheduleSlot is one recurring weekly time block of a course. Slots are
// materialized into concrete sessions for a date range.
type ScheduleSlot struct {
	ID        string       `db:"id" json:"id"`
	CourseID  string       `db:"course_id" json:"course_id"`
	Weekday   time.Weekday `db:"weekday" json:"weekday"`
	StartTime string       `db:"start_time" json:"start_time"`
	EndTime   string       `db:"end_time" json:"end_time"`
}

// CourseFilter captures filtering options for listing courses.
type CourseFilter struct {
	Search    string
	Active    *bool
	TeacherID string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

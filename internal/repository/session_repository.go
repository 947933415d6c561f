package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/aulanet/academia-api/internal/models"
)

const sessionColumns = "id, course_id, date, start_time, end_time, teacher_id, substitution, status, classroom_id, modality, created_at, updated_at"

// SessionRepository manages persistence for course sessions.
type SessionRepository struct {
	db *sqlx.DB
}

// NewSessionRepository constructs a SessionRepository.
func NewSessionRepository(db *sqlx.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// List returns sessions matching filters along with total count.
func (r *SessionRepository) List(ctx context.Context, filter models.SessionFilter) ([]models.CourseSession, int, error) {
	base := "FROM course_sessions WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.CourseID != "" {
		conditions = append(conditions, fmt.Sprintf("course_id = $%d", len(args)+1))
		args = append(args, filter.CourseID)
	}
	if filter.TeacherID != "" {
		conditions = append(conditions, fmt.Sprintf("teacher_id = $%d", len(args)+1))
		args = append(args, filter.TeacherID)
	}
	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)+1))
		args = append(args, filter.Status)
	}
	if filter.From != nil {
		conditions = append(conditions, fmt.Sprintf("date >= $%d", len(args)+1))
		args = append(args, *filter.From)
	}
	if filter.To != nil {
		conditions = append(conditions, fmt.Sprintf("date <= $%d", len(args)+1))
		args = append(args, *filter.To)
	}

	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	order := sortOrder(filter.SortOrder)
	if filter.SortOrder == "" {
		order = "ASC"
	}
	limit, offset := pageBounds(filter.Page, filter.PageSize)

	query := fmt.Sprintf("SELECT %s %s ORDER BY date %s, start_time %s LIMIT %d OFFSET %d", sessionColumns, base, order, order, limit, offset)
	var sessions []models.CourseSession
	if err := r.db.SelectContext(ctx, &sessions, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list sessions: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count sessions: %w", err)
	}

	return sessions, total, nil
}

// ListByTeacherAndRange returns a teacher's sessions with dates inside the
// inclusive [from, to] window, used by the monthly hours report.
func (r *SessionRepository) ListByTeacherAndRange(ctx context.Context, teacherID string, from, to time.Time) ([]models.CourseSession, error) {
	query := fmt.Sprintf("SELECT %s FROM course_sessions WHERE teacher_id = $1 AND date >= $2 AND date <= $3 ORDER BY date, start_time", sessionColumns)
	var sessions []models.CourseSession
	if err := r.db.SelectContext(ctx, &sessions, query, teacherID, from, to); err != nil {
		return nil, fmt.Errorf("list teacher sessions: %w", err)
	}
	return sessions, nil
}

// FindByID fetches a session by ID.
func (r *SessionRepository) FindByID(ctx context.Context, id string) (*models.CourseSession, error) {
	query := fmt.Sprintf("SELECT %s FROM course_sessions WHERE id = $1", sessionColumns)
	var session models.CourseSession
	if err := r.db.GetContext(ctx, &session, query, id); err != nil {
		return nil, err
	}
	return &session, nil
}

// ExistsAt checks for a session of the same course at the same date and
// start time, used to skip duplicates while materializing schedules.
func (r *SessionRepository) ExistsAt(ctx context.Context, courseID string, date time.Time, startTime string) (bool, error) {
	const query = `SELECT 1 FROM course_sessions WHERE course_id = $1 AND date = $2 AND start_time = $3 LIMIT 1`
	var exists int
	if err := r.db.GetContext(ctx, &exists, query, courseID, date, startTime); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check session existence: %w", err)
	}
	return true, nil
}

// Create inserts a new session record.
func (r *SessionRepository) Create(ctx context.Context, session *models.CourseSession) error {
	if session.ID == "" {
		session.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if session.CreatedAt.IsZero() {
		session.CreatedAt = now
	}
	session.UpdatedAt = now

	const query = `INSERT INTO course_sessions (id, course_id, date, start_time, end_time, teacher_id, substitution, status, classroom_id, modality, created_at, updated_at)
		VALUES (:id, :course_id, :date, :start_time, :end_time, :teacher_id, :substitution, :status, :classroom_id, :modality, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, session); err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	return nil
}

// Update modifies an existing session record.
func (r *SessionRepository) Update(ctx context.Context, session *models.CourseSession) error {
	session.UpdatedAt = time.Now().UTC()

	const query = `UPDATE course_sessions SET date = :date, start_time = :start_time, end_time = :end_time,
		teacher_id = :teacher_id, substitution = :substitution, status = :status, classroom_id = :classroom_id,
		modality = :modality, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, session); err != nil {
		return fmt.Errorf("update session: %w", err)
	}
	return nil
}

// Delete removes a session record.
func (r *SessionRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM course_sessions WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

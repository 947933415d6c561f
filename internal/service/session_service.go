package service

import (
	"context"
	"database/sql"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/aulanet/academia-api/internal/models"
	appErrors "github.com/aulanet/academia-api/pkg/errors"
)

type sessionRepository interface {
	List(ctx context.Context, filter models.SessionFilter) ([]models.CourseSession, int, error)
	FindByID(ctx context.Context, id string) (*models.CourseSession, error)
	ExistsAt(ctx context.Context, courseID string, date time.Time, startTime string) (bool, error)
	Create(ctx context.Context, session *models.CourseSession) error
	Update(ctx context.Context, session *models.CourseSession) error
	Delete(ctx context.Context, id string) error
}

type sessionCourseRepository interface {
	FindByID(ctx context.Context, id string) (*models.Course, error)
	ListSlots(ctx context.Context, courseID string) ([]models.ScheduleSlot, error)
}

// CreateSessionRequest represents payload for manual session creation.
type CreateSessionRequest struct {
	CourseID     string    `json:"course_id" validate:"required"`
	Date         time.Time `json:"date" validate:"required"`
	StartTime    string    `json:"start_time" validate:"required"`
	EndTime      string    `json:"end_time" validate:"required"`
	TeacherID    string    `json:"teacher_id" validate:"required"`
	Substitution bool      `json:"substitution"`
	ClassroomID  *string   `json:"classroom_id"`
	Modality     *string   `json:"modality"`
}

// UpdateSessionRequest represents payload for session updates such as
// status changes, teacher reassignment or substitution marking.
type UpdateSessionRequest struct {
	Date         *time.Time            `json:"date"`
	StartTime    *string               `json:"start_time"`
	EndTime      *string               `json:"end_time"`
	TeacherID    *string               `json:"teacher_id"`
	Substitution *bool                 `json:"substitution"`
	Status       *models.SessionStatus `json:"status"`
	ClassroomID  *string               `json:"classroom_id"`
	Modality     *string               `json:"modality"`
}

// MaterializeRequest expands a course's weekly slots into sessions.
type MaterializeRequest struct {
	CourseID string    `json:"course_id" validate:"required"`
	From     time.Time `json:"from" validate:"required"`
	To       time.Time `json:"to" validate:"required"`
}

// MaterializeResult summarises a materialization run.
type MaterializeResult struct {
	Created int `json:"created"`
	Skipped int `json:"skipped"`
}

// SessionService orchestrates course session operations.
type SessionService struct {
	repo      sessionRepository
	courses   sessionCourseRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewSessionService constructs a SessionService.
func NewSessionService(repo sessionRepository, courses sessionCourseRepository, validate *validator.Validate, logger *zap.Logger) *SessionService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionService{repo: repo, courses: courses, validator: validate, logger: logger}
}

// List returns sessions plus pagination data.
func (s *SessionService) List(ctx context.Context, filter models.SessionFilter) ([]models.CourseSession, *models.Pagination, error) {
	sessions, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list sessions")
	}
	return sessions, paginationFor(filter.Page, filter.PageSize, total), nil
}

// Get returns a session by id.
func (s *SessionService) Get(ctx context.Context, id string) (*models.CourseSession, error) {
	session, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "session not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load session")
	}
	return session, nil
}

// Create registers a manual session.
func (s *SessionService) Create(ctx context.Context, req CreateSessionRequest) (*models.CourseSession, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid session payload")
	}
	if err := validateClockRange(req.StartTime, req.EndTime); err != nil {
		return nil, err
	}
	if _, err := s.courses.FindByID(ctx, req.CourseID); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}

	session := &models.CourseSession{
		CourseID:     req.CourseID,
		Date:         dateOnly(req.Date),
		StartTime:    req.StartTime,
		EndTime:      req.EndTime,
		TeacherID:    req.TeacherID,
		Substitution: req.Substitution,
		Status:       models.SessionPending,
		ClassroomID:  normalizeOptional(req.ClassroomID),
		Modality:     normalizeOptional(req.Modality),
	}

	if err := s.repo.Create(ctx, session); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create session")
	}
	return session, nil
}

// Update applies partial changes to a session. The second return value
// is the teacher the session belonged to before the change, so callers
// can refresh derived hours for both sides of a reassignment.
func (s *SessionService) Update(ctx context.Context, id string, req UpdateSessionRequest) (*models.CourseSession, string, error) {
	session, err := s.Get(ctx, id)
	if err != nil {
		return nil, "", err
	}
	previousTeacher := session.TeacherID

	if req.Date != nil {
		session.Date = dateOnly(*req.Date)
	}
	if req.StartTime != nil {
		session.StartTime = *req.StartTime
	}
	if req.EndTime != nil {
		session.EndTime = *req.EndTime
	}
	if err := validateClockRange(session.StartTime, session.EndTime); err != nil {
		return nil, "", err
	}
	if req.TeacherID != nil && *req.TeacherID != "" {
		session.TeacherID = *req.TeacherID
	}
	if req.Substitution != nil {
		session.Substitution = *req.Substitution
	}
	if req.Status != nil {
		if !req.Status.Valid() {
			return nil, "", appErrors.Clone(appErrors.ErrValidation, "unknown session status")
		}
		session.Status = *req.Status
	}
	if req.ClassroomID != nil {
		session.ClassroomID = normalizeOptional(req.ClassroomID)
	}
	if req.Modality != nil {
		session.Modality = normalizeOptional(req.Modality)
	}

	if err := s.repo.Update(ctx, session); err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update session")
	}
	return session, previousTeacher, nil
}

// Delete removes a session and returns the removed record. Completed
// sessions are kept for the hours report and cannot be deleted.
func (s *SessionService) Delete(ctx context.Context, id string) (*models.CourseSession, error) {
	session, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if session.Status == models.SessionDone {
		return nil, appErrors.Clone(appErrors.ErrSessionDone, "completed sessions cannot be deleted")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete session")
	}
	return session, nil
}

// Materialize expands the course's weekly schedule slots into concrete
// pending sessions over the inclusive [from, to] range, skipping dates
// that already carry a session at the same start time.
func (s *SessionService) Materialize(ctx context.Context, req MaterializeRequest) (*MaterializeResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid materialize payload")
	}
	from := dateOnly(req.From)
	to := dateOnly(req.To)
	if to.Before(from) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "range end precedes start")
	}

	course, err := s.courses.FindByID(ctx, req.CourseID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	if course.TeacherID == nil || *course.TeacherID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "course has no default teacher")
	}

	slots, err := s.courses.ListSlots(ctx, req.CourseID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load schedule slots")
	}

	slotsByWeekday := make(map[time.Weekday][]models.ScheduleSlot)
	for _, slot := range slots {
		slotsByWeekday[slot.Weekday] = append(slotsByWeekday[slot.Weekday], slot)
	}

	result := &MaterializeResult{}
	for day := from; !day.After(to); day = day.AddDate(0, 0, 1) {
		for _, slot := range slotsByWeekday[day.Weekday()] {
			exists, err := s.repo.ExistsAt(ctx, course.ID, day, slot.StartTime)
			if err != nil {
				return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check existing session")
			}
			if exists {
				result.Skipped++
				continue
			}
			session := &models.CourseSession{
				CourseID:    course.ID,
				Date:        day,
				StartTime:   slot.StartTime,
				EndTime:     slot.EndTime,
				TeacherID:   *course.TeacherID,
				Status:      models.SessionPending,
				ClassroomID: course.ClassroomID,
			}
			if err := s.repo.Create(ctx, session); err != nil {
				return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create session")
			}
			result.Created++
		}
	}

	s.logger.Info("schedule materialized",
		zap.String("course_id", course.ID),
		zap.Int("created", result.Created),
		zap.Int("skipped", result.Skipped))
	return result, nil
}

func validateClockRange(start, end string) error {
	startMin, err := clockMinutes(start)
	if err != nil {
		return appErrors.Clone(appErrors.ErrValidation, "invalid start time")
	}
	endMin, err := clockMinutes(end)
	if err != nil {
		return appErrors.Clone(appErrors.ErrValidation, "invalid end time")
	}
	if endMin <= startMin {
		return appErrors.Clone(appErrors.ErrValidation, "session must end after it starts")
	}
	return nil
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

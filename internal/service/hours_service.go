package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/aulanet/academia-api/internal/dto"
	"github.com/aulanet/academia-api/internal/models"
	appErrors "github.com/aulanet/academia-api/pkg/errors"
	"github.com/aulanet/academia-api/pkg/export"
	"github.com/aulanet/academia-api/pkg/jobs"
)

type hoursSessionRepository interface {
	ListByTeacherAndRange(ctx context.Context, teacherID string, from, to time.Time) ([]models.CourseSession, error)
}

type hoursCourseRepository interface {
	ListAll(ctx context.Context) ([]models.Course, error)
}

type hoursClassroomRepository interface {
	ListAll(ctx context.Context) ([]models.Classroom, error)
}

type hoursWarmDispatcher interface {
	Enqueue(job jobs.Job) error
}

// warmJobKind labels cache warmup jobs on the background queue.
const warmJobKind = "hours.warm"

// unknownLocation is reported when neither the session nor its course
// resolves to a known classroom.
const unknownLocation = "N/A"

// HoursService produces per-teacher monthly teaching-hours summaries.
type HoursService struct {
	sessions   hoursSessionRepository
	courses    hoursCourseRepository
	classrooms hoursClassroomRepository
	cache      *CacheService
	warm       hoursWarmDispatcher
	exporter   *export.CSVExporter
	cacheTTL   time.Duration
	logger     *zap.Logger
}

// NewHoursService constructs a HoursService. warm may be nil; summaries
// are then recomputed lazily on the next read after an invalidation.
func NewHoursService(sessions hoursSessionRepository, courses hoursCourseRepository, classrooms hoursClassroomRepository, cache *CacheService, warm hoursWarmDispatcher, cacheTTL time.Duration, logger *zap.Logger) *HoursService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HoursService{
		sessions:   sessions,
		courses:    courses,
		classrooms: classrooms,
		cache:      cache,
		warm:       warm,
		exporter:   export.NewCSVExporter(),
		cacheTTL:   cacheTTL,
		logger:     logger,
	}
}

// MonthlySummary returns the teaching-hours breakdown for one teacher in
// the calendar month containing ref. A teacher without completed sessions
// yields an all-zero summary rather than an error.
func (s *HoursService) MonthlySummary(ctx context.Context, teacherID string, ref time.Time) (*dto.TeacherMonthlyHours, error) {
	cacheKey := fmt.Sprintf("hours:%s:%04d-%02d", teacherID, ref.Year(), int(ref.Month()))
	cached := &dto.TeacherMonthlyHours{}
	if hit, _ := s.cache.Get(ctx, cacheKey, cached); hit {
		return cached, nil
	}

	first := time.Date(ref.Year(), ref.Month(), 1, 0, 0, 0, 0, ref.Location())
	last := first.AddDate(0, 1, -1)

	sessions, err := s.sessions.ListByTeacherAndRange(ctx, teacherID, first, last)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load sessions")
	}
	courses, err := s.courses.ListAll(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load courses")
	}
	classrooms, err := s.classrooms.ListAll(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load classrooms")
	}

	summary := buildMonthlySummary(teacherID, ref, sessions, courses, classrooms)

	if err := s.cache.Set(ctx, cacheKey, summary, s.cacheTTL); err != nil {
		s.logger.Warn("hours summary cache write failed", zap.Error(err))
	}
	return summary, nil
}

// MonthlySummaryCSV renders the monthly summary as a CSV document.
func (s *HoursService) MonthlySummaryCSV(ctx context.Context, teacherID string, ref time.Time) ([]byte, error) {
	summary, err := s.MonthlySummary(ctx, teacherID, ref)
	if err != nil {
		return nil, err
	}

	headers := []string{"course", "hours", "substitution_hours", "location"}
	rows := make([]map[string]string, 0, len(summary.Courses)+1)
	for _, course := range summary.Courses {
		rows = append(rows, map[string]string{
			"course":             course.CourseName,
			"hours":              formatHours(course.Hours),
			"substitution_hours": formatHours(course.SubstitutionHours),
			"location":           course.Location,
		})
	}
	rows = append(rows, map[string]string{
		"course":             "TOTAL",
		"hours":              formatHours(summary.TotalHours),
		"substitution_hours": formatHours(summary.TotalSubstitutionHours),
		"location":           "",
	})

	data, err := s.exporter.Render(export.Dataset{Headers: headers, Rows: rows})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render hours csv")
	}
	return data, nil
}

// InvalidateTeacher drops cached summaries for a teacher, e.g. after one
// of their sessions changes, and queues a warmup for the current month.
func (s *HoursService) InvalidateTeacher(ctx context.Context, teacherID string) {
	if err := s.cache.Invalidate(ctx, fmt.Sprintf("hours:%s:*", teacherID)); err != nil {
		s.logger.Warn("hours cache invalidation failed", zap.String("teacher_id", teacherID), zap.Error(err))
	}
	if s.warm == nil {
		return
	}
	job := jobs.Job{ID: teacherID, Kind: warmJobKind, Payload: time.Now().UTC()}
	if err := s.warm.Enqueue(job); err != nil {
		s.logger.Warn("hours warmup enqueue failed", zap.String("teacher_id", teacherID), zap.Error(err))
	}
}

// WarmupHandler adapts the service to the job queue. The job ID carries
// the teacher and the payload the reference month.
func (s *HoursService) WarmupHandler() jobs.Handler {
	return func(ctx context.Context, job jobs.Job) error {
		ref, ok := job.Payload.(time.Time)
		if !ok {
			return nil
		}
		_, err := s.MonthlySummary(ctx, job.ID, ref)
		return err
	}
}

// buildMonthlySummary is the pure aggregation behind the monthly report.
// Only completed sessions dated inside the month count. Substitution
// teaching accumulates separately and is excluded from TotalHours, which
// covers a teacher's regular load only. Sessions whose course no longer
// resolves are skipped; a missing classroom degrades to the unknown
// location marker instead of an error.
func buildMonthlySummary(teacherID string, ref time.Time, sessions []models.CourseSession, courses []models.Course, classrooms []models.Classroom) *dto.TeacherMonthlyHours {
	first := time.Date(ref.Year(), ref.Month(), 1, 0, 0, 0, 0, ref.Location())
	next := first.AddDate(0, 1, 0)

	coursesByID := make(map[string]models.Course, len(courses))
	for _, course := range courses {
		coursesByID[course.ID] = course
	}
	classroomsByID := make(map[string]models.Classroom, len(classrooms))
	for _, classroom := range classrooms {
		classroomsByID[classroom.ID] = classroom
	}

	summary := &dto.TeacherMonthlyHours{
		TeacherID: teacherID,
		Year:      first.Year(),
		Month:     int(first.Month()),
		Courses:   []dto.CourseHours{},
	}
	// course id -> index into summary.Courses, preserving first-encounter order
	indexByCourse := make(map[string]int)

	for _, session := range sessions {
		if session.TeacherID != teacherID || session.Status != models.SessionDone {
			continue
		}
		if session.Date.Before(first) || !session.Date.Before(next) {
			continue
		}
		course, ok := coursesByID[session.CourseID]
		if !ok {
			continue
		}

		duration := sessionHours(session)

		idx, ok := indexByCourse[course.ID]
		if !ok {
			idx = len(summary.Courses)
			indexByCourse[course.ID] = idx
			summary.Courses = append(summary.Courses, dto.CourseHours{
				CourseID:   course.ID,
				CourseName: course.Name,
				Location:   resolveLocation(session, course, classroomsByID),
			})
		}

		if session.Substitution {
			summary.Courses[idx].SubstitutionHours += duration
			summary.TotalSubstitutionHours += duration
		} else {
			summary.Courses[idx].Hours += duration
			summary.TotalHours += duration
		}
	}

	return summary
}

// sessionHours derives the decimal-hour duration of a session from its
// "HH:MM" bounds. Durations are not validated here; a mis-entered session
// contributes whatever the arithmetic says, matching the scheduling UI's
// contract that bounds are checked at entry time.
func sessionHours(session models.CourseSession) float64 {
	start, err := clockMinutes(session.StartTime)
	if err != nil {
		return 0
	}
	end, err := clockMinutes(session.EndTime)
	if err != nil {
		return 0
	}
	return float64(end-start) / 60
}

func resolveLocation(session models.CourseSession, course models.Course, classroomsByID map[string]models.Classroom) string {
	classroomID := ""
	if session.ClassroomID != nil && *session.ClassroomID != "" {
		classroomID = *session.ClassroomID
	} else if course.ClassroomID != nil {
		classroomID = *course.ClassroomID
	}
	if classroom, ok := classroomsByID[classroomID]; ok {
		return classroom.Location
	}
	return unknownLocation
}

func formatHours(hours float64) string {
	return strconv.FormatFloat(hours, 'f', -1, 64)
}

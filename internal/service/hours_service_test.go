package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aulanet/academia-api/internal/models"
	"github.com/aulanet/academia-api/pkg/jobs"
)

type fakeHoursSessions struct {
	sessions []models.CourseSession
	err      error
}

func (f *fakeHoursSessions) ListByTeacherAndRange(context.Context, string, time.Time, time.Time) ([]models.CourseSession, error) {
	return f.sessions, f.err
}

type fakeHoursCourses struct {
	courses []models.Course
	err     error
}

func (f *fakeHoursCourses) ListAll(context.Context) ([]models.Course, error) {
	return f.courses, f.err
}

type fakeHoursClassrooms struct {
	classrooms []models.Classroom
	err        error
}

func (f *fakeHoursClassrooms) ListAll(context.Context) ([]models.Classroom, error) {
	return f.classrooms, f.err
}

func hoursSession(teacherID, courseID string, date time.Time, start, end string, substitution bool, status models.SessionStatus) models.CourseSession {
	return models.CourseSession{
		ID:           courseID + "-" + date.Format("20060102") + "-" + start,
		CourseID:     courseID,
		Date:         date,
		StartTime:    start,
		EndTime:      end,
		TeacherID:    teacherID,
		Substitution: substitution,
		Status:       status,
	}
}

func TestBuildMonthlySummarySplitsSubstitutionHours(t *testing.T) {
	ref := time.Date(2025, time.March, 15, 0, 0, 0, 0, time.UTC)
	courses := []models.Course{{ID: "course-a", Name: "Inglés B2"}}
	sessions := []models.CourseSession{
		hoursSession("teacher-1", "course-a", time.Date(2025, time.March, 3, 0, 0, 0, 0, time.UTC), "10:00", "11:00", false, models.SessionDone),
		hoursSession("teacher-1", "course-a", time.Date(2025, time.March, 10, 0, 0, 0, 0, time.UTC), "17:00", "18:30", true, models.SessionDone),
	}

	summary := buildMonthlySummary("teacher-1", ref, sessions, courses, nil)

	require.Len(t, summary.Courses, 1)
	assert.Equal(t, 1.0, summary.Courses[0].Hours)
	assert.Equal(t, 1.5, summary.Courses[0].SubstitutionHours)
	assert.Equal(t, 1.0, summary.TotalHours)
	assert.Equal(t, 1.5, summary.TotalSubstitutionHours)
}

func TestBuildMonthlySummaryIgnoresIncompleteSessions(t *testing.T) {
	ref := time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC)
	courses := []models.Course{{ID: "course-a", Name: "Inglés B2"}}
	day := time.Date(2025, time.March, 5, 0, 0, 0, 0, time.UTC)
	sessions := []models.CourseSession{
		hoursSession("teacher-1", "course-a", day, "10:00", "11:00", false, models.SessionPending),
		hoursSession("teacher-1", "course-a", day, "11:00", "12:00", false, models.SessionCancelled),
		hoursSession("teacher-1", "course-a", day, "12:00", "13:00", false, models.SessionDone),
	}

	summary := buildMonthlySummary("teacher-1", ref, sessions, courses, nil)

	assert.Equal(t, 1.0, summary.TotalHours)
}

func TestBuildMonthlySummaryMonthBoundaries(t *testing.T) {
	ref := time.Date(2025, time.March, 20, 0, 0, 0, 0, time.UTC)
	courses := []models.Course{{ID: "course-a", Name: "Inglés B2"}}
	sessions := []models.CourseSession{
		// last day of the month counts
		hoursSession("teacher-1", "course-a", time.Date(2025, time.March, 31, 0, 0, 0, 0, time.UTC), "10:00", "11:00", false, models.SessionDone),
		// first day of the next month does not
		hoursSession("teacher-1", "course-a", time.Date(2025, time.April, 1, 0, 0, 0, 0, time.UTC), "10:00", "11:00", false, models.SessionDone),
		// previous month does not
		hoursSession("teacher-1", "course-a", time.Date(2025, time.February, 28, 0, 0, 0, 0, time.UTC), "10:00", "11:00", false, models.SessionDone),
	}

	summary := buildMonthlySummary("teacher-1", ref, sessions, courses, nil)

	assert.Equal(t, 1.0, summary.TotalHours)
	assert.Equal(t, 2025, summary.Year)
	assert.Equal(t, 3, summary.Month)
}

func TestBuildMonthlySummarySkipsOtherTeachersAndUnknownCourses(t *testing.T) {
	ref := time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC)
	courses := []models.Course{{ID: "course-a", Name: "Inglés B2"}}
	day := time.Date(2025, time.March, 5, 0, 0, 0, 0, time.UTC)
	sessions := []models.CourseSession{
		hoursSession("teacher-2", "course-a", day, "10:00", "11:00", false, models.SessionDone),
		hoursSession("teacher-1", "course-gone", day, "10:00", "11:00", false, models.SessionDone),
	}

	summary := buildMonthlySummary("teacher-1", ref, sessions, courses, nil)

	assert.Empty(t, summary.Courses)
	assert.Zero(t, summary.TotalHours)
}

func TestBuildMonthlySummaryCourseOrderAndLocation(t *testing.T) {
	ref := time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC)
	roomID := "room-1"
	courses := []models.Course{
		{ID: "course-b", Name: "Francés A1", ClassroomID: &roomID},
		{ID: "course-a", Name: "Inglés B2"},
	}
	classrooms := []models.Classroom{{ID: "room-1", Name: "Aula 1", Location: "Planta 1"}}
	sessions := []models.CourseSession{
		hoursSession("teacher-1", "course-a", time.Date(2025, time.March, 3, 0, 0, 0, 0, time.UTC), "10:00", "11:00", false, models.SessionDone),
		hoursSession("teacher-1", "course-b", time.Date(2025, time.March, 4, 0, 0, 0, 0, time.UTC), "10:00", "11:00", false, models.SessionDone),
		hoursSession("teacher-1", "course-a", time.Date(2025, time.March, 10, 0, 0, 0, 0, time.UTC), "10:00", "11:00", false, models.SessionDone),
	}

	summary := buildMonthlySummary("teacher-1", ref, sessions, courses, classrooms)

	require.Len(t, summary.Courses, 2)
	// groups appear in first-session order, not course list order
	assert.Equal(t, "course-a", summary.Courses[0].CourseID)
	assert.Equal(t, "course-b", summary.Courses[1].CourseID)
	assert.Equal(t, unknownLocation, summary.Courses[0].Location)
	assert.Equal(t, "Planta 1", summary.Courses[1].Location)
	assert.Equal(t, 2.0, summary.Courses[0].Hours)
}

func TestSessionHours(t *testing.T) {
	base := models.CourseSession{StartTime: "17:00", EndTime: "18:30"}
	assert.Equal(t, 1.5, sessionHours(base))

	malformed := models.CourseSession{StartTime: "bad", EndTime: "18:30"}
	assert.Zero(t, sessionHours(malformed))

	// inverted bounds are not corrected here
	inverted := models.CourseSession{StartTime: "18:00", EndTime: "17:00"}
	assert.Equal(t, -1.0, sessionHours(inverted))
}

func TestMonthlySummaryEmptyMonth(t *testing.T) {
	svc := NewHoursService(&fakeHoursSessions{}, &fakeHoursCourses{}, &fakeHoursClassrooms{}, nil, nil, 0, nil)

	summary, err := svc.MonthlySummary(context.Background(), "teacher-1", time.Date(2025, time.July, 1, 0, 0, 0, 0, time.UTC))

	require.NoError(t, err)
	assert.Equal(t, "teacher-1", summary.TeacherID)
	assert.Zero(t, summary.TotalHours)
	assert.Empty(t, summary.Courses)
}

func TestMonthlySummaryCSV(t *testing.T) {
	courses := []models.Course{{ID: "course-a", Name: "Inglés B2"}}
	sessions := []models.CourseSession{
		hoursSession("teacher-1", "course-a", time.Date(2025, time.March, 3, 0, 0, 0, 0, time.UTC), "10:00", "11:30", false, models.SessionDone),
	}
	svc := NewHoursService(&fakeHoursSessions{sessions: sessions}, &fakeHoursCourses{courses: courses}, &fakeHoursClassrooms{}, nil, nil, 0, nil)

	data, err := svc.MonthlySummaryCSV(context.Background(), "teacher-1", time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC))

	require.NoError(t, err)
	out := string(data)
	assert.Contains(t, out, "Inglés B2")
	assert.Contains(t, out, "1.5")
	assert.True(t, strings.Contains(out, "TOTAL"))
}

type fakeWarmDispatcher struct {
	enqueued []jobs.Job
	err      error
}

func (f *fakeWarmDispatcher) Enqueue(job jobs.Job) error {
	if f.err != nil {
		return f.err
	}
	f.enqueued = append(f.enqueued, job)
	return nil
}

func TestInvalidateTeacherQueuesWarmup(t *testing.T) {
	warm := &fakeWarmDispatcher{}
	svc := NewHoursService(&fakeHoursSessions{}, &fakeHoursCourses{}, &fakeHoursClassrooms{}, nil, warm, 0, nil)

	svc.InvalidateTeacher(context.Background(), "teacher-1")

	require.Len(t, warm.enqueued, 1)
	assert.Equal(t, "teacher-1", warm.enqueued[0].ID)
	assert.Equal(t, warmJobKind, warm.enqueued[0].Kind)
	_, ok := warm.enqueued[0].Payload.(time.Time)
	assert.True(t, ok)
}

func TestWarmupHandlerRecomputesSummary(t *testing.T) {
	sessionsRepo := &fakeHoursSessions{sessions: []models.CourseSession{
		hoursSession("teacher-1", "course-a", time.Date(2025, time.March, 3, 0, 0, 0, 0, time.UTC), "10:00", "11:00", false, models.SessionDone),
	}}
	svc := NewHoursService(sessionsRepo, &fakeHoursCourses{courses: []models.Course{{ID: "course-a", Name: "Inglés B2"}}}, &fakeHoursClassrooms{}, nil, nil, 0, nil)

	handle := svc.WarmupHandler()
	err := handle(context.Background(), jobs.Job{ID: "teacher-1", Kind: warmJobKind, Payload: time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC)})
	require.NoError(t, err)

	// jobs carrying an unusable payload are dropped, not retried
	err = handle(context.Background(), jobs.Job{ID: "teacher-1", Kind: warmJobKind, Payload: "2025-03"})
	assert.NoError(t, err)
}

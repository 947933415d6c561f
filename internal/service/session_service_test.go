package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aulanet/academia-api/internal/models"
	appErrors "github.com/aulanet/academia-api/pkg/errors"
)

type fakeSessionRepo struct {
	sessions map[string]*models.CourseSession
	existing map[string]bool
	created  []*models.CourseSession
	deleted  []string
}

func (f *fakeSessionRepo) List(context.Context, models.SessionFilter) ([]models.CourseSession, int, error) {
	return nil, 0, nil
}

func (f *fakeSessionRepo) FindByID(_ context.Context, id string) (*models.CourseSession, error) {
	session, ok := f.sessions[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return session, nil
}

func (f *fakeSessionRepo) ExistsAt(_ context.Context, courseID string, date time.Time, startTime string) (bool, error) {
	return f.existing[courseID+date.Format("2006-01-02")+startTime], nil
}

func (f *fakeSessionRepo) Create(_ context.Context, session *models.CourseSession) error {
	f.created = append(f.created, session)
	return nil
}

func (f *fakeSessionRepo) Update(context.Context, *models.CourseSession) error {
	return nil
}

func (f *fakeSessionRepo) Delete(_ context.Context, id string) error {
	f.deleted = append(f.deleted, id)
	return nil
}

type fakeSessionCourses struct {
	course *models.Course
	slots  []models.ScheduleSlot
}

func (f *fakeSessionCourses) FindByID(context.Context, string) (*models.Course, error) {
	if f.course == nil {
		return nil, sql.ErrNoRows
	}
	return f.course, nil
}

func (f *fakeSessionCourses) ListSlots(context.Context, string) ([]models.ScheduleSlot, error) {
	return f.slots, nil
}

func TestMaterializeCreatesPendingSessions(t *testing.T) {
	teacherID := "teacher-1"
	repo := &fakeSessionRepo{existing: map[string]bool{}}
	courses := &fakeSessionCourses{
		course: &models.Course{ID: "course-a", TeacherID: &teacherID},
		slots: []models.ScheduleSlot{
			{Weekday: time.Monday, StartTime: "10:00", EndTime: "11:00"},
			{Weekday: time.Wednesday, StartTime: "17:00", EndTime: "18:30"},
		},
	}
	svc := NewSessionService(repo, courses, nil, nil)

	// 2025-03-03 is a Monday; two full weeks
	result, err := svc.Materialize(context.Background(), MaterializeRequest{
		CourseID: "course-a",
		From:     time.Date(2025, time.March, 3, 0, 0, 0, 0, time.UTC),
		To:       time.Date(2025, time.March, 16, 0, 0, 0, 0, time.UTC),
	})

	require.NoError(t, err)
	assert.Equal(t, 4, result.Created)
	assert.Zero(t, result.Skipped)
	require.Len(t, repo.created, 4)
	for _, session := range repo.created {
		assert.Equal(t, models.SessionPending, session.Status)
		assert.Equal(t, teacherID, session.TeacherID)
		assert.False(t, session.Substitution)
	}
}

func TestMaterializeSkipsExistingSessions(t *testing.T) {
	teacherID := "teacher-1"
	repo := &fakeSessionRepo{existing: map[string]bool{
		"course-a" + "2025-03-03" + "10:00": true,
	}}
	courses := &fakeSessionCourses{
		course: &models.Course{ID: "course-a", TeacherID: &teacherID},
		slots:  []models.ScheduleSlot{{Weekday: time.Monday, StartTime: "10:00", EndTime: "11:00"}},
	}
	svc := NewSessionService(repo, courses, nil, nil)

	result, err := svc.Materialize(context.Background(), MaterializeRequest{
		CourseID: "course-a",
		From:     time.Date(2025, time.March, 3, 0, 0, 0, 0, time.UTC),
		To:       time.Date(2025, time.March, 10, 0, 0, 0, 0, time.UTC),
	})

	require.NoError(t, err)
	assert.Equal(t, 1, result.Created)
	assert.Equal(t, 1, result.Skipped)
}

func TestMaterializeRequiresDefaultTeacher(t *testing.T) {
	repo := &fakeSessionRepo{existing: map[string]bool{}}
	courses := &fakeSessionCourses{course: &models.Course{ID: "course-a"}}
	svc := NewSessionService(repo, courses, nil, nil)

	_, err := svc.Materialize(context.Background(), MaterializeRequest{
		CourseID: "course-a",
		From:     time.Date(2025, time.March, 3, 0, 0, 0, 0, time.UTC),
		To:       time.Date(2025, time.March, 10, 0, 0, 0, 0, time.UTC),
	})

	require.Error(t, err)
}

func TestDeleteRefusesCompletedSession(t *testing.T) {
	repo := &fakeSessionRepo{sessions: map[string]*models.CourseSession{
		"ses-1": {ID: "ses-1", Status: models.SessionDone},
	}}
	svc := NewSessionService(repo, &fakeSessionCourses{}, nil, nil)

	_, err := svc.Delete(context.Background(), "ses-1")

	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrSessionDone.Code, appErr.Code)
	assert.Empty(t, repo.deleted)
}

func TestDeleteReturnsRemovedSession(t *testing.T) {
	repo := &fakeSessionRepo{sessions: map[string]*models.CourseSession{
		"ses-1": {ID: "ses-1", TeacherID: "teacher-1", Status: models.SessionPending},
	}}
	svc := NewSessionService(repo, &fakeSessionCourses{}, nil, nil)

	session, err := svc.Delete(context.Background(), "ses-1")

	require.NoError(t, err)
	assert.Equal(t, "teacher-1", session.TeacherID)
	assert.Equal(t, []string{"ses-1"}, repo.deleted)
}

func TestUpdateReportsPreviousTeacher(t *testing.T) {
	repo := &fakeSessionRepo{sessions: map[string]*models.CourseSession{
		"ses-1": {ID: "ses-1", TeacherID: "teacher-a", StartTime: "10:00", EndTime: "11:00", Status: models.SessionPending},
	}}
	svc := NewSessionService(repo, &fakeSessionCourses{}, nil, nil)

	newTeacher := "teacher-b"
	session, previous, err := svc.Update(context.Background(), "ses-1", UpdateSessionRequest{TeacherID: &newTeacher})

	require.NoError(t, err)
	assert.Equal(t, "teacher-b", session.TeacherID)
	assert.Equal(t, "teacher-a", previous)
}

func TestCreateRejectsInvertedClockRange(t *testing.T) {
	teacherID := "teacher-1"
	repo := &fakeSessionRepo{}
	courses := &fakeSessionCourses{course: &models.Course{ID: "course-a", TeacherID: &teacherID}}
	svc := NewSessionService(repo, courses, nil, nil)

	_, err := svc.Create(context.Background(), CreateSessionRequest{
		CourseID:  "course-a",
		Date:      time.Date(2025, time.March, 3, 0, 0, 0, 0, time.UTC),
		StartTime: "18:00",
		EndTime:   "17:00",
		TeacherID: teacherID,
	})

	require.Error(t, err)
	assert.Empty(t, repo.created)
}

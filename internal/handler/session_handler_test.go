package handler

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aulanet/academia-api/internal/models"
	"github.com/aulanet/academia-api/internal/service"
	appErrors "github.com/aulanet/academia-api/pkg/errors"
)

// sessionStore backs both the session service and the hours service so
// mutations through the handler are visible to recomputed summaries.
type sessionStore struct {
	sessions map[string]models.CourseSession
}

func (s *sessionStore) ListByTeacherAndRange(context.Context, string, time.Time, time.Time) ([]models.CourseSession, error) {
	out := make([]models.CourseSession, 0, len(s.sessions))
	for _, session := range s.sessions {
		out = append(out, session)
	}
	return out, nil
}

func (s *sessionStore) List(context.Context, models.SessionFilter) ([]models.CourseSession, int, error) {
	return nil, 0, nil
}

func (s *sessionStore) FindByID(_ context.Context, id string) (*models.CourseSession, error) {
	session, ok := s.sessions[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	out := session
	return &out, nil
}

func (s *sessionStore) ExistsAt(context.Context, string, time.Time, string) (bool, error) {
	return false, nil
}

func (s *sessionStore) Create(_ context.Context, session *models.CourseSession) error {
	s.sessions[session.ID] = *session
	return nil
}

func (s *sessionStore) Update(_ context.Context, session *models.CourseSession) error {
	s.sessions[session.ID] = *session
	return nil
}

func (s *sessionStore) Delete(_ context.Context, id string) error {
	delete(s.sessions, id)
	return nil
}

type stubCourseStore struct {
	course *models.Course
}

func (s *stubCourseStore) FindByID(context.Context, string) (*models.Course, error) {
	return s.course, nil
}

func (s *stubCourseStore) ListSlots(context.Context, string) ([]models.ScheduleSlot, error) {
	return nil, nil
}

// memoryCache is an in-process stand-in for the Redis cache repository.
type memoryCache struct {
	mu      sync.Mutex
	entries map[string][]byte
}

func newMemoryCache() *memoryCache {
	return &memoryCache{entries: map[string][]byte{}}
}

func (m *memoryCache) Get(_ context.Context, key string, dest interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	raw, ok := m.entries[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (m *memoryCache) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = raw
	return nil
}

func (m *memoryCache) DeleteByPattern(_ context.Context, pattern string) error {
	prefix := strings.TrimSuffix(pattern, "*")
	m.mu.Lock()
	defer m.mu.Unlock()
	for key := range m.entries {
		if strings.HasPrefix(key, prefix) {
			delete(m.entries, key)
		}
	}
	return nil
}

func TestSessionReassignmentRefreshesBothTeacherSummaries(t *testing.T) {
	gin.SetMode(gin.TestMode)
	ref := time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC)

	store := &sessionStore{sessions: map[string]models.CourseSession{
		"ses-1": {
			ID:        "ses-1",
			CourseID:  "course-a",
			Date:      time.Date(2025, time.March, 10, 0, 0, 0, 0, time.UTC),
			StartTime: "10:00",
			EndTime:   "11:00",
			TeacherID: "teacher-a",
			Status:    models.SessionDone,
		},
	}}
	courses := []models.Course{{ID: "course-a", Name: "Inglés B2"}}

	cacheSvc := service.NewCacheService(newMemoryCache(), nil, time.Minute, nil, true)
	hours := service.NewHoursService(store, &stubCourses{courses: courses}, &stubClassrooms{}, cacheSvc, nil, time.Minute, nil)
	sessions := service.NewSessionService(store, &stubCourseStore{}, nil, nil)
	handler := NewSessionHandler(sessions, hours)

	// prime the original teacher's cached summary
	before, err := hours.MonthlySummary(context.Background(), "teacher-a", ref)
	require.NoError(t, err)
	require.Equal(t, 1.0, before.TotalHours)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Params = gin.Params{{Key: "id", Value: "ses-1"}}
	c.Request = httptest.NewRequest(http.MethodPut, "/sessions/ses-1", strings.NewReader(`{"teacher_id":"teacher-b"}`))
	c.Request.Header.Set("Content-Type", "application/json")

	handler.Update(c)
	require.Equal(t, http.StatusOK, rec.Code)

	after, err := hours.MonthlySummary(context.Background(), "teacher-a", ref)
	require.NoError(t, err)
	assert.Zero(t, after.TotalHours)

	reassigned, err := hours.MonthlySummary(context.Background(), "teacher-b", ref)
	require.NoError(t, err)
	assert.Equal(t, 1.0, reassigned.TotalHours)
}

func TestSessionDeleteInvalidatesTeacherSummary(t *testing.T) {
	gin.SetMode(gin.TestMode)
	ref := time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC)

	store := &sessionStore{sessions: map[string]models.CourseSession{
		"ses-1": {
			ID:        "ses-1",
			CourseID:  "course-a",
			Date:      time.Date(2025, time.March, 10, 0, 0, 0, 0, time.UTC),
			StartTime: "10:00",
			EndTime:   "11:30",
			TeacherID: "teacher-a",
			Status:    models.SessionPending,
		},
	}}
	courses := []models.Course{{ID: "course-a", Name: "Inglés B2"}}

	cache := newMemoryCache()
	cacheSvc := service.NewCacheService(cache, nil, time.Minute, nil, true)
	hours := service.NewHoursService(store, &stubCourses{courses: courses}, &stubClassrooms{}, cacheSvc, nil, time.Minute, nil)
	sessions := service.NewSessionService(store, &stubCourseStore{}, nil, nil)
	handler := NewSessionHandler(sessions, hours)

	_, err := hours.MonthlySummary(context.Background(), "teacher-a", ref)
	require.NoError(t, err)
	require.Contains(t, cache.entries, "hours:teacher-a:2025-03")

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Params = gin.Params{{Key: "id", Value: "ses-1"}}
	c.Request = httptest.NewRequest(http.MethodDelete, "/sessions/ses-1", nil)

	handler.Delete(c)
	c.Writer.WriteHeaderNow()
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, store.sessions)
	assert.NotContains(t, cache.entries, "hours:teacher-a:2025-03")
}

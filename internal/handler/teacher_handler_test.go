package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aulanet/academia-api/internal/models"
	"github.com/aulanet/academia-api/internal/service"
)

type stubSessions struct {
	sessions []models.CourseSession
}

func (s *stubSessions) ListByTeacherAndRange(context.Context, string, time.Time, time.Time) ([]models.CourseSession, error) {
	return s.sessions, nil
}

type stubCourses struct {
	courses []models.Course
}

func (s *stubCourses) ListAll(context.Context) ([]models.Course, error) {
	return s.courses, nil
}

type stubClassrooms struct{}

func (s *stubClassrooms) ListAll(context.Context) ([]models.Classroom, error) {
	return nil, nil
}

func hoursHandlerFixture(sessions []models.CourseSession, courses []models.Course) *TeacherHandler {
	hours := service.NewHoursService(&stubSessions{sessions: sessions}, &stubCourses{courses: courses}, &stubClassrooms{}, nil, nil, 0, nil)
	return NewTeacherHandler(nil, hours)
}

func TestTeacherHoursRejectsBadMonth(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := hoursHandlerFixture(nil, nil)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Params = gin.Params{{Key: "id", Value: "teacher-1"}}
	c.Request = httptest.NewRequest(http.MethodGet, "/teachers/teacher-1/hours?month=March", nil)

	handler.Hours(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTeacherHoursJSON(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := hoursHandlerFixture(
		[]models.CourseSession{{
			CourseID:  "course-a",
			Date:      time.Date(2025, time.March, 3, 0, 0, 0, 0, time.UTC),
			StartTime: "10:00",
			EndTime:   "11:30",
			TeacherID: "teacher-1",
			Status:    models.SessionDone,
		}},
		[]models.Course{{ID: "course-a", Name: "Inglés B2"}},
	)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Params = gin.Params{{Key: "id", Value: "teacher-1"}}
	c.Request = httptest.NewRequest(http.MethodGet, "/teachers/teacher-1/hours?month=2025-03", nil)

	handler.Hours(c)

	require.Equal(t, http.StatusOK, rec.Code)
	var envelope struct {
		Data struct {
			TeacherID  string  `json:"teacher_id"`
			TotalHours float64 `json:"total_hours"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, "teacher-1", envelope.Data.TeacherID)
	assert.Equal(t, 1.5, envelope.Data.TotalHours)
}

func TestTeacherHoursCSVDownload(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := hoursHandlerFixture(
		[]models.CourseSession{{
			CourseID:  "course-a",
			Date:      time.Date(2025, time.March, 3, 0, 0, 0, 0, time.UTC),
			StartTime: "10:00",
			EndTime:   "11:00",
			TeacherID: "teacher-1",
			Status:    models.SessionDone,
		}},
		[]models.Course{{ID: "course-a", Name: "Inglés B2"}},
	)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Params = gin.Params{{Key: "id", Value: "teacher-1"}}
	c.Request = httptest.NewRequest(http.MethodGet, "/teachers/teacher-1/hours?month=2025-03&format=csv", nil)

	handler.Hours(c)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "hours-teacher-1-2025-03.csv")
	assert.True(t, strings.Contains(rec.Body.String(), "TOTAL"))
}

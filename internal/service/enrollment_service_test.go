package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aulanet/academia-api/internal/models"
)

type fakeEnrollmentRepo struct {
	enrollments []models.Enrollment
	active      bool
	created     []*models.Enrollment
	updated     []*models.Enrollment
}

func (f *fakeEnrollmentRepo) List(context.Context, models.EnrollmentFilter) ([]models.Enrollment, int, error) {
	return f.enrollments, len(f.enrollments), nil
}

func (f *fakeEnrollmentRepo) ListActiveByCourse(context.Context, string) ([]models.Enrollment, error) {
	return f.enrollments, nil
}

func (f *fakeEnrollmentRepo) FindByID(_ context.Context, id string) (*models.Enrollment, error) {
	for i := range f.enrollments {
		if f.enrollments[i].ID == id {
			return &f.enrollments[i], nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f *fakeEnrollmentRepo) ExistsActive(context.Context, string, string) (bool, error) {
	return f.active, nil
}

func (f *fakeEnrollmentRepo) Create(_ context.Context, enrollment *models.Enrollment) error {
	f.created = append(f.created, enrollment)
	return nil
}

func (f *fakeEnrollmentRepo) Update(_ context.Context, enrollment *models.Enrollment) error {
	f.updated = append(f.updated, enrollment)
	return nil
}

type fakeEnrollmentCourses struct {
	course *models.Course
}

func (f *fakeEnrollmentCourses) FindByID(context.Context, string) (*models.Course, error) {
	if f.course == nil {
		return nil, sql.ErrNoRows
	}
	return f.course, nil
}

type fakeEnrollmentStudents struct {
	student *models.Student
}

func (f *fakeEnrollmentStudents) FindByID(context.Context, string) (*models.Student, error) {
	if f.student == nil {
		return nil, sql.ErrNoRows
	}
	return f.student, nil
}

type fakeEnrollmentReceipts struct {
	issued  map[string]bool
	created []*models.Receipt
}

func (f *fakeEnrollmentReceipts) ExistsForMonth(_ context.Context, studentID, _ string, _ time.Time) (bool, error) {
	return f.issued[studentID], nil
}

func (f *fakeEnrollmentReceipts) Create(_ context.Context, receipt *models.Receipt) error {
	f.created = append(f.created, receipt)
	return nil
}

func TestEnrollRejectsDuplicateActiveEnrollment(t *testing.T) {
	repo := &fakeEnrollmentRepo{active: true}
	svc := NewEnrollmentService(repo,
		&fakeEnrollmentCourses{course: &models.Course{ID: "course-a", Active: true}},
		&fakeEnrollmentStudents{student: &models.Student{ID: "stu-1"}},
		&fakeEnrollmentReceipts{}, nil, nil)

	_, err := svc.Enroll(context.Background(), EnrollRequest{
		StudentID: "stu-1",
		CourseID:  "course-a",
		StartDate: time.Now(),
	})

	require.Error(t, err)
	assert.Empty(t, repo.created)
}

func TestEnrollRejectsInactiveCourse(t *testing.T) {
	svc := NewEnrollmentService(&fakeEnrollmentRepo{},
		&fakeEnrollmentCourses{course: &models.Course{ID: "course-a", Active: false}},
		&fakeEnrollmentStudents{student: &models.Student{ID: "stu-1"}},
		&fakeEnrollmentReceipts{}, nil, nil)

	_, err := svc.Enroll(context.Background(), EnrollRequest{
		StudentID: "stu-1",
		CourseID:  "course-a",
		StartDate: time.Now(),
	})

	require.Error(t, err)
}

func TestIssueMonthlyReceiptsSkipsBilledStudents(t *testing.T) {
	repo := &fakeEnrollmentRepo{enrollments: []models.Enrollment{
		{ID: "enr-1", StudentID: "stu-1", CourseID: "course-a", Active: true},
		{ID: "enr-2", StudentID: "stu-2", CourseID: "course-a", Active: true},
	}}
	receipts := &fakeEnrollmentReceipts{issued: map[string]bool{"stu-1": true}}
	svc := NewEnrollmentService(repo,
		&fakeEnrollmentCourses{course: &models.Course{ID: "course-a", MonthlyFee: 60, Active: true}},
		&fakeEnrollmentStudents{},
		receipts, nil, nil)

	result, err := svc.IssueMonthlyReceipts(context.Background(), "course-a", 2025, 3)

	require.NoError(t, err)
	assert.Equal(t, 1, result.Issued)
	assert.Equal(t, 1, result.Skipped)
	require.Len(t, receipts.created, 1)
	receipt := receipts.created[0]
	assert.Equal(t, "stu-2", receipt.StudentID)
	assert.Equal(t, 60.0, receipt.Amount)
	assert.Equal(t, models.ReceiptPending, receipt.Status)
	assert.Equal(t, models.PaymentDirectDebit, receipt.Method)
	assert.Equal(t, time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC), receipt.Date)
}

func TestIssueMonthlyReceiptsValidatesMonth(t *testing.T) {
	svc := NewEnrollmentService(&fakeEnrollmentRepo{}, &fakeEnrollmentCourses{}, &fakeEnrollmentStudents{}, &fakeEnrollmentReceipts{}, nil, nil)

	_, err := svc.IssueMonthlyReceipts(context.Background(), "course-a", 2025, 13)

	require.Error(t, err)
}

func TestWithdrawClosesEnrollment(t *testing.T) {
	repo := &fakeEnrollmentRepo{enrollments: []models.Enrollment{
		{ID: "enr-1", StudentID: "stu-1", CourseID: "course-a", Active: true},
	}}
	svc := NewEnrollmentService(repo, &fakeEnrollmentCourses{}, &fakeEnrollmentStudents{}, &fakeEnrollmentReceipts{}, nil, nil)
	end := time.Date(2025, time.June, 30, 0, 0, 0, 0, time.UTC)

	enrollment, err := svc.Withdraw(context.Background(), "enr-1", end)

	require.NoError(t, err)
	assert.False(t, enrollment.Active)
	require.NotNil(t, enrollment.EndDate)
	assert.Equal(t, end, *enrollment.EndDate)
	require.Len(t, repo.updated, 1)
}

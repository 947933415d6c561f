package service

import (
	"context"
	"database/sql"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/aulanet/academia-api/internal/models"
	appErrors "github.com/aulanet/academia-api/pkg/errors"
)

type enrollmentRepository interface {
	List(ctx context.Context, filter models.EnrollmentFilter) ([]models.Enrollment, int, error)
	ListActiveByCourse(ctx context.Context, courseID string) ([]models.Enrollment, error)
	FindByID(ctx context.Context, id string) (*models.Enrollment, error)
	ExistsActive(ctx context.Context, studentID, courseID string) (bool, error)
	Create(ctx context.Context, enrollment *models.Enrollment) error
	Update(ctx context.Context, enrollment *models.Enrollment) error
}

type enrollmentCourseRepository interface {
	FindByID(ctx context.Context, id string) (*models.Course, error)
}

type enrollmentStudentRepository interface {
	FindByID(ctx context.Context, id string) (*models.Student, error)
}

type enrollmentReceiptRepository interface {
	ExistsForMonth(ctx context.Context, studentID, courseID string, month time.Time) (bool, error)
	Create(ctx context.Context, receipt *models.Receipt) error
}

// EnrollRequest is the payload for enrolling a student in a course.
type EnrollRequest struct {
	StudentID string    `json:"student_id" validate:"required"`
	CourseID  string    `json:"course_id" validate:"required"`
	StartDate time.Time `json:"start_date" validate:"required"`
}

// IssueReceiptsResult reports the outcome of a monthly receipt run.
type IssueReceiptsResult struct {
	Issued  int `json:"issued"`
	Skipped int `json:"skipped"`
}

// EnrollmentService manages student-course enrollments and issues the
// monthly receipts they generate.
type EnrollmentService struct {
	repo      enrollmentRepository
	courses   enrollmentCourseRepository
	students  enrollmentStudentRepository
	receipts  enrollmentReceiptRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewEnrollmentService constructs an EnrollmentService.
func NewEnrollmentService(repo enrollmentRepository, courses enrollmentCourseRepository, students enrollmentStudentRepository, receipts enrollmentReceiptRepository, validate *validator.Validate, logger *zap.Logger) *EnrollmentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EnrollmentService{
		repo:      repo,
		courses:   courses,
		students:  students,
		receipts:  receipts,
		validator: validate,
		logger:    logger,
	}
}

// List returns enrollments matching the filter.
func (s *EnrollmentService) List(ctx context.Context, filter models.EnrollmentFilter) ([]models.Enrollment, *models.Pagination, error) {
	enrollments, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list enrollments")
	}
	return enrollments, paginationFor(filter.Page, filter.PageSize, total), nil
}

// Get returns an enrollment by id.
func (s *EnrollmentService) Get(ctx context.Context, id string) (*models.Enrollment, error) {
	enrollment, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment")
	}
	return enrollment, nil
}

// Enroll registers a student in a course. A student cannot hold two
// active enrollments in the same course.
func (s *EnrollmentService) Enroll(ctx context.Context, req EnrollRequest) (*models.Enrollment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid enrollment payload")
	}

	if _, err := s.students.FindByID(ctx, req.StudentID); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	course, err := s.courses.FindByID(ctx, req.CourseID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	if !course.Active {
		return nil, appErrors.Clone(appErrors.ErrConflict, "course is not active")
	}

	exists, err := s.repo.ExistsActive(ctx, req.StudentID, req.CourseID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check enrollment")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "student is already enrolled in this course")
	}

	now := time.Now()
	enrollment := &models.Enrollment{
		ID:        uuid.NewString(),
		StudentID: req.StudentID,
		CourseID:  req.CourseID,
		StartDate: dateOnly(req.StartDate),
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.Create(ctx, enrollment); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create enrollment")
	}

	s.logger.Info("student enrolled",
		zap.String("enrollment_id", enrollment.ID),
		zap.String("student_id", req.StudentID),
		zap.String("course_id", req.CourseID))
	return enrollment, nil
}

// Withdraw closes an active enrollment.
func (s *EnrollmentService) Withdraw(ctx context.Context, id string, endDate time.Time) (*models.Enrollment, error) {
	enrollment, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !enrollment.Active {
		return nil, appErrors.Clone(appErrors.ErrConflict, "enrollment is already closed")
	}

	end := dateOnly(endDate)
	enrollment.Active = false
	enrollment.EndDate = &end
	enrollment.UpdatedAt = time.Now()
	if err := s.repo.Update(ctx, enrollment); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to close enrollment")
	}

	s.logger.Info("student withdrawn", zap.String("enrollment_id", id))
	return enrollment, nil
}

// IssueMonthlyReceipts creates one pending receipt per active enrollment
// of a course for the given month, charging the course monthly fee.
// Enrollments that already have a receipt for that month are skipped, so
// the run can be repeated safely.
func (s *EnrollmentService) IssueMonthlyReceipts(ctx context.Context, courseID string, year, month int) (*IssueReceiptsResult, error) {
	if month < 1 || month > 12 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "month must be between 1 and 12")
	}

	course, err := s.courses.FindByID(ctx, courseID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}

	enrollments, err := s.repo.ListActiveByCourse(ctx, courseID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list active enrollments")
	}

	first := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	result := &IssueReceiptsResult{}
	for _, enrollment := range enrollments {
		exists, err := s.receipts.ExistsForMonth(ctx, enrollment.StudentID, courseID, first)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check issued receipts")
		}
		if exists {
			result.Skipped++
			continue
		}

		now := time.Now()
		domiciliation := first
		receipt := &models.Receipt{
			ID:                uuid.NewString(),
			StudentID:         enrollment.StudentID,
			CourseID:          courseID,
			Amount:            course.MonthlyFee,
			Date:              first,
			Status:            models.ReceiptPending,
			Method:            models.PaymentDirectDebit,
			DomiciliationDate: &domiciliation,
			CreatedAt:         now,
			UpdatedAt:         now,
		}
		if err := s.receipts.Create(ctx, receipt); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create receipt")
		}
		result.Issued++
	}

	s.logger.Info("monthly receipts issued",
		zap.String("course_id", courseID),
		zap.Int("year", year),
		zap.Int("month", month),
		zap.Int("issued", result.Issued),
		zap.Int("skipped", result.Skipped))
	return result, nil
}

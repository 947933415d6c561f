package service

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/aulanet/academia-api/internal/models"
	appErrors "github.com/aulanet/academia-api/pkg/errors"
)

type courseRepository interface {
	List(ctx context.Context, filter models.CourseFilter) ([]models.Course, int, error)
	FindByID(ctx context.Context, id string) (*models.Course, error)
	Create(ctx context.Context, course *models.Course) error
	Update(ctx context.Context, course *models.Course) error
	Deactivate(ctx context.Context, id string) error
	ListSlots(ctx context.Context, courseID string) ([]models.ScheduleSlot, error)
	ReplaceSlots(ctx context.Context, courseID string, slots []models.ScheduleSlot) error
}

// CourseRequest represents payload for creating or updating courses.
type CourseRequest struct {
	Name        string  `json:"name" validate:"required,max=150"`
	Level       *string `json:"level" validate:"omitempty,max=50"`
	TeacherID   *string `json:"teacher_id"`
	ClassroomID *string `json:"classroom_id"`
	MonthlyFee  float64 `json:"monthly_fee" validate:"min=0"`
	Active      *bool   `json:"active"`
}

// ScheduleSlotRequest is one recurring weekly block in a schedule payload.
type ScheduleSlotRequest struct {
	Weekday   int    `json:"weekday" validate:"min=0,max=6"`
	StartTime string `json:"start_time" validate:"required"`
	EndTime   string `json:"end_time" validate:"required"`
}

// CourseService orchestrates course operations.
type CourseService struct {
	repo      courseRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewCourseService constructs a CourseService.
func NewCourseService(repo courseRepository, validate *validator.Validate, logger *zap.Logger) *CourseService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CourseService{repo: repo, validator: validate, logger: logger}
}

// List returns courses plus pagination data.
func (s *CourseService) List(ctx context.Context, filter models.CourseFilter) ([]models.Course, *models.Pagination, error) {
	courses, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list courses")
	}
	return courses, paginationFor(filter.Page, filter.PageSize, total), nil
}

// Get returns a course by id.
func (s *CourseService) Get(ctx context.Context, id string) (*models.Course, error) {
	course, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	return course, nil
}

// Create registers a new course record.
func (s *CourseService) Create(ctx context.Context, req CourseRequest) (*models.Course, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid course payload")
	}

	course := &models.Course{
		Name:        strings.TrimSpace(req.Name),
		Level:       normalizeOptional(req.Level),
		TeacherID:   normalizeOptional(req.TeacherID),
		ClassroomID: normalizeOptional(req.ClassroomID),
		MonthlyFee:  req.MonthlyFee,
		Active:      true,
	}
	if req.Active != nil {
		course.Active = *req.Active
	}

	if err := s.repo.Create(ctx, course); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create course")
	}
	return course, nil
}

// Update modifies an existing course.
func (s *CourseService) Update(ctx context.Context, id string, req CourseRequest) (*models.Course, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid course payload")
	}

	course, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}

	course.Name = strings.TrimSpace(req.Name)
	course.Level = normalizeOptional(req.Level)
	course.TeacherID = normalizeOptional(req.TeacherID)
	course.ClassroomID = normalizeOptional(req.ClassroomID)
	course.MonthlyFee = req.MonthlyFee
	if req.Active != nil {
		course.Active = *req.Active
	}

	if err := s.repo.Update(ctx, course); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update course")
	}
	return course, nil
}

// Deactivate marks a course inactive.
func (s *CourseService) Deactivate(ctx context.Context, id string) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if err == sql.ErrNoRows {
			return appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	if err := s.repo.Deactivate(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to deactivate course")
	}
	return nil
}

// ListSlots returns the weekly schedule slots of a course.
func (s *CourseService) ListSlots(ctx context.Context, courseID string) ([]models.ScheduleSlot, error) {
	if _, err := s.Get(ctx, courseID); err != nil {
		return nil, err
	}
	slots, err := s.repo.ListSlots(ctx, courseID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list schedule slots")
	}
	return slots, nil
}

// ReplaceSlots swaps the full weekly schedule of a course. Each slot must
// end after it starts.
func (s *CourseService) ReplaceSlots(ctx context.Context, courseID string, reqs []ScheduleSlotRequest) ([]models.ScheduleSlot, error) {
	if _, err := s.Get(ctx, courseID); err != nil {
		return nil, err
	}

	slots := make([]models.ScheduleSlot, 0, len(reqs))
	for _, req := range reqs {
		if err := s.validator.Struct(req); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid schedule slot")
		}
		start, err := clockMinutes(req.StartTime)
		if err != nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, "invalid slot start time")
		}
		end, err := clockMinutes(req.EndTime)
		if err != nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, "invalid slot end time")
		}
		if end <= start {
			return nil, appErrors.Clone(appErrors.ErrValidation, "slot must end after it starts")
		}
		slots = append(slots, models.ScheduleSlot{
			CourseID:  courseID,
			Weekday:   time.Weekday(req.Weekday),
			StartTime: req.StartTime,
			EndTime:   req.EndTime,
		})
	}

	if err := s.repo.ReplaceSlots(ctx, courseID, slots); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save schedule slots")
	}
	return slots, nil
}

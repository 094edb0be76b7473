package service

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/student-records-api/internal/models"
	appErrors "github.com/noah-isme/student-records-api/pkg/errors"
)

type studentRepository interface {
	List(ctx context.Context) ([]models.Student, error)
	FindByID(ctx context.Context, id int64) (*models.Student, error)
	Create(ctx context.Context, student *models.Student) error
	Update(ctx context.Context, student *models.Student) (int64, error)
	Delete(ctx context.Context, id int64) (int64, error)
}

// StudentRequest is the payload for both create and replace. Bodies
// arrive form-encoded or as multipart fields, so age comes in as text
// and is parsed here rather than by the binder.
type StudentRequest struct {
	FirstName string `form:"firstname" json:"firstname" validate:"required"`
	LastName  string `form:"lastname" json:"lastname" validate:"required"`
	Gender    string `form:"gender" json:"gender"`
	Age       string `form:"age" json:"age"`
}

// StudentService handles student use-cases.
type StudentService struct {
	repo      studentRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewStudentService constructs the student service.
func NewStudentService(repo studentRepository, validate *validator.Validate, logger *zap.Logger) *StudentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StudentService{repo: repo, validator: validate, logger: logger}
}

// List returns all stored students.
func (s *StudentService) List(ctx context.Context) ([]models.Student, error) {
	students, err := s.repo.List(ctx)
	if err != nil {
		s.logger.Error("list students failed", zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list students")
	}
	return students, nil
}

// Get returns the student with the given id.
func (s *StudentService) Get(ctx context.Context, id int64) (*models.Student, error) {
	student, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		s.logger.Error("load student failed", zap.Int64("id", id), zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	return student, nil
}

// Create validates the payload and inserts a new student, returning the
// record with its auto-assigned id.
func (s *StudentService) Create(ctx context.Context, req StudentRequest) (*models.Student, error) {
	student, err := s.buildStudent(req)
	if err != nil {
		s.logger.Warn("create student rejected", zap.Error(err))
		return nil, err
	}
	if err := s.repo.Create(ctx, student); err != nil {
		s.logger.Error("create student failed", zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create student")
	}
	return student, nil
}

// Replace updates all mutable fields of the row matching id.
//
// Known quirk, kept on purpose: the returned record echoes the submitted
// values instead of re-reading the row after the UPDATE, so a concurrent
// writer can make this response drift from stored state.
func (s *StudentService) Replace(ctx context.Context, id int64, req StudentRequest) (*models.Student, error) {
	student, err := s.buildStudent(req)
	if err != nil {
		s.logger.Warn("replace student rejected", zap.Int64("id", id), zap.Error(err))
		return nil, err
	}
	student.ID = id

	affected, err := s.repo.Update(ctx, student)
	if err != nil {
		s.logger.Error("replace student failed", zap.Int64("id", id), zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update student")
	}
	if affected == 0 {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
	}
	return student, nil
}

// Delete removes the row matching id.
func (s *StudentService) Delete(ctx context.Context, id int64) error {
	affected, err := s.repo.Delete(ctx, id)
	if err != nil {
		s.logger.Error("delete student failed", zap.Int64("id", id), zap.Error(err))
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete student")
	}
	if affected == 0 {
		return appErrors.Clone(appErrors.ErrNotFound, "student not found")
	}
	return nil
}

// buildStudent validates the request and maps it onto a row. Blank
// optional fields become NULL columns.
func (s *StudentService) buildStudent(req StudentRequest) (*models.Student, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, validationMessage(err))
	}

	student := &models.Student{
		FirstName: req.FirstName,
		LastName:  req.LastName,
	}

	if gender := strings.TrimSpace(req.Gender); gender != "" {
		student.Gender = &gender
	}

	if raw := strings.TrimSpace(req.Age); raw != "" {
		age, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, "age must be an integer")
		}
		student.Age = &age
	}

	return student, nil
}

// validationMessage flattens validator output into one client-facing line.
func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return "invalid student payload"
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required":
			parts = append(parts, strings.ToLower(fe.Field())+" is required")
		default:
			parts = append(parts, strings.ToLower(fe.Field())+" is invalid")
		}
	}
	return strings.Join(parts, ", ")
}

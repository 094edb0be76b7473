package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/student-records-api/internal/models"
)

// QueryObserver receives per-statement timings. Satisfied by the metrics
// service; a nil observer disables instrumentation.
type QueryObserver interface {
	ObserveDBQuery(label string, duration time.Duration)
}

// StudentRepository manages persistence for student records.
type StudentRepository struct {
	db      *sqlx.DB
	metrics QueryObserver
}

// NewStudentRepository constructs a StudentRepository.
func NewStudentRepository(db *sqlx.DB, metrics QueryObserver) *StudentRepository {
	return &StudentRepository{db: db, metrics: metrics}
}

func (r *StudentRepository) observe(label string, start time.Time) {
	if r.metrics != nil {
		r.metrics.ObserveDBQuery(label, time.Since(start))
	}
}

// List returns every student row ordered by id.
func (r *StudentRepository) List(ctx context.Context) ([]models.Student, error) {
	defer r.observe("list_students", time.Now())

	students := []models.Student{}
	const query = `SELECT id, firstname, lastname, gender, age FROM students ORDER BY id`
	if err := r.db.SelectContext(ctx, &students, query); err != nil {
		return nil, fmt.Errorf("list students: %w", err)
	}
	return students, nil
}

// FindByID fetches a single student. Returns sql.ErrNoRows when absent.
func (r *StudentRepository) FindByID(ctx context.Context, id int64) (*models.Student, error) {
	defer r.observe("find_student", time.Now())

	const query = `SELECT id, firstname, lastname, gender, age FROM students WHERE id = ?`
	var student models.Student
	if err := r.db.GetContext(ctx, &student, query, id); err != nil {
		return nil, err
	}
	return &student, nil
}

// Create inserts a new row and fills in the auto-assigned id.
func (r *StudentRepository) Create(ctx context.Context, student *models.Student) error {
	defer r.observe("create_student", time.Now())

	const query = `INSERT INTO students (firstname, lastname, gender, age) VALUES (?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, query, student.FirstName, student.LastName, student.Gender, student.Age)
	if err != nil {
		return fmt.Errorf("create student: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("create student id: %w", err)
	}
	student.ID = id
	return nil
}

// Update replaces all mutable fields of the row matching student.ID and
// reports how many rows were affected.
func (r *StudentRepository) Update(ctx context.Context, student *models.Student) (int64, error) {
	defer r.observe("update_student", time.Now())

	const query = `UPDATE students SET firstname = ?, lastname = ?, gender = ?, age = ? WHERE id = ?`
	res, err := r.db.ExecContext(ctx, query, student.FirstName, student.LastName, student.Gender, student.Age, student.ID)
	if err != nil {
		return 0, fmt.Errorf("update student: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("update student affected: %w", err)
	}
	return affected, nil
}

// Delete removes the row matching id and reports how many rows were affected.
func (r *StudentRepository) Delete(ctx context.Context, id int64) (int64, error) {
	defer r.observe("delete_student", time.Now())

	const query = `DELETE FROM students WHERE id = ?`
	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return 0, fmt.Errorf("delete student: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete student affected: %w", err)
	}
	return affected, nil
}

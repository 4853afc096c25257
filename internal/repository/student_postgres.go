package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/estudia/study-backend/internal/entity"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

// StudentRepository defines the interface for student persistence
type StudentRepository interface {
	Create(ctx context.Context, student entity.Student) (*entity.Student, error)
	Get(ctx context.Context, studentID string) (*entity.Student, error)
}

var _ StudentRepository = &StudentPostgres{}

type StudentPostgres struct {
	db *pgxpool.Pool
}

func NewStudentPostgres(db *pgxpool.Pool) *StudentPostgres {
	return &StudentPostgres{db: db}
}

func (r *StudentPostgres) Create(ctx context.Context, student entity.Student) (*entity.Student, error) {
	id, err := parseUUID(student.ID)
	if err != nil {
		return nil, err
	}

	row := r.db.QueryRow(ctx, `
		INSERT INTO students (id, full_name, email)
		VALUES ($1, $2, $3)
		RETURNING id, full_name, email, created_at`,
		id, student.FullName, student.Email)

	created, err := scanStudent(row)
	if err != nil {
		return nil, fmt.Errorf("create student: %w", err)
	}

	return created, nil
}

func (r *StudentPostgres) Get(ctx context.Context, studentID string) (*entity.Student, error) {
	id, err := parseUUID(studentID)
	if err != nil {
		return nil, err
	}

	row := r.db.QueryRow(ctx, `
		SELECT id, full_name, email, created_at
		FROM students
		WHERE id = $1`, id)

	student, err := scanStudent(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, entity.ErrStudentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get student: %w", err)
	}

	return student, nil
}

func scanStudent(row pgx.Row) (*entity.Student, error) {
	var student entity.Student
	var id pgtype.UUID

	err := row.Scan(&id, &student.FullName, &student.Email, &student.CreatedAt)
	if err != nil {
		return nil, err
	}

	student.ID = uuidString(id)
	return &student, nil
}

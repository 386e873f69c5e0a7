// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

// Error kinds returned by the stores. Callers classify with errors.Is.
var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
)

// Specific failures, each wrapping one of the kinds above.
var (
	ErrSlugTaken        = fmt.Errorf("%w: slug already exists", ErrConflict)
	ErrNameTaken        = fmt.Errorf("%w: name already exists", ErrConflict)
	ErrCategoryHasPosts = fmt.Errorf("%w: category still has posts", ErrConflict)
	ErrUnknownCategory  = fmt.Errorf("%w: category does not exist", ErrInvalidInput)
)

// ValidationError carries the field messages of a rejected input.
type ValidationError struct {
	Err error
}

// Validation wraps a non-nil validation failure into a *ValidationError.
func Validation(err error) error {
	if err == nil {
		return nil
	}
	return &ValidationError{Err: err}
}

func (e *ValidationError) Error() string { return e.Err.Error() }

// Is makes a ValidationError match ErrInvalidInput.
func (e *ValidationError) Is(target error) bool { return target == ErrInvalidInput }

func (e *ValidationError) Unwrap() error { return e.Err }

// PostgreSQL constraint names from the migrations.
const (
	constraintCategoryName = "categories_name_key"
	constraintCategorySlug = "categories_slug_key"
	constraintPostSlug     = "posts_slug_key"
	constraintPostCategory = "posts_category_id_fkey"
)

// classify maps constraint violations raised by PostgreSQL to store errors.
// Unrecognized errors are wrapped with op and returned as-is.
func classify(op string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505": // unique_violation
			switch pgErr.ConstraintName {
			case constraintCategoryName:
				return ErrNameTaken
			case constraintCategorySlug, constraintPostSlug:
				return ErrSlugTaken
			}
			return fmt.Errorf("%s: %w", op, ErrConflict)
		case "23503": // foreign_key_violation
			if pgErr.ConstraintName == constraintPostCategory {
				return ErrUnknownCategory
			}
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}

// isForeignKeyViolation reports whether err is a 23503 raised by constraint.
func isForeignKeyViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23503" && pgErr.ConstraintName == constraint
}

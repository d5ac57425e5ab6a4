package repository

import (
	"errors"

	"github.com/lib/pq"
)

var (
	ErrNotFound   = errors.New("record not found")
	ErrDuplicate  = errors.New("record already exists")
	ErrReferenced = errors.New("record is still referenced")
	ErrOverlap    = errors.New("booking overlaps an existing booking")
)

const (
	pqUniqueViolation     = "23505"
	pqForeignKeyViolation = "23503"
	pqExclusionViolation  = "23P01"
)

func pqCode(err error) pq.ErrorCode {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code
	}
	return ""
}

// translate maps constraint violations onto the package sentinels and leaves
// every other error untouched.
func translate(err error) error {
	switch pqCode(err) {
	case pqUniqueViolation:
		return ErrDuplicate
	case pqForeignKeyViolation:
		return ErrReferenced
	case pqExclusionViolation:
		return ErrOverlap
	default:
		return err
	}
}

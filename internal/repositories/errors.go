package repositories

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
)

var (
	// ErrNotFound is returned when a single-row read finds nothing.
	ErrNotFound = errors.New("not found")
	// ErrDuplicate is returned when an insert violates a unique constraint.
	ErrDuplicate = errors.New("duplicate")
)

const (
	uniqueViolation   = "23505"
	invalidTextFormat = "22P02"
)

// translate maps driver errors onto the package sentinels, keeping the
// database message text.
func translate(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch string(pqErr.Code) {
		case uniqueViolation:
			return fmt.Errorf("%w: %s", ErrDuplicate, pqErr.Message)
		case invalidTextFormat:
			// malformed uuid in a lookup
			return ErrNotFound
		}
	}
	return err
}

// removeRow maps a zero-row delete onto ErrNotFound.
func removeRow(res sql.Result, err error) error {
	if err != nil {
		return translate(err)
	}
	count, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if count == 0 {
		return ErrNotFound
	}
	return nil
}

package repositories

import (
	"context"
	"errors"

	"github.com/lib/pq"
	"gorm.io/gorm"

	"pazargate/internal/apperr"
)

// storeErr maps driver-level failures onto the domain error kinds the
// services and controller act on. Not-found is not an error here;
// readers translate gorm.ErrRecordNotFound into a nil result instead.
func storeErr(op string, err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return apperr.E(apperr.KindTimeout, op, "", err)
	}

	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return apperr.E(apperr.KindIntegrity, op, "", err)
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		// Class 23 covers unique, foreign key and check violations
		if pqErr.Code.Class() == "23" {
			return apperr.E(apperr.KindIntegrity, op, pqErr.Constraint, err)
		}
	}

	return apperr.E(apperr.KindStoreUnavailable, op, "", err)
}

// isUniqueViolation reports whether err is a unique-constraint conflict
func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

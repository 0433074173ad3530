package gormrepo

import (
	"errors"
	"strings"

	"github.com/ali-abouelaish/FleetManager-sub004/internal/apperr"

	"gorm.io/gorm"
)

// isDuplicate recognises a unique-constraint violation. TranslateError
// covers the supported drivers; the message checks catch connections opened
// without it.
func isDuplicate(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint failed") || // sqlite
		strings.Contains(msg, "duplicate entry") || // mysql 1062
		strings.Contains(msg, "duplicate key value") // postgres 23505
}

// notFoundOr maps gorm.ErrRecordNotFound to nf and anything else to an
// upstream store error.
func notFoundOr(err error, nf error, op string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nf
	}
	return apperr.Upstream(err, op)
}

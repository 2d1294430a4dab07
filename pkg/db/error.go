package db

import (
	"errors"
	"strings"

	"gorm.io/gorm"
)

// Markers emitted by the supported drivers when a unique index rejects
// an insert. gorm's TranslateError normalizes most of these, but raw
// driver errors still surface from batch paths.
var duplicateKeyMarkers = []string{
	"duplicate key value violates unique constraint", // postgres 23505
	"Error 1062",               // mysql ER_DUP_ENTRY
	"UNIQUE constraint failed", // sqlite 2067
}

// IsDuplicateKeyErr reports whether err is a unique constraint
// violation. Callers use it to detect a lost create race and retry the
// atomic increment instead of failing the draw.
func IsDuplicateKeyErr(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}

	msg := err.Error()
	for _, marker := range duplicateKeyMarkers {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}

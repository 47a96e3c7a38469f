package user

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/ingelean/leanbot/internal/domain"
)

const minDocIDLen = 3

var docIDPattern = regexp.MustCompile(`^[a-zA-Z0-9\s-]+$`)

// DocID is the identity document number a user logs in with.
type DocID int64

// ParseDocID validates raw login input and converts it to a DocID.
// Spaces and hyphens are accepted as separators and stripped; the remainder
// must be numeric because the backend keys users by an integer id.
func ParseDocID(raw string) (DocID, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return 0, fmt.Errorf("%w: document id is required", domain.ErrInvalidDocID)
	}
	if len(trimmed) < minDocIDLen {
		return 0, fmt.Errorf("%w: document id must have at least %d characters", domain.ErrInvalidDocID, minDocIDLen)
	}
	if !docIDPattern.MatchString(trimmed) {
		return 0, fmt.Errorf("%w: only letters, digits, spaces and hyphens are allowed", domain.ErrInvalidDocID)
	}

	digits := strings.NewReplacer(" ", "", "-", "", "\t", "").Replace(trimmed)
	n, err := strconv.ParseInt(digits, 10, 64)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%w: document id must be a positive number", domain.ErrInvalidDocID)
	}
	return DocID(n), nil
}

// String returns the decimal form used in backend URLs and store keys.
func (d DocID) String() string { return strconv.FormatInt(int64(d), 10) }

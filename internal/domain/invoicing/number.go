package invoicing

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/fixflow/backend/internal/domain/shared"
)

// DefaultNumberPrefix is used when no prefix is configured
const DefaultNumberPrefix = "INV"

var prefixPattern = regexp.MustCompile(`^[A-Z][A-Z0-9]{0,9}$`)

// NumberFormat renders invoice numbers as <prefix>-<YYYY>-<NNNNN>
type NumberFormat struct {
	prefix string
}

// NewNumberFormat validates prefix; an empty prefix uses DefaultNumberPrefix
func NewNumberFormat(prefix string) (NumberFormat, error) {
	prefix = strings.ToUpper(strings.TrimSpace(prefix))
	if prefix == "" {
		prefix = DefaultNumberPrefix
	}
	if !prefixPattern.MatchString(prefix) {
		return NumberFormat{}, shared.ValidationFailed("INVALID_PREFIX", "Invoice prefix must be 1-10 uppercase letters or digits")
	}
	return NumberFormat{prefix: prefix}, nil
}

// Prefix returns the configured prefix
func (f NumberFormat) Prefix() string {
	if f.prefix == "" {
		return DefaultNumberPrefix
	}
	return f.prefix
}

// Format renders the number of the seq-th invoice of year
func (f NumberFormat) Format(year int, seq int64) string {
	return fmt.Sprintf("%s-%04d-%05d", f.Prefix(), year, seq)
}

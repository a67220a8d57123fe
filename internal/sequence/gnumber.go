// Package sequence issues year-scoped G-Numbers, the human-facing unique
// identifiers for copy applications. Allocation is a single atomic
// increment-and-read against the year's counter; a plain read-modify-write
// would hand the same number to two concurrent clerks.
package sequence

import (
	"fmt"
	"strconv"
	"strings"

	dErrors "copydesk/pkg/domain-errors"
)

// GNumber identifies an application as "YEAR/NNNN". Immutable once minted.
type GNumber struct {
	Year     int
	Sequence int
}

// String renders the canonical form with a 4-digit zero-padded sequence.
func (g GNumber) String() string {
	return fmt.Sprintf("%d/%04d", g.Year, g.Sequence)
}

// IsZero reports whether the G-Number has not been minted.
func (g GNumber) IsZero() bool {
	return g.Year == 0 && g.Sequence == 0
}

// Parse reads a canonical "YEAR/NNNN" string back into a GNumber.
func Parse(s string) (GNumber, error) {
	parts := strings.SplitN(s, "/", 2)
	if len(parts) != 2 {
		return GNumber{}, dErrors.Newf(dErrors.CodeBadRequest, "malformed g-number %q", s)
	}
	year, err := strconv.Atoi(parts[0])
	if err != nil || year <= 0 {
		return GNumber{}, dErrors.Newf(dErrors.CodeBadRequest, "malformed g-number year in %q", s)
	}
	seq, err := strconv.Atoi(parts[1])
	if err != nil || seq <= 0 {
		return GNumber{}, dErrors.Newf(dErrors.CodeBadRequest, "malformed g-number sequence in %q", s)
	}
	return GNumber{Year: year, Sequence: seq}, nil
}

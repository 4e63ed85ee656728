// Package docnum generates sequential human-readable document numbers of the
// form NNNN-NNNN (e.g. "0001-0042"). The right segment increments first and
// rolls into the left segment past 9999. Values that do not match the pattern
// are legacy data and are ignored when scanning for the highest number.
package docnum

import (
	"fmt"
	"regexp"
	"strconv"
)

// FirstNumber is the number issued when no prior document exists
const FirstNumber = "0001-0001"

const segmentMax = 9999

var pattern = regexp.MustCompile(`^(\d{4})-(\d{4})$`)

// Matches reports whether value conforms to the NNNN-NNNN pattern
func Matches(value string) bool {
	return pattern.MatchString(value)
}

// parse splits a matching value into its numeric segments
func parse(value string) (left, right int, ok bool) {
	m := pattern.FindStringSubmatch(value)
	if m == nil {
		return 0, 0, false
	}
	left, _ = strconv.Atoi(m[1])
	right, _ = strconv.Atoi(m[2])
	return left, right, true
}

// format renders the two segments back into NNNN-NNNN form
func format(left, right int) string {
	return fmt.Sprintf("%04d-%04d", left, right)
}

// Increment returns the number following last. Past 9999 on the right
// segment, the left segment increments and the right resets to 0001.
func Increment(last string) (string, error) {
	left, right, ok := parse(last)
	if !ok {
		return "", fmt.Errorf("document number %q does not match NNNN-NNNN", last)
	}
	if right >= segmentMax {
		return format(left+1, 1), nil
	}
	return format(left, right+1), nil
}

// Next scans existing numbers, picks the highest matching one and returns its
// increment. Non-matching legacy values are skipped. With no matching value
// present, FirstNumber is returned.
func Next(existing []string) string {
	bestLeft, bestRight := -1, -1
	for _, value := range existing {
		left, right, ok := parse(value)
		if !ok {
			continue
		}
		if left > bestLeft || (left == bestLeft && right > bestRight) {
			bestLeft, bestRight = left, right
		}
	}
	if bestLeft < 0 {
		return FirstNumber
	}
	next, _ := Increment(format(bestLeft, bestRight))
	return next
}

package selection

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// InvalidRangeError reports the first token of a selection expression that
// could not be accepted.
type InvalidRangeError struct {
	Token  string
	Reason string
}

func (e *InvalidRangeError) Error() string {
	if e.Token == "" {
		return "invalid selection: " + e.Reason
	}
	return fmt.Sprintf("invalid selection %q: %s", e.Token, e.Reason)
}

// Parse turns an expression like "1,3-5" into the sorted, de-duplicated
// list of 1-based indices it names. Every index must lie in [1, bound].
func Parse(expr string, bound int) ([]int, error) {
	if strings.TrimSpace(expr) == "" {
		return nil, &InvalidRangeError{Reason: "empty expression"}
	}

	seen := make(map[int]struct{})
	for _, raw := range strings.Split(expr, ",") {
		tok := strings.TrimSpace(raw)
		lo, hi, err := parseToken(tok)
		if err != nil {
			return nil, err
		}
		if lo < 1 || hi > bound {
			return nil, &InvalidRangeError{
				Token:  tok,
				Reason: fmt.Sprintf("out of range, valid indices are 1-%d", bound),
			}
		}
		for i := lo; i <= hi; i++ {
			seen[i] = struct{}{}
		}
	}

	out := make([]int, 0, len(seen))
	for i := range seen {
		out = append(out, i)
	}
	sort.Ints(out)
	return out, nil
}

func parseToken(tok string) (int, int, error) {
	if tok == "" {
		return 0, 0, &InvalidRangeError{Token: tok, Reason: "empty token"}
	}

	a, b, isRange := strings.Cut(tok, "-")
	if !isRange {
		n, err := number(tok, a)
		return n, n, err
	}

	lo, err := number(tok, strings.TrimSpace(a))
	if err != nil {
		return 0, 0, err
	}
	hi, err := number(tok, strings.TrimSpace(b))
	if err != nil {
		return 0, 0, err
	}
	if lo > hi {
		return 0, 0, &InvalidRangeError{Token: tok, Reason: "range start is after its end"}
	}
	return lo, hi, nil
}

func number(tok, s string) (int, error) {
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, &InvalidRangeError{Token: tok, Reason: "not a number"}
		}
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, &InvalidRangeError{Token: tok, Reason: "not a number"}
	}
	return n, nil
}

// All returns 1..n.
func All(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i + 1
	}
	return out
}

// IsAll reports whether expr is the literal keyword selecting every session.
func IsAll(expr string) bool {
	return strings.EqualFold(strings.TrimSpace(expr), "all")
}

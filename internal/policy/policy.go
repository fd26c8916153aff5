package policy

import (
	"strconv"
	"strings"
)

// RetentionPolicy describes how many snapshots to keep at each calendar
// granularity. A nil field and a field set to zero are equivalent: both
// mean the granularity retains nothing.
type RetentionPolicy struct {
	Yearly  *int
	Monthly *int
	Weekly  *int
	Daily   *int
	Hourly  *int
}

// ParseRetentionPolicy parses a compact policy spec such as
// "h24d30w8m6y1" into a RetentionPolicy.
//
// The string is scanned left to right. The letters y, m, w, d and h are
// rule markers; each marker takes the ASCII digit run immediately
// following it as that rule's count. Anything else is silently skipped.
// If a marker repeats, the last occurrence wins; a marker with no digits
// (including a count too large for int) leaves its rule unset.
//
// The parser never fails. A completely malformed spec yields a policy
// that retains nothing.
func ParseRetentionPolicy(spec string) RetentionPolicy {
	var p RetentionPolicy
	for i := 0; i < len(spec); i++ {
		var field **int
		switch spec[i] {
		case 'y':
			field = &p.Yearly
		case 'm':
			field = &p.Monthly
		case 'w':
			field = &p.Weekly
		case 'd':
			field = &p.Daily
		case 'h':
			field = &p.Hourly
		default:
			continue
		}
		*field = parseCount(spec[i+1:])
	}
	return p
}

// parseCount parses the leading digit run of s, or returns nil if there
// is none (or it overflows int).
func parseCount(s string) *int {
	end := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == 0 {
		return nil
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return nil
	}
	return &n
}

// RetainsNothing reports whether every rule is unset or zero, i.e. the
// policy would move every snapshot to the delete set.
func (p RetentionPolicy) RetainsNothing() bool {
	for _, r := range p.rules() {
		if r.count != nil && *r.count > 0 {
			return false
		}
	}
	return true
}

// String renders the policy in its canonical spec form, e.g.
// "h24d30w8m6y1". Unset rules are omitted; an all-unset policy renders
// as "-".
func (p RetentionPolicy) String() string {
	var b strings.Builder
	for _, r := range []struct {
		marker string
		count  *int
	}{
		{"h", p.Hourly},
		{"d", p.Daily},
		{"w", p.Weekly},
		{"m", p.Monthly},
		{"y", p.Yearly},
	} {
		if r.count != nil {
			b.WriteString(r.marker)
			b.WriteString(strconv.Itoa(*r.count))
		}
	}
	if b.Len() == 0 {
		return "-"
	}
	return b.String()
}

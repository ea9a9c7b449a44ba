package aggregate

import (
	"math"
	"strings"

	"golang.org/x/text/cases"
)

// counter tallies keys and remembers the order in which they first appeared.
type counter[K comparable] struct {
	order  []K
	counts map[K]int
}

func newCounter[K comparable]() *counter[K] {
	return &counter[K]{counts: make(map[K]int)}
}

func (c *counter[K]) add(k K) {
	if _, ok := c.counts[k]; !ok {
		c.order = append(c.order, k)
	}
	c.counts[k]++
}

func (c *counter[K]) keys() []K { return c.order }

func (c *counter[K]) count(k K) int { return c.counts[k] }

// mean accumulates a sum and a sample count.
type mean struct {
	sum   float64
	count int
}

func (m *mean) add(v float64) {
	m.sum += v
	m.count++
}

// value is the 2-decimal mean, 0 when nothing was added.
func (m mean) value() float64 {
	if m.count == 0 {
		return 0
	}
	return round2(m.sum / float64(m.count))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func percentage(part, total int) float64 {
	if total == 0 {
		return 0
	}
	return round2(float64(part) / float64(total) * 100)
}

// leadingInt parses the run of ASCII digits at the very start of s,
// so "4 - Concordo" yields 4. Strings not starting with a digit are rejected.
func leadingInt(s string) (int, bool) {
	n, i := 0, 0
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		if n > math.MaxInt32 {
			return 0, false
		}
		n = n*10 + int(s[i]-'0')
		i++
	}
	return n, i > 0
}

func fold(s string) string {
	return cases.Fold().String(s)
}

// containsAnyFold reports whether s contains any of the substrings, ignoring case.
func containsAnyFold(s string, substrs ...string) bool {
	fs := fold(s)
	for _, sub := range substrs {
		if sub != "" && strings.Contains(fs, fold(sub)) {
			return true
		}
	}
	return false
}

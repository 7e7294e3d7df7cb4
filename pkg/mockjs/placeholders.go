package mockjs

import (
	"fmt"
	mathrand "math/rand/v2"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

var placeholderRe = regexp.MustCompile(`@(\w+)(?:\(([^)]*)\))?`)

var words = []string{
	"alpha", "bravo", "charlie", "delta", "echo", "foxtrot", "golf",
	"hotel", "india", "juliet", "kilo", "lima", "mike", "november",
	"oscar", "papa", "quebec", "romeo", "sierra", "tango",
}

var firstNames = []string{
	"James", "Mary", "John", "Linda", "Robert", "Susan", "Michael",
	"Karen", "William", "Nancy", "David", "Lisa",
}

var lastNames = []string{
	"Smith", "Johnson", "Williams", "Brown", "Jones", "Garcia",
	"Miller", "Davis", "Wilson", "Anderson", "Taylor", "Thomas",
}

var domains = []string{
	"example.com", "example.org", "example.net", "test.io", "mock.dev",
}

var colors = []string{
	"#ff6600", "#3366cc", "#00cc99", "#cc3366", "#9933ff", "#ffcc00",
}

// expandPlaceholders replaces every @placeholder occurrence in a string.
// Unknown placeholders are left verbatim.
func (e *Engine) expandPlaceholders(s string) string {
	if !strings.Contains(s, "@") {
		return s
	}
	return placeholderRe.ReplaceAllStringFunc(s, func(match string) string {
		m := placeholderRe.FindStringSubmatch(match)
		out, ok := e.placeholder(strings.ToLower(m[1]), parseArgs(m[2]))
		if !ok {
			e.log.Warn("unknown mockjs placeholder", "placeholder", match)
			return match
		}
		return out
	})
}

func parseArgs(raw string) []int {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	args := make([]int, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil
		}
		args = append(args, n)
	}
	return args
}

// placeholder generates the value for a single placeholder name. Optional
// integer arguments narrow ranges, e.g. @integer(1,100) or @string(5).
func (e *Engine) placeholder(name string, args []int) (string, bool) {
	switch name {
	case "natural":
		return strconv.Itoa(e.argRange(args, 0, 10000)), true
	case "integer":
		return strconv.Itoa(e.argRange(args, -10000, 10000)), true
	case "float":
		low, high := bounds(args, 0, 100)
		return strconv.FormatFloat(float64(low)+e.rng.Float64()*float64(high-low), 'f', 2, 64), true
	case "boolean":
		return strconv.FormatBool(e.rng.IntN(2) == 0), true
	case "string":
		n := 6
		if len(args) >= 1 && args[0] > 0 {
			n = args[0]
		}
		return e.randomString(n), true
	case "word":
		return e.pick(words), true
	case "sentence":
		n := e.intN(6, 12)
		parts := make([]string, n)
		for i := range parts {
			parts[i] = e.pick(words)
		}
		s := strings.Join(parts, " ") + "."
		return strings.ToUpper(s[:1]) + s[1:], true
	case "title":
		n := e.intN(2, 5)
		parts := make([]string, n)
		for i := range parts {
			w := e.pick(words)
			parts[i] = strings.ToUpper(w[:1]) + w[1:]
		}
		return strings.Join(parts, " "), true
	case "first":
		return e.pick(firstNames), true
	case "last":
		return e.pick(lastNames), true
	case "name":
		return e.pick(firstNames) + " " + e.pick(lastNames), true
	case "email":
		return strings.ToLower(e.pick(firstNames)) + "." + strings.ToLower(e.pick(lastNames)) + "@" + e.pick(domains), true
	case "domain":
		return e.pick(domains), true
	case "url":
		return "https://" + e.pick(domains) + "/" + e.pick(words), true
	case "ip":
		return fmt.Sprintf("%d.%d.%d.%d", e.rng.IntN(256), e.rng.IntN(256), e.rng.IntN(256), e.rng.IntN(256)), true
	case "guid", "id":
		return e.randomUUID(), true
	case "date":
		return e.randomTime().Format("2006-01-02"), true
	case "time":
		return e.randomTime().Format("15:04:05"), true
	case "datetime":
		return e.randomTime().Format("2006-01-02 15:04:05"), true
	case "now":
		return time.Now().Format("2006-01-02 15:04:05"), true
	case "color":
		return e.pick(colors), true
	default:
		return "", false
	}
}

func (e *Engine) argRange(args []int, defLow, defHigh int) int {
	low, high := bounds(args, defLow, defHigh)
	return e.intN(low, high)
}

func bounds(args []int, defLow, defHigh int) (int, int) {
	low, high := defLow, defHigh
	switch len(args) {
	case 1:
		low = args[0]
	case 2:
		low, high = args[0], args[1]
	}
	if high < low {
		low, high = high, low
	}
	return low, high
}

const letters = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

func (e *Engine) randomString(n int) string {
	var b strings.Builder
	b.Grow(n)
	for i := 0; i < n; i++ {
		b.WriteByte(letters[e.rng.IntN(len(letters))])
	}
	return b.String()
}

func (e *Engine) pick(list []string) string {
	return list[e.rng.IntN(len(list))]
}

// randomUUID builds a version-4 UUID from the engine's own source so seeded
// engines stay reproducible.
func (e *Engine) randomUUID() string {
	id, err := uuid.NewRandomFromReader(rngReader{e.rng})
	if err != nil {
		return uuid.Nil.String()
	}
	return id.String()
}

// rngReader adapts the engine's rand source to io.Reader for uuid generation.
type rngReader struct {
	rng *mathrand.Rand
}

func (r rngReader) Read(p []byte) (int, error) {
	for i := range p {
		p[i] = byte(r.rng.IntN(256))
	}
	return len(p), nil
}

// timeEpoch anchors @date/@time/@datetime so seeded engines produce the same
// values on every run.
var timeEpoch = time.Date(2020, time.January, 1, 0, 0, 0, 0, time.UTC)

// randomTime draws a moment from the ten years before the anchor.
func (e *Engine) randomTime() time.Time {
	const tenYears = 10 * 365 * 24 * int64(time.Hour)
	offset := e.rng.Int64N(tenYears)
	return timeEpoch.Add(-time.Duration(offset))
}

// Package mockjs expands Mock.js-style templates into concrete JSON values.
// Property names carry directives ("msg|3", "count|1-100", "id|+1") that
// repeat, randomize or increment their values; string values may contain
// @placeholders ("@name", "@integer(1,100)") that materialize random data.
// Unknown directives fail closed: the literal value is emitted and a warning
// is logged.
package mockjs

import (
	"fmt"
	"log/slog"
	mathrand "math/rand/v2"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"github.com/cjzdmj1997/parrot-mocker-web/pkg/logging"
)

// maxDepth bounds template recursion so pathological inputs cannot loop.
const maxDepth = 32

// Engine expands templates. Expansion draws from a single RNG, so an engine
// created with NewSeeded produces identical output for identical templates.
// Safe for concurrent use.
type Engine struct {
	mu  sync.Mutex
	rng *mathrand.Rand
	seq map[string]int64
	log *slog.Logger
}

// New creates an engine with a randomly seeded RNG.
func New() *Engine {
	return &Engine{
		rng: mathrand.New(mathrand.NewPCG(mathrand.Uint64(), mathrand.Uint64())),
		seq: make(map[string]int64),
		log: logging.Nop(),
	}
}

// NewSeeded creates an engine whose output is deterministic for the given
// seed.
func NewSeeded(seed uint64) *Engine {
	return &Engine{
		rng: mathrand.New(mathrand.NewPCG(seed, 0)),
		seq: make(map[string]int64),
		log: logging.Nop(),
	}
}

// SetLogger sets the logger used to flag unsupported directives.
func (e *Engine) SetLogger(log *slog.Logger) {
	if log != nil {
		e.log = log
	}
}

// Expand materializes a template value. Maps are walked for directive keys,
// slices element-wise, and strings for placeholders; all other values pass
// through unchanged.
func (e *Engine) Expand(template any) (any, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.expand(template, 0)
}

func (e *Engine) expand(v any, depth int) (any, error) {
	if depth > maxDepth {
		return nil, fmt.Errorf("mockjs: template nesting exceeds %d levels", maxDepth)
	}

	switch val := v.(type) {
	case map[string]any:
		return e.expandObject(val, depth)
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			expanded, err := e.expand(item, depth+1)
			if err != nil {
				return nil, err
			}
			out[i] = expanded
		}
		return out, nil
	case string:
		return e.expandPlaceholders(val), nil
	default:
		return v, nil
	}
}

func (e *Engine) expandObject(obj map[string]any, depth int) (any, error) {
	out := make(map[string]any, len(obj))
	for key, val := range obj {
		name, directive := splitDirective(key)
		if directive == "" {
			expanded, err := e.expand(val, depth+1)
			if err != nil {
				return nil, err
			}
			out[name] = expanded
			continue
		}

		expanded, ok, err := e.applyDirective(name, directive, val, depth)
		if err != nil {
			return nil, err
		}
		if !ok {
			// Fail closed: keep the directive key and the literal value.
			e.log.Warn("unsupported mockjs directive", "key", key)
			out[key] = val
			continue
		}
		out[name] = expanded
	}
	return out, nil
}

// splitDirective separates "name|directive" at the last pipe. Keys without a
// pipe have no directive.
func splitDirective(key string) (name, directive string) {
	idx := strings.LastIndex(key, "|")
	if idx < 0 {
		return key, ""
	}
	return key[:idx], key[idx+1:]
}

var (
	countRe = regexp.MustCompile(`^\d+$`)
	rangeRe = regexp.MustCompile(`^(\d+)-(\d+)$`)
	stepRe  = regexp.MustCompile(`^\+(\d+)$`)
)

// applyDirective interprets a single directive against its template value.
// The boolean result reports whether the directive was recognized for this
// value type.
func (e *Engine) applyDirective(name, directive string, val any, depth int) (any, bool, error) {
	// name|+step: auto-incrementing integer, starting at the template value.
	if m := stepRe.FindStringSubmatch(directive); m != nil {
		start, ok := asInt(val)
		if !ok {
			return nil, false, nil
		}
		step, _ := strconv.ParseInt(m[1], 10, 64)
		return e.nextSequence(name, start, step), true, nil
	}

	// name|count
	if countRe.MatchString(directive) {
		n, _ := strconv.Atoi(directive)
		return e.repeatValue(val, n, depth)
	}

	// name|min-max
	if m := rangeRe.FindStringSubmatch(directive); m != nil {
		low, _ := strconv.Atoi(m[1])
		high, _ := strconv.Atoi(m[2])
		if high < low {
			low, high = high, low
		}

		// Numeric values draw a random integer from the range itself.
		if _, ok := asInt(val); ok {
			return int64(e.intN(low, high)), true, nil
		}
		return e.repeatValue(val, e.intN(low, high), depth)
	}

	return nil, false, nil
}

// repeatValue applies a repeat count to a string, array or boolean template
// value.
func (e *Engine) repeatValue(val any, n int, depth int) (any, bool, error) {
	switch v := val.(type) {
	case string:
		return strings.Repeat(e.expandPlaceholders(v), n), true, nil
	case []any:
		out := make([]any, 0, n*len(v))
		for i := 0; i < n; i++ {
			for _, item := range v {
				expanded, err := e.expand(item, depth+1)
				if err != nil {
					return nil, false, err
				}
				out = append(out, expanded)
			}
		}
		return out, true, nil
	case bool:
		// b|1 flips a coin; other counts are not meaningful for booleans.
		if n == 1 {
			return e.rng.IntN(2) == 0, true, nil
		}
		return nil, false, nil
	default:
		return nil, false, nil
	}
}

func (e *Engine) nextSequence(name string, start, step int64) int64 {
	cur, ok := e.seq[name]
	if !ok {
		e.seq[name] = start
		return start
	}
	cur += step
	e.seq[name] = cur
	return cur
}

// intN returns a random integer in [low, high].
func (e *Engine) intN(low, high int) int {
	if high <= low {
		return low
	}
	return low + e.rng.IntN(high-low+1)
}

// asInt reports whether the value is an integral number and returns it.
// JSON numbers arrive as float64.
func asInt(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int64:
		return n, true
	case float64:
		if n == float64(int64(n)) {
			return int64(n), true
		}
	}
	return 0, false
}

package matching

import (
	"regexp"
	"strings"

	"github.com/cjzdmj1997/parrot-mocker-web/pkg/rule"
)

// MatchHost checks the host predicate. An empty rule host matches any host;
// otherwise the comparison is a case-insensitive equality.
func MatchHost(ruleHost, host string) bool {
	if ruleHost == "" {
		return true
	}
	return strings.EqualFold(ruleHost, host)
}

// MatchPath checks the path predicate against the target pathname. Literal
// rules compare the effective path (prepath + path) for exact equality.
// Regexp rules use find-anywhere semantics: the pattern is not implicitly
// anchored, so `(bad)?nonexist` matches `/api/nonexist`.
func MatchPath(r *rule.Rule, pathname string) bool {
	effective := r.EffectivePath()
	if !r.IsRegexp() {
		return pathname == effective
	}

	re, err := regexp.Compile(effective)
	if err != nil {
		// Lists are validated before they reach the store; an invalid
		// pattern here simply never matches.
		return false
	}
	return re.MatchString(pathname)
}

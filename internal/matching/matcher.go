// Package matching implements the rule-matching algorithm for intercepted
// requests.
package matching

import (
	"net/url"

	"github.com/cjzdmj1997/parrot-mocker-web/pkg/rule"
)

// Request carries the parsed fields of an intercepted request that matching
// operates on. Form is the form-decoded POST body and may be nil.
type Request struct {
	Host  string
	Path  string
	Query url.Values
	Form  url.Values
}

// FirstMatch scans the rules in list order and returns the first rule whose
// host, path and params predicates all hold, or nil when none match. Order
// decides ties; there is no specificity scoring.
func FirstMatch(rules []rule.Rule, req *Request) *rule.Rule {
	for i := range rules {
		r := &rules[i]
		if !MatchHost(r.Host, req.Host) {
			continue
		}
		if !MatchPath(r, req.Path) {
			continue
		}
		if !MatchParams(r.Params, req.Query, req.Form) {
			continue
		}
		return r
	}
	return nil
}

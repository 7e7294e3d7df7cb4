package matching

import "net/url"

// MatchParams checks the params predicate. The rule's params string is
// parsed as k=v&k=v; every pair must be present with that exact value in
// either the target query string or the form-decoded POST body. A rule
// without params always passes.
func MatchParams(params string, query, form url.Values) bool {
	if params == "" {
		return true
	}

	required, err := url.ParseQuery(params)
	if err != nil {
		return false
	}

	for key, values := range required {
		for _, want := range values {
			if !hasParam(key, want, query) && !hasParam(key, want, form) {
				return false
			}
		}
	}
	return true
}

func hasParam(key, want string, vals url.Values) bool {
	if vals == nil {
		return false
	}
	for _, v := range vals[key] {
		if v == want {
			return true
		}
	}
	return false
}

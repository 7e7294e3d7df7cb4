package rule

import (
	"fmt"
	"net/url"
	"regexp"
)

// ValidateList checks every rule in the list and returns the first problem
// found. An invalid list is rejected wholesale so the store never observes a
// partial update.
func ValidateList(rules []Rule) error {
	for i := range rules {
		if err := validate(&rules[i]); err != nil {
			return fmt.Errorf("rule %d: %w", i, err)
		}
	}
	return nil
}

func validate(r *Rule) error {
	if r.Path == "" {
		return fmt.Errorf("path is required")
	}

	switch r.PathType {
	case "", PathTypeLiteral:
	case PathTypeRegexp:
		if _, err := regexp.Compile(r.EffectivePath()); err != nil {
			return fmt.Errorf("invalid path regexp %q: %w", r.EffectivePath(), err)
		}
	default:
		return fmt.Errorf("unknown pathtype %q", r.PathType)
	}

	switch r.ResponseType {
	case "", ResponseTypeRaw, ResponseTypeMockjs:
	default:
		return fmt.Errorf("unknown responsetype %q", r.ResponseType)
	}

	if r.Params != "" {
		if _, err := url.ParseQuery(r.Params); err != nil {
			return fmt.Errorf("invalid params %q: %w", r.Params, err)
		}
	}

	if r.Delay < 0 {
		return fmt.Errorf("negative delay %d", r.Delay)
	}

	if r.Status != 0 && (r.Status < 100 || r.Status > 599) {
		return fmt.Errorf("status %d out of range", r.Status)
	}

	return nil
}

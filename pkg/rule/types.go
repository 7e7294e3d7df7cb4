// Package rule defines mock rules and the per-client rule store.
package rule

// Path matching modes.
const (
	PathTypeLiteral = "literal"
	PathTypeRegexp  = "regexp"
)

// Response body modes.
const (
	ResponseTypeRaw    = "raw"
	ResponseTypeMockjs = "mockjs"
)

// Rule describes one mock entry. A request matches when the host, path and
// params predicates all hold; see the matching package for the exact
// semantics. A matching rule with no Response is observation-only: the
// request is still forwarded upstream, but observers see it flagged as
// matched.
type Rule struct {
	// Host restricts the rule to one target host when set
	// (case-insensitive equality).
	Host string `json:"host,omitempty" yaml:"host,omitempty"`

	// Path is the literal path or regular expression to compare against
	// the target pathname, depending on PathType.
	Path string `json:"path" yaml:"path"`

	// PathType selects literal or regexp comparison. Empty means literal.
	PathType string `json:"pathtype,omitempty" yaml:"pathtype,omitempty"`

	// PrePath is prepended to Path before comparison.
	PrePath string `json:"prepath,omitempty" yaml:"prepath,omitempty"`

	// Params lists required parameters in k=v&k=v form. Every pair must be
	// present in the target query string or the form-decoded POST body.
	Params string `json:"params,omitempty" yaml:"params,omitempty"`

	// Delay is artificial latency in milliseconds applied before the
	// synthesized response is written.
	Delay int `json:"delay,omitempty" yaml:"delay,omitempty"`

	// Status is the HTTP status of the synthesized response. Zero means 200.
	Status int `json:"status,omitempty" yaml:"status,omitempty"`

	// ResponseType selects verbatim (raw) or mockjs-expanded bodies.
	// Empty means raw.
	ResponseType string `json:"responsetype,omitempty" yaml:"responsetype,omitempty"`

	// Response is the body to return: any JSON value. When nil the rule is
	// observation-only and the request is forwarded.
	Response any `json:"response,omitempty" yaml:"response,omitempty"`
}

// EffectivePath returns the path the rule compares against, with PrePath
// applied.
func (r *Rule) EffectivePath() string {
	return r.PrePath + r.Path
}

// EffectiveStatus returns the response status, defaulting to 200.
func (r *Rule) EffectiveStatus() int {
	if r.Status == 0 {
		return 200
	}
	return r.Status
}

// IsRegexp reports whether the rule path is a regular expression.
func (r *Rule) IsRegexp() bool {
	return r.PathType == PathTypeRegexp
}

// IsMockjs reports whether the response body goes through mockjs expansion.
func (r *Rule) IsMockjs() bool {
	return r.ResponseType == ResponseTypeMockjs
}

// HasResponse reports whether the rule carries a response body. Rules
// without one are observation-only pass-throughs.
func (r *Rule) HasResponse() bool {
	return r.Response != nil
}

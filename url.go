package dap

import "strings"

// URLBuilder stamps a base URL, with any trailing "/" or ".nc" stripped,
// into the three OpenDAP endpoints.
type URLBuilder struct {
	baseURL string
}

// NewURLBuilder strips a trailing slash and/or ".nc" suffix from base.
func NewURLBuilder(base string) URLBuilder {
	b := strings.TrimSuffix(base, "/")
	b = strings.TrimSuffix(b, ".nc")
	return URLBuilder{baseURL: b}
}

func (u URLBuilder) DasURL() string { return u.baseURL + ".das" }
func (u URLBuilder) DdsURL() string { return u.baseURL + ".dds" }

// DodsURL emits the .dods endpoint, appending "?constraint" when
// constraint is non-empty.
func (u URLBuilder) DodsURL(constraint string) string {
	if constraint != "" {
		return u.baseURL + ".dods?" + constraint
	}
	return u.baseURL + ".dods"
}

// DodsURLWithConstraints renders builder and appends it as the .dods
// query string.
func (u URLBuilder) DodsURLWithConstraints(builder ConstraintBuilder) string {
	return u.DodsURL(builder.Build())
}

func (u URLBuilder) BaseURL() string { return u.baseURL }

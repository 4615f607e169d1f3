// Package dap parses the OPeNDAP DDS/DAS metadata descriptors and DODS
// binary payload format, and builds coordinate-aware constraint
// expressions and URLs for fetching OpenDAP variables over HTTP.
//
// The package does not perform any network I/O itself: callers supply the
// DDS/DAS text and DODS payload bytes from whatever transport they choose,
// and this package turns them into typed trees, typed arrays, and query
// strings.
package dap

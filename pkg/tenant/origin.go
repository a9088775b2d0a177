package tenant

import (
	"net"
	"net/http"
	"strings"
)

// HeaderPageOrigin is the trusted proxy-forwarded header carrying the
// browser's real page origin. When a request travels through a reverse proxy
// the transport-level Host points at the proxy itself, so an upstream that
// knows the true origin forwards it here.
const HeaderPageOrigin = "X-Page-Origin"

// NormalizeOrigin reduces a raw origin or host value to a bare lowercase
// hostname: scheme, path, and port are stripped. Returns "" for empty input.
func NormalizeOrigin(raw string) string {
	s := strings.ToLower(strings.TrimSpace(raw))
	if s == "" {
		return ""
	}
	if i := strings.Index(s, "://"); i != -1 {
		s = s[i+3:]
	}
	if i := strings.IndexByte(s, '/'); i != -1 {
		s = s[:i]
	}
	if host, _, err := net.SplitHostPort(s); err == nil && host != "" {
		s = host
	}
	return strings.Trim(s, "[]")
}

// CandidateHosts returns the host candidates for tenant resolution, taken
// from exactly one header source: the trusted page-origin header when
// present, else Origin, else the transport-level Host. Sources are never
// merged; mixing a proxy's Host with a forwarded origin would open the door
// to cross-tenant confusion.
func CandidateHosts(r *http.Request) []string {
	if v := r.Header.Get(HeaderPageOrigin); strings.TrimSpace(v) != "" {
		return []string{v}
	}
	if v := r.Header.Get("Origin"); strings.TrimSpace(v) != "" {
		return []string{v}
	}
	if r.Host != "" {
		return []string{r.Host}
	}
	return nil
}

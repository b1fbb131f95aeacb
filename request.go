package hawk

import (
	"net"
	"net/http"
	"net/url"
	"strings"
)

// RequestDescriptor captures the authentication-relevant subset of an
// HTTP request: method, location, and optionally the payload to hash.
// Immutable once constructed; both the client and the server sides
// canonicalize from it.
type RequestDescriptor struct {
	// Method is the HTTP method. Canonicalized to upper case.
	Method string

	// Host is the server host, without port.
	Host string

	// Port is the server port as it appears on the wire.
	Port string

	// Resource is the request path including the raw query string.
	Resource string

	// ContentType is used for payload hashing only. Parameters after
	// ";" are ignored.
	ContentType string

	// Payload, when non-nil, opts the request into payload hashing.
	Payload []byte

	// Ext is an opaque application-specific string covered by the MAC.
	Ext string
}

// NewRequestDescriptor extracts a descriptor from a request. The body is
// not read; assign Payload separately to opt into payload hashing.
func NewRequestDescriptor(r *http.Request) *RequestDescriptor {
	host, port := requestHostPort(r)

	return &RequestDescriptor{
		Method:      r.Method,
		Host:        host,
		Port:        port,
		Resource:    resourceFromURL(r.URL),
		ContentType: r.Header.Get("Content-Type"),
	}
}

// resourceFromURL returns the path-plus-query form covered by the MAC.
func resourceFromURL(u *url.URL) string {
	if u == nil {
		return "/"
	}

	resource := u.EscapedPath()
	if resource == "" {
		resource = "/"
	}

	if u.RawQuery != "" {
		resource += "?" + u.RawQuery
	}

	return resource
}

// requestHostPort resolves the host and port the request is addressed
// to. The Host header takes precedence over the URL; a missing port
// falls back to the scheme default. The "host" is special-cased the
// same way net/http stores it: Request.Host rather than the header map.
func requestHostPort(r *http.Request) (string, string) {
	hostport := r.Host
	if hostport == "" && r.URL != nil {
		hostport = r.URL.Host
	}

	hostport = strings.ToLower(hostport)

	if host, port, err := net.SplitHostPort(hostport); err == nil {
		return host, port
	}

	if r.TLS != nil || (r.URL != nil && strings.EqualFold(r.URL.Scheme, "https")) {
		return hostport, "443"
	}

	return hostport, "80"
}

// descriptorFromURL builds a GET descriptor from a parsed URL, used when
// issuing and verifying bewits.
func descriptorFromURL(u *url.URL) *RequestDescriptor {
	host := strings.ToLower(u.Hostname())
	port := u.Port()

	if port == "" {
		if strings.EqualFold(u.Scheme, "https") {
			port = "443"
		} else {
			port = "80"
		}
	}

	return &RequestDescriptor{
		Method:   http.MethodGet,
		Host:     host,
		Port:     port,
		Resource: resourceFromURL(u),
	}
}

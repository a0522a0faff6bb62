package mediaurl

import (
	"net/url"
	"strings"

	"github.com/ahmetcoskunkizilkaya/civic-backend/internal/rejection"
)

const (
	KindVideo = "video"
	KindImage = "image"
)

// Mode selects how much of the URL survives canonicalization.
type Mode int

const (
	// General keeps the query string (report media).
	General Mode = iota
	// VideoOnly drops the query string (video link endpoint).
	VideoOnly
)

// Host is an allow-list entry. Subdomains of Domain are accepted too.
type Host struct {
	Domain string
	Kind   string
}

type Guard struct {
	hosts []Host
	mode  Mode
}

// Result is an accepted URL in canonical form.
type Result struct {
	URL  string `json:"url"`
	Host string `json:"host"`
	Kind string `json:"kind"`
}

func NewGuard(hosts []Host, mode Mode) *Guard {
	normalized := make([]Host, 0, len(hosts))
	for _, h := range hosts {
		normalized = append(normalized, Host{Domain: strings.ToLower(h.Domain), Kind: h.Kind})
	}
	return &Guard{hosts: normalized, mode: mode}
}

// Check classifies raw. It returns a canonical URL or a *rejection.Error of
// kind InvalidFormat, InsecureProtocol or DomainNotAllowed.
func (g *Guard) Check(raw string) (*Result, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Scheme == "" || u.Host == "" || u.Hostname() == "" {
		return nil, rejection.New(rejection.InvalidFormat, "mediaUrl", "Invalid media URL format")
	}

	// url.Parse already lowercases the scheme.
	if u.Scheme != "https" {
		return nil, rejection.New(rejection.InsecureProtocol, "mediaUrl", "Media URL must use HTTPS protocol")
	}

	hostname := strings.ToLower(u.Hostname())
	entry, ok := g.match(hostname)
	if !ok {
		return nil, rejection.New(rejection.DomainNotAllowed, "mediaUrl", "Media URL must be from an allowed platform")
	}

	canonical := "https://" + strings.ToLower(u.Host) + u.EscapedPath()
	if g.mode == General && u.RawQuery != "" {
		canonical += "?" + u.RawQuery
	}

	return &Result{URL: canonical, Host: hostname, Kind: entry.Kind}, nil
}

func (g *Guard) match(hostname string) (Host, bool) {
	for _, h := range g.hosts {
		if MatchesDomain(hostname, h.Domain) {
			return h, true
		}
	}
	return Host{}, false
}

// MatchesDomain reports whether hostname is domain itself or one of its
// subdomains. Both arguments must already be lowercase.
func MatchesDomain(hostname, domain string) bool {
	if domain == "" {
		return false
	}
	return hostname == domain || strings.HasSuffix(hostname, "."+domain)
}

package policy

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ahmetcoskunkizilkaya/civic-backend/internal/mediaurl"
)

// MediaHost is one allow-listed media hostname.
type MediaHost struct {
	Domain string `yaml:"domain"`
	Kind   string `yaml:"kind"` // video, image
}

// Policy holds the closed sets the intake gate validates against.
type Policy struct {
	ReportTypes   []string    `yaml:"report_types"`
	LocationTypes []string    `yaml:"location_types"`
	MediaHosts    []MediaHost `yaml:"media_hosts"`
}

var (
	defaultReportTypes   = []string{"SAFETY", "MAINTENANCE", "CLEANLINESS", "ACCESSIBILITY", "OTHER"}
	defaultLocationTypes = []string{"PARK", "PLAYGROUND", "WALKWAY", "BUILDING", "OTHER"}
	defaultMediaHosts    = []MediaHost{
		{Domain: "youtube.com", Kind: mediaurl.KindVideo},
		{Domain: "youtu.be", Kind: mediaurl.KindVideo},
		{Domain: "vimeo.com", Kind: mediaurl.KindVideo},
		{Domain: "facebook.com", Kind: mediaurl.KindVideo},
		{Domain: "fb.watch", Kind: mediaurl.KindVideo},
		{Domain: "drive.google.com", Kind: mediaurl.KindVideo},
		{Domain: "docs.google.com", Kind: mediaurl.KindVideo},
		{Domain: "imgur.com", Kind: mediaurl.KindImage},
		{Domain: "unsplash.com", Kind: mediaurl.KindImage},
	}
)

// Default returns the allow-lists of the stock deployment.
func Default() *Policy {
	return &Policy{
		ReportTypes:   append([]string(nil), defaultReportTypes...),
		LocationTypes: append([]string(nil), defaultLocationTypes...),
		MediaHosts:    append([]MediaHost(nil), defaultMediaHosts...),
	}
}

// LoadFromFile reads a YAML policy. An empty path yields Default; sections
// missing from the file keep their defaults.
func LoadFromFile(path string) (*Policy, error) {
	if path == "" {
		return Default(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read policy file: %w", err)
	}
	return Parse(data)
}

func Parse(data []byte) (*Policy, error) {
	var p Policy
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("failed to parse policy file: %w", err)
	}

	def := Default()
	if len(p.ReportTypes) == 0 {
		p.ReportTypes = def.ReportTypes
	}
	if len(p.LocationTypes) == 0 {
		p.LocationTypes = def.LocationTypes
	}
	if len(p.MediaHosts) == 0 {
		p.MediaHosts = def.MediaHosts
	}

	if err := p.normalize(); err != nil {
		return nil, err
	}
	return &p, nil
}

func (p *Policy) normalize() error {
	for i, h := range p.MediaHosts {
		domain := strings.ToLower(strings.TrimSpace(h.Domain))
		if domain == "" || strings.Contains(domain, "/") || strings.HasPrefix(domain, ".") {
			return fmt.Errorf("invalid media host %q: expected a bare hostname", h.Domain)
		}
		kind := strings.ToLower(strings.TrimSpace(h.Kind))
		if kind == "" {
			kind = mediaurl.KindImage
		}
		if kind != mediaurl.KindVideo && kind != mediaurl.KindImage {
			return fmt.Errorf("invalid kind %q for media host %s", h.Kind, domain)
		}
		p.MediaHosts[i] = MediaHost{Domain: domain, Kind: kind}
	}

	for _, v := range append(append([]string(nil), p.ReportTypes...), p.LocationTypes...) {
		if strings.TrimSpace(v) == "" {
			return errors.New("enumeration values must not be empty")
		}
	}
	return nil
}

// Hosts converts the media allow-list for the URL guard. With videoOnly set,
// image hosts are left out.
func (p *Policy) Hosts(videoOnly bool) []mediaurl.Host {
	hosts := make([]mediaurl.Host, 0, len(p.MediaHosts))
	for _, h := range p.MediaHosts {
		if videoOnly && h.Kind != mediaurl.KindVideo {
			continue
		}
		hosts = append(hosts, mediaurl.Host{Domain: h.Domain, Kind: h.Kind})
	}
	return hosts
}

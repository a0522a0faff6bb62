package validation

import (
	"strings"
	"unicode/utf8"

	"github.com/ahmetcoskunkizilkaya/civic-backend/internal/rejection"
)

const (
	MaxTitleLength       = 200
	MaxDescriptionLength = 2000
	MaxLocationLength    = 500
	MaxMediaURLLength    = 500
)

// Submission is a report payload that passed field-level validation.
// MediaURL is trimmed but not yet checked against the media allow-list.
type Submission struct {
	Title        string `json:"title"`
	Description  string `json:"description,omitempty"`
	ReportType   string `json:"reportType"`
	Location     string `json:"location"`
	LocationType string `json:"locationType"`
	MediaURL     string `json:"mediaUrl,omitempty"`
}

// Fields returns s in the raw key/value shape Validate accepts.
func (s *Submission) Fields() map[string]any {
	m := map[string]any{
		"title":        s.Title,
		"reportType":   s.ReportType,
		"location":     s.Location,
		"locationType": s.LocationType,
	}
	if s.Description != "" {
		m["description"] = s.Description
	}
	if s.MediaURL != "" {
		m["mediaUrl"] = s.MediaURL
	}
	return m
}

type Validator struct {
	reportTypes   map[string]bool
	locationTypes map[string]bool
}

func NewValidator(reportTypes, locationTypes []string) *Validator {
	return &Validator{
		reportTypes:   toSet(reportTypes),
		locationTypes: toSet(locationTypes),
	}
}

var requiredFields = []struct {
	key   string
	label string
}{
	{"title", "Title"},
	{"reportType", "Report type"},
	{"location", "Location"},
	{"locationType", "Location type"},
}

// Validate checks presence, then types, then enum membership, then trims and
// truncates free text. The first failing check wins.
func (v *Validator) Validate(raw map[string]any) (*Submission, error) {
	for _, f := range requiredFields {
		if isBlank(raw[f.key]) {
			return nil, rejection.New(rejection.MissingField, f.key, f.label+" is required")
		}
	}

	strs := make(map[string]string, 7)
	for _, key := range []string{"title", "reportType", "location", "locationType", "description", "mediaUrl", "imageUrl"} {
		val, present := raw[key]
		if !present || val == nil {
			continue
		}
		s, ok := val.(string)
		if !ok {
			return nil, rejection.New(rejection.WrongType, key, key+" must be a string")
		}
		strs[key] = s
	}

	if !v.reportTypes[strs["reportType"]] {
		return nil, rejection.New(rejection.InvalidEnum, "reportType", "Invalid report type")
	}
	if !v.locationTypes[strs["locationType"]] {
		return nil, rejection.New(rejection.InvalidEnum, "locationType", "Invalid location type")
	}

	// imageUrl is the older name of the same field.
	media, ok := strs["mediaUrl"]
	if !ok || strings.TrimSpace(media) == "" {
		media = strs["imageUrl"]
	}
	media = strings.TrimSpace(media)
	if utf8.RuneCountInString(media) > MaxMediaURLLength {
		return nil, rejection.New(rejection.TooLong, "mediaUrl", "Media URL must be at most 500 characters")
	}

	return &Submission{
		Title:        clip(strs["title"], MaxTitleLength),
		Description:  clip(strs["description"], MaxDescriptionLength),
		ReportType:   strs["reportType"],
		Location:     clip(strs["location"], MaxLocationLength),
		LocationType: strs["locationType"],
		MediaURL:     media,
	}, nil
}

func isBlank(v any) bool {
	if v == nil {
		return true
	}
	s, ok := v.(string)
	return ok && strings.TrimSpace(s) == ""
}

// clip trims s and cuts it to at most n characters. Trimming happens first,
// so a cut that lands on whitespace keeps it.
func clip(s string, n int) string {
	s = strings.TrimSpace(s)
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

func toSet(values []string) map[string]bool {
	set := make(map[string]bool, len(values))
	for _, v := range values {
		set[v] = true
	}
	return set
}

package challenge

import (
	"regexp"
	"time"
)

// Signals are request traits used to spot unsophisticated automation.
type Signals struct {
	UserAgent    string
	FillDuration time.Duration // zero when the client did not report it
	HasAccept    bool
}

// MinFillDuration is the fastest a human plausibly completes the report form.
const MinFillDuration = 3 * time.Second

var botUserAgents = []*regexp.Regexp{
	regexp.MustCompile(`(?i)bot`),
	regexp.MustCompile(`(?i)crawler`),
	regexp.MustCompile(`(?i)spider`),
	regexp.MustCompile(`(?i)scraper`),
	regexp.MustCompile(`(?i)curl`),
	regexp.MustCompile(`(?i)wget`),
	regexp.MustCompile(`(?i)python-requests`),
	regexp.MustCompile(`(?i)postman`),
}

// DetectAutomation returns a reason when s looks scripted, or "" otherwise.
func DetectAutomation(s Signals) string {
	if s.UserAgent != "" {
		for _, re := range botUserAgents {
			if re.MatchString(s.UserAgent) {
				return "Bot-like User-Agent detected"
			}
		}
	}
	if s.FillDuration > 0 && s.FillDuration < MinFillDuration {
		return "Form submitted too quickly"
	}
	if !s.HasAccept {
		return "Missing browser headers"
	}
	return ""
}

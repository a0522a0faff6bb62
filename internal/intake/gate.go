package intake

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/ahmetcoskunkizilkaya/civic-backend/internal/challenge"
	"github.com/ahmetcoskunkizilkaya/civic-backend/internal/mediaurl"
	"github.com/ahmetcoskunkizilkaya/civic-backend/internal/ratelimit"
	"github.com/ahmetcoskunkizilkaya/civic-backend/internal/rejection"
	"github.com/ahmetcoskunkizilkaya/civic-backend/internal/validation"
)

// MediaPolicy decides what a rejected media URL does to the submission.
type MediaPolicy string

const (
	MediaReject MediaPolicy = "reject"
	MediaDrop   MediaPolicy = "drop"
)

type ChallengeMode string

const (
	ChallengeStateless ChallengeMode = "stateless"
	ChallengeToken     ChallengeMode = "token"
)

// Body keys carrying the bot challenge alongside the report fields.
const (
	keyAnswer       = "challengeAnswer"
	keyExpected     = "expectedAnswer"
	keyIssuedAt     = "challengeIssuedAt"
	keyToken        = "challengeToken"
	keyFormDuration = "formDurationMs"
)

type Options struct {
	MaxRequests      int
	Window           time.Duration
	RequireChallenge bool
	ChallengeMode    ChallengeMode
	Heuristics       bool
	MediaPolicy      MediaPolicy
}

type Gate struct {
	limiter   ratelimit.Limiter
	verifier  *challenge.Verifier
	store     challenge.Store
	validator *validation.Validator
	guard     *mediaurl.Guard
	opts      Options
}

// NewGate wires the checks. store is only consulted in token mode and may be
// nil otherwise.
func NewGate(limiter ratelimit.Limiter, verifier *challenge.Verifier, store challenge.Store,
	validator *validation.Validator, guard *mediaurl.Guard, opts Options) *Gate {
	if opts.MediaPolicy == "" {
		opts.MediaPolicy = MediaReject
	}
	if opts.ChallengeMode == "" {
		opts.ChallengeMode = ChallengeStateless
	}
	return &Gate{
		limiter:   limiter,
		verifier:  verifier,
		store:     store,
		validator: validator,
		guard:     guard,
		opts:      opts,
	}
}

type Request struct {
	Identifier string
	Body       map[string]any
	Signals    challenge.Signals
}

// Admission is a submission cleared for persistence.
type Admission struct {
	Submission *validation.Submission
	Media      *mediaurl.Result // nil without media or when dropped
	// MediaRejection is set when the media URL failed under MediaDrop.
	MediaRejection *rejection.Error
}

// Admit runs the rate limiter, the bot challenge, the field validator and the
// media URL guard, in that order, and stops at the first rejection.
func (g *Gate) Admit(ctx context.Context, req Request) (*Admission, error) {
	d, err := g.limiter.Allow(ctx, req.Identifier, g.opts.MaxRequests, g.opts.Window)
	if err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}
	if !d.Allowed {
		rej := rejection.New(rejection.RateLimited, "", "Too many reports submitted. Please try again later.")
		rej.RetryAfter = time.Duration(d.RetryAfterSeconds()) * time.Second
		return nil, rej
	}

	if err := g.checkBot(ctx, req); err != nil {
		return nil, err
	}

	sub, err := g.validator.Validate(req.Body)
	if err != nil {
		return nil, err
	}

	adm := &Admission{Submission: sub}
	if sub.MediaURL == "" {
		return adm, nil
	}

	media, err := g.guard.Check(sub.MediaURL)
	if err != nil {
		rej, ok := rejection.As(err)
		if !ok || g.opts.MediaPolicy != MediaDrop {
			return nil, err
		}
		sub.MediaURL = ""
		adm.MediaRejection = rej
		return adm, nil
	}
	sub.MediaURL = media.URL
	adm.Media = media
	return adm, nil
}

func (g *Gate) checkBot(ctx context.Context, req Request) error {
	if g.opts.Heuristics {
		sig := req.Signals
		if ms, ok := number(req.Body[keyFormDuration]); ok {
			sig.FillDuration = time.Duration(ms) * time.Millisecond
		}
		if reason := challenge.DetectAutomation(sig); reason != "" {
			return rejection.New(rejection.SuspectedBot, "", reason)
		}
	}

	if !g.opts.RequireChallenge && !hasAny(req.Body, keyAnswer, keyExpected, keyIssuedAt, keyToken) {
		return nil
	}

	answer, err := stringField(req.Body, keyAnswer)
	if err != nil {
		return err
	}

	if g.opts.ChallengeMode == ChallengeToken {
		token, err := stringField(req.Body, keyToken)
		if err != nil {
			return err
		}
		return challenge.VerifyToken(ctx, g.verifier, g.store, token, answer)
	}

	expected, err := stringField(req.Body, keyExpected)
	if err != nil {
		return err
	}
	raw, present := req.Body[keyIssuedAt]
	if !present || raw == nil {
		return rejection.New(rejection.MissingField, keyIssuedAt, "Challenge timestamp is required")
	}
	ms, ok := number(raw)
	if !ok {
		return rejection.New(rejection.WrongType, keyIssuedAt, "Challenge timestamp must be a number")
	}
	return g.verifier.Verify(answer, expected, challenge.FromMillis(ms))
}

func hasAny(body map[string]any, keys ...string) bool {
	for _, k := range keys {
		if v, ok := body[k]; ok && v != nil {
			return true
		}
	}
	return false
}

func stringField(body map[string]any, key string) (string, error) {
	return challenge.AnswerText(key, body[key])
}

// number accepts JSON numbers and numeric strings.
func number(v any) (int64, bool) {
	switch n := v.(type) {
	case float64:
		return int64(n), true
	case int64:
		return n, true
	case int:
		return int64(n), true
	case json.Number:
		i, err := n.Int64()
		return i, err == nil
	case string:
		i, err := strconv.ParseInt(strings.TrimSpace(n), 10, 64)
		return i, err == nil
	}
	return 0, false
}

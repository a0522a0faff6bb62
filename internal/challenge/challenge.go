package challenge

import (
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/ahmetcoskunkizilkaya/civic-backend/internal/rejection"
)

// DefaultMaxAge is how long an issued challenge stays answerable.
const DefaultMaxAge = 10 * time.Minute

type Operator string

const (
	Add      Operator = "+"
	Subtract Operator = "-"
	Multiply Operator = "*"
)

var operators = []Operator{Add, Subtract, Multiply}

// operand ranges per operator, inclusive. Subtraction keeps a >= b so the
// answer is never negative.
var operandRanges = map[Operator][2][2]int{
	Add:      {{1, 20}, {1, 20}},
	Subtract: {{10, 30}, {1, 10}},
	Multiply: {{1, 10}, {1, 10}},
}

// Challenge is one arithmetic question and its expected answer.
type Challenge struct {
	Question string
	Answer   string
	IssuedAt time.Time
}

// Compose builds the challenge for a fixed operator and operands.
func Compose(op Operator, a, b int, issuedAt time.Time) Challenge {
	var result int
	switch op {
	case Add:
		result = a + b
	case Subtract:
		result = a - b
	case Multiply:
		result = a * b
	default:
		op, a, b, result = Add, 5, 3, 8
	}
	return Challenge{
		Question: fmt.Sprintf("%d %s %d = ?", a, op, b),
		Answer:   strconv.Itoa(result),
		IssuedAt: issuedAt,
	}
}

// Issuer is safe for concurrent use.
type Issuer struct {
	mu  sync.Mutex
	rng *rand.Rand
	now func() time.Time
}

// NewIssuer returns an issuer backed by rng; a nil rng uses a randomly
// seeded PCG source.
func NewIssuer(rng *rand.Rand) *Issuer {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &Issuer{rng: rng, now: time.Now}
}

func (i *Issuer) Issue() Challenge {
	i.mu.Lock()
	defer i.mu.Unlock()
	op := operators[i.rng.IntN(len(operators))]
	r := operandRanges[op]
	a := r[0][0] + i.rng.IntN(r[0][1]-r[0][0]+1)
	b := r[1][0] + i.rng.IntN(r[1][1]-r[1][0]+1)
	return Compose(op, a, b, i.now())
}

// Verifier checks round-tripped answers. It keeps no state: the caller
// supplies the expected answer it was handed at issue time.
type Verifier struct {
	MaxAge time.Duration
	now    func() time.Time
}

func NewVerifier(maxAge time.Duration) *Verifier {
	if maxAge <= 0 {
		maxAge = DefaultMaxAge
	}
	return &Verifier{MaxAge: maxAge, now: time.Now}
}

// Verify fails with Expired once MaxAge has passed since issuedAt, even for a
// correct answer, and with WrongAnswer otherwise when the trimmed answer
// differs from expected.
func (v *Verifier) Verify(userAnswer, expectedAnswer string, issuedAt time.Time) error {
	if v.now().Sub(issuedAt) > v.MaxAge {
		return rejection.New(rejection.Expired, "challengeAnswer", "Challenge expired. Please try again.")
	}
	if strings.TrimSpace(userAnswer) != expectedAnswer {
		return rejection.New(rejection.WrongAnswer, "challengeAnswer", "Incorrect answer. Please solve the math problem.")
	}
	return nil
}

// FromMillis converts a client-echoed epoch-millisecond timestamp.
func FromMillis(ms int64) time.Time {
	return time.UnixMilli(ms)
}

// AnswerText converts a JSON-decoded answer to the text Verify compares.
// Clients often send the numeric answer unquoted, so numbers are accepted.
// Absent or blank values fail with MissingField, other types with WrongType.
func AnswerText(field string, v any) (string, error) {
	switch a := v.(type) {
	case nil:
		return "", rejection.New(rejection.MissingField, field, "Missing challenge data")
	case string:
		if strings.TrimSpace(a) == "" {
			return "", rejection.New(rejection.MissingField, field, "Missing challenge data")
		}
		return a, nil
	case float64:
		return strconv.FormatFloat(a, 'f', -1, 64), nil
	case json.Number:
		return a.String(), nil
	default:
		return "", rejection.New(rejection.WrongType, field, field+" must be a string or number")
	}
}

// internal/game/engine.go
//
// Core engine for a single price guessing session.
// Responsibilities:
//   - Start rounds for a product (chosen by the caller or by a pluggable selector).
//   - Validate raw guess text and round it to cents.
//   - Compute higher/lower/correct feedback with exact 2-decimal equality.
//   - Track state transitions: in_progress → won/lost.
//
// Notes:
//   - The engine owns at most one live round; starting a round discards the old one.
//   - Engines are not safe for concurrent use. Callers serialise access per round.
//   - Win detection always runs before the attempt-exhaustion check, so a correct
//     final guess is a win.
package game

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrNotANumber    = errors.New("not a number")
	ErrNegative      = errors.New("negative amount")
	ErrRoundFinished = errors.New("round finished")

	ErrEmptyCatalog = errors.New("catalog is empty")
	ErrNoRound      = errors.New("no round started")
)

// Catalog is the read-only product source an engine selects from.
type Catalog interface {
	Len() int
	Product(i int) Product
}

// Selector picks an index in [0, n) for a catalog of n products.
type Selector func(n int) int

// UniformSelector picks a cryptographically random index.
func UniformSelector(n int) int {
	if n <= 1 {
		return 0
	}
	nBig, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		return 0
	}
	return int(nBig.Int64())
}

// Engine drives rounds against an injected catalog.
type Engine struct {
	catalog Catalog
	pick    Selector
	now     func() time.Time
	round   *Round
}

// Option customises an Engine.
type Option func(*Engine)

// WithSelector replaces the default uniform random selection policy.
func WithSelector(s Selector) Option {
	return func(e *Engine) {
		if s != nil {
			e.pick = s
		}
	}
}

// WithClock overrides the time source used to stamp new rounds.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// NewEngine constructs an engine with no live round.
func NewEngine(c Catalog, opts ...Option) *Engine {
	e := &Engine{catalog: c, pick: UniformSelector, now: time.Now}
	for _, o := range opts {
		o(e)
	}
	return e
}

// NewRound selects a product with the engine's selector and starts a round for it.
func (e *Engine) NewRound() (*Round, error) {
	if e.catalog == nil || e.catalog.Len() == 0 {
		return nil, ErrEmptyCatalog
	}
	n := e.catalog.Len()
	i := e.pick(n)
	if i < 0 || i >= n {
		return nil, fmt.Errorf("selector returned index %d for %d products", i, n)
	}
	return e.StartRound(e.catalog.Product(i)), nil
}

// StartRound creates a fresh round for p, replacing any live round.
func (e *Engine) StartRound(p Product) *Round {
	p.Price = p.Price.Round(2)
	e.round = &Round{
		ID:        uuid.NewString(),
		Target:    p,
		Attempts:  []Guess{},
		Limit:     AttemptLimit,
		Outcome:   OutcomeInProgress,
		StartedAt: e.now().UTC(),
	}
	return e.round
}

// Resume makes r the engine's live round (e.g. after loading it from a store).
func (e *Engine) Resume(r *Round) { e.round = r }

// Round returns the live round, or nil before the first StartRound.
func (e *Engine) Round() *Round { return e.round }

// Submit validates raw guess text and applies it to the live round.
func (e *Engine) Submit(raw string) (Result, error) {
	amount, err := ValidateGuess(raw)
	if err != nil {
		return Result{}, err
	}
	return e.SubmitGuess(amount)
}

// SubmitGuess applies an already validated amount to the live round.
func (e *Engine) SubmitGuess(amount decimal.Decimal) (Result, error) {
	if e.round == nil {
		return Result{}, ErrNoRound
	}
	return e.round.Submit(amount)
}

// AttemptIndex is the number of guesses made so far, which is also the
// zero-based index of the next guess. Zero without a live round.
func (e *Engine) AttemptIndex() int {
	if e.round == nil {
		return 0
	}
	return len(e.round.Attempts)
}

// AttemptLimit reports the live round's guess limit.
func (e *Engine) AttemptLimit() int {
	if e.round == nil {
		return AttemptLimit
	}
	return e.round.limit()
}

// Outcome reports the live round's state. Empty without a live round.
func (e *Engine) Outcome() Outcome {
	if e.round == nil {
		return ""
	}
	return e.round.Outcome
}

// maxGuessLen bounds the text of a guess. Prices never need more digits, and
// rounding cost grows with the literal's size.
const maxGuessLen = 32

// ValidateGuess parses raw as a decimal amount and rounds it half away from
// zero to cents. Surrounding whitespace is ignored; anything else that is not
// a plain decimal literal is ErrNotANumber, including exponent notation and
// literals longer than maxGuessLen. Negativity is checked before rounding.
func ValidateGuess(raw string) (decimal.Decimal, error) {
	s := strings.TrimSpace(raw)
	if s == "" || len(s) > maxGuessLen || strings.ContainsAny(s, "eE") {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrNotANumber, truncate(raw))
	}
	v, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrNotANumber, raw)
	}
	if v.IsNegative() {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrNegative, raw)
	}
	return v.Round(2), nil
}

func truncate(raw string) string {
	if len(raw) <= maxGuessLen {
		return raw
	}
	return raw[:maxGuessLen] + "..."
}

// Submit appends a guess and advances the round's state.
// A rejected guess is never appended.
//
// State transitions:
//   - Exact match → Won.
//   - Else if the number of guesses reaches the limit → Lost.
func (r *Round) Submit(amount decimal.Decimal) (Result, error) {
	if r.Outcome.Terminal() {
		return r.result(""), ErrRoundFinished
	}
	if amount.IsNegative() {
		return r.result(""), ErrNegative
	}
	amount = amount.Round(2)

	fb := feedbackFor(amount, r.Target.Price)
	r.Attempts = append(r.Attempts, Guess{Value: amount, Feedback: fb})
	r.Outcome = OutcomeInProgress

	if fb == FeedbackCorrect {
		r.Outcome = OutcomeWon
	} else if len(r.Attempts) >= r.limit() {
		r.Outcome = OutcomeLost
	}
	return r.result(fb), nil
}

// Remaining reports how many guesses are left; zero once terminal.
func (r *Round) Remaining() int {
	if r.Outcome.Terminal() {
		return 0
	}
	if n := r.limit() - len(r.Attempts); n > 0 {
		return n
	}
	return 0
}

// Clone returns a deep copy safe to hand to another owner.
func (r *Round) Clone() *Round {
	c := *r
	c.Attempts = make([]Guess, len(r.Attempts))
	copy(c.Attempts, r.Attempts)
	return &c
}

func (r *Round) limit() int {
	if r.Limit <= 0 {
		return AttemptLimit
	}
	return r.Limit
}

func (r *Round) result(fb Feedback) Result {
	return Result{
		Feedback:  fb,
		Outcome:   r.Outcome,
		Attempt:   len(r.Attempts),
		Remaining: r.Remaining(),
	}
}

// feedbackFor compares two cent-rounded amounts exactly.
// Higher means the player should guess higher.
func feedbackFor(guess, price decimal.Decimal) Feedback {
	switch guess.Cmp(price.Round(2)) {
	case 0:
		return FeedbackCorrect
	case -1:
		return FeedbackHigher
	default:
		return FeedbackLower
	}
}

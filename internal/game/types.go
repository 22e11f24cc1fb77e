// internal/game/types.go
//
// Core type definitions for the price guessing engine.
// Defines:
//   - Product:  a catalog item whose price is the hidden target.
//   - Feedback: per-guess hint (higher/lower/correct).
//   - Outcome:  round resolution state (in_progress/won/lost).
//   - Guess:    one submitted amount and its feedback.
//   - Round:    state for a single in-progress or finished round.
//   - Result:   what a submission reports back to the presenter.

package game

import (
	"time"

	"github.com/shopspring/decimal"
)

// AttemptLimit is the number of guesses a round allows.
const AttemptLimit = 5

// Product is a catalog item. Price is held at 2-decimal precision.
type Product struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	ImageRef string          `json:"image"`
	Price    decimal.Decimal `json:"price"`
}

// Feedback is the directional hint computed for a guess.
//   - "higher":  the price is above the guess.
//   - "lower":   the price is below the guess.
//   - "correct": the guess matched the price exactly.
type Feedback string

const (
	FeedbackHigher  Feedback = "higher"
	FeedbackLower   Feedback = "lower"
	FeedbackCorrect Feedback = "correct"
)

// Outcome is the round's resolution state. Won and Lost are terminal.
type Outcome string

const (
	OutcomeInProgress Outcome = "in_progress"
	OutcomeWon        Outcome = "won"
	OutcomeLost       Outcome = "lost"
)

// Terminal reports whether the outcome accepts no further guesses.
func (o Outcome) Terminal() bool { return o == OutcomeWon || o == OutcomeLost }

// Guess is one appended attempt. Never modified after creation.
type Guess struct {
	Value    decimal.Decimal `json:"value"`
	Feedback Feedback        `json:"feedback"`
}

// Round holds the state of a single play-through.
type Round struct {
	ID        string    `json:"id"`        // Unique round identifier (uuid).
	Target    Product   `json:"target"`    // The product whose price is guessed.
	Attempts  []Guess   `json:"attempts"`  // Guesses so far, in submission order.
	Limit     int       `json:"limit"`     // Maximum number of guesses.
	Outcome   Outcome   `json:"outcome"`   // Current resolution state.
	StartedAt time.Time `json:"startedAt"` // When the round was created.
}

// Result is returned by a successful submission.
type Result struct {
	Feedback  Feedback `json:"feedback"`
	Outcome   Outcome  `json:"outcome"`
	Attempt   int      `json:"attempt"`   // 1-based index of the guess just made.
	Remaining int      `json:"remaining"` // Guesses left; 0 once terminal.
}

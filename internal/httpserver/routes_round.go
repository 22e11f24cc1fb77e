// internal/httpserver/routes_round.go
//
// HTTP routes for playing rounds.
// Exposes four endpoints under /round:
//   - POST   /round/new   → start a round (mode "random" or "daily")
//   - POST   /round/guess → submit a guess for one of the player's rounds
//   - GET    /round/{id}  → current state of a round, including every attempt
//   - DELETE /round/{id}  → abandon a round
//
// The target price is only revealed once the round is won or lost.

package httpserver

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/robalobadob/priceguess/internal/game"
	"github.com/robalobadob/priceguess/internal/metrics"
	"github.com/robalobadob/priceguess/internal/store"
)

const (
	modeRandom = "random"
	modeDaily  = "daily"
)

// placeholderImage is shown when a product image cannot be loaded.
const placeholderImage = "data:image/svg+xml;base64,PHN2ZyB3aWR0aD0iMzAwIiBoZWlnaHQ9IjMwMCIgeG1sbnM9Imh0dHA6Ly93d3cudzMub3JnLzIwMDAvc3ZnIj48cmVjdCB3aWR0aD0iMTAwJSIgaGVpZ2h0PSIxMDAlIiBmaWxsPSIjZjVmNWY1Ii8+PHRleHQgeD0iNTAlIiB5PSI1MCUiIGZvbnQtZmFtaWx5PSJBcmlhbCwgc2Fucy1zZXJpZiIgZm9udC1zaXplPSIxNCIgZmlsbD0iIzk5OTk5OSIgdGV4dC1hbmNob3I9Im1pZGRsZSIgZHk9Ii4zZW0iPkltYWdlIG5vdCBhdmFpbGFibGU8L3RleHQ+PC9zdmc+"

const invalidPriceMsg = "Please enter a valid price (€0.00 or higher)"

// maxBodyBytes caps round request bodies.
const maxBodyBytes = 4 << 10

// mountRounds registers all /round routes.
func (s *Server) mountRounds() {
	s.r.Route("/round", func(r chi.Router) {
		r.Use(s.withPlayer)
		r.Post("/new", s.handleNewRound)
		r.Post("/guess", s.handleGuess)
		r.Get("/{id}", s.handleGetRound)
		r.Delete("/{id}", s.handleDeleteRound)
	})
}

// -----------------------------------------------------------------------------
// views

type productView struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Image         string `json:"image"`
	ImageFallback string `json:"imageFallback"`
}

type attemptView struct {
	Value    string        `json:"value"`
	Feedback game.Feedback `json:"feedback"`
}

// roundView is the presenter's picture of a round.
type roundView struct {
	RoundID      string        `json:"roundId"`
	Product      productView   `json:"product"`
	AttemptLimit int           `json:"attemptLimit"`
	AttemptIndex int           `json:"attemptIndex"`
	Remaining    int           `json:"remaining"`
	Outcome      game.Outcome  `json:"outcome"`
	Attempts     []attemptView `json:"attempts"`
	Price        string        `json:"price,omitempty"`
	Message      string        `json:"message"`
}

func euros(d decimal.Decimal) string { return "€" + d.StringFixed(2) }

func newRoundView(rd *game.Round) roundView {
	v := roundView{
		RoundID: rd.ID,
		Product: productView{
			ID:            rd.Target.ID,
			Name:          rd.Target.Name,
			Image:         rd.Target.ImageRef,
			ImageFallback: placeholderImage,
		},
		AttemptLimit: rd.Limit,
		AttemptIndex: len(rd.Attempts),
		Remaining:    rd.Remaining(),
		Outcome:      rd.Outcome,
		Attempts:     make([]attemptView, 0, len(rd.Attempts)),
		Message:      message(rd),
	}
	for _, a := range rd.Attempts {
		v.Attempts = append(v.Attempts, attemptView{Value: a.Value.StringFixed(2), Feedback: a.Feedback})
	}
	if rd.Outcome.Terminal() {
		v.Price = rd.Target.Price.StringFixed(2)
	}
	return v
}

// message is the guidance text shown under the guess rows.
func message(rd *game.Round) string {
	switch rd.Outcome {
	case game.OutcomeWon:
		return "Correct! The price is " + euros(rd.Target.Price) + ". You won!"
	case game.OutcomeLost:
		return "Game Over! The correct price was " + euros(rd.Target.Price) + "."
	}
	if len(rd.Attempts) == 0 {
		return "Start guessing!"
	}
	switch rd.Attempts[len(rd.Attempts)-1].Feedback {
	case game.FeedbackHigher:
		return "Higher"
	case game.FeedbackLower:
		return "Lower"
	}
	return ""
}

// -----------------------------------------------------------------------------
// POST /round/new

type newRoundReq struct {
	Mode string `json:"mode"` // "random" (default) | "daily"
}

// handleNewRound selects a product, starts a round, and stores it for the player.
func (s *Server) handleNewRound(w http.ResponseWriter, r *http.Request) {
	var req newRoundReq
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "bad_json", "")
		return
	}

	var pick game.Selector
	switch req.Mode {
	case "", modeRandom:
		req.Mode, pick = modeRandom, s.opts.Random
	case modeDaily:
		pick = s.opts.Daily
	default:
		writeError(w, http.StatusBadRequest, "invalid_mode", `mode must be "random" or "daily"`)
		return
	}

	eng := game.NewEngine(s.opts.Catalog, game.WithSelector(pick))
	rd, err := eng.NewRound()
	if errors.Is(err, game.ErrEmptyCatalog) {
		writeError(w, http.StatusServiceUnavailable, "empty_catalog", "Failed to load products. Please refresh the page.")
		return
	}
	if err != nil {
		log.Error().Err(err).Msg("new round")
		writeError(w, http.StatusInternalServerError, "select_failed", "")
		return
	}

	player := playerFrom(r)
	if err := s.opts.Store.Save(r.Context(), player, rd); err != nil {
		log.Error().Err(err).Str("round", rd.ID).Msg("save round")
		writeError(w, http.StatusInternalServerError, "save_failed", "")
		return
	}
	metrics.RoundsStarted.WithLabelValues(req.Mode).Inc()
	log.Info().Str("round", rd.ID).Str("player", player).Str("product", rd.Target.ID).Str("mode", req.Mode).Msg("round started")

	_ = json.NewEncoder(w).Encode(newRoundView(rd))
}

// -----------------------------------------------------------------------------
// POST /round/guess

// guessReq accepts the guess as a JSON string ("12.50") or number (12.5).
type guessReq struct {
	RoundID string          `json:"roundId"`
	Guess   json.RawMessage `json:"guess"`
}

// guessRes reports the attempt just made and the round's new state.
type guessRes struct {
	Attempt      attemptView  `json:"attempt"`
	Outcome      game.Outcome `json:"outcome"`
	AttemptIndex int          `json:"attemptIndex"`
	AttemptLimit int          `json:"attemptLimit"`
	Remaining    int          `json:"remaining"`
	Price        string       `json:"price,omitempty"`
	Message      string       `json:"message"`
}

// guessText turns the raw JSON guess into the text the engine validates.
func guessText(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ""
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return ""
		}
		return s
	}
	return string(raw)
}

// handleGuess validates and applies a guess, then persists the round.
// Submissions to the same round are serialised.
func (s *Server) handleGuess(w http.ResponseWriter, r *http.Request) {
	var req guessReq
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_json", "")
		return
	}
	if req.RoundID == "" {
		writeError(w, http.StatusBadRequest, "missing_round", "roundId is required")
		return
	}

	player := playerFrom(r)
	unlock := s.locks.Lock(player + "|" + req.RoundID)
	defer unlock()

	rd, err := s.opts.Store.Get(r.Context(), player, req.RoundID)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "not_found", "round not found")
		return
	}
	if err != nil {
		log.Error().Err(err).Str("round", req.RoundID).Msg("load round")
		writeError(w, http.StatusInternalServerError, "load_failed", "")
		return
	}

	eng := game.NewEngine(s.opts.Catalog)
	eng.Resume(rd)
	res, err := eng.Submit(guessText(req.Guess))
	switch {
	case errors.Is(err, game.ErrNotANumber):
		metrics.GuessesRejected.WithLabelValues("not_a_number").Inc()
		writeError(w, http.StatusBadRequest, "not_a_number", invalidPriceMsg)
		return
	case errors.Is(err, game.ErrNegative):
		metrics.GuessesRejected.WithLabelValues("negative").Inc()
		writeError(w, http.StatusBadRequest, "negative", invalidPriceMsg)
		return
	case errors.Is(err, game.ErrRoundFinished):
		metrics.GuessesRejected.WithLabelValues("round_finished").Inc()
		writeError(w, http.StatusConflict, "round_finished", "This round is over. Start a new round.")
		return
	case err != nil:
		log.Error().Err(err).Str("round", rd.ID).Msg("submit guess")
		writeError(w, http.StatusInternalServerError, "submit_failed", "")
		return
	}

	if err := s.opts.Store.Save(r.Context(), player, rd); err != nil {
		log.Error().Err(err).Str("round", rd.ID).Msg("save round")
		writeError(w, http.StatusInternalServerError, "save_failed", "")
		return
	}

	metrics.Guesses.WithLabelValues(string(res.Feedback)).Inc()
	last := rd.Attempts[len(rd.Attempts)-1]
	out := guessRes{
		Attempt:      attemptView{Value: last.Value.StringFixed(2), Feedback: last.Feedback},
		Outcome:      res.Outcome,
		AttemptIndex: eng.AttemptIndex(),
		AttemptLimit: eng.AttemptLimit(),
		Remaining:    res.Remaining,
		Message:      message(rd),
	}
	if res.Outcome.Terminal() {
		out.Price = rd.Target.Price.StringFixed(2)
		metrics.RoundsFinished.WithLabelValues(string(res.Outcome)).Inc()
		log.Info().Str("round", rd.ID).Str("player", player).Str("outcome", string(res.Outcome)).Int("attempts", res.Attempt).Msg("round finished")
	}
	_ = json.NewEncoder(w).Encode(out)
}

// -----------------------------------------------------------------------------
// GET /round/{id}

// handleGetRound returns the round view so a reloaded client can redraw its rows.
func (s *Server) handleGetRound(w http.ResponseWriter, r *http.Request) {
	rd, err := s.opts.Store.Get(r.Context(), playerFrom(r), chi.URLParam(r, "id"))
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "not_found", "round not found")
		return
	}
	if err != nil {
		log.Error().Err(err).Msg("load round")
		writeError(w, http.StatusInternalServerError, "load_failed", "")
		return
	}
	_ = json.NewEncoder(w).Encode(newRoundView(rd))
}

// -----------------------------------------------------------------------------
// DELETE /round/{id}

// handleDeleteRound drops one of the player's rounds. Unknown ids are not an error.
func (s *Server) handleDeleteRound(w http.ResponseWriter, r *http.Request) {
	player, id := playerFrom(r), chi.URLParam(r, "id")
	unlock := s.locks.Lock(player + "|" + id)
	defer unlock()

	if err := s.opts.Store.Delete(r.Context(), player, id); err != nil {
		log.Error().Err(err).Str("round", id).Msg("delete round")
		writeError(w, http.StatusInternalServerError, "delete_failed", "")
		return
	}
	log.Info().Str("round", id).Str("player", player).Msg("round abandoned")
	w.WriteHeader(http.StatusNoContent)
}

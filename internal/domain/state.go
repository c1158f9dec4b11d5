package domain

import (
	"fmt"
	"strconv"
	"strings"
)

type Rating int

const (
	MinRating Rating = 1
	MaxRating Rating = 5
)

func (r Rating) Valid() bool {
	return r >= MinRating && r <= MaxRating
}

func (r Rating) Stars() string {
	if !r.Valid() {
		return ""
	}
	return strings.Repeat("⭐", int(r))
}

func ParseRating(s string) (Rating, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("invalid rating %q: %w", s, err)
	}

	r := Rating(n)
	if !r.Valid() {
		return 0, fmt.Errorf("rating %d out of range %d..%d", n, MinRating, MaxRating)
	}

	return r, nil
}

type ActionKind int

const (
	ActionGenerationSucceeded ActionKind = iota + 1
	ActionGenerationFailed
	ActionRate
)

func (k ActionKind) String() string {
	switch k {
	case ActionGenerationSucceeded:
		return "generation_succeeded"
	case ActionGenerationFailed:
		return "generation_failed"
	case ActionRate:
		return "rate"
	default:
		return "unknown"
	}
}

// Action is a tagged event dispatched into Reduce. Only the field matching
// Kind is read.
type Action struct {
	Kind   ActionKind
	Text   string
	Rating Rating
	Err    error
}

func Generated(text string) Action {
	return Action{Kind: ActionGenerationSucceeded, Text: text}
}

func GenerationFailed(err error) Action {
	return Action{Kind: ActionGenerationFailed, Err: err}
}

func Rate(r Rating) Action {
	return Action{Kind: ActionRate, Rating: r}
}

// Reduce returns the state that follows s after a. It never mutates s.
func Reduce(s SessionState, a Action) SessionState {
	switch a.Kind {
	case ActionGenerationSucceeded:
		return SessionState{EnhancedPrompt: a.Text}
	case ActionRate:
		if s.EnhancedPrompt == "" || !a.Rating.Valid() {
			return s
		}
		s.Rating = a.Rating
		s.RatingSubmitted = true
		return s
	default:
		// failed generations and unknown actions leave the state alone
		return s
	}
}

func OnGenerationSucceeded(s SessionState, text string) SessionState {
	return Reduce(s, Generated(text))
}

func OnGenerationFailed(s SessionState, err error) SessionState {
	return Reduce(s, GenerationFailed(err))
}

func OnRatingSelected(s SessionState, r Rating) SessionState {
	return Reduce(s, Rate(r))
}

type Display int

const (
	DisplayIdle Display = iota
	DisplayAwaitingRating
	DisplayRated
)

func (d Display) String() string {
	switch d {
	case DisplayAwaitingRating:
		return "awaiting_rating"
	case DisplayRated:
		return "rated"
	default:
		return "idle"
	}
}

func (s SessionState) Display() Display {
	switch {
	case s.EnhancedPrompt == "":
		return DisplayIdle
	case s.RatingSubmitted:
		return DisplayRated
	default:
		return DisplayAwaitingRating
	}
}

package domain

import "fmt"

type NoticeLevel int

const (
	NoticeWarning NoticeLevel = iota + 1
	NoticeError
)

// Notice is a transient message shown once with the page it was rendered on.
type Notice struct {
	Level   NoticeLevel
	Message string
}

func Warning(msg string) *Notice {
	return &Notice{Level: NoticeWarning, Message: msg}
}

func ErrorNotice(err error) *Notice {
	return &Notice{Level: NoticeError, Message: fmt.Sprintf("Error: %s", err.Error())}
}

type RatingOption struct {
	Value Rating
	Label string
}

type View struct {
	Display        Display
	EnhancedPrompt string
	Rating         Rating
	RatingOptions  []RatingOption
	Confirmation   string
	Notice         *Notice
}

func RatingOptions() []RatingOption {
	opts := make([]RatingOption, 0, MaxRating)
	for r := MinRating; r <= MaxRating; r++ {
		opts = append(opts, RatingOption{Value: r, Label: r.Stars()})
	}
	return opts
}

// NewView decides what the page shows for s. Rating options stay visible
// after a rating has been submitted so it can be overwritten.
func NewView(s SessionState, notice *Notice) View {
	v := View{Display: s.Display(), Notice: notice}

	switch v.Display {
	case DisplayAwaitingRating:
		v.EnhancedPrompt = s.EnhancedPrompt
		v.RatingOptions = RatingOptions()
	case DisplayRated:
		v.EnhancedPrompt = s.EnhancedPrompt
		v.RatingOptions = RatingOptions()
		v.Rating = s.Rating
		v.Confirmation = fmt.Sprintf("Thanks for your %d⭐ rating!", s.Rating)
	}

	return v
}

package derive

import "twquant/internal/backend"

// Tone is the presentation class for a label. Renderers map tones to their
// own styling (terminal colors, CSS classes); unknown labels always land on
// ToneNeutral rather than failing.
type Tone string

const (
	ToneStrong   Tone = "strong" // emphatic positive
	TonePositive Tone = "positive"
	ToneCaution  Tone = "caution"
	ToneNegative Tone = "negative"
	ToneNeutral  Tone = "neutral"
)

// RatingTone maps a recommendation rating to its tone. Total over the closed
// rating set; anything else is neutral.
func RatingTone(rating string) Tone {
	switch rating {
	case backend.RatingStrong:
		return ToneStrong
	case backend.RatingBuy:
		return TonePositive
	case backend.RatingCautious:
		return ToneCaution
	case backend.RatingRejected:
		return ToneNegative
	default:
		return ToneNeutral
	}
}

// DecisionTone maps a daytrade decision to its tone. Total over the closed
// decision set; anything else is neutral.
func DecisionTone(decision string) Tone {
	switch decision {
	case backend.DecisionBuy:
		return TonePositive
	case backend.DecisionAvoid:
		return ToneNegative
	case backend.DecisionWait:
		return ToneCaution
	default:
		return ToneNeutral
	}
}

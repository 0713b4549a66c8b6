package derive

import "testing"

func TestRatingToneTotal(t *testing.T) {
	cases := map[string]Tone{
		"強烈推薦": ToneStrong,
		"推薦":   TonePositive,
		"謹慎推薦": ToneCaution,
		"不推薦":  ToneNegative,
		"":     ToneNeutral,
		"全新標籤": ToneNeutral,
	}
	for rating, want := range cases {
		if got := RatingTone(rating); got != want {
			t.Errorf("RatingTone(%q) = %q, want %q", rating, got, want)
		}
	}
}

func TestDecisionToneTotal(t *testing.T) {
	cases := map[string]Tone{
		"買進":   TonePositive,
		"回避":   ToneNegative,
		"觀望":   ToneCaution,
		"":     ToneNeutral,
		"HOLD": ToneNeutral,
	}
	for decision, want := range cases {
		if got := DecisionTone(decision); got != want {
			t.Errorf("DecisionTone(%q) = %q, want %q", decision, got, want)
		}
	}
}

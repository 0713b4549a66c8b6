package derive

import "twquant/internal/backend"

// Provenance records where a highlight list came from. The UI must keep the
// two origins visually distinct.
type Provenance string

const (
	ProvenanceNone    Provenance = ""
	ProvenanceAI      Provenance = "AI"
	ProvenanceDerived Provenance = "量化推導"
)

// maxHighlights caps derived highlight lists.
const maxHighlights = 4

// Highlights returns the highlight strings for one analysis entry. An AI
// result with a non-empty highlight list wins verbatim; otherwise up to four
// strings are derived from the structured insights in fixed priority order
// (trend, RSI, MACD, volatility, volume), skipping absent sections.
func Highlights(ai *backend.AISummary, insights *backend.Insights) ([]string, Provenance) {
	if ai != nil && ai.Result != nil && len(ai.Result.Highlights) > 0 {
		return ai.Result.Highlights, ProvenanceAI
	}
	hs := deriveFromInsights(insights)
	if len(hs) == 0 {
		return nil, ProvenanceNone
	}
	return hs, ProvenanceDerived
}

func deriveFromInsights(q *backend.Insights) []string {
	if q == nil {
		return nil
	}
	var hs []string
	if q.Trend != nil && q.Trend.State != "" {
		hs = append(hs, "趨勢："+q.Trend.State)
	}
	if q.Momentum != nil && q.Momentum.RSIState != "" {
		hs = append(hs, "RSI："+q.Momentum.RSIState)
	}
	if q.Momentum != nil && q.Momentum.MACDState != "" {
		hs = append(hs, "MACD："+q.Momentum.MACDState)
	}
	if q.Volatility != nil && q.Volatility.Label != "" {
		hs = append(hs, "波動："+q.Volatility.Label)
	}
	if q.Volume != nil && q.Volume.State != "" {
		hs = append(hs, "量能："+q.Volume.State)
	}
	if len(hs) > maxHighlights {
		hs = hs[:maxHighlights]
	}
	return hs
}

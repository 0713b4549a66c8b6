package derive

import (
	"reflect"
	"testing"

	"twquant/internal/backend"
)

func TestHighlightsAIWinVerbatim(t *testing.T) {
	ai := &backend.AISummary{Result: &backend.AIResult{
		Highlights: []string{"動能轉強", "量價齊揚", "突破前高", "法人買超", "第五條也保留"},
	}}
	ins := &backend.Insights{Trend: &backend.TrendInsight{State: backend.TrendBullish}}

	hs, prov := Highlights(ai, ins)
	if prov != ProvenanceAI {
		t.Fatalf("provenance = %q, want AI", prov)
	}
	// AI highlights pass through verbatim, including length.
	if len(hs) != 5 || hs[0] != "動能轉強" {
		t.Errorf("AI highlights not verbatim: %v", hs)
	}
}

func TestHighlightsDerivedOrderAndLimit(t *testing.T) {
	ins := &backend.Insights{
		Trend:      &backend.TrendInsight{State: "多頭排列"},
		Momentum:   &backend.MomentumInsight{RSIState: "超買", MACDState: "黃金交叉"},
		Volatility: &backend.VolatilityInsight{Label: "高波動"},
		Volume:     &backend.VolumeInsight{State: "爆量"},
	}
	hs, prov := Highlights(nil, ins)
	if prov != ProvenanceDerived {
		t.Fatalf("provenance = %q, want derived", prov)
	}
	want := []string{"趨勢：多頭排列", "RSI：超買", "MACD：黃金交叉", "波動：高波動"}
	if !reflect.DeepEqual(hs, want) {
		t.Errorf("derived highlights = %v, want %v (max 4, fixed order)", hs, want)
	}
}

func TestHighlightsPartialInsightsNoPadding(t *testing.T) {
	ins := &backend.Insights{
		Trend:    &backend.TrendInsight{State: "多頭排列"},
		Momentum: &backend.MomentumInsight{RSIState: "超買"},
	}
	hs, _ := Highlights(nil, ins)
	want := []string{"趨勢：多頭排列", "RSI：超買"}
	if !reflect.DeepEqual(hs, want) {
		t.Errorf("highlights = %v, want %v", hs, want)
	}
}

func TestHighlightsEmptyAIFallsThrough(t *testing.T) {
	ai := &backend.AISummary{Result: &backend.AIResult{Highlights: nil}}
	ins := &backend.Insights{Volume: &backend.VolumeInsight{State: "量縮"}}
	hs, prov := Highlights(ai, ins)
	if prov != ProvenanceDerived || len(hs) != 1 || hs[0] != "量能：量縮" {
		t.Errorf("got %v (%q), want derived fallback", hs, prov)
	}
}

func TestHighlightsNothing(t *testing.T) {
	hs, prov := Highlights(nil, nil)
	if hs != nil || prov != ProvenanceNone {
		t.Errorf("got %v (%q), want none", hs, prov)
	}
}

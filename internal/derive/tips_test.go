package derive

import (
	"reflect"
	"testing"

	"twquant/internal/backend"
)

func TestTipsPriorityAndCap(t *testing.T) {
	r := rec("推薦", "2.0", &backend.Insights{
		Trend:      &backend.TrendInsight{State: "多頭排列"},
		Volatility: &backend.VolatilityInsight{ATRPct: fp(0.035)},
		Momentum:   &backend.MomentumInsight{RSIState: "超買", MACDState: "黃金交叉"},
	})
	tips := Tips(&r)
	want := []string{"趨勢：多頭排列", "波動較大，降低部位", "RSI 超買，留意短線回檔"}
	if !reflect.DeepEqual(tips, want) {
		t.Errorf("Tips = %v, want %v", tips, want)
	}
}

func TestTipsAlwaysHasRiskLine(t *testing.T) {
	r := rec("推薦", "", nil)
	tips := Tips(&r)
	if len(tips) != 1 || tips[0] != "單筆風險控制於 1%~2%" {
		t.Errorf("Tips with no insights = %v", tips)
	}
}

func TestEntryRange(t *testing.T) {
	r := backend.Recommendation{EntryPriceRange: "123.45 - 128.90"}
	low, high, ok := EntryRange(&r)
	if !ok || low != "123.45" || high != "128.90" {
		t.Errorf("EntryRange = %q %q %v", low, high, ok)
	}
	r.EntryPriceRange = "n/a"
	if _, _, ok := EntryRange(&r); ok {
		t.Error("EntryRange accepted a non-range value")
	}
}

func TestFormatRatio(t *testing.T) {
	if got := FormatRatio("2.131"); got != "2.13:1" {
		t.Errorf("FormatRatio = %q", got)
	}
	if got := FormatRatio(""); got != "—" {
		t.Errorf("FormatRatio empty = %q", got)
	}
}

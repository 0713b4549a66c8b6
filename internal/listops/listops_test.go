package listops

import (
	"testing"

	"twquant/internal/backend"
)

func fp(v float64) *float64 { return &v }

func mk(ticker, rating, rr string, atrPct *float64, trend string) backend.Recommendation {
	rec := backend.Recommendation{Ticker: ticker, Rating: rating, RiskRewardRatio: rr}
	if atrPct != nil || trend != "" {
		rec.Insights = &backend.Insights{}
		if atrPct != nil {
			rec.Insights.Volatility = &backend.VolatilityInsight{ATRPct: atrPct}
		}
		if trend != "" {
			rec.Insights.Trend = &backend.TrendInsight{State: trend}
		}
	}
	return rec
}

func tickers(list []backend.Recommendation) []string {
	out := make([]string, len(list))
	for i, r := range list {
		out[i] = r.Ticker
	}
	return out
}

func equal(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestBucketTotalDisjoint(t *testing.T) {
	recs := []backend.Recommendation{
		mk("A", "強烈推薦", "", nil, ""),
		mk("B", "不推薦", "", nil, ""),
		mk("C", "謹慎推薦", "", nil, ""),
		mk("D", "不推薦", "", nil, ""),
		mk("E", "", "", nil, ""), // unknown rating still goes to recommended
	}
	rec, rej := Bucket(recs)
	if len(rec)+len(rej) != len(recs) {
		t.Fatalf("partition lost entries: %d + %d != %d", len(rec), len(rej), len(recs))
	}
	if !equal(tickers(rej), []string{"B", "D"}) {
		t.Errorf("rejected = %v, want [B D]", tickers(rej))
	}
	if !equal(tickers(rec), []string{"A", "C", "E"}) {
		t.Errorf("recommended = %v, want [A C E]", tickers(rec))
	}
}

func TestFilterConservativeOnMissingFields(t *testing.T) {
	recs := []backend.Recommendation{
		mk("A", "推薦", "2.0", fp(0.01), "多頭排列"),
		mk("B", "推薦", "", fp(0.01), "多頭排列"),    // missing RR
		mk("C", "推薦", "2.0", nil, "多頭排列"),      // missing ATR
		mk("D", "推薦", "2.0", fp(0.01), ""),     // missing trend
		mk("E", "推薦", "2.0", fp(0.05), "多頭排列"), // ATR too high
	}
	f := FilterState{OnlyBullish: true, MaxATRPct: fp(2.0), MinRiskReward: fp(1.5)}
	got := tickers(Filter(recs, f))
	if !equal(got, []string{"A"}) {
		t.Errorf("Filter = %v, want [A]: missing fields must fail active filters", got)
	}
}

func TestFilterInactiveFiltersPassEverything(t *testing.T) {
	recs := []backend.Recommendation{
		mk("A", "推薦", "", nil, ""),
		mk("B", "不推薦", "x", nil, "空頭排列"),
	}
	if got := Filter(recs, FilterState{}); len(got) != 2 {
		t.Errorf("empty filter state excluded entries: %v", tickers(got))
	}
}

func TestSortRRDesc(t *testing.T) {
	recs := []backend.Recommendation{
		mk("A", "推薦", "1.2", nil, ""),
		mk("B", "推薦", "3.4", nil, ""),
		mk("C", "推薦", "", nil, ""), // unparseable sorts last
		mk("D", "推薦", "2.0", nil, ""),
	}
	got := tickers(Sort(recs, SortRRDesc))
	if !equal(got, []string{"B", "D", "A", "C"}) {
		t.Errorf("SortRRDesc = %v", got)
	}
}

func TestSortATRAscMissingLast(t *testing.T) {
	recs := []backend.Recommendation{
		mk("A", "推薦", "", fp(0.03), ""),
		mk("B", "推薦", "", nil, ""), // missing ATR → +Inf sentinel
		mk("C", "推薦", "", fp(0.01), ""),
	}
	got := tickers(Sort(recs, SortATRAsc))
	if !equal(got, []string{"C", "A", "B"}) {
		t.Errorf("SortATRAsc = %v", got)
	}
}

func TestSortTrendBullStablePartition(t *testing.T) {
	recs := []backend.Recommendation{
		mk("A", "推薦", "", nil, "盤整/糾結"),
		mk("B", "推薦", "", nil, "多頭排列"),
		mk("C", "推薦", "", nil, "空頭排列"),
		mk("D", "推薦", "", nil, "多頭排列"),
		mk("E", "推薦", "", nil, ""),
	}
	got := tickers(Sort(recs, SortTrendBull))
	// Bullish first in original relative order, then the rest in original order.
	if !equal(got, []string{"B", "D", "A", "C", "E"}) {
		t.Errorf("SortTrendBull = %v, want stable partition [B D A C E]", got)
	}
}

func TestSortDefaultPreservesOrder(t *testing.T) {
	recs := []backend.Recommendation{
		mk("Z", "推薦", "1.0", nil, ""),
		mk("A", "推薦", "9.0", nil, ""),
	}
	got := tickers(Sort(recs, SortDefault))
	if !equal(got, []string{"Z", "A"}) {
		t.Errorf("SortDefault reordered: %v", got)
	}
}

func TestPaginate(t *testing.T) {
	var recs []backend.Recommendation
	for _, name := range []string{"A", "B", "C", "D", "E", "F", "G"} {
		recs = append(recs, mk(name, "推薦", "", nil, ""))
	}

	items, total := Paginate(recs, 1, 3)
	if total != 3 || !equal(tickers(items), []string{"A", "B", "C"}) {
		t.Errorf("page 1 = %v (total %d)", tickers(items), total)
	}
	items, total = Paginate(recs, 3, 3)
	if total != 3 || !equal(tickers(items), []string{"G"}) {
		t.Errorf("page 3 = %v (total %d)", tickers(items), total)
	}
	if items, total = Paginate(recs, 4, 3); total != 3 || items != nil {
		t.Errorf("out-of-range page: items=%v total=%d", tickers(items), total)
	}
}

func TestPaginateEmpty(t *testing.T) {
	items, total := Paginate(nil, 1, 10)
	if total != 0 || len(items) != 0 {
		t.Errorf("empty list: items=%v totalPages=%d, want none and 0", items, total)
	}
}

func TestApplyPipeline(t *testing.T) {
	recs := []backend.Recommendation{
		mk("A", "推薦", "1.0", nil, "多頭排列"),
		mk("B", "推薦", "3.0", nil, "多頭排列"),
		mk("C", "推薦", "2.0", nil, "空頭排列"),
	}
	f := FilterState{OnlyBullish: true, SortKey: SortRRDesc}
	page := Apply(recs, f, 1, 10)
	if page.Total != 2 || page.TotalPages != 1 {
		t.Fatalf("page meta: %+v", page)
	}
	if !equal(tickers(page.Items), []string{"B", "A"}) {
		t.Errorf("Apply items = %v", tickers(page.Items))
	}
}

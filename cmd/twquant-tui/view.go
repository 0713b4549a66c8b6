package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"twquant/internal/backend"
	"twquant/internal/derive"
	"twquant/internal/listops"
	"twquant/internal/session"
	"twquant/pkg/twquant"
)

// Styles.
var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	tabStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	tabActive    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("226"))
	strongStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("46"))
	posStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	cautionStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
	negStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	labelStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("75"))
	toastStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("213"))
	errStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
	footerStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)

var tabNames = map[session.Tab]string{
	session.TabRecommend: "推薦",
	session.TabRealtime:  "即時",
	session.TabAI:        "AI",
	session.TabStock:     "個股",
	session.TabWatch:     "自選",
	session.TabBacktest:  "回測",
}

var tabOrder = []session.Tab{
	session.TabRecommend, session.TabRealtime, session.TabAI,
	session.TabStock, session.TabWatch, session.TabBacktest,
}

func toneStyle(t derive.Tone) lipgloss.Style {
	switch t {
	case derive.ToneStrong:
		return strongStyle
	case derive.TonePositive:
		return posStyle
	case derive.ToneCaution:
		return cautionStyle
	case derive.ToneNegative:
		return negStyle
	default:
		return dimStyle
	}
}

func trendStyle(state string) lipgloss.Style {
	switch state {
	case backend.TrendBullish:
		return posStyle
	case backend.TrendBearish:
		return negStyle
	default:
		return dimStyle
	}
}

func fmtPct(v *float64) string {
	if v == nil {
		return "—"
	}
	return fmt.Sprintf("%+.1f%%", *v)
}

func fmtPrice(v *float64) string {
	if v == nil {
		return "—"
	}
	return fmt.Sprintf("%.2f", *v)
}

func (m model) View() string {
	if !m.ready {
		return "載入中..."
	}
	return m.headerBar() + "\n" + m.inputBar() + "\n" + m.viewport.View() + "\n" + m.footerBar()
}

func (m model) headerBar() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("台股量化儀表板"))
	b.WriteString("  ")
	active := m.activeTab()
	for i, tab := range tabOrder {
		name := fmt.Sprintf("%d %s", i+1, tabNames[tab])
		if tab == active {
			b.WriteString(tabActive.Render("[" + name + "]"))
		} else {
			b.WriteString(tabStyle.Render(" " + name + " "))
		}
	}
	if t := m.selectedTicker(); t != "" {
		b.WriteString("  " + labelStyle.Render("► "+t))
	}
	return b.String()
}

func (m model) inputBar() string {
	prompt := dimStyle.Render("輸入")
	if m.input.Focused() {
		prompt = labelStyle.Render("輸入")
	}
	return prompt + " " + m.input.View()
}

func (m model) footerBar() string {
	if m.toast != "" {
		return toastStyle.Render("  " + m.toast)
	}
	if m.errText != "" {
		return errStyle.Render("  " + m.errText)
	}
	keys := "/:輸入  1-6:頁籤  enter:分析  tab:推薦/排除  ←→:換頁  f:排序  b:多頭  v:週期(" + m.interval + ")  a:加自選  d:移除  R:重載  q:離開"
	if m.loading {
		keys = "分析中..."
	}
	return footerStyle.Render("  " + keys)
}

// ---------------------------------------------------------------------------
// Content
// ---------------------------------------------------------------------------

func (m model) renderContent() string {
	var b strings.Builder
	switch m.activeTab() {
	case session.TabRecommend:
		m.renderRecommend(&b)
	case session.TabRealtime:
		m.renderSlot(&b, session.TabRealtime, renderDaytrade)
	case session.TabAI:
		m.renderAI(&b)
	case session.TabStock:
		m.renderSlot(&b, session.TabStock, renderStock)
	case session.TabWatch:
		m.renderWatchlist(&b)
	case session.TabBacktest:
		m.renderSlot(&b, session.TabBacktest, renderBacktest)
	}
	return b.String()
}

// renderSlot handles the loading/error/empty states shared by the
// single-result tabs, delegating the payload body to render.
func (m model) renderSlot(b *strings.Builder, tab session.Tab, render func(*strings.Builder, *backend.Response)) {
	if m.view == nil {
		b.WriteString(dimStyle.Render("尚未載入"))
		return
	}
	slot := m.view.Slots[tab]
	if slot.Loading {
		b.WriteString(dimStyle.Render("分析中..."))
		return
	}
	if slot.Error != "" {
		b.WriteString(errStyle.Render("分析失敗：" + slot.Error))
		return
	}
	if slot.Result == nil {
		b.WriteString(dimStyle.Render("輸入代號後按 enter 開始分析（/ 進入輸入）"))
		return
	}
	render(b, slot.Result)
}

// --- recommend tab ---

func (m model) renderRecommend(b *strings.Builder) {
	if m.view != nil {
		if slot := m.view.Slots[session.TabRecommend]; slot.Loading {
			b.WriteString(dimStyle.Render("分析中..."))
			return
		} else if slot.Error != "" {
			b.WriteString(errStyle.Render("分析失敗：" + slot.Error))
			return
		}
	}
	p := m.page
	if p == nil || (p.Recommended == 0 && p.Rejected == 0) {
		if p != nil && p.Message != "" {
			b.WriteString(dimStyle.Render(p.Message))
			return
		}
		b.WriteString(dimStyle.Render("輸入代號（可逗號分隔）後按 enter 取得推薦"))
		return
	}

	listName := "推薦"
	if p.ListTab == session.ListRejected {
		listName = "排除"
	}
	fmt.Fprintf(b, "%s  %s\n",
		labelStyle.Render(fmt.Sprintf("%s清單 %d 檔（推薦 %d／排除 %d）", listName, p.Total, p.Recommended, p.Rejected)),
		dimStyle.Render(m.filterLine()))
	if p.Summary != nil {
		b.WriteString(renderSummary(p.Summary) + "\n")
	}
	b.WriteString("\n")

	if len(p.Items) == 0 {
		b.WriteString(dimStyle.Render("篩選後無符合的個股（b 取消多頭限制）") + "\n")
	}
	for i := range p.Items {
		renderCard(b, &p.Items[i])
		b.WriteString("\n")
	}

	if p.TotalPages > 1 {
		fmt.Fprintf(b, "%s\n", dimStyle.Render(fmt.Sprintf("第 %d / %d 頁（←→ 換頁）", p.Page, p.TotalPages)))
	}
}

func (m model) filterLine() string {
	f := m.filters()
	var parts []string
	if f.OnlyBullish {
		parts = append(parts, "僅多頭")
	}
	if f.MaxATRPct != nil {
		parts = append(parts, fmt.Sprintf("ATR≤%.1f%%", *f.MaxATRPct))
	}
	if f.MinRiskReward != nil {
		parts = append(parts, fmt.Sprintf("RR≥%.1f", *f.MinRiskReward))
	}
	switch f.SortKey {
	case listops.SortRRDesc:
		parts = append(parts, "排序:RR")
	case listops.SortATRAsc:
		parts = append(parts, "排序:ATR")
	case listops.SortTrendBull:
		parts = append(parts, "排序:趨勢")
	}
	if len(parts) == 0 {
		return ""
	}
	return "[" + strings.Join(parts, " ") + "]"
}

func renderSummary(s *derive.Summary) string {
	parts := []string{fmt.Sprintf("%d 檔", s.Count)}
	if s.AvgRR != nil {
		parts = append(parts, fmt.Sprintf("平均RR %.2f", *s.AvgRR))
	}
	if s.AvgATRPct != nil {
		parts = append(parts, fmt.Sprintf("平均ATR %.1f%%", *s.AvgATRPct))
	}
	if s.BullRatioPct != nil {
		parts = append(parts, fmt.Sprintf("多頭 %.0f%%", *s.BullRatioPct))
	}
	if s.AvgRet5Pct != nil {
		parts = append(parts, fmt.Sprintf("5日 %+.1f%%", *s.AvgRet5Pct))
	}
	if s.AvgRet20Pct != nil {
		parts = append(parts, fmt.Sprintf("20日 %+.1f%%", *s.AvgRet20Pct))
	}
	return dimStyle.Render("彙總：" + strings.Join(parts, "　"))
}

func renderCard(b *strings.Builder, card *twquant.Card) {
	st := toneStyle(card.Tone)
	head := card.Ticker
	if card.Name != "" {
		head += " " + card.Name
	}
	fmt.Fprintf(b, "%s  %s", st.Render(head), st.Render("["+card.Rating+"]"))
	if ch := card.Chart; ch != nil {
		badge := fmt.Sprintf("%+.1f%%（%.2f–%.2f）", ch.ChangePct, ch.Min, ch.Max)
		chSt := negStyle
		if ch.Up {
			chSt = posStyle
		}
		b.WriteString("  " + chSt.Render(badge))
	}
	b.WriteString("\n")

	var price []string
	if card.CurrentPrice != "" {
		price = append(price, "現價 "+card.CurrentPrice)
	}
	if card.EntryPriceRange != "" {
		price = append(price, "進場 "+card.EntryPriceRange)
	}
	if card.TargetProfit != "" {
		price = append(price, "目標 "+card.TargetProfit)
	}
	if card.StopLoss != "" {
		price = append(price, "停損 "+card.StopLoss)
	}
	if card.RiskRewardRatio != "" {
		price = append(price, "RR "+derive.FormatRatio(card.RiskRewardRatio))
	}
	if len(price) > 0 {
		b.WriteString("  " + strings.Join(price, "　") + "\n")
	}

	if ins := card.Insights; ins != nil && ins.Trend != nil && ins.Trend.State != "" {
		b.WriteString("  趨勢 " + trendStyle(ins.Trend.State).Render(ins.Trend.State) + "\n")
	}
	if len(card.Highlights) > 0 {
		tag := ""
		if card.HighlightSource == derive.ProvenanceAI {
			tag = dimStyle.Render("（AI）")
		}
		b.WriteString("  " + labelStyle.Render("亮點") + tag + " " + strings.Join(card.Highlights, "；") + "\n")
	}
	for _, tip := range card.Tips {
		b.WriteString("  " + dimStyle.Render("· "+tip) + "\n")
	}
	if ops := card.Ops; ops != nil && !ops.Empty() {
		var parts []string
		if ops.Buy != "" {
			parts = append(parts, "買點 "+ops.Buy)
		}
		if ops.Sell != "" {
			parts = append(parts, "賣點 "+ops.Sell)
		}
		if ops.Stop != "" {
			parts = append(parts, "停損 "+ops.Stop)
		}
		if ops.Risk != "" {
			parts = append(parts, "風控 "+ops.Risk)
		}
		b.WriteString("  " + cautionStyle.Render(strings.Join(parts, "　")) + "\n")
	}
}

// --- realtime tab ---

func renderDaytrade(b *strings.Builder, resp *backend.Response) {
	d := resp.Daytrade
	if d == nil {
		b.WriteString(dimStyle.Render("無當沖分析結果"))
		return
	}
	st := toneStyle(derive.DecisionTone(d.Decision))
	fmt.Fprintf(b, "%s  %s\n", labelStyle.Render(d.Ticker), st.Render("決策："+d.Decision))
	if d.Downgraded() {
		fmt.Fprintf(b, "%s\n", cautionStyle.Render(fmt.Sprintf("（已降級至 %s）", d.IntervalUsed)))
	}
	fmt.Fprintf(b, "現價 %s　進場 %s　目標 %s　停損 %s\n",
		fmtPrice(d.NowPrice), fmtPrice(d.Entry), fmtPrice(d.Target), fmtPrice(d.Stop))
	src := d.DataSource
	if src == backend.SourceDB {
		src = "資料庫快取"
	}
	fmt.Fprintf(b, "%s\n", dimStyle.Render(fmt.Sprintf("K線 %d 根　來源 %s", d.Bars, src)))
	if len(d.Signals) > 0 {
		b.WriteString("\n" + labelStyle.Render("訊號") + "\n")
		for _, s := range d.Signals {
			b.WriteString("· " + s + "\n")
		}
	}
}

// --- ai tab ---

func (m model) renderAI(b *strings.Builder) {
	if !m.aiEnabled {
		b.WriteString(cautionStyle.Render("AI 分析未啟用（後端未設定金鑰或 SDK）"))
		return
	}
	m.renderSlot(b, session.TabAI, renderAIResult)
}

func renderAIResult(b *strings.Builder, resp *backend.Response) {
	r := resp.AIRecommendation
	if r == nil {
		b.WriteString(dimStyle.Render("無 AI 分析結果"))
		return
	}
	head := r.Ticker
	if r.Name != "" {
		head += " " + r.Name
	}
	b.WriteString(labelStyle.Render(head))
	if r.Model != "" {
		b.WriteString("  " + dimStyle.Render(r.Model))
	}
	b.WriteString("\n\n")

	if r.Error != "" {
		b.WriteString(cautionStyle.Render("AI 摘要產生失敗："+r.Error) + "\n\n")
	}
	if d := r.Details; d != nil {
		if d.AIRating != "" {
			b.WriteString(toneStyle(derive.RatingTone(d.AIRating)).Render("AI 評等："+d.AIRating) + "\n")
		}
		for _, h := range d.Highlights {
			b.WriteString("· " + h + "\n")
		}
		if d.AIRating != "" || len(d.Highlights) > 0 {
			b.WriteString("\n")
		}
	}
	if r.Summary != "" {
		b.WriteString(r.Summary + "\n")
		if ops := derive.ExtractOps(r.Summary); !ops.Empty() {
			b.WriteString("\n")
			if ops.Buy != "" {
				b.WriteString(posStyle.Render("買點："+ops.Buy) + "\n")
			}
			if ops.Sell != "" {
				b.WriteString(cautionStyle.Render("賣點："+ops.Sell) + "\n")
			}
			if ops.Stop != "" {
				b.WriteString(negStyle.Render("停損："+ops.Stop) + "\n")
			}
			if ops.Risk != "" {
				b.WriteString(dimStyle.Render("風控："+ops.Risk) + "\n")
			}
		}
	}
	if ins := r.Insights; ins != nil && ins.Trend != nil && ins.Trend.State != "" {
		b.WriteString("\n趨勢 " + trendStyle(ins.Trend.State).Render(ins.Trend.State) + "\n")
	}
}

// --- stock tab ---

var sparkRunes = []rune("▁▂▃▄▅▆▇█")

// sparkLine renders closes as a one-row unicode sparkline.
func sparkLine(points []backend.SparkPoint) string {
	if len(points) < 2 {
		return ""
	}
	min, max := points[0].Close, points[0].Close
	for _, p := range points {
		if p.Close < min {
			min = p.Close
		}
		if p.Close > max {
			max = p.Close
		}
	}
	span := max - min
	var b strings.Builder
	for _, p := range points {
		idx := 0
		if span > 0 {
			idx = int((p.Close - min) / span * float64(len(sparkRunes)-1))
		}
		b.WriteRune(sparkRunes[idx])
	}
	return b.String()
}

func renderStock(b *strings.Builder, resp *backend.Response) {
	if ia := resp.IndustryAnalysis; ia != nil {
		renderIndustry(b, ia)
		return
	}
	sa := resp.StockAnalysis
	if sa == nil {
		b.WriteString(dimStyle.Render("無個股分析結果"))
		return
	}
	head := sa.Ticker
	if sa.Name != "" {
		head += " " + sa.Name
	}
	b.WriteString(labelStyle.Render(head) + "\n\n")

	if mt := sa.Metrics; mt != nil {
		fmt.Fprintf(b, "現價 %s　ATR %s　趨勢 %s\n",
			fmtPrice(mt.Price), fmtPct(mt.ATRPct), trendStyle(mt.Trend).Render(mt.Trend))
		fmt.Fprintf(b, "距52週高 %s　距52週低 %s\n", fmtPct(mt.From52wHighPct), fmtPct(mt.From52wLowPct))
		fmt.Fprintf(b, "1月 %s　3月 %s　6月 %s\n", fmtPct(mt.Ret1MPct), fmtPct(mt.Ret3MPct), fmtPct(mt.Ret6MPct))
	}

	if line := sparkLine(sa.Spark); line != "" {
		b.WriteString("\n" + posStyle.Render(line) + "\n")
	}
	if st := sa.SparkStats; st != nil {
		var parts []string
		if st.RangeMin != nil && st.RangeMax != nil {
			parts = append(parts, fmt.Sprintf("區間 %.2f–%.2f", *st.RangeMin, *st.RangeMax))
		}
		if st.ChangePct != nil {
			parts = append(parts, fmt.Sprintf("30日 %+.1f%%", *st.ChangePct))
		}
		if st.TrendSlopePctPerDay != nil {
			parts = append(parts, fmt.Sprintf("斜率 %+.2f%%/日", *st.TrendSlopePctPerDay))
		}
		if dd, ok := derive.MaxDrawdownPct(sa.Spark); ok {
			parts = append(parts, fmt.Sprintf("最大回撤 %.1f%%", dd))
		}
		if len(parts) > 0 {
			b.WriteString(dimStyle.Render(strings.Join(parts, "　")) + "\n")
		}
	}

	if sa.AISummary != "" {
		b.WriteString("\n" + sa.AISummary + "\n")
	}
}

// renderIndustry lists a whole-industry batch one line per stock.
func renderIndustry(b *strings.Builder, ia *backend.IndustryAnalysisResult) {
	b.WriteString(labelStyle.Render(fmt.Sprintf("%s（%d 檔）", ia.Industry, len(ia.Results))) + "\n\n")
	if ia.Message != "" {
		b.WriteString(dimStyle.Render(ia.Message) + "\n")
	}
	for i := range ia.Results {
		r := &ia.Results[i]
		line := r.Ticker
		if r.Name != "" {
			line += " " + r.Name
		}
		b.WriteString(line)
		if mt := r.Metrics; mt != nil {
			b.WriteString(fmt.Sprintf("  %s  %s  1月 %s",
				fmtPrice(mt.Price), trendStyle(mt.Trend).Render(mt.Trend), fmtPct(mt.Ret1MPct)))
		}
		if spark := sparkLine(r.Spark); spark != "" {
			b.WriteString("  " + dimStyle.Render(spark))
		}
		b.WriteString("\n")
	}
}

// --- watch tab ---

func (m model) renderWatchlist(b *strings.Builder) {
	b.WriteString(labelStyle.Render(fmt.Sprintf("自選股 %d 檔", len(m.wlItems))))
	if m.wlSource == "local" {
		b.WriteString("  " + cautionStyle.Render("（本機快取，後端未同步）"))
	}
	b.WriteString("\n\n")
	if len(m.wlItems) == 0 {
		b.WriteString(dimStyle.Render("尚無自選股（/ 輸入代號後按 enter 加入）"))
		return
	}
	for _, it := range m.wlItems {
		line := it.Ticker
		if it.Name != "" {
			line += "  " + it.Name
		}
		b.WriteString(line)
		if it.Note != "" {
			b.WriteString("  " + dimStyle.Render(it.Note))
		}
		if it.CreatedAt != "" {
			b.WriteString("  " + dimStyle.Render(it.CreatedAt))
		}
		b.WriteString("\n")
	}
}

// --- backtest tab ---

func renderBacktest(b *strings.Builder, resp *backend.Response) {
	bt := resp.Backtest
	if bt == nil {
		b.WriteString(dimStyle.Render("無回測結果"))
		return
	}
	fmt.Fprintf(b, "%s  %s\n", labelStyle.Render(bt.Symbol), dimStyle.Render(bt.Strategy))
	if bt.Period != "" {
		b.WriteString(dimStyle.Render("期間 "+bt.Period) + "\n")
	}
	b.WriteString("\n")

	retStyle := posStyle
	if bt.TotalReturn != nil && *bt.TotalReturn < 0 {
		retStyle = negStyle
	}
	fmt.Fprintf(b, "總報酬 %s　勝率 %s\n",
		retStyle.Render(fmtPct(bt.TotalReturn)), fmtPct(bt.WinRate))
	sharpe := "—"
	if bt.SharpeRatio != nil {
		sharpe = fmt.Sprintf("%.2f", *bt.SharpeRatio)
	}
	fmt.Fprintf(b, "夏普 %s　最大回撤 %s\n", sharpe, fmtPct(bt.MaxDrawdown))
	fmt.Fprintf(b, "交易 %d 筆（獲利 %d 筆）\n", bt.Trades, bt.ProfitableTrades)
}

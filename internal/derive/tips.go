package derive

import (
	"fmt"
	"strings"

	"twquant/internal/backend"
)

// maxTips caps the advisory list on a recommendation card.
const maxTips = 3

// riskControlTip is the standing last-resort reminder.
const riskControlTip = "單筆風險控制於 1%~2%"

// Tips derives up to three short advisory strings for one recommendation
// from its structured insights: trend state, volatility sizing hints, RSI
// and MACD notes, proximity to support/resistance. The fixed risk-control
// reminder pads the tail when room remains.
func Tips(rec *backend.Recommendation) []string {
	var tips []string
	ins := rec.Insights
	if ins != nil {
		if ins.Trend != nil && ins.Trend.State != "" {
			tips = append(tips, "趨勢："+ins.Trend.State)
		}
		if ins.Volatility != nil && ins.Volatility.ATRPct != nil {
			atrp := *ins.Volatility.ATRPct * 100
			if atrp >= 3.0 {
				tips = append(tips, "波動較大，降低部位")
			} else if atrp <= 1.0 {
				tips = append(tips, "波動較小，部位可酌增")
			}
		}
		if ins.Momentum != nil {
			switch ins.Momentum.RSIState {
			case "超買":
				tips = append(tips, "RSI 超買，留意短線回檔")
			case "超賣":
				tips = append(tips, "RSI 超賣，反彈可觀望")
			}
			if ins.Momentum.MACDState == "黃金交叉" {
				tips = append(tips, "MACD 轉強，順勢操作")
			}
		}
		if ins.Levels != nil {
			if d := ins.Levels.DistanceToResistancePct; d != nil && *d <= 2.0 {
				tips = append(tips, "接近壓力，逢高了結")
			}
			if d := ins.Levels.DistanceToSupportPct; d != nil && *d <= 2.0 {
				tips = append(tips, "靠近支撐，逢低分批")
			}
		}
	}
	tips = append(tips, riskControlTip)
	if len(tips) > maxTips {
		tips = tips[:maxTips]
	}
	return tips
}

// EntryRange splits the backend's "low - high" formatted entry range.
// ok is false when the field is absent or not in the two-part form.
func EntryRange(rec *backend.Recommendation) (low, high string, ok bool) {
	parts := strings.Split(rec.EntryPriceRange, "-")
	if len(parts) != 2 {
		return "", "", false
	}
	return strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1]), true
}

// FormatRatio renders a risk/reward ratio for display, e.g. "2.13:1".
func FormatRatio(s string) string {
	if v, ok := ParseRatio(s); ok {
		return fmt.Sprintf("%.2f:1", v)
	}
	return "—"
}

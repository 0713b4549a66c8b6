package derive

import (
	"regexp"
	"strings"
)

// Ops is the best-effort structured reading of an AI free-text summary.
// Empty fields mean the label was not found; callers fall back to a
// placeholder, never an error.
type Ops struct {
	Buy  string `json:"buy,omitempty"`  // 買點
	Sell string `json:"sell,omitempty"` // 賣點
	Stop string `json:"stop,omitempty"` // 停損
	Risk string `json:"risk,omitempty"` // 風控
}

// Empty reports whether no operation could be extracted at all.
func (o Ops) Empty() bool {
	return o.Buy == "" && o.Sell == "" && o.Stop == "" && o.Risk == ""
}

// The patterns assume the AI answers with a fixed Traditional-Chinese label
// vocabulary (買點/賣點/停損/風控 followed by a colon). That vocabulary is not
// part of the AI generation contract, so this extraction is inherently
// brittle against phrasing drift; treat a non-match as "no data".
var (
	buyRe  = regexp.MustCompile(`買點[:：]\s*([^；。]+)`)
	sellRe = regexp.MustCompile(`賣點[:：]\s*([^；。/\n]+)`)
	stopRe = regexp.MustCompile(`停損[:：]\s*([^；。\n]+)`)
	riskRe = regexp.MustCompile(`風控[:：]\s*([^；。\n]+)`)
)

// ExtractOps mines buy/sell/stop/risk phrases out of an AI summary. It never
// fails: absent labels simply leave the corresponding field empty.
func ExtractOps(text string) Ops {
	if text == "" {
		return Ops{}
	}
	return Ops{
		Buy:  firstGroup(buyRe, text),
		Sell: firstGroup(sellRe, text),
		Stop: firstGroup(stopRe, text),
		Risk: firstGroup(riskRe, text),
	}
}

func firstGroup(re *regexp.Regexp, text string) string {
	m := re.FindStringSubmatch(text)
	if len(m) < 2 {
		return ""
	}
	return strings.TrimSpace(m[1])
}

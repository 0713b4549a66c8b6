package backend

import (
	"encoding/json"
	"fmt"

	"github.com/tidwall/gjson"
)

// Classify decodes a raw analysis payload into its typed variant by the
// "type" discriminant. A missing or unrecognized discriminant is not an
// error: it yields KindNone, which renders as "no results yet". Unknown
// extra fields in a known variant are ignored.
func Classify(raw []byte) (*Response, error) {
	if !gjson.ValidBytes(raw) {
		return nil, fmt.Errorf("invalid JSON payload")
	}

	resp := &Response{Kind: Kind(gjson.GetBytes(raw, "type").String())}
	var err error
	switch resp.Kind {
	case KindBacktest:
		resp.Backtest = &BacktestResult{}
		err = json.Unmarshal(raw, resp.Backtest)
	case KindRecommendation:
		resp.Recommendation = &RecommendationResult{}
		err = json.Unmarshal(raw, resp.Recommendation)
	case KindAIRecommendation:
		resp.AIRecommendation = &AIRecommendationResult{}
		err = json.Unmarshal(raw, resp.AIRecommendation)
	case KindStockAnalysis:
		resp.StockAnalysis = &StockAnalysisResult{}
		err = json.Unmarshal(raw, resp.StockAnalysis)
	case KindIndustryAnalysis:
		resp.IndustryAnalysis = &IndustryAnalysisResult{}
		err = json.Unmarshal(raw, resp.IndustryAnalysis)
	case KindDaytrade:
		resp.Daytrade = &DaytradeResult{}
		err = json.Unmarshal(raw, resp.Daytrade)
	default:
		resp.Kind = KindNone
	}
	if err != nil {
		return nil, fmt.Errorf("decoding %s payload: %w", resp.Kind, err)
	}
	return resp, nil
}

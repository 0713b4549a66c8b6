package backend

// Rating labels produced by the backend recommender. Exactly RatingRejected
// routes an entry into the rejected bucket; every other label is treated as
// recommended.
const (
	RatingStrong   = "強烈推薦"
	RatingBuy      = "推薦"
	RatingCautious = "謹慎推薦"
	RatingRejected = "不推薦"
)

// Trend states reported in insights.trend.state. TrendBullish is the
// alignment label (MA5 > MA20 > MA60) used by the bullish-ratio statistic
// and the bullish-only filter.
const (
	TrendBullish = "多頭排列"
	TrendBearish = "空頭排列"
	TrendSideway = "盤整/糾結"
)

// Daytrade decision labels.
const (
	DecisionBuy   = "買進"
	DecisionWait  = "觀望"
	DecisionAvoid = "回避"
)

package derive

import "testing"

func TestExtractOpsFull(t *testing.T) {
	text := "趨勢偏多。買點：580~590 分批進場；賣點：630 / 停損：565。風控：單筆風險 1%。"
	ops := ExtractOps(text)
	if ops.Buy != "580~590 分批進場" {
		t.Errorf("Buy = %q", ops.Buy)
	}
	if ops.Sell != "630 " && ops.Sell != "630" {
		t.Errorf("Sell = %q", ops.Sell)
	}
	if ops.Stop != "565" {
		t.Errorf("Stop = %q", ops.Stop)
	}
	if ops.Risk != "單筆風險 1%" {
		t.Errorf("Risk = %q", ops.Risk)
	}
	if ops.Empty() {
		t.Error("Empty() = true for a fully matched text")
	}
}

func TestExtractOpsHalfWidthColon(t *testing.T) {
	ops := ExtractOps("買點: 100；停損: 95")
	if ops.Buy != "100" || ops.Stop != "95" {
		t.Errorf("ops = %+v", ops)
	}
}

func TestExtractOpsNoMatchDegradesGracefully(t *testing.T) {
	for _, text := range []string{"", "今日大盤震盪，建議觀望。", "entry: 100, stop: 95"} {
		ops := ExtractOps(text)
		if !ops.Empty() {
			t.Errorf("ExtractOps(%q) = %+v, want empty", text, ops)
		}
	}
}

func TestExtractOpsSellStopsAtSlash(t *testing.T) {
	ops := ExtractOps("賣點：630/640 區間")
	if ops.Sell != "630" {
		t.Errorf("Sell = %q, want capture to stop at the slash", ops.Sell)
	}
}

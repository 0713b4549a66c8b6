package symbol

import "testing"

func TestNormalize(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"2330", "2330.TW"},
		{" 2330 ", "2330.TW"},
		{"2330.TW", "2330.TW"},
		{"2330.tw", "2330.TW"},
		{"0050", "0050.TW"},
		{"AAPL", "AAPL"},
		{"2317.two", "2317.TWO"},
		{"", ""},
		{"   ", ""},
	}
	for _, c := range cases {
		if got := Normalize(c.in); got != c.want {
			t.Errorf("Normalize(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	inputs := []string{"2330", "2330.TW", "AAPL", "0056"}
	for _, in := range inputs {
		once := Normalize(in)
		twice := Normalize(once)
		if once != twice {
			t.Errorf("Normalize not idempotent for %q: %q != %q", in, once, twice)
		}
	}
}

func TestNormalizeList(t *testing.T) {
	got := NormalizeList("2330, 2317.TW ,, aapl")
	want := []string{"2330.TW", "2317.TW", "AAPL"}
	if len(got) != len(want) {
		t.Fatalf("NormalizeList returned %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("NormalizeList[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

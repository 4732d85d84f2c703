package market

import "testing"

func TestNormalizeInterval(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"1m", "1m"},
		{"4h", "4h"},
		{"1d", "1d"},
		{"1w", "1w"},
		{"1M", "1M"},
		{" 15m ", "15m"},
		{"7h", "1h"},
		{"1D", "1h"},
		{"", "1h"},
		{"hourly", "1h"},
	}
	for _, tt := range tests {
		if got := NormalizeInterval(tt.in); got != tt.want {
			t.Errorf("NormalizeInterval(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNormalizeLimit(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"250", 250},
		{"1", 1},
		{"1000", 1000},
		{"0", 1},
		{"-5", 1},
		{"5000", 1000},
		{"abc", 500},
		{"", 500},
		{"12.5", 500},
	}
	for _, tt := range tests {
		if got := NormalizeLimit(tt.in); got != tt.want {
			t.Errorf("NormalizeLimit(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestNormalizeSymbol(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"btcusdt", "BTCUSDT"},
		{" EthUsdt ", "ETHUSDT"},
		{"BTCUSDT", "BTCUSDT"},
	}
	for _, tt := range tests {
		if got := NormalizeSymbol(tt.in); got != tt.want {
			t.Errorf("NormalizeSymbol(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

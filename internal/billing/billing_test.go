package billing

import (
	"testing"
	"time"
)

func TestCalculateSessionCost_MultipliesMinutesByRate(t *testing.T) {
	tests := []struct {
		minutes int64
		rate    float64
		want    float64
	}{
		{0, 100, 0},
		{1, 100, 100},
		{4, 10, 40},
		{7, 0, 0},
		{3, 12.5, 37.5},
		{90, 180, 16200},
	}

	for _, tt := range tests {
		got := CalculateSessionCost(tt.minutes, tt.rate)
		if got != tt.want {
			t.Errorf("CalculateSessionCost(%d, %v) = %v, want %v", tt.minutes, tt.rate, got, tt.want)
		}
	}
}

func TestElapsedMinutes_TruncatesToWholeMinutes(t *testing.T) {
	start := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		now  time.Time
		want int64
	}{
		{"開始直後", start, 0},
		{"59秒経過", start.Add(59 * time.Second), 0},
		{"ちょうど1分", start.Add(time.Minute), 1},
		{"4分59秒", start.Add(4*time.Minute + 59*time.Second), 4},
		{"2時間", start.Add(2 * time.Hour), 120},
		{"開始前（時計ずれ）", start.Add(-3 * time.Minute), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ElapsedMinutes(tt.now, start); got != tt.want {
				t.Errorf("ElapsedMinutes() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestAccrue_IsIdempotent(t *testing.T) {
	start := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
	now := start.Add(4*time.Minute + 30*time.Second)

	first := Accrue(now, start, 10)
	second := Accrue(now, start, 10)

	if first != second {
		t.Errorf("同じ入力で結果が異なる: %+v != %+v", first, second)
	}
	if first.Minutes != 4 || first.Cost != 40 {
		t.Errorf("Accrue() = %+v, want {Minutes:4 Cost:40}", first)
	}
}

func TestAccrue_RecomputesFromStartWithoutDrift(t *testing.T) {
	start := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)

	// ティックを取りこぼしても開始時刻からの再計算なので結果は変わらない
	a := Accrue(start.Add(10*time.Minute), start, 15)
	if a.Minutes != 10 || a.Cost != 150 {
		t.Errorf("Accrue() = %+v, want {Minutes:10 Cost:150}", a)
	}
}

func TestFormatCurrency(t *testing.T) {
	tests := []struct {
		amount float64
		want   string
	}{
		{0, "$0.00"},
		{5, "$5.00"},
		{40, "$40.00"},
		{1234.5, "$1,234.50"},
		{1000000, "$1,000,000.00"},
		{0.07, "$0.07"},
		{-12.3, "-$12.30"},
	}

	for _, tt := range tests {
		if got := FormatCurrency(tt.amount); got != tt.want {
			t.Errorf("FormatCurrency(%v) = %q, want %q", tt.amount, got, tt.want)
		}
	}
}

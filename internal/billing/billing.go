// Package billing は相談セッションの課金計算を提供する。
// サーバーとクライアントの双方から利用する純粋関数のみを置く。
package billing

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// DefaultAccrualInterval はクライアントが経過時間と料金を再計算する既定の間隔。
const DefaultAccrualInterval = time.Minute

// CalculateSessionCost は経過分数と分単価から料金を算出する。
// 丸めは行わない（経過時間の分単位切り捨てはElapsedMinutes側で行う）。
func CalculateSessionCost(minutes int64, ratePerMinute float64) float64 {
	return float64(minutes) * ratePerMinute
}

// ElapsedMinutes は開始時刻からの経過時間を分単位で切り捨てて返す。
// 時計のずれでnowがstartより前になった場合は0を返す。
func ElapsedMinutes(now, start time.Time) int64 {
	d := now.Sub(start)
	if d <= 0 {
		return 0
	}
	return int64(d / time.Minute)
}

// Accrual は経過分数と発生料金の組。
type Accrual struct {
	Minutes int64
	Cost    float64
}

// Accrue は開始時刻・現在時刻・分単価から発生料金を毎回ゼロから再計算する。
// 内部状態を持たないため、同じ入力に対して常に同じ結果を返す。
func Accrue(now, start time.Time, ratePerMinute float64) Accrual {
	minutes := ElapsedMinutes(now, start)
	return Accrual{
		Minutes: minutes,
		Cost:    CalculateSessionCost(minutes, ratePerMinute),
	}
}

// FormatCurrency は金額をUSD表記（例: $1,234.50）に整形する。
func FormatCurrency(amount float64) string {
	sign := ""
	if amount < 0 {
		sign = "-"
		amount = -amount
	}

	cents := int64(math.Round(amount * 100))
	whole := strconv.FormatInt(cents/100, 10)
	frac := cents % 100

	// 3桁ごとにカンマを挿入
	var b strings.Builder
	pre := len(whole) % 3
	if pre > 0 {
		b.WriteString(whole[:pre])
	}
	for i := pre; i < len(whole); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(whole[i : i+3])
	}

	fracStr := strconv.FormatInt(frac, 10)
	if frac < 10 {
		fracStr = "0" + fracStr
	}

	return sign + "$" + b.String() + "." + fracStr
}

// Package catalog はおすすめ食事と栄養士一覧の静的データを提供する。
package catalog

import (
	"strings"

	"github.com/Inilogicz/Nutri-food/internal/model"
)

// Catalog は読み取り専用の食事・栄養士データ。生成後は変更されないため並行アクセス可能。
type Catalog struct {
	meals      map[model.TimeOfDay]model.Meal
	dieticians []model.Dietician
}

// New は組み込みデータを持つCatalogを生成する。
func New() *Catalog {
	return NewWith(defaultMeals(), defaultDieticians())
}

// NewWith は任意のデータでCatalogを生成する。
func NewWith(meals map[model.TimeOfDay]model.Meal, dieticians []model.Dietician) *Catalog {
	return &Catalog{meals: meals, dieticians: dieticians}
}

// RecommendedMeal は時間帯のおすすめ食事を返す。該当がなければ朝食を返す。
func (c *Catalog) RecommendedMeal(t model.TimeOfDay) model.Meal {
	if m, ok := c.meals[t]; ok {
		return m
	}
	return c.meals[model.TimeOfDayMorning]
}

// Dieticians は栄養士一覧のコピーを返す。
func (c *Catalog) Dieticians() []model.Dietician {
	out := make([]model.Dietician, len(c.dieticians))
	copy(out, c.dieticians)
	return out
}

// Dietician はIDで栄養士を検索する。
func (c *Catalog) Dietician(id string) (model.Dietician, bool) {
	for _, d := range c.dieticians {
		if d.ID == id {
			return d, true
		}
	}
	return model.Dietician{}, false
}

// TimeOfDayForHour は時刻（0-23）から時間帯を求める。
// 5時から11時台は朝、12時から17時台は昼、それ以外は夜。
func TimeOfDayForHour(hour int) model.TimeOfDay {
	switch {
	case hour >= 5 && hour < 12:
		return model.TimeOfDayMorning
	case hour >= 12 && hour < 18:
		return model.TimeOfDayAfternoon
	default:
		return model.TimeOfDayNight
	}
}

// ParseTimeOfDay はクエリ文字列を時間帯に変換する。未知の値や空文字列は朝とみなす。
func ParseTimeOfDay(s string) model.TimeOfDay {
	switch t := model.TimeOfDay(strings.ToLower(strings.TrimSpace(s))); t {
	case model.TimeOfDayMorning, model.TimeOfDayAfternoon, model.TimeOfDayNight:
		return t
	default:
		return model.TimeOfDayMorning
	}
}

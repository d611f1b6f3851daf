package handler

import (
	"net/http"

	"github.com/Inilogicz/Nutri-food/internal/catalog"
	"github.com/Inilogicz/Nutri-food/internal/model"
)

// CatalogServiceInterface は食事・栄養士カタログのインターフェース。
type CatalogServiceInterface interface {
	RecommendedMeal(t model.TimeOfDay) model.Meal
	Dieticians() []model.Dietician
}

// CatalogHandler は静的カタログのHTTPハンドラー。
type CatalogHandler struct {
	catalog CatalogServiceInterface
}

// NewCatalogHandler はCatalogHandlerを生成する。
func NewCatalogHandler(c CatalogServiceInterface) *CatalogHandler {
	return &CatalogHandler{catalog: c}
}

// RecommendedMeal は時間帯に応じたおすすめ食事を返す。
// 未指定または不明な時間帯はmorningとして扱う。
// GET /api/meals/recommended?time=morning|afternoon|night
func (h *CatalogHandler) RecommendedMeal(w http.ResponseWriter, r *http.Request) {
	t := catalog.ParseTimeOfDay(r.URL.Query().Get("time"))
	writeJSON(w, http.StatusOK, map[string]mealResponse{
		"meal": toMealResponse(h.catalog.RecommendedMeal(t)),
	})
}

// Dieticians は栄養士一覧を返す。
// GET /api/dieticians
func (h *CatalogHandler) Dieticians(w http.ResponseWriter, r *http.Request) {
	list := h.catalog.Dieticians()
	resp := make([]dieticianResponse, len(list))
	for i, d := range list {
		resp[i] = toDieticianResponse(d)
	}
	writeJSON(w, http.StatusOK, map[string][]dieticianResponse{"dieticians": resp})
}

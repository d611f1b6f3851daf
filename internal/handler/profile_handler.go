package handler

import (
	"context"
	"net/http"

	"github.com/Inilogicz/Nutri-food/internal/model"
	"github.com/Inilogicz/Nutri-food/internal/profile"
)

// ProfileServiceInterface はプロフィールハンドラーが必要とするサービスインターフェース。
type ProfileServiceInterface interface {
	Get(ctx context.Context, userID int64) (*profile.View, error)
	Update(ctx context.Context, userID int64, in profile.UpdateInput) (*profile.View, error)
}

// ProfileHandler は健康プロフィールのHTTPハンドラー。
type ProfileHandler struct {
	service ProfileServiceInterface
}

// NewProfileHandler はProfileHandlerを生成する。
func NewProfileHandler(service ProfileServiceInterface) *ProfileHandler {
	return &ProfileHandler{service: service}
}

// updateProfileRequest はプロフィール更新リクエスト。emailは受け付けない。
type updateProfileRequest struct {
	Name             string                 `json:"name"`
	PhoneNumber      string                 `json:"phone_number"`
	DOB              string                 `json:"dob"`
	Gender           string                 `json:"gender"`
	Height           float64                `json:"height"`
	Weight           float64                `json:"weight"`
	HealthConditions []string               `json:"healthConditions"`
	SurgicalHistory  []model.SurgicalRecord `json:"surgicalHistory"`
	FoodAllergies    []string               `json:"foodAllergies"`
}

// Get はプロフィールを返す。
// GET /api/profile
func (h *ProfileHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	view, err := h.service.Get(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toProfileResponse(view))
}

// Update はプロフィールを更新する。
// PUT /api/profile
func (h *ProfileHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req updateProfileRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	view, err := h.service.Update(r.Context(), userID, profile.UpdateInput{
		Name:             req.Name,
		PhoneNumber:      req.PhoneNumber,
		DOB:              req.DOB,
		Gender:           req.Gender,
		Height:           req.Height,
		Weight:           req.Weight,
		HealthConditions: req.HealthConditions,
		SurgicalHistory:  req.SurgicalHistory,
		FoodAllergies:    req.FoodAllergies,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toProfileResponse(view))
}

package handler

import (
	"time"

	"github.com/Inilogicz/Nutri-food/internal/assistant"
	"github.com/Inilogicz/Nutri-food/internal/model"
	"github.com/Inilogicz/Nutri-food/internal/profile"
)

// envelope は認証系APIの成功レスポンス。{status:true, message, data}
type envelope struct {
	Status  bool   `json:"status"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// userResponse はユーザー情報のAPIレスポンス。パスワードハッシュは含めない。
type userResponse struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Email       string `json:"email"`
	PhoneNumber string `json:"phone_number,omitempty"`
	DOB         string `json:"dob,omitempty"`
	Gender      string `json:"gender,omitempty"`
}

func toUserResponse(u *model.User) userResponse {
	return userResponse{
		ID:          u.ID,
		Name:        u.Name,
		Email:       u.Email,
		PhoneNumber: u.PhoneNumber,
		DOB:         u.DOB,
		Gender:      u.Gender,
	}
}

type mealResponse struct {
	ID           string            `json:"id"`
	Name         string            `json:"name"`
	Description  string            `json:"description"`
	Category     string            `json:"category"`
	TimeOfDay    []model.TimeOfDay `json:"timeOfDay"`
	ImageURL     string            `json:"imageUrl"`
	Calories     int               `json:"calories"`
	Protein      int               `json:"protein"`
	Carbs        int               `json:"carbs"`
	Fats         int               `json:"fats"`
	Ingredients  []string          `json:"ingredients"`
	Instructions []string          `json:"instructions"`
}

func toMealResponse(m model.Meal) mealResponse {
	return mealResponse{
		ID:           m.ID,
		Name:         m.Name,
		Description:  m.Description,
		Category:     m.Category,
		TimeOfDay:    m.TimeOfDay,
		ImageURL:     m.ImageURL,
		Calories:     m.Calories,
		Protein:      m.Protein,
		Carbs:        m.Carbs,
		Fats:         m.Fats,
		Ingredients:  m.Ingredients,
		Instructions: m.Instructions,
	}
}

// dieticianResponse は栄養士のAPIレスポンス。料金は1分あたりの額をrateとして返す。
type dieticianResponse struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Specialty string  `json:"specialty"`
	Bio       string  `json:"bio"`
	ImageURL  string  `json:"imageUrl"`
	Rating    float64 `json:"rating"`
	Reviews   int     `json:"reviews"`
	Rate      float64 `json:"rate"`
	Available bool    `json:"available"`
}

func toDieticianResponse(d model.Dietician) dieticianResponse {
	return dieticianResponse{
		ID:        d.ID,
		Name:      d.Name,
		Specialty: d.Specialty,
		Bio:       d.Bio,
		ImageURL:  d.ImageURL,
		Rating:    d.Rating,
		Reviews:   d.Reviews,
		Rate:      d.RatePerMinute,
		Available: d.Available,
	}
}

// sessionResponse は相談セッションのAPIレスポンス。
type sessionResponse struct {
	ID            string     `json:"id"`
	DieticianID   string     `json:"dieticianId"`
	DieticianName string     `json:"dieticianName"`
	RatePerMinute float64    `json:"ratePerMinute"`
	StartTime     time.Time  `json:"startTime"`
	EndTime       *time.Time `json:"endTime"`
	Status        string     `json:"status"`
	Cost          float64    `json:"cost"`
}

func toSessionResponse(s *model.ConsultationSession) *sessionResponse {
	if s == nil {
		return nil
	}
	return &sessionResponse{
		ID:            s.ID,
		DieticianID:   s.DieticianID,
		DieticianName: s.DieticianName,
		RatePerMinute: s.RatePerMinute,
		StartTime:     s.StartTime.UTC(),
		EndTime:       utcPtr(s.EndTime),
		Status:        string(s.Status),
		Cost:          s.Cost,
	}
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}

// messageResponse はセッションメッセージのAPIレスポンス。
type messageResponse struct {
	ID        string    `json:"id"`
	SessionID string    `json:"sessionId"`
	Sender    string    `json:"sender"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

func toMessageResponse(m *model.SessionMessage) messageResponse {
	return messageResponse{
		ID:        m.ID,
		SessionID: m.SessionID,
		Sender:    string(m.Sender),
		Content:   m.Content,
		Timestamp: m.CreatedAt.UTC(),
	}
}

// profileResponse は健康プロフィールのAPIレスポンス。
type profileResponse struct {
	Name             string                 `json:"name"`
	Email            string                 `json:"email"`
	PhoneNumber      string                 `json:"phone_number"`
	DOB              string                 `json:"dob"`
	Gender           string                 `json:"gender"`
	Age              int                    `json:"age"`
	Height           float64                `json:"height"`
	Weight           float64                `json:"weight"`
	HealthConditions []string               `json:"healthConditions"`
	SurgicalHistory  []model.SurgicalRecord `json:"surgicalHistory"`
	FoodAllergies    []string               `json:"foodAllergies"`
}

func toProfileResponse(v *profile.View) profileResponse {
	return profileResponse{
		Name:             v.Name,
		Email:            v.Email,
		PhoneNumber:      v.PhoneNumber,
		DOB:              v.DOB,
		Gender:           v.Gender,
		Age:              v.Age,
		Height:           v.Height,
		Weight:           v.Weight,
		HealthConditions: v.HealthConditions,
		SurgicalHistory:  v.SurgicalHistory,
		FoodAllergies:    v.FoodAllergies,
	}
}

type chatReplyResponse struct {
	ID        string    `json:"id"`
	Sender    string    `json:"sender"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

func toChatReplyResponse(r *assistant.Reply) chatReplyResponse {
	return chatReplyResponse{
		ID:        r.ID,
		Sender:    r.Sender,
		Content:   r.Content,
		Timestamp: r.Timestamp.UTC(),
	}
}

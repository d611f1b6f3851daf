package client

import "time"

// Identity はログイン中ユーザーのクライアント側プロフィール。
// 永続化する最小限の項目のみを持ち、パスワード等の秘密情報は含まない。
type Identity struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Email       string `json:"email"`
	PhoneNumber string `json:"phone_number,omitempty"`
	DOB         string `json:"dob,omitempty"`
	Gender      string `json:"gender,omitempty"`
}

// Session は相談セッションのサーバー表現。
type Session struct {
	ID            string     `json:"id"`
	DieticianID   string     `json:"dieticianId"`
	DieticianName string     `json:"dieticianName"`
	RatePerMinute float64    `json:"ratePerMinute"`
	StartTime     time.Time  `json:"startTime"`
	EndTime       *time.Time `json:"endTime"`
	Status        string     `json:"status"`
	Cost          float64    `json:"cost"`
}

// セッション状態の値
const (
	SessionStatusActive    = "active"
	SessionStatusCompleted = "completed"
)

// IsActive はセッションがactive状態かどうかを返す。
func (s *Session) IsActive() bool {
	return s != nil && s.Status == SessionStatusActive
}

// Message はセッション内のメッセージ。
type Message struct {
	ID        string    `json:"id"`
	SessionID string    `json:"sessionId"`
	Sender    string    `json:"sender"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// Meal はおすすめ食事。
type Meal struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Description  string   `json:"description"`
	Category     string   `json:"category"`
	TimeOfDay    []string `json:"timeOfDay"`
	ImageURL     string   `json:"imageUrl"`
	Calories     int      `json:"calories"`
	Protein      int      `json:"protein"`
	Carbs        int      `json:"carbs"`
	Fats         int      `json:"fats"`
	Ingredients  []string `json:"ingredients"`
	Instructions []string `json:"instructions"`
}

// Dietician は栄養士。Rateは1分あたりの料金。
type Dietician struct {
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

// SurgicalRecord は手術歴の1件。
type SurgicalRecord struct {
	Type    string `json:"type"`
	Date    string `json:"date"`
	Details string `json:"details"`
}

// Profile は健康プロフィール。
type Profile struct {
	Name             string           `json:"name"`
	Email            string           `json:"email,omitempty"`
	PhoneNumber      string           `json:"phone_number"`
	DOB              string           `json:"dob"`
	Gender           string           `json:"gender"`
	Age              int              `json:"age,omitempty"`
	Height           float64          `json:"height"`
	Weight           float64          `json:"weight"`
	HealthConditions []string         `json:"healthConditions"`
	SurgicalHistory  []SurgicalRecord `json:"surgicalHistory"`
	FoodAllergies    []string         `json:"foodAllergies"`
}

// ChatReply はAIアシスタントの応答。
type ChatReply struct {
	ID        string    `json:"id"`
	Sender    string    `json:"sender"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// RegisterInput はユーザー登録の入力。
type RegisterInput struct {
	Name            string `json:"name"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"-"`
	PhoneNumber     string `json:"phone_number,omitempty"`
	DOB             string `json:"dob,omitempty"`
	Gender          string `json:"gender,omitempty"`
}

// LoginResult はログイン成功時の応答。
type LoginResult struct {
	User  Identity
	Token string
}

// Package assistant は栄養アシスタントチャットの応答を提供する。
// 実際のAIバックエンドは接続せず、定型応答から1件を選んで返す。
package assistant

import (
	"math/rand/v2"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Inilogicz/Nutri-food/internal/model"
)

// Greeting はチャット開始時に表示する挨拶。
const Greeting = "Hello! I'm your NutriAI assistant. How can I help you with your nutrition goals today?"

// SenderAI はアシスタントの送信者種別。
const SenderAI = "ai"

var cannedReplies = []string{
	"Based on your profile, I'd recommend increasing your protein intake at breakfast. Try adding Greek yogurt or eggs to your morning meal.",
	"That's a great question! Avocados are an excellent source of healthy fats and fiber. About 1/2 to 1 whole avocado per day is a good amount for most people.",
	"For your iron levels, I suggest incorporating more leafy greens, lentils, and lean meats into your diet. Pair them with vitamin C-rich foods for better absorption.",
	"I can analyze your meal if you describe it to me. Just list the main components and approximate portions.",
	"Based on your activity level, you should aim for about 2.2 liters of water per day. Remember to hydrate before and after workouts.",
}

// Reply はアシスタントの応答メッセージ。
type Reply struct {
	ID        string
	Sender    string
	Content   string
	Timestamp time.Time
}

// Service は定型応答を返すアシスタント。
type Service struct {
	choose func(n int) int
	now    func() time.Time
}

// NewService はランダムに応答を選ぶServiceを生成する。
func NewService() *Service {
	return NewServiceWithChooser(rand.IntN)
}

// NewServiceWithChooser は応答の選び方を指定してServiceを生成する。
// chooseは [0, n) の値を返すこと。
func NewServiceWithChooser(choose func(n int) int) *Service {
	return &Service{choose: choose, now: time.Now}
}

// Chat はユーザーのメッセージに対する応答を返す。
// 空白のみのメッセージは検証エラーとなる。
func (s *Service) Chat(message string) (*Reply, error) {
	if strings.TrimSpace(message) == "" {
		return nil, model.NewValidationError("message is required")
	}

	idx := s.choose(len(cannedReplies))
	if idx < 0 || idx >= len(cannedReplies) {
		idx = 0
	}

	return &Reply{
		ID:        uuid.New().String(),
		Sender:    SenderAI,
		Content:   cannedReplies[idx],
		Timestamp: s.now(),
	}, nil
}

// Package profile はユーザーの健康プロフィールの参照と更新を提供する。
package profile

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/Inilogicz/Nutri-food/internal/model"
	"github.com/Inilogicz/Nutri-food/internal/repository"
	"github.com/Inilogicz/Nutri-food/internal/security"
)

const dobLayout = "2006-01-02"

// View はAPIで返すプロフィール。ユーザー情報と健康情報を結合したもの。
type View struct {
	Name             string
	Email            string
	PhoneNumber      string
	DOB              string
	Gender           string
	Age              int
	Height           float64
	Weight           float64
	HealthConditions []string
	SurgicalHistory  []model.SurgicalRecord
	FoodAllergies    []string
}

// UpdateInput はプロフィール更新の入力値。メールアドレスは変更できない。
type UpdateInput struct {
	Name             string
	PhoneNumber      string
	DOB              string
	Gender           string
	Height           float64
	Weight           float64
	HealthConditions []string
	SurgicalHistory  []model.SurgicalRecord
	FoodAllergies    []string
}

// Service はプロフィールに関するビジネスロジックを提供する。
type Service struct {
	users     repository.UserRepository
	profiles  repository.ProfileRepository
	sanitizer security.TextSanitizerService
	now       func() time.Time
}

// NewService はServiceを生成する。
func NewService(users repository.UserRepository, profiles repository.ProfileRepository, sanitizer security.TextSanitizerService) *Service {
	return &Service{
		users:     users,
		profiles:  profiles,
		sanitizer: sanitizer,
		now:       time.Now,
	}
}

// Age は生年月日（YYYY-MM-DD）からnow時点の満年齢を求める。
// 今年の誕生日をまだ迎えていなければ1を引く。空文字列や解釈できない値は0。
func Age(dob string, now time.Time) int {
	if dob == "" {
		return 0
	}
	birth, err := time.Parse(dobLayout, dob)
	if err != nil {
		return 0
	}

	age := now.Year() - birth.Year()
	if now.Month() < birth.Month() || (now.Month() == birth.Month() && now.Day() < birth.Day()) {
		age--
	}
	if age < 0 {
		return 0
	}
	return age
}

// Get はユーザーのプロフィールを返す。
func (s *Service) Get(ctx context.Context, userID int64) (*View, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		return nil, model.NewUserNotFoundError()
	}

	p, err := s.profiles.FindByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to find profile: %w", err)
	}
	if p == nil {
		p = &model.Profile{UserID: userID}
	}

	return s.view(user, p), nil
}

// Update はプロフィールを検証・サニタイズして保存し、更新後のプロフィールを返す。
func (s *Service) Update(ctx context.Context, userID int64, in UpdateInput) (*View, error) {
	// 1. 数値と日付の検証
	if in.Height < 0 || in.Weight < 0 || math.IsNaN(in.Height) || math.IsNaN(in.Weight) {
		return nil, model.NewValidationError("height and weight must be non-negative")
	}
	dob := strings.TrimSpace(in.DOB)
	if dob != "" {
		birth, err := time.Parse(dobLayout, dob)
		if err != nil {
			return nil, model.NewValidationError("dob must be YYYY-MM-DD")
		}
		if birth.After(s.now()) {
			return nil, model.NewValidationError("dob must not be in the future")
		}
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		return nil, model.NewUserNotFoundError()
	}

	// 2. 連絡先の更新（空の氏名は既存値を維持）
	if name := s.sanitizer.Sanitize(in.Name); name != "" {
		user.Name = name
	}
	user.PhoneNumber = s.sanitizer.Sanitize(in.PhoneNumber)
	user.DOB = dob
	user.Gender = strings.ToLower(s.sanitizer.Sanitize(in.Gender))
	if err := s.users.UpdateContact(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	// 3. 健康情報の保存
	p := &model.Profile{
		UserID:           userID,
		Height:           in.Height,
		Weight:           in.Weight,
		HealthConditions: security.SanitizeAll(s.sanitizer, in.HealthConditions),
		SurgicalHistory:  s.sanitizeSurgical(in.SurgicalHistory),
		FoodAllergies:    security.SanitizeAll(s.sanitizer, in.FoodAllergies),
	}
	if err := s.profiles.Upsert(ctx, p); err != nil {
		return nil, fmt.Errorf("failed to save profile: %w", err)
	}

	return s.view(user, p), nil
}

// sanitizeSurgical は手術歴の各項目をサニタイズし、全項目が空の記録を除く。
func (s *Service) sanitizeSurgical(records []model.SurgicalRecord) []model.SurgicalRecord {
	out := make([]model.SurgicalRecord, 0, len(records))
	for _, r := range records {
		c := model.SurgicalRecord{
			Type:    s.sanitizer.Sanitize(r.Type),
			Date:    s.sanitizer.Sanitize(r.Date),
			Details: s.sanitizer.Sanitize(r.Details),
		}
		if c.Type == "" && c.Date == "" && c.Details == "" {
			continue
		}
		out = append(out, c)
	}
	return out
}

func (s *Service) view(u *model.User, p *model.Profile) *View {
	return &View{
		Name:             u.Name,
		Email:            u.Email,
		PhoneNumber:      u.PhoneNumber,
		DOB:              u.DOB,
		Gender:           u.Gender,
		Age:              Age(u.DOB, s.now()),
		Height:           p.Height,
		Weight:           p.Weight,
		HealthConditions: nonNilStrings(p.HealthConditions),
		SurgicalHistory:  nonNilRecords(p.SurgicalHistory),
		FoodAllergies:    nonNilStrings(p.FoodAllergies),
	}
}

func nonNilStrings(ss []string) []string {
	if ss == nil {
		return []string{}
	}
	return ss
}

func nonNilRecords(rs []model.SurgicalRecord) []model.SurgicalRecord {
	if rs == nil {
		return []model.SurgicalRecord{}
	}
	return rs
}

// Package model はドメインモデルを定義する。
package model

import "time"

// User はサービス利用ユーザーを表す。
// IDはDB採番の整数で、クライアント側のIdentityのidと一致する。
type User struct {
	ID           int64
	Name         string
	Email        string
	PasswordHash string
	PhoneNumber  string
	DOB          string // YYYY-MM-DD
	Gender       string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Profile はユーザーの健康プロフィールを表す。
type Profile struct {
	UserID           int64
	Height           float64 // cm
	Weight           float64 // kg
	HealthConditions []string
	SurgicalHistory  []SurgicalRecord
	FoodAllergies    []string
	UpdatedAt        time.Time
}

// SurgicalRecord は手術歴の1件を表す。
type SurgicalRecord struct {
	Type    string `json:"type"`
	Date    string `json:"date"`
	Details string `json:"details"`
}

// Wallet はユーザーの残高を表す。
// 残高は常に0以上で、サーバー側のみが増減させる。
type Wallet struct {
	UserID    int64
	Balance   float64
	UpdatedAt time.Time
}

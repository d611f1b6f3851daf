package auth

import (
	"golang.org/x/crypto/bcrypt"
)

// Hasher はbcryptでパスワードをハッシュ化・照合する。
// 平文パスワードをログや永続化に渡してはならない。
type Hasher struct {
	Cost int
}

// NewHasher は指定コストのHasherを生成する。
// コストが0以下ならbcrypt.DefaultCost、範囲外なら上下限に丸める。
func NewHasher(cost int) *Hasher {
	if cost <= 0 {
		cost = bcrypt.DefaultCost
	}
	if cost < bcrypt.MinCost {
		cost = bcrypt.MinCost
	}
	if cost > bcrypt.MaxCost {
		cost = bcrypt.MaxCost
	}
	return &Hasher{Cost: cost}
}

// Hash はパスワードのbcryptハッシュを返す。
func (h *Hasher) Hash(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), h.Cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Compare はハッシュとパスワードを照合する。一致すればnilを返す。
func (h *Hasher) Compare(hash, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
}

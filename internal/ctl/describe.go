package ctl

import (
	"errors"
	"fmt"

	"github.com/Inilogicz/Nutri-food/internal/client"
	"github.com/Inilogicz/Nutri-food/internal/client/authsession"
	"github.com/Inilogicz/Nutri-food/internal/client/consultation"
)

// Describe はエラーを利用者向けのメッセージに変換する。
// 残高不足はチャージ方法を、未認証はログイン方法を案内する。
func Describe(err error) string {
	var (
		usageErr    *UsageError
		validation  *client.ValidationError
		loginErr    *client.LoginError
		creationErr *client.SessionCreationError
		transport   *client.TransportError
	)

	switch {
	case err == nil:
		return ""
	case errors.As(err, &usageErr):
		return usageErr.Error()
	case errors.Is(err, client.ErrInsufficientBalance):
		return "insufficient balance. top up with `nutrictl topup AMOUNT` and try again."
	case errors.Is(err, client.ErrNotAuthenticated):
		return "not signed in. run `nutrictl login` first."
	case errors.Is(err, authsession.ErrInvalidIdentity):
		return "the server returned an incomplete account; sign-in was not saved."
	case errors.Is(err, consultation.ErrSessionAlreadyActive):
		return "a consultation is already in progress. end it with `nutrictl session end` first."
	case errors.Is(err, consultation.ErrNoActiveSession):
		return "no active consultation. start one with `nutrictl session start DIETICIAN_ID`."
	case errors.As(err, &validation):
		return validation.Message
	case errors.As(err, &loginErr):
		return "sign-in failed: " + loginErr.Message
	case errors.As(err, &creationErr):
		return "could not start the consultation: " + creationErr.Message
	case errors.As(err, &transport):
		if transport.Message != "" {
			return fmt.Sprintf("request failed: %s", transport.Message)
		}
		return fmt.Sprintf("request failed: %v", transport)
	default:
		return err.Error()
	}
}

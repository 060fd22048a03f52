package usecase

import (
	"errors"
	"fmt"
	"net/http"
)

// Usecaseの失敗はHTTPステータスを持ったエラーで表す。
// 404=対象なし / 409=状態・在庫の衝突 / 400=入力不正 / 500=インフラ。
type HTTPError struct {
	Status  int
	Message string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("%d: %s", e.Status, e.Message)
}

func NewHTTPError(status int, message string) error {
	return &HTTPError{
		Status:  status,
		Message: message,
	}
}

func AsHTTPError(err error) (*HTTPError, bool) {
	var he *HTTPError
	ok := errors.As(err, &he)
	return he, ok
}

// 在庫・状態系の決定的な失敗。リトライしても結果は変わらない。
func errInsufficientStock() error {
	return NewHTTPError(http.StatusConflict, "insufficient stock")
}

func errInvalidState(status string) error {
	return NewHTTPError(http.StatusConflict, "invalid state: "+status)
}

func errNotFound() error {
	return NewHTTPError(http.StatusNotFound, "not found")
}

// ストア障害。リトライ対象にできるのはこれだけ。
func errStoreUnavailable() error {
	return NewHTTPError(http.StatusInternalServerError, "db error")
}

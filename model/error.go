// Package model は、ダッシュボードで扱う値オブジェクトとエラー定義を提供します。
package model

import (
	"errors"
	"fmt"
)

// センチネルエラー - 上流サーバーからのデータ取得に失敗した場合
var ErrRetrieval = errors.New("retrieval failed")

// ValidationError はバリデーションエラーを表す型
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// NewValidationError はValidationErrorを生成するヘルパー関数
func NewValidationError(msg string) error {
	return &ValidationError{Message: msg}
}

// RetrievalError は上流サーバーへの問い合わせ失敗を表します。
// ネットワークエラー、2xx以外のステータス、デコード不能なペイロードを含みます。
type RetrievalError struct {
	Endpoint   string
	StatusCode int // HTTPレスポンスを受け取れなかった場合は0
	Err        error
}

func (e *RetrievalError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("retrieve %s: status %d: %v", e.Endpoint, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("retrieve %s: %v", e.Endpoint, e.Err)
}

func (e *RetrievalError) Unwrap() error {
	return e.Err
}

// Is は errors.Is(err, ErrRetrieval) を満たすために実装します。
func (e *RetrievalError) Is(target error) bool {
	return target == ErrRetrieval
}

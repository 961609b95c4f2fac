package service

import (
	"errors"
	"fmt"

	"github.com/viabilidade/backend/internal/model"
)

var (
	// ErrValidation は入力値が不正な場合のエラー（ValidationError がラップする）
	ErrValidation = errors.New("validation failed")
	// ErrSessionNotFound は編集セッションが存在しないか期限切れの場合のエラー
	ErrSessionNotFound = errors.New("session not found")
	// ErrUnknownKind は direct / indirect 以外の配分種別
	ErrUnknownKind = model.ErrUnknownKind
	// ErrUnknownItem は配分表に存在しない項目
	ErrUnknownItem = errors.New("unknown allocation item")
	// ErrUnknownCUB は CUB 表に存在しない州・標準
	ErrUnknownCUB = errors.New("unknown CUB reference")
	// ErrAnalysisUnavailable は AI 分析が設定されていない場合のエラー
	ErrAnalysisUnavailable = errors.New("analysis unavailable")
)

// ValidationError は不正なフィールドを示す
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

func invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

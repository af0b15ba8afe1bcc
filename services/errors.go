package services

import "errors"

// タスク操作が返すエラー種別
// ハンドラー側は errors.Is で判別してユーザー向けメッセージに変換する
var (
	ErrTaskNotFound      = errors.New("task not found")
	ErrInvalidTransition = errors.New("invalid task transition")
	ErrSelfReview        = errors.New("self review is not allowed")
	ErrPermissionDenied  = errors.New("permission denied")
	ErrEmptyURL          = errors.New("task url is empty")
	ErrDeliveryFailed    = errors.New("notification delivery failed")
)

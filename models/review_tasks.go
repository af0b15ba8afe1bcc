package models

import (
	"time"
)

// ReviewTask はグループチャットに投稿されたレビュータスク1件を表す
// 行は監査証跡として残すため物理削除しない
type ReviewTask struct {
	ID                       int64 `gorm:"primaryKey;autoIncrement"`
	URL                      string
	ChatID                   int64 `gorm:"index"`
	PublisherID              int64
	PublisherName            string
	PublisherMsgID           int64
	PublishedAt              time.Time
	ReviewerID               *int64
	ReviewerName             string
	TakenOnReviewAt          *time.Time
	SubmittedToFinalReviewAt *time.Time
	FinalReviewerName        string
	CompletedAt              *time.Time
	ReplyMsgID               *int64 // タスクの状態を表示しているメッセージのID
	CorrelationToken         string `gorm:"uniqueIndex"` // コールバックデータに埋め込む照合トークン
	CreatedAt                time.Time
	UpdatedAt                time.Time
}

type TaskStatus string

const (
	StatusDraft                   TaskStatus = "draft"
	StatusOnReview                TaskStatus = "on_review"
	StatusSubmittedForFinalReview TaskStatus = "submitted_for_final_review"
	StatusConfirmed               TaskStatus = "confirmed"
)

// Status はタイムスタンプ列から導出する
// completed_at → submitted_to_final_review_at → reviewer_id の順で優先される
func (t *ReviewTask) Status() TaskStatus {
	switch {
	case t.CompletedAt != nil:
		return StatusConfirmed
	case t.SubmittedToFinalReviewAt != nil:
		return StatusSubmittedForFinalReview
	case t.ReviewerID != nil:
		return StatusOnReview
	default:
		return StatusDraft
	}
}

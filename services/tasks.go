package services

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"telegram-review-notify/models"
)

// TaskService はタスクの状態遷移を一手に引き受ける
// 同一タスクIDに対する変更操作はタスク別ロックで直列化される
type TaskService struct {
	store     *TaskStore
	notifier  Notifier
	perms     PermissionChecker
	taskLimit int
	locks     *taskLocks
}

func NewTaskService(store *TaskStore, notifier Notifier, perms PermissionChecker, taskLimit int) *TaskService {
	return &TaskService{
		store:     store,
		notifier:  notifier,
		perms:     perms,
		taskLimit: taskLimit,
		locks:     newTaskLocks(),
	}
}

// CreateTask は新しいタスクを登録してIDを返す
// URLが空の場合は何も保存せずに ErrEmptyURL を返す
func (s *TaskService) CreateTask(url string, chatID, publisherMsgID, publisherID int64, publisherName string, publishedAt time.Time) (int64, error) {
	if strings.TrimSpace(url) == "" {
		return 0, ErrEmptyURL
	}

	task := &models.ReviewTask{
		URL:              strings.TrimSpace(url),
		ChatID:           chatID,
		PublisherID:      publisherID,
		PublisherName:    publisherName,
		PublisherMsgID:   publisherMsgID,
		PublishedAt:      publishedAt,
		CorrelationToken: uuid.NewString(),
	}
	if err := s.store.Create(task); err != nil {
		return 0, err
	}
	return task.ID, nil
}

func (s *TaskService) GetTaskByID(taskID int64) (*models.ReviewTask, error) {
	return s.store.ByID(taskID)
}

func (s *TaskService) GetTaskByToken(token string) (*models.ReviewTask, error) {
	return s.store.ByToken(token)
}

// ClaimForReview はタスクにレビュー担当者を割り当てる
// すでに担当者がいる場合と自己レビューは拒否する
// 書き込みは reviewer_id IS NULL を条件にしたガード付き更新なので
// 同時クレームは片方だけが成功する
func (s *TaskService) ClaimForReview(taskID, reviewerID int64, reviewerName string, replyMsgID int64, takenAt time.Time) (*models.ReviewTask, error) {
	mu := s.locks.get(taskID)
	mu.Lock()
	defer mu.Unlock()

	task, err := s.store.ByID(taskID)
	if err != nil {
		return nil, err
	}
	if task.CompletedAt != nil || task.ReviewerID != nil {
		return nil, ErrInvalidTransition
	}
	if task.PublisherID == reviewerID {
		return nil, ErrSelfReview
	}

	affected, err := s.store.UpdateGuarded(taskID, "reviewer_id IS NULL", map[string]interface{}{
		"reviewer_id":        reviewerID,
		"reviewer_name":      reviewerName,
		"taken_on_review_at": takenAt,
		"reply_msg_id":       replyMsgID,
	})
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		// ロック外で先に書かれていた場合
		return nil, ErrInvalidTransition
	}
	return s.store.ByID(taskID)
}

// SubmitForFinalReview はタスクを最終レビュー待ちにする
func (s *TaskService) SubmitForFinalReview(taskID int64, submittedAt time.Time) (*models.ReviewTask, error) {
	mu := s.locks.get(taskID)
	mu.Lock()
	defer mu.Unlock()

	task, err := s.store.ByID(taskID)
	if err != nil {
		return nil, err
	}
	if task.ReviewerID == nil || task.SubmittedToFinalReviewAt != nil || task.CompletedAt != nil {
		return nil, ErrInvalidTransition
	}

	if err := s.store.Update(taskID, map[string]interface{}{
		"submitted_to_final_review_at": submittedAt,
	}); err != nil {
		return nil, err
	}
	return s.store.ByID(taskID)
}

// ConfirmReview はタスクを完了にする (終端状態、以後の遷移は無効)
func (s *TaskService) ConfirmReview(taskID int64, finalReviewerName string, completedAt time.Time) (*models.ReviewTask, error) {
	mu := s.locks.get(taskID)
	mu.Lock()
	defer mu.Unlock()

	task, err := s.store.ByID(taskID)
	if err != nil {
		return nil, err
	}
	if task.SubmittedToFinalReviewAt == nil || task.CompletedAt != nil {
		return nil, ErrInvalidTransition
	}

	if err := s.store.Update(taskID, map[string]interface{}{
		"completed_at":        completedAt,
		"final_reviewer_name": finalReviewerName,
	}); err != nil {
		return nil, err
	}
	return s.store.ByID(taskID)
}

// RejectReview は最終レビュー待ちを取り消してレビュー中に戻す
// 担当者はそのまま残るので再提出できる
func (s *TaskService) RejectReview(taskID int64) (*models.ReviewTask, error) {
	mu := s.locks.get(taskID)
	mu.Lock()
	defer mu.Unlock()

	task, err := s.store.ByID(taskID)
	if err != nil {
		return nil, err
	}
	if task.SubmittedToFinalReviewAt == nil || task.CompletedAt != nil {
		return nil, ErrInvalidTransition
	}

	if err := s.store.Update(taskID, map[string]interface{}{
		"submitted_to_final_review_at": nil,
	}); err != nil {
		return nil, err
	}
	return s.store.ByID(taskID)
}

// RelocateReply は表示メッセージのIDを付け替える
// 古いメッセージの削除は呼び出し側の責任
func (s *TaskService) RelocateReply(taskID, newReplyMsgID int64) error {
	mu := s.locks.get(taskID)
	mu.Lock()
	defer mu.Unlock()

	return s.store.Update(taskID, map[string]interface{}{
		"reply_msg_id": newReplyMsgID,
	})
}

func (s *TaskService) ListTasksOnReview(chatID int64, reviewerID *int64) ([]models.ReviewTask, error) {
	return s.store.ListOnReview(chatID, reviewerID)
}

func (s *TaskService) CountTasksOnReview(chatID int64) (int64, error) {
	return s.store.CountOnReview(chatID)
}

// IsAuthorized はチャット管理者か extra で許可されたユーザーかを判定する
func (s *TaskService) IsAuthorized(chatID, userID int64, extra ...int64) bool {
	return s.perms.IsAuthorized(chatID, userID, extra...)
}

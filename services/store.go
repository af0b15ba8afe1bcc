package services

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"telegram-review-notify/models"
)

// TaskStore はレビュータスクの永続化層
// タスクへの書き込みは全て TaskService 経由でここを通る
type TaskStore struct {
	db *gorm.DB
}

func NewTaskStore(db *gorm.DB) *TaskStore {
	return &TaskStore{db: db}
}

func (s *TaskStore) Create(task *models.ReviewTask) error {
	if err := s.db.Create(task).Error; err != nil {
		return fmt.Errorf("task create error: %w", err)
	}
	return nil
}

func (s *TaskStore) ByID(taskID int64) (*models.ReviewTask, error) {
	var task models.ReviewTask
	if err := s.db.First(&task, "id = ?", taskID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("task fetch error: %w", err)
	}
	return &task, nil
}

func (s *TaskStore) ByToken(token string) (*models.ReviewTask, error) {
	var task models.ReviewTask
	if err := s.db.First(&task, "correlation_token = ?", token).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("task fetch error: %w", err)
	}
	return &task, nil
}

// Update は指定タスクのフィールドを更新する
func (s *TaskStore) Update(taskID int64, fields map[string]interface{}) error {
	result := s.db.Model(&models.ReviewTask{}).Where("id = ?", taskID).Updates(fields)
	if result.Error != nil {
		return fmt.Errorf("task update error: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrTaskNotFound
	}
	return nil
}

// UpdateGuarded は追加条件付きの更新で、更新できた行数を返す
// 楽観的な遷移ガード (例: reviewer_id IS NULL) に使う
func (s *TaskStore) UpdateGuarded(taskID int64, guard string, fields map[string]interface{}) (int64, error) {
	result := s.db.Model(&models.ReviewTask{}).
		Where("id = ?", taskID).
		Where(guard).
		Updates(fields)
	if result.Error != nil {
		return 0, fmt.Errorf("task update error: %w", result.Error)
	}
	return result.RowsAffected, nil
}

// ListOnReview はレビュー中 (担当者あり・未完了) のタスクをID昇順で返す
// reviewerID を渡すとその担当者のタスクに絞り込む
func (s *TaskStore) ListOnReview(chatID int64, reviewerID *int64) ([]models.ReviewTask, error) {
	var tasks []models.ReviewTask
	query := s.db.Where("chat_id = ? AND reviewer_id IS NOT NULL AND completed_at IS NULL", chatID)
	if reviewerID != nil {
		query = query.Where("reviewer_id = ?", *reviewerID)
	}
	if err := query.Order("id asc").Find(&tasks).Error; err != nil {
		return nil, fmt.Errorf("task list error: %w", err)
	}
	return tasks, nil
}

func (s *TaskStore) CountOnReview(chatID int64) (int64, error) {
	var count int64
	err := s.db.Model(&models.ReviewTask{}).
		Where("chat_id = ? AND reviewer_id IS NOT NULL AND completed_at IS NULL", chatID).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("task count error: %w", err)
	}
	return count, nil
}

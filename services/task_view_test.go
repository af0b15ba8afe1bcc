package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"telegram-review-notify/models"
)

func TestRenderTaskBodyRoundTrip(t *testing.T) {
	now := time.Now()
	reviewerID := int64(2002)

	tasks := []models.ReviewTask{
		{ID: 1, URL: "https://example.com/mr/1", PublisherName: "alice"},
		{ID: 42, URL: "https://example.com/mr/42", PublisherName: "алиса", ReviewerID: &reviewerID, ReviewerName: "ボブ", TakenOnReviewAt: &now},
		{ID: 9000001, URL: "https://example.com/mr/1?x=#1", PublisherName: "a b c", ReviewerID: &reviewerID, ReviewerName: "b", TakenOnReviewAt: &now, SubmittedToFinalReviewAt: &now},
		{ID: 7, URL: "https://example.com/mr/7", PublisherName: "héloïse", ReviewerID: &reviewerID, ReviewerName: "bob", TakenOnReviewAt: &now, SubmittedToFinalReviewAt: &now, FinalReviewerName: "管理者", CompletedAt: &now},
	}

	for _, task := range tasks {
		body := RenderTaskBody(&task)
		id, err := ExtractTaskID(body)
		assert.NoError(t, err)
		assert.Equal(t, task.ID, id)
	}
}

func TestExtractTaskIDWithHeader(t *testing.T) {
	task := models.ReviewTask{ID: 15, URL: "https://example.com/mr/15", PublisherName: "alice"}

	// ヘッダー付きで送った通知からも読み戻せる
	text := RenderTaskHeader("Моя группа 🚀") + RenderTaskBody(&task)
	id, err := ExtractTaskID(text)
	assert.NoError(t, err)
	assert.Equal(t, int64(15), id)
}

func TestExtractTaskIDNotFound(t *testing.T) {
	_, err := ExtractTaskID("just some text\nwith no task line")
	assert.Error(t, err)

	//行頭以外の "Task #" には反応しない
	_, err = ExtractTaskID("see Task #12 inline")
	assert.Error(t, err)
}

func TestCallbackDataRoundTrip(t *testing.T) {
	data := CallbackData(ActionTake, "d2b2e3f0-9a5d-4a7b-8a10-3c2a1b0c9d8e")
	action, token, err := ParseCallbackData(data)
	assert.NoError(t, err)
	assert.Equal(t, ActionTake, action)
	assert.Equal(t, "d2b2e3f0-9a5d-4a7b-8a10-3c2a1b0c9d8e", token)

	// メニュー操作はトークンなし
	action, token, err = ParseCallbackData(CallbackData(ActionTasksToPM, ""))
	assert.NoError(t, err)
	assert.Equal(t, ActionTasksToPM, action)
	assert.Equal(t, "", token)
}

func TestParseCallbackDataRejectsGarbage(t *testing.T) {
	for _, data := range []string{"", "rv", "rv:", "other:take:token", "take:token"} {
		_, _, err := ParseCallbackData(data)
		assert.Error(t, err, "data: %q", data)
	}
}

func TestRenderLimitNotice(t *testing.T) {
	notice := RenderLimitNotice(7, 3)
	assert.Contains(t, notice, LocaleTooManyUnfinishedTasks+": 7")
	assert.Contains(t, notice, LocaleTaskLimitIs+": 3")
}

func TestKeyboardForTask(t *testing.T) {
	now := time.Now()
	reviewerID := int64(2002)

	task := models.ReviewTask{ID: 1, CorrelationToken: "tok"}
	assert.Equal(t, CallbackData(ActionTake, "tok"), KeyboardForTask(&task).InlineKeyboard[0][0].CallbackData)

	task.ReviewerID = &reviewerID
	task.TakenOnReviewAt = &now
	assert.Equal(t, CallbackData(ActionSubmit, "tok"), KeyboardForTask(&task).InlineKeyboard[0][0].CallbackData)

	task.SubmittedToFinalReviewAt = &now
	kb := KeyboardForTask(&task)
	assert.Equal(t, CallbackData(ActionConfirm, "tok"), kb.InlineKeyboard[0][0].CallbackData)
	assert.Equal(t, CallbackData(ActionReject, "tok"), kb.InlineKeyboard[0][1].CallbackData)

	task.CompletedAt = &now
	assert.Nil(t, KeyboardForTask(&task))
}

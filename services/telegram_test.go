package services

import (
	"testing"

	"github.com/h2non/gock"
	"github.com/stretchr/testify/assert"
)

func TestTelegramSendMessage(t *testing.T) {
	defer gock.Off() // テスト終了時にモックをクリア

	client := NewTelegramClient("test-token")

	gock.New("https://api.telegram.org").
		Post("/bottest-token/sendMessage").
		MatchHeader("Content-Type", "application/json").
		JSON(map[string]interface{}{
			"chat_id":                  -100123,
			"text":                     "hello",
			"disable_web_page_preview": true,
			"disable_notification":     true,
		}).
		Reply(200).
		JSON(map[string]interface{}{
			"ok": true,
			"result": map[string]interface{}{
				"message_id": 42,
			},
		})

	msgID, err := client.SendMessage(-100123, "hello", nil)
	assert.NoError(t, err)
	assert.Equal(t, int64(42), msgID)
	assert.True(t, gock.IsDone())
}

func TestTelegramSendMessageWithMarkup(t *testing.T) {
	defer gock.Off()

	client := NewTelegramClient("test-token")

	gock.New("https://api.telegram.org").
		Post("/bottest-token/sendMessage").
		Reply(200).
		JSON(map[string]interface{}{
			"ok": true,
			"result": map[string]interface{}{
				"message_id": 7,
			},
		})

	msgID, err := client.SendMessage(-100123, "hello", TakeKeyboard("tok"))
	assert.NoError(t, err)
	assert.Equal(t, int64(7), msgID)
	assert.True(t, gock.IsDone())
}

func TestTelegramSendMessageAPIError(t *testing.T) {
	defer gock.Off()

	client := NewTelegramClient("test-token")

	gock.New("https://api.telegram.org").
		Post("/bottest-token/sendMessage").
		Reply(200).
		JSON(map[string]interface{}{
			"ok":          false,
			"description": "Bad Request: chat not found",
		})

	_, err := client.SendMessage(1, "hello", nil)
	assert.ErrorIs(t, err, ErrDeliveryFailed)
	assert.Contains(t, err.Error(), "chat not found")
	assert.True(t, gock.IsDone())
}

func TestTelegramEditMessageText(t *testing.T) {
	defer gock.Off()

	client := NewTelegramClient("test-token")

	gock.New("https://api.telegram.org").
		Post("/bottest-token/editMessageText").
		Reply(200).
		JSON(map[string]interface{}{
			"ok":     true,
			"result": map[string]interface{}{"message_id": 42},
		})

	err := client.EditMessageText(-100123, 42, "updated", nil)
	assert.NoError(t, err)
	assert.True(t, gock.IsDone())
}

func TestTelegramDeleteMessage(t *testing.T) {
	defer gock.Off()

	client := NewTelegramClient("test-token")

	gock.New("https://api.telegram.org").
		Post("/bottest-token/deleteMessage").
		JSON(map[string]interface{}{
			"chat_id":    -100123,
			"message_id": 42,
		}).
		Reply(200).
		JSON(map[string]interface{}{
			"ok":     true,
			"result": true,
		})

	err := client.DeleteMessage(-100123, 42)
	assert.NoError(t, err)
	assert.True(t, gock.IsDone())
}

func TestTelegramGetChatAdministrators(t *testing.T) {
	defer gock.Off()

	client := NewTelegramClient("test-token")

	gock.New("https://api.telegram.org").
		Post("/bottest-token/getChatAdministrators").
		Reply(200).
		JSON(map[string]interface{}{
			"ok": true,
			"result": []map[string]interface{}{
				{
					"user":   map[string]interface{}{"id": 111, "is_bot": false, "first_name": "Dave", "username": "dave"},
					"status": "creator",
				},
				{
					"user":   map[string]interface{}{"id": 222, "is_bot": true, "first_name": "bot", "username": "reviewbot"},
					"status": "administrator",
				},
			},
		})

	admins, err := client.GetChatAdministrators(-100123)
	assert.NoError(t, err)
	assert.Len(t, admins, 2)
	assert.Equal(t, int64(111), admins[0].User.ID)
	assert.Equal(t, "dave", admins[0].User.Username)
	assert.True(t, admins[1].User.IsBot)
	assert.True(t, gock.IsDone())
}

func TestTelegramAnswerCallbackQuery(t *testing.T) {
	defer gock.Off()

	client := NewTelegramClient("test-token")

	gock.New("https://api.telegram.org").
		Post("/bottest-token/answerCallbackQuery").
		JSON(map[string]interface{}{
			"callback_query_id": "cb-1",
			"text":              "admin rights required",
			"show_alert":        true,
		}).
		Reply(200).
		JSON(map[string]interface{}{
			"ok":     true,
			"result": true,
		})

	err := client.AnswerCallbackQuery("cb-1", "admin rights required", true)
	assert.NoError(t, err)
	assert.True(t, gock.IsDone())
}

func TestAdminPermissionChecker(t *testing.T) {
	notifier := &fakeNotifier{
		admins: []ChatMember{
			{User: TelegramUser{ID: 111, Username: "dave"}, Status: "creator"},
		},
	}
	checker := NewAdminPermissionChecker(notifier)

	assert.True(t, checker.IsAuthorized(-100123, 111))
	assert.False(t, checker.IsAuthorized(-100123, 2002))

	// extra で明示的に許可されたユーザーは管理者でなくてもよい
	assert.True(t, checker.IsAuthorized(-100123, 2002, 2002))
	assert.False(t, checker.IsAuthorized(-100123, 3003, 2002))
}

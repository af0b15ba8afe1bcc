package services

import "log"

// PermissionChecker は「このユーザーはこのチャットの管理者か、
// または extra で明示的に許可されたユーザーか」を答える
type PermissionChecker interface {
	IsAuthorized(chatID, userID int64, extra ...int64) bool
}

// adminPermissionChecker はチャット管理者一覧を Telegram から取得して判定する
type adminPermissionChecker struct {
	notifier Notifier
}

func NewAdminPermissionChecker(notifier Notifier) PermissionChecker {
	return &adminPermissionChecker{notifier: notifier}
}

func (c *adminPermissionChecker) IsAuthorized(chatID, userID int64, extra ...int64) bool {
	for _, id := range extra {
		if id == userID {
			return true
		}
	}

	admins, err := c.notifier.GetChatAdministrators(chatID)
	if err != nil {
		log.Printf("chat administrators fetch error (chat id: %d): %v", chatID, err)
		return false
	}
	for _, admin := range admins {
		if admin.User.ID == userID {
			return true
		}
	}
	return false
}

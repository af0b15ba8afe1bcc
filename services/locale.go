package services

// ユーザーに見せる文言をここに集約する
const (
	LocaleIncorrectReviewCommand  = "usage: /review <url>"
	LocaleSelfReviewNotAllowed    = "you cannot take your own task on review"
	LocaleAdminRightsRequired     = "admin rights required"
	LocaleSubmitNotAllowed        = "only the reviewer or a chat admin can submit this task"
	LocaleTaskAlreadyTaken        = "this task is already taken on review"
	LocaleTaskNotFound            = "task not found"
	LocaleInvalidTaskState        = "this action is not possible in the current task state"
	LocaleTaskReadyForFinalReview = "task is ready for final review"
	LocaleTaskRejected            = "task review is rejected, please fix and submit again"
	LocaleNoTasksOnReview         = "no tasks on review"
	LocaleTooManyUnfinishedTasks  = "too many unfinished tasks"
	LocaleTaskLimitIs             = "task limit is"
	LocaleMenuHeader              = "review bot menu"
	LocaleChatOriginPrefix        = "chat"
)

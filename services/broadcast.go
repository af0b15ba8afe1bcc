package services

import (
	"log"
)

// NotifyReviewerTasks は担当者のレビュー中タスクを本人のPMに送る
// taskLimit 件を送り切ったら残りは送らず、まとめ通知を1件だけ送って終了する
func (s *TaskService) NotifyReviewerTasks(chatID, reviewerID int64, header string) error {
	tasks, err := s.store.ListOnReview(chatID, &reviewerID)
	if err != nil {
		return err
	}

	if len(tasks) == 0 {
		_, err := s.notifier.SendMessage(reviewerID, header+LocaleNoTasksOnReview, nil)
		return err
	}

	sent := 0
	for i := range tasks {
		task := &tasks[i]

		if sent == s.taskLimit {
			total, err := s.store.CountOnReview(chatID)
			if err != nil {
				return err
			}
			if _, err := s.notifier.SendMessage(reviewerID, RenderLimitNotice(total, s.taskLimit), nil); err != nil {
				log.Printf("limit notice send error (reviewer id: %d): %v", reviewerID, err)
			}
			break
		}

		if _, err := s.notifier.SendMessage(reviewerID, header+RenderTaskBody(task), nil); err != nil {
			log.Printf("task notify send error (task id: %d): %v", task.ID, err)
			continue
		}
		sent++
	}
	return nil
}

// BroadcastChatTasks はチャットのレビュー中タスクを新しいメッセージとして再掲する
// 送信できたタスクだけ、送信した順に reply_msg_id を付け替えて古い表示を消す
// 1件の送信失敗はそのタスクの付け替えを諦めて次のタスクへ進む
func (s *TaskService) BroadcastChatTasks(chatID int64, header string) error {
	tasks, err := s.store.ListOnReview(chatID, nil)
	if err != nil {
		return err
	}

	if len(tasks) == 0 {
		_, err := s.notifier.SendMessage(chatID, header+LocaleNoTasksOnReview, nil)
		return err
	}

	type rewire struct {
		taskID   int64
		newMsgID int64
		oldMsgID *int64
	}
	var rewires []rewire

	sent := 0
	for i := range tasks {
		task := &tasks[i]

		if sent == s.taskLimit {
			total, err := s.store.CountOnReview(chatID)
			if err != nil {
				return err
			}
			if _, err := s.notifier.SendMessage(chatID, RenderLimitNotice(total, s.taskLimit), nil); err != nil {
				log.Printf("limit notice send error (chat id: %d): %v", chatID, err)
			}
			break
		}

		msgID, err := s.notifier.SendMessage(chatID, header+RenderTaskBody(task), KeyboardForTask(task))
		if err != nil {
			// 送れなかったタスクは古い reply_msg_id を残したまま先へ進む
			log.Printf("task broadcast send error (task id: %d): %v", task.ID, err)
			continue
		}
		rewires = append(rewires, rewire{taskID: task.ID, newMsgID: msgID, oldMsgID: task.ReplyMsgID})
		sent++
	}

	for _, r := range rewires {
		if err := s.RelocateReply(r.taskID, r.newMsgID); err != nil {
			log.Printf("reply relocate error (task id: %d): %v", r.taskID, err)
			continue
		}
		if r.oldMsgID != nil {
			if err := s.notifier.DeleteMessage(chatID, *r.oldMsgID); err != nil {
				log.Printf("old reply delete error (task id: %d, msg id: %d): %v", r.taskID, *r.oldMsgID, err)
			}
		}
	}
	return nil
}

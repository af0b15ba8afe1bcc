package services

import "sync"

// taskLocks はタスクIDごとの排他制御
// 同一タスクへの遷移操作を直列化するために使う (別タスク同士は並行してよい)
type taskLocks struct {
	mu    sync.Mutex
	locks map[int64]*sync.Mutex
}

func newTaskLocks() *taskLocks {
	return &taskLocks{locks: make(map[int64]*sync.Mutex)}
}

// get はタスクIDに対応するミューテックスを返す
// ロックは解放後も残す (タスクは削除されないため数は有限)
func (l *taskLocks) get(taskID int64) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()

	m, ok := l.locks[taskID]
	if !ok {
		m = &sync.Mutex{}
		l.locks[taskID] = m
	}
	return m
}

package world

import "time"

// Task — отложенная задача генерации. Задача не отменяется: начав выполнение,
// она доходит до конца без чередования с другой логикой тика.
type Task func()

// GenerationQueue — FIFO-очередь отложенных задач с бюджетом времени на тик
type GenerationQueue struct {
	tasks []Task
	now   func() time.Time
}

// NewGenerationQueue создаёт пустую очередь
func NewGenerationQueue() *GenerationQueue {
	return &GenerationQueue{now: time.Now}
}

// Schedule ставит задачу в конец очереди
func (q *GenerationQueue) Schedule(t Task) {
	q.tasks = append(q.tasks, t)
}

// Pending возвращает количество ожидающих задач
func (q *GenerationQueue) Pending() int {
	return len(q.tasks)
}

// Run выполняет задачи, пока не исчерпан бюджет. Хотя бы одна задача выполняется
// всегда, чтобы очередь продвигалась. budget <= 0 — выполнить всё.
func (q *GenerationQueue) Run(budget time.Duration) int {
	if budget <= 0 {
		return q.Drain()
	}

	start := q.now()
	done := 0
	for len(q.tasks) > 0 {
		if done > 0 && q.now().Sub(start) >= budget {
			break
		}
		q.pop()()
		done++
	}
	return done
}

// Drain выполняет все задачи, включая добавленные во время выполнения
func (q *GenerationQueue) Drain() int {
	done := 0
	for len(q.tasks) > 0 {
		q.pop()()
		done++
	}
	return done
}

func (q *GenerationQueue) pop() Task {
	t := q.tasks[0]
	q.tasks[0] = nil
	q.tasks = q.tasks[1:]
	return t
}

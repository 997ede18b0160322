package task

// Queue is an unbounded FIFO of pending tasks for the active step. It never
// runs tasks itself and is not safe for concurrent use; the orchestrator
// serializes access.
type Queue struct {
	tasks    []Task
	boundary bool
}

// Enqueue appends tasks in order.
func (q *Queue) Enqueue(tasks ...Task) {
	for _, t := range tasks {
		if t != nil {
			q.tasks = append(q.tasks, t)
		}
	}
}

// Peek returns the next task without removing it.
func (q *Queue) Peek() (Task, bool) {
	if len(q.tasks) == 0 {
		return nil, false
	}
	return q.tasks[0], true
}

// Dequeue removes and returns the next task.
func (q *Queue) Dequeue() (Task, bool) {
	if len(q.tasks) == 0 {
		return nil, false
	}
	next := q.tasks[0]
	q.tasks[0] = nil
	q.tasks = q.tasks[1:]
	return next, true
}

// Clear drops every pending task. Tasks already dispatched are unaffected.
func (q *Queue) Clear() {
	clear(q.tasks)
	q.tasks = nil
}

// SkipToNextBoundary drops every pending task and flags the current step as
// finished.
func (q *Queue) SkipToNextBoundary() {
	q.Clear()
	q.boundary = true
}

// ConsumeBoundary reports and resets the boundary flag.
func (q *Queue) ConsumeBoundary() bool {
	reached := q.boundary
	q.boundary = false
	return reached
}

// Len returns the number of pending tasks.
func (q *Queue) Len() int { return len(q.tasks) }

// Names lists pending task names in execution order.
func (q *Queue) Names() []string {
	names := make([]string, 0, len(q.tasks))
	for _, t := range q.tasks {
		names = append(names, t.Name())
	}
	return names
}

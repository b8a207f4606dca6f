package sched

import (
	"container/heap"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"valet/internal/logging"
)

// Executors holds the callbacks a firing task can invoke. Unset callbacks
// turn the corresponding action into a no-op with a log line.
type Executors struct {
	Notify      func(message string)
	OpenApp     func(app string) (bool, string)
	RunWorkflow func(name string) (bool, string)
}

// fireEntry is a heap node: the next fire time for a task.
type fireEntry struct {
	at     time.Time
	taskID string
}

type fireQueue []*fireEntry

func (q fireQueue) Len() int            { return len(q) }
func (q fireQueue) Less(i, j int) bool  { return q[i].at.Before(q[j].at) }
func (q fireQueue) Swap(i, j int)       { q[i], q[j] = q[j], q[i] }
func (q *fireQueue) Push(x any)         { *q = append(*q, x.(*fireEntry)) }
func (q *fireQueue) Pop() any {
	old := *q
	n := len(old)
	entry := old[n-1]
	old[n-1] = nil
	*q = old[:n-1]
	return entry
}

// Scheduler turns parsed time expressions into deferred or recurring tasks
// and fires them cooperatively from RunPending. It is driven from a single
// control thread; the mutex only guards against incidental cross-goroutine
// reads (e.g. a future MCP surface).
type Scheduler struct {
	path string
	exec Executors

	mu      sync.Mutex
	tasks   []*Task // insertion order, the active set
	queue   fireQueue
	counter int

	now func() time.Time
}

// storeDoc is the on-disk format: the id counter plus the full task set.
type storeDoc struct {
	Counter int     `json:"counter"`
	Tasks   []*Task `json:"tasks"`
}

// New creates a Scheduler persisting to path. Call Load to re-arm recurring
// tasks from a previous run.
func New(path string, exec Executors) *Scheduler {
	return &Scheduler{
		path: path,
		exec: exec,
		now:  time.Now,
	}
}

// Load reads the persisted set and re-arms recurring tasks only. One-shot
// reminders are deliberately discarded across restarts. A corrupted or
// unreadable store degrades to an empty set.
func (s *Scheduler) Load() {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return
	}
	if err != nil {
		logging.Info("sched", "could not read task store, starting empty: %v", err)
		return
	}

	var doc storeDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		logging.Info("sched", "task store corrupted, starting empty: %v", err)
		return
	}

	s.counter = doc.Counter
	// Length-safe floor so restored ids never collide even if the counter
	// field is missing or stale.
	if s.counter < len(doc.Tasks) {
		s.counter = len(doc.Tasks)
	}

	for _, task := range doc.Tasks {
		if task.Kind != KindRecurring {
			continue
		}
		s.tasks = append(s.tasks, task)
		s.arm(task, s.firstRecurringFire(task))
	}
	if len(s.tasks) > 0 {
		logging.Info("sched", "re-armed %d recurring task(s)", len(s.tasks))
	}
}

// AddReminder registers a one-shot notify task firing delayMinutes from now.
func (s *Scheduler) AddReminder(message string, delayMinutes int) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := fmt.Sprintf("reminder_%d", s.counter)
	s.counter++

	task := &Task{
		ID:          id,
		Kind:        KindOneShot,
		Description: "Remind: " + message,
		Action:      ActionNotify,
		Params:      map[string]string{"message": message},
		Trigger:     Trigger{DelayMinutes: delayMinutes},
		CreatedAt:   s.now(),
	}
	s.tasks = append(s.tasks, task)
	s.arm(task, task.CreatedAt.Add(time.Duration(delayMinutes)*time.Minute))
	s.persist()
	return id
}

// AddRecurring registers and persists a recurring task. timeOfDay is HH:MM;
// frequency is daily or hourly.
func (s *Scheduler) AddRecurring(description string, action Action, params map[string]string, timeOfDay, frequency string) (string, error) {
	if frequency != FreqDaily && frequency != FreqHourly {
		return "", fmt.Errorf("unknown frequency %q", frequency)
	}
	if frequency == FreqDaily {
		if _, err := parseTimeOfDay(timeOfDay); err != nil {
			return "", err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id := fmt.Sprintf("recurring_%d", s.counter)
	s.counter++

	task := &Task{
		ID:          id,
		Kind:        KindRecurring,
		Description: description,
		Action:      action,
		Params:      params,
		Trigger:     Trigger{TimeOfDay: timeOfDay, Frequency: frequency},
		CreatedAt:   s.now(),
	}
	s.tasks = append(s.tasks, task)
	s.arm(task, s.firstRecurringFire(task))
	s.persist()
	return id, nil
}

// Cancel unarms and removes a task. Returns false if the id is unknown.
func (s *Scheduler) Cancel(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, task := range s.tasks {
		if task.ID == id {
			s.tasks = append(s.tasks[:i], s.tasks[i+1:]...)
			// Heap entries for the removed id are skipped lazily on pop.
			s.persist()
			return true
		}
	}
	return false
}

// List returns a snapshot of the active set in insertion order.
func (s *Scheduler) List() []*Task {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*Task, 0, len(s.tasks))
	for _, task := range s.tasks {
		copied := *task
		out = append(out, &copied)
	}
	return out
}

// RunPending fires every due task and returns. Non-blocking: call it on each
// loop iteration. Trigger accuracy is bounded by the caller's cadence.
func (s *Scheduler) RunPending() {
	now := s.now()
	for {
		s.mu.Lock()
		if len(s.queue) == 0 || s.queue[0].at.After(now) {
			s.mu.Unlock()
			return
		}
		entry := heap.Pop(&s.queue).(*fireEntry)
		task := s.find(entry.taskID)
		if task == nil {
			// Cancelled since arming.
			s.mu.Unlock()
			continue
		}

		task.ExecutionCount++
		if task.Kind == KindOneShot {
			s.remove(task.ID)
		} else {
			next := entry.at.Add(s.interval(task))
			// Catch up without firing once per missed interval.
			for !next.After(now) {
				next = next.Add(s.interval(task))
			}
			s.arm(task, next)
		}
		s.persist()
		action, params := task.Action, task.Params
		s.mu.Unlock()

		// Execute outside the lock; executors may log or block briefly.
		s.execute(action, params)
	}
}

func (s *Scheduler) execute(action Action, params map[string]string) {
	switch action {
	case ActionNotify:
		if s.exec.Notify != nil {
			msg := params["message"]
			if msg == "" {
				msg = "Scheduled notification"
			}
			s.exec.Notify(msg)
			return
		}
	case ActionOpenApp:
		if s.exec.OpenApp != nil {
			if app := params["app"]; app != "" {
				if ok, msg := s.exec.OpenApp(app); !ok {
					logging.Info("sched", "open_app failed: %s", msg)
				}
			}
			return
		}
	case ActionWorkflow:
		if s.exec.RunWorkflow != nil {
			if name := params["workflow"]; name != "" {
				if ok, msg := s.exec.RunWorkflow(name); !ok {
					logging.Info("sched", "run_workflow failed: %s", msg)
				}
			}
			return
		}
	}
	logging.Info("sched", "no executor for action %q", action)
}

// arm pushes a fire entry; caller holds the lock.
func (s *Scheduler) arm(task *Task, at time.Time) {
	heap.Push(&s.queue, &fireEntry{at: at, taskID: task.ID})
}

func (s *Scheduler) find(id string) *Task {
	for _, task := range s.tasks {
		if task.ID == id {
			return task
		}
	}
	return nil
}

func (s *Scheduler) remove(id string) {
	for i, task := range s.tasks {
		if task.ID == id {
			s.tasks = append(s.tasks[:i], s.tasks[i+1:]...)
			return
		}
	}
}

func (s *Scheduler) interval(task *Task) time.Duration {
	if task.Trigger.Frequency == FreqHourly {
		return time.Hour
	}
	return 24 * time.Hour
}

// firstRecurringFire computes the first fire time at/after the configured
// time of day. Hourly tasks without a time fire an hour from now.
func (s *Scheduler) firstRecurringFire(task *Task) time.Time {
	now := s.now()
	minutes, err := parseTimeOfDay(task.Trigger.TimeOfDay)
	if err != nil {
		return now.Add(s.interval(task))
	}

	at := time.Date(now.Year(), now.Month(), now.Day(), minutes/60, minutes%60, 0, 0, now.Location())
	for !at.After(now) {
		at = at.Add(s.interval(task))
	}
	return at
}

// parseTimeOfDay parses HH:MM into minutes since midnight.
func parseTimeOfDay(v string) (int, error) {
	var hh, mm int
	if _, err := fmt.Sscanf(v, "%d:%d", &hh, &mm); err != nil {
		return 0, fmt.Errorf("time of day %q is not HH:MM", v)
	}
	if hh < 0 || hh > 23 || mm < 0 || mm > 59 {
		return 0, fmt.Errorf("time of day %q out of range", v)
	}
	return hh*60 + mm, nil
}

// persist serializes the full set; caller holds the lock.
func (s *Scheduler) persist() {
	doc := storeDoc{Counter: s.counter, Tasks: s.tasks}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		logging.Info("sched", "could not marshal tasks: %v", err)
		return
	}
	if err := os.WriteFile(s.path, data, 0644); err != nil {
		logging.Info("sched", "could not save tasks: %v", err)
	}
}

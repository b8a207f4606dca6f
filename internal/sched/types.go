package sched

import "time"

// Kind distinguishes one-shot reminders from recurring tasks.
type Kind string

const (
	KindOneShot   Kind = "one_shot"
	KindRecurring Kind = "recurring"
)

// Action names what a task does when it fires.
type Action string

const (
	ActionNotify   Action = "notify"
	ActionOpenApp  Action = "open_app"
	ActionWorkflow Action = "run_workflow"
)

// Frequency values for recurring tasks.
const (
	FreqDaily  = "daily"
	FreqHourly = "hourly"
)

// Trigger describes when a task fires. One-shot tasks use DelayMinutes from
// creation; recurring tasks use TimeOfDay (HH:MM) plus Frequency.
type Trigger struct {
	DelayMinutes int    `json:"delay_minutes,omitempty"`
	TimeOfDay    string `json:"time_of_day,omitempty"`
	Frequency    string `json:"frequency,omitempty"`
}

// Task is a scheduled action. Recurring tasks survive restarts; one-shot
// tasks are best-effort and live only in memory.
type Task struct {
	ID             string            `json:"id"`
	Kind           Kind              `json:"kind"`
	Description    string            `json:"description"`
	Action         Action            `json:"action"`
	Params         map[string]string `json:"params,omitempty"`
	Trigger        Trigger           `json:"trigger"`
	CreatedAt      time.Time         `json:"created_at"`
	ExecutionCount int               `json:"execution_count"`
}

// Package reminder decides which local reminders a task needs and hands
// register/cancel requests to a notification dispatcher.
package reminder

import (
	"time"

	"github.com/sandeepkv93/taskly/internal/model"
)

// Plan is the outcome of scheduling one task: the identifiers to clear
// first, then the reminders to register.
type Plan struct {
	TaskID      string
	Cancel      []string
	Register    []model.Reminder
	Placeholder bool
}

// Identifiers lists every dispatcher id a task can own.
func Identifiers(taskID string) []string {
	out := make([]string, 0, len(model.ReminderSlots))
	for _, slot := range model.ReminderSlots {
		out = append(out, model.ReminderID(taskID, slot))
	}
	return out
}

// PlanFor computes the reminders for task relative to now. A done or undated
// task yields only cancellations. Each reminder is kept only when its fire
// time is strictly after now.
func PlanFor(task model.Task, now time.Time) Plan {
	plan := Plan{TaskID: task.ID, Cancel: Identifiers(task.ID)}
	if task.Done || !task.HasDueDate() {
		return plan
	}
	due := *task.DueDate
	fireTimes := map[model.ReminderSlot]time.Time{
		model.ReminderSlotAtDue:  due,
		model.ReminderSlotPreDue: due.Add(-model.PreDueLead),
	}
	for _, slot := range model.ReminderSlots {
		fireAt := fireTimes[slot]
		if !fireAt.After(now) {
			continue
		}
		plan.Register = append(plan.Register, model.Reminder{
			ID:     model.ReminderID(task.ID, slot),
			TaskID: task.ID,
			Slot:   slot,
			FireAt: fireAt,
			Title:  reminderTitle(slot),
			Body:   task.Title,
		})
	}
	return plan
}

func reminderTitle(slot model.ReminderSlot) string {
	if slot == model.ReminderSlotPreDue {
		return "Due in 30 minutes"
	}
	return "Due now"
}

const (
	DailyReminderID = "daily.reminder.08"
	dailyHour       = 8
	dailyMinute     = 0
)

// NextDaily returns the first 08:00 strictly after now in now's location.
func NextDaily(now time.Time) time.Time {
	y, m, d := now.Date()
	next := time.Date(y, m, d, dailyHour, dailyMinute, 0, 0, now.Location())
	if !next.After(now) {
		next = time.Date(y, m, d+1, dailyHour, dailyMinute, 0, 0, now.Location())
	}
	return next
}

func DailyReminder(now time.Time) model.Reminder {
	return model.Reminder{
		ID:     DailyReminderID,
		FireAt: NextDaily(now),
		Title:  "Daily check-in",
		Body:   "Review today's tasks",
	}
}

package model

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var ErrInvalidReminderSlot = errors.New("model: invalid reminder slot")

// ReminderSlot names one of the two independent reminders a task can own.
type ReminderSlot string

const (
	ReminderSlotAtDue  ReminderSlot = "at"
	ReminderSlotPreDue ReminderSlot = "30m"
)

// PreDueLead is how long before the due date the pre-due reminder fires.
const PreDueLead = 30 * time.Minute

// ReminderSlots lists every slot in registration order.
var ReminderSlots = []ReminderSlot{ReminderSlotAtDue, ReminderSlotPreDue}

func (s ReminderSlot) IsValid() bool {
	switch s {
	case ReminderSlotAtDue, ReminderSlotPreDue:
		return true
	default:
		return false
	}
}

// ReminderID derives the dispatcher identifier for a task slot.
func ReminderID(taskID string, slot ReminderSlot) string {
	return taskID + "#" + string(slot)
}

type Reminder struct {
	ID     string
	TaskID string
	Slot   ReminderSlot
	FireAt time.Time
	Title  string
	Body   string
}

func (r Reminder) Validate() error {
	if strings.TrimSpace(r.ID) == "" {
		return errors.New("model: reminder id is required")
	}
	if r.FireAt.IsZero() {
		return errors.New("model: reminder fire_at is required")
	}
	if r.Slot != "" && !r.Slot.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidReminderSlot, r.Slot)
	}
	return nil
}

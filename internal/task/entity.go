package task

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Status is the payment state of a task. Only StatusPaid and StatusToBePaid
// carry meaning for the financial dashboard; comparisons ignore case.
type Status string

const (
	StatusPaid     Status = "PAGO"
	StatusToBePaid Status = "A_PAGAR"
	StatusOpen     Status = "EM_ABERTO"
	StatusDone     Status = "FINALIZADO"
)

// Is reports whether s and other name the same status, ignoring case.
func (s Status) Is(other Status) bool {
	return strings.EqualFold(strings.TrimSpace(string(s)), string(other))
}

// ClientType tells whether the appointment is for a new or a returning client.
type ClientType string

const (
	ClientTypeNew       ClientType = "new"
	ClientTypeRecurring ClientType = "recurring"
	ClientTypeOther     ClientType = ""
)

// Legacy priority flags that encoded the client type.
const (
	flagNewClient       = 1
	flagRecurringClient = 2
)

// ClientTypeFromFlag maps the legacy integer flag (1 = new, 2 = recurring).
// Any other value, including nil, is ClientTypeOther.
func ClientTypeFromFlag(flag *int) ClientType {
	if flag == nil {
		return ClientTypeOther
	}
	switch *flag {
	case flagNewClient:
		return ClientTypeNew
	case flagRecurringClient:
		return ClientTypeRecurring
	default:
		return ClientTypeOther
	}
}

func ParseClientType(s string) ClientType {
	switch ClientType(strings.ToLower(strings.TrimSpace(s))) {
	case ClientTypeNew:
		return ClientTypeNew
	case ClientTypeRecurring:
		return ClientTypeRecurring
	default:
		return ClientTypeOther
	}
}

type Task struct {
	ID          string     `yaml:"id"`
	Title       string     `yaml:"title"`
	Description string     `yaml:"description"`
	Status      Status     `yaml:"status"`
	ClientID    string     `yaml:"client_id,omitempty"`
	ClientType  ClientType `yaml:"client_type,omitempty"`
	ScheduledAt *time.Time `yaml:"scheduled_at,omitempty"`

	AmountPaid  *decimal.Decimal `yaml:"amount_paid,omitempty"`
	UnitPrice   *decimal.Decimal `yaml:"unit_price,omitempty"`
	TotalAmount *decimal.Decimal `yaml:"total_amount,omitempty"`
	PeopleCount *int             `yaml:"people_count,omitempty"`

	CreatedBy string    `yaml:"created_by"`
	CreatedAt time.Time `yaml:"created_at"`
	UpdatedAt time.Time `yaml:"updated_at"`
}

// HasClient reports whether the task is tied to a client. Tasks without a
// client are administrative and stay out of the dashboard.
func (t *Task) HasClient() bool {
	return t.ClientID != ""
}

// ScheduledIn reports whether the task is scheduled within [start, end].
func (t *Task) ScheduledIn(start, end time.Time) bool {
	if t.ScheduledAt == nil {
		return false
	}
	return !t.ScheduledAt.Before(start) && !t.ScheduledAt.After(end)
}

// OccupiesSlot reports whether the task is booked exactly at.
func (t *Task) OccupiesSlot(at time.Time) bool {
	return t.ScheduledAt != nil && t.ScheduledAt.Equal(at)
}

// deriveTotal fills TotalAmount from UnitPrice × PeopleCount when no total
// was given.
func (t *Task) deriveTotal() {
	if t.TotalAmount != nil || t.UnitPrice == nil || t.PeopleCount == nil {
		return
	}
	total := t.UnitPrice.Mul(decimal.NewFromInt(int64(*t.PeopleCount)))
	t.TotalAmount = &total
}

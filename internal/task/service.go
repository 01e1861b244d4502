package task

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/shopspring/decimal"
	"google.golang.org/protobuf/proto"

	"github.com/kmmanagement/agenda/internal/client"
	"github.com/kmmanagement/agenda/internal/eventbus"
	"github.com/kmmanagement/agenda/internal/httpx"
	"github.com/kmmanagement/agenda/internal/metrics"
	"github.com/kmmanagement/agenda/pkg/cerr"
	"github.com/kmmanagement/agenda/pkg/clog"
)

type ClientDirectory interface {
	Get(ctx context.Context, id string) (*client.Client, error)
}

// SlotGuard rejects a timestamp already booked by a task other than selfID.
type SlotGuard interface {
	EnsureFree(ctx context.Context, at *time.Time, selfID string) error
}

// Input carries the writable fields of a task.
type Input struct {
	Title       string
	Description string
	Status      Status
	ClientID    string
	ClientType  ClientType
	ScheduledAt *time.Time
	AmountPaid  *decimal.Decimal
	UnitPrice   *decimal.Decimal
	TotalAmount *decimal.Decimal
	PeopleCount *int
}

type Service struct {
	repo    Repository
	clients ClientDirectory
	guard   SlotGuard
	events  eventbus.Publisher
	metrics metrics.AgendaMetrics
	now     func() time.Time
}

func NewService(repo Repository, clients ClientDirectory, guard SlotGuard, events eventbus.Publisher, m metrics.AgendaMetrics) *Service {
	return &Service{
		repo:    repo,
		clients: clients,
		guard:   guard,
		events:  events,
		metrics: m,
		now:     time.Now,
	}
}

// Create stores a new task on behalf of actor. The slot is checked before
// anything is written.
func (s *Service) Create(ctx context.Context, actor string, in Input) (*Task, error) {
	in, err := s.prepare(ctx, in)
	if err != nil {
		return nil, err
	}
	if err := s.guard.EnsureFree(ctx, in.ScheduledAt, ""); err != nil {
		return nil, s.writeFailed(ctx, "create", err)
	}

	if strings.TrimSpace(actor) == "" {
		actor = httpx.DefaultActor
	}
	now := s.now()
	t := &Task{
		ID:        ulid.Make().String(),
		CreatedBy: actor,
		CreatedAt: now,
		UpdatedAt: now,
	}
	t.apply(in)
	if err := s.repo.Create(ctx, t); err != nil {
		return nil, s.writeFailed(ctx, "create", err)
	}

	clog.AddTaskID(ctx, t.ID)
	s.metrics.TaskWritten("create")
	s.events.PublishNew(eventbus.TaskCreated, t.ID, map[string]string{"actor": actor})
	return t, nil
}

func (s *Service) Get(ctx context.Context, id string) (*Task, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) List(ctx context.Context, clientID string, limit, offset int) ([]*Task, int, error) {
	return s.repo.List(ctx, clientID, limit, offset)
}

// Update replaces the writable fields of task id. A task may keep its own
// slot.
func (s *Service) Update(ctx context.Context, id string, in Input) (*Task, error) {
	in, err := s.prepare(ctx, in)
	if err != nil {
		return nil, err
	}
	t, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.guard.EnsureFree(ctx, in.ScheduledAt, id); err != nil {
		return nil, s.writeFailed(ctx, "update", err)
	}

	t.apply(in)
	t.UpdatedAt = s.now()
	if err := s.repo.Update(ctx, t); err != nil {
		return nil, s.writeFailed(ctx, "update", err)
	}

	clog.AddTaskID(ctx, t.ID)
	s.metrics.TaskWritten("update")
	s.events.PublishNew(eventbus.TaskUpdated, t.ID, nil)
	return t, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	clog.AddTaskID(ctx, id)
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.metrics.TaskWritten("delete")
	s.events.PublishNew(eventbus.TaskDeleted, id, nil)
	return nil
}

// prepare normalizes in and rejects it when a referenced client does not
// exist.
func (s *Service) prepare(ctx context.Context, in Input) (Input, error) {
	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" {
		return in, cerr.NewErrorWithDetails(cerr.InvalidArgument, "invalid task", nil,
			[]proto.Message{httpx.RequiredViolation("title")})
	}
	in.Status = Status(strings.ToUpper(strings.TrimSpace(string(in.Status))))
	if in.Status == "" {
		in.Status = StatusOpen
	}
	if in.ScheduledAt != nil {
		slot := SlotOf(*in.ScheduledAt)
		in.ScheduledAt = &slot
	}
	in.ClientID = strings.TrimSpace(in.ClientID)
	if in.ClientID != "" {
		if _, err := s.clients.Get(ctx, in.ClientID); err != nil {
			if cerr.IsCode(err, cerr.NotFound) {
				return in, cerr.NewError(cerr.InvalidArgument, "client not found", err)
			}
			return in, err
		}
	}
	return in, nil
}

func (s *Service) writeFailed(ctx context.Context, op string, err error) error {
	if IsSlotConflict(err) {
		s.metrics.SlotConflict(op)
		slog.DebugContext(ctx, "slot already booked", "op", op, "error", err)
	}
	return err
}

func (t *Task) apply(in Input) {
	t.Title = in.Title
	t.Description = in.Description
	t.Status = in.Status
	t.ClientID = in.ClientID
	t.ClientType = in.ClientType
	t.ScheduledAt = in.ScheduledAt
	t.AmountPaid = in.AmountPaid
	t.UnitPrice = in.UnitPrice
	t.TotalAmount = in.TotalAmount
	t.PeopleCount = in.PeopleCount
	t.deriveTotal()
}

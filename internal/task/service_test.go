package task_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kmmanagement/agenda/internal/client"
	"github.com/kmmanagement/agenda/internal/eventbus"
	"github.com/kmmanagement/agenda/internal/httpx"
	"github.com/kmmanagement/agenda/internal/metrics"
	"github.com/kmmanagement/agenda/internal/schedule"
	"github.com/kmmanagement/agenda/internal/task"
	"github.com/kmmanagement/agenda/internal/task/repositoryimpl"
	"github.com/kmmanagement/agenda/pkg/cerr"
	"github.com/kmmanagement/agenda/pkg/storage"
)

type fakeClients map[string]*client.Client

func (f fakeClients) Get(_ context.Context, id string) (*client.Client, error) {
	if c, ok := f[id]; ok {
		return c, nil
	}
	return nil, cerr.NewError(cerr.NotFound, "client not found", nil)
}

// openGuard lets every write through so that only the store can object.
type openGuard struct{}

func (openGuard) EnsureFree(context.Context, *time.Time, string) error { return nil }

type recordingMetrics struct {
	metrics.Nop
	written   []string
	conflicts []string
}

func (m *recordingMetrics) TaskWritten(op string)  { m.written = append(m.written, op) }
func (m *recordingMetrics) SlotConflict(op string) { m.conflicts = append(m.conflicts, op) }

type serviceEnv struct {
	svc     *task.Service
	repo    task.Repository
	metrics *recordingMetrics
	events  <-chan eventbus.Event
}

func newServiceEnv(t *testing.T, guard task.SlotGuard) *serviceEnv {
	t.Helper()
	s, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	repo := repositoryimpl.NewYAMLRepository(s)
	if guard == nil {
		guard = schedule.NewChecker(repo)
	}
	bus := eventbus.New()
	_, events := bus.Subscribe(32)
	m := &recordingMetrics{}
	clients := fakeClients{"c1": {ID: "c1", Name: "Maria", Address: "Rua A"}}
	return &serviceEnv{
		svc:     task.NewService(repo, clients, guard, bus, m),
		repo:    repo,
		metrics: m,
		events:  events,
	}
}

func slotAt(hour, minute, second int) *time.Time {
	t := time.Date(2024, time.March, 1, hour, minute, second, 0, time.UTC)
	return &t
}

func TestService_CreateStampsActorAndDerivesTotal(t *testing.T) {
	env := newServiceEnv(t, nil)
	ctx := context.Background()

	unit := decimal.RequireFromString("45.50")
	people := 2
	got, err := env.svc.Create(ctx, "ana", task.Input{
		Title:       " Tour ",
		Status:      "pago",
		ClientID:    "c1",
		ClientType:  task.ClientTypeNew,
		ScheduledAt: slotAt(10, 0, 42),
		UnitPrice:   &unit,
		PeopleCount: &people,
	})
	require.NoError(t, err)

	assert.NotEmpty(t, got.ID)
	assert.Equal(t, "Tour", got.Title)
	assert.Equal(t, "ana", got.CreatedBy)
	assert.Equal(t, task.StatusPaid, got.Status)
	assert.True(t, slotAt(10, 0, 0).Equal(*got.ScheduledAt), "seconds are dropped")
	require.NotNil(t, got.TotalAmount)
	assert.True(t, decimal.RequireFromString("91").Equal(*got.TotalAmount))

	ev := <-env.events
	assert.Equal(t, eventbus.TaskCreated, ev.Type)
	assert.Equal(t, got.ID, ev.ResourceID)
	assert.Equal(t, []string{"create"}, env.metrics.written)
}

func TestService_CreateDefaults(t *testing.T) {
	env := newServiceEnv(t, nil)

	got, err := env.svc.Create(context.Background(), "", task.Input{Title: "call supplier"})
	require.NoError(t, err)
	assert.Equal(t, httpx.DefaultActor, got.CreatedBy)
	assert.Equal(t, task.StatusOpen, got.Status)
	assert.Nil(t, got.ScheduledAt)
	assert.Nil(t, got.TotalAmount)
}

func TestService_ExplicitTotalWins(t *testing.T) {
	env := newServiceEnv(t, nil)

	unit := decimal.RequireFromString("10")
	total := decimal.RequireFromString("25")
	people := 3
	got, err := env.svc.Create(context.Background(), "ana", task.Input{
		Title: "group", UnitPrice: &unit, PeopleCount: &people, TotalAmount: &total,
	})
	require.NoError(t, err)
	assert.True(t, total.Equal(*got.TotalAmount))
}

func TestService_Validation(t *testing.T) {
	env := newServiceEnv(t, nil)
	ctx := context.Background()

	_, err := env.svc.Create(ctx, "ana", task.Input{Title: "  "})
	var ce *cerr.Error
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, cerr.InvalidArgument, ce.Code)
	assert.Len(t, ce.Details, 1)

	_, err = env.svc.Create(ctx, "ana", task.Input{Title: "x", ClientID: "ghost"})
	assert.True(t, cerr.IsCode(err, cerr.InvalidArgument))
	assert.Empty(t, env.metrics.written)
}

func TestService_DoubleBooking(t *testing.T) {
	env := newServiceEnv(t, nil)
	ctx := context.Background()

	first, err := env.svc.Create(ctx, "ana", task.Input{Title: "first", ScheduledAt: slotAt(10, 0, 0)})
	require.NoError(t, err)

	_, err = env.svc.Create(ctx, "ana", task.Input{Title: "second", ScheduledAt: slotAt(10, 0, 0)})
	require.Error(t, err)
	assert.True(t, task.IsSlotConflict(err))
	assert.Equal(t, []string{"create"}, env.metrics.conflicts)

	_, total, err := env.repo.List(ctx, "", 0, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, total, "nothing persisted on conflict")

	updated, err := env.svc.Update(ctx, first.ID, task.Input{Title: "first again", ScheduledAt: slotAt(10, 0, 0)})
	require.NoError(t, err, "re-saving its own slot is not a conflict")
	assert.Equal(t, "first again", updated.Title)
	assert.Equal(t, "ana", updated.CreatedBy)
	assert.True(t, first.CreatedAt.Equal(updated.CreatedAt))
}

func TestService_UpdateIntoTakenSlot(t *testing.T) {
	env := newServiceEnv(t, nil)
	ctx := context.Background()

	_, err := env.svc.Create(ctx, "ana", task.Input{Title: "a", ScheduledAt: slotAt(9, 0, 0)})
	require.NoError(t, err)
	b, err := env.svc.Create(ctx, "ana", task.Input{Title: "b", ScheduledAt: slotAt(11, 0, 0)})
	require.NoError(t, err)

	_, err = env.svc.Update(ctx, b.ID, task.Input{Title: "b", ScheduledAt: slotAt(9, 0, 0)})
	assert.True(t, task.IsSlotConflict(err))
	assert.Equal(t, []string{"update"}, env.metrics.conflicts)

	_, err = env.svc.Update(ctx, "missing", task.Input{Title: "b"})
	assert.True(t, cerr.IsCode(err, cerr.NotFound))
}

func TestService_StoreCatchesRaceThePreCheckMissed(t *testing.T) {
	env := newServiceEnv(t, openGuard{})
	ctx := context.Background()

	_, err := env.svc.Create(ctx, "ana", task.Input{Title: "a", ScheduledAt: slotAt(9, 0, 0)})
	require.NoError(t, err)

	_, err = env.svc.Create(ctx, "bob", task.Input{Title: "b", ScheduledAt: slotAt(9, 0, 0)})
	assert.True(t, task.IsSlotConflict(err))
	assert.Equal(t, []string{"create"}, env.metrics.conflicts)
}

func TestService_Delete(t *testing.T) {
	env := newServiceEnv(t, nil)
	ctx := context.Background()

	created, err := env.svc.Create(ctx, "ana", task.Input{Title: "a"})
	require.NoError(t, err)
	<-env.events

	require.NoError(t, env.svc.Delete(ctx, created.ID))
	ev := <-env.events
	assert.Equal(t, eventbus.TaskDeleted, ev.Type)

	err = env.svc.Delete(ctx, created.ID)
	assert.True(t, cerr.IsCode(err, cerr.NotFound))
}

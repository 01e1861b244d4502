package task

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/kmmanagement/agenda/internal/client"
	"github.com/kmmanagement/agenda/internal/httpx"
	"github.com/kmmanagement/agenda/pkg/cerr"
)

type Server struct {
	service *Service
	clients ClientDirectory
	loc     *time.Location
}

func NewServer(service *Service, clients ClientDirectory, loc *time.Location) *Server {
	return &Server{service: service, clients: clients, loc: loc}
}

func (s *Server) Routes(r chi.Router) {
	r.Get("/", s.listTasks)
	r.Post("/", s.createTask)
	r.Get("/{id}", s.getTask)
	r.Put("/{id}", s.updateTask)
	r.Delete("/{id}", s.deleteTask)
}

type taskRequest struct {
	Title       string           `json:"title"`
	Description string           `json:"description"`
	Status      string           `json:"status"`
	ClientID    string           `json:"client_id"`
	ClientType  string           `json:"client_type"`
	Priority    *int             `json:"priority"` // legacy client type flag, used when client_type is empty
	ScheduledAt string           `json:"scheduled_at"`
	AmountPaid  *decimal.Decimal `json:"amount_paid"`
	UnitPrice   *decimal.Decimal `json:"unit_price"`
	TotalAmount *decimal.Decimal `json:"total_amount"`
	PeopleCount *int             `json:"people_count"`
}

type taskResponse struct {
	ID            string           `json:"id"`
	Title         string           `json:"title"`
	Description   string           `json:"description"`
	Status        Status           `json:"status"`
	ClientID      string           `json:"client_id,omitempty"`
	ClientName    string           `json:"client_name,omitempty"`
	ClientAddress string           `json:"client_address,omitempty"`
	ClientType    ClientType       `json:"client_type,omitempty"`
	ScheduledAt   string           `json:"scheduled_at,omitempty"`
	AmountPaid    *decimal.Decimal `json:"amount_paid,omitempty"`
	UnitPrice     *decimal.Decimal `json:"unit_price,omitempty"`
	TotalAmount   *decimal.Decimal `json:"total_amount,omitempty"`
	PeopleCount   *int             `json:"people_count,omitempty"`
	CreatedBy     string           `json:"created_by"`
	CreatedAt     time.Time        `json:"created_at"`
	UpdatedAt     time.Time        `json:"updated_at"`
}

type listTasksResponse struct {
	Tasks      []taskResponse `json:"tasks"`
	Pagination httpx.Page     `json:"pagination"`
}

func (s *Server) toInput(req *taskRequest) (Input, error) {
	at, err := ParseSlot(req.ScheduledAt, s.loc)
	if err != nil {
		return Input{}, cerr.NewError(cerr.InvalidArgument, "invalid scheduled_at", err).
			AddDetailMessageWithCode(err.Error(), "format")
	}
	clientType := ParseClientType(req.ClientType)
	if clientType == ClientTypeOther {
		clientType = ClientTypeFromFlag(req.Priority)
	}
	return Input{
		Title:       req.Title,
		Description: req.Description,
		Status:      Status(req.Status),
		ClientID:    req.ClientID,
		ClientType:  clientType,
		ScheduledAt: at,
		AmountPaid:  req.AmountPaid,
		UnitPrice:   req.UnitPrice,
		TotalAmount: req.TotalAmount,
		PeopleCount: req.PeopleCount,
	}, nil
}

func (s *Server) decodeInput(r *http.Request) (Input, error) {
	var req taskRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		return Input{}, err
	}
	return s.toInput(&req)
}

func (s *Server) createTask(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	in, err := s.decodeInput(r)
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	t, err := s.service.Create(ctx, httpx.Actor(r), in)
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	cerr.SetJSONResponseWithStatus(ctx, http.StatusCreated, s.toResponse(r, t, nil))
}

func (s *Server) getTask(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	t, err := s.service.Get(ctx, chi.URLParam(r, "id"))
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	cerr.SetJSONResponse(ctx, s.toResponse(r, t, nil))
}

func (s *Server) listTasks(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	page := httpx.Pagination(r)
	tasks, total, err := s.service.List(ctx, r.URL.Query().Get("client_id"), page.Limit, page.Offset)
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	page.Total = total
	known := make(map[string]*client.Client)
	resp := listTasksResponse{Tasks: make([]taskResponse, len(tasks)), Pagination: page}
	for i, t := range tasks {
		resp.Tasks[i] = s.toResponse(r, t, known)
	}
	cerr.SetJSONResponse(ctx, resp)
}

func (s *Server) updateTask(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	in, err := s.decodeInput(r)
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	t, err := s.service.Update(ctx, chi.URLParam(r, "id"), in)
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	cerr.SetJSONResponse(ctx, s.toResponse(r, t, nil))
}

func (s *Server) deleteTask(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := s.service.Delete(ctx, chi.URLParam(r, "id")); err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	cerr.SetJSONResponseWithStatus(ctx, http.StatusNoContent, nil)
}

// toResponse denormalizes the client's name and address. known caches
// lookups across a listing and may be nil.
func (s *Server) toResponse(r *http.Request, t *Task, known map[string]*client.Client) taskResponse {
	resp := taskResponse{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		Status:      t.Status,
		ClientID:    t.ClientID,
		ClientType:  t.ClientType,
		ScheduledAt: FormatSlot(t.ScheduledAt, s.loc),
		AmountPaid:  t.AmountPaid,
		UnitPrice:   t.UnitPrice,
		TotalAmount: t.TotalAmount,
		PeopleCount: t.PeopleCount,
		CreatedBy:   t.CreatedBy,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
	if !t.HasClient() {
		return resp
	}
	c, ok := known[t.ClientID]
	if !ok {
		var err error
		if c, err = s.clients.Get(r.Context(), t.ClientID); err != nil {
			if !cerr.IsCode(err, cerr.NotFound) {
				slog.WarnContext(r.Context(), "failed to load task client", "client_id", t.ClientID, "error", err)
			}
			c = nil
		}
		if known != nil {
			known[t.ClientID] = c
		}
	}
	if c != nil {
		resp.ClientName = c.Name
		resp.ClientAddress = c.Address
	}
	return resp
}

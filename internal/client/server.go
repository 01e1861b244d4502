package client

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/oklog/ulid/v2"
	"google.golang.org/protobuf/proto"

	"github.com/kmmanagement/agenda/internal/eventbus"
	"github.com/kmmanagement/agenda/internal/httpx"
	"github.com/kmmanagement/agenda/pkg/cerr"
	"github.com/kmmanagement/agenda/pkg/clog"
)

type Server struct {
	repo   Repository
	tasks  TaskCounter
	events eventbus.Publisher
}

func NewServer(repo Repository, tasks TaskCounter, events eventbus.Publisher) *Server {
	return &Server{repo: repo, tasks: tasks, events: events}
}

func (s *Server) Routes(r chi.Router) {
	r.Get("/", s.listClients)
	r.Post("/", s.createClient)
	r.Get("/{id}", s.getClient)
	r.Put("/{id}", s.updateClient)
	r.Delete("/{id}", s.deleteClient)
}

type clientRequest struct {
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
	Email   string `json:"email"`
	Notes   string `json:"notes"`
}

type clientResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone"`
	Address   string    `json:"address"`
	Email     string    `json:"email"`
	Notes     string    `json:"notes"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type listClientsResponse struct {
	Clients    []clientResponse `json:"clients"`
	Pagination httpx.Page       `json:"pagination"`
}

// validate reports every missing required field at once.
func (req *clientRequest) validate() error {
	req.Name = strings.TrimSpace(req.Name)
	req.Phone = strings.TrimSpace(req.Phone)
	req.Address = strings.TrimSpace(req.Address)

	var missing []proto.Message
	for _, f := range []struct{ name, value string }{
		{"name", req.Name},
		{"phone", req.Phone},
		{"address", req.Address},
	} {
		if f.value == "" {
			missing = append(missing, httpx.RequiredViolation(f.name))
		}
	}
	if len(missing) == 0 {
		return nil
	}
	return cerr.NewErrorWithDetails(cerr.InvalidArgument, "invalid client", nil, missing)
}

func (s *Server) createClient(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req clientRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	if err := req.validate(); err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	now := time.Now()
	c := &Client{
		ID:        ulid.Make().String(),
		Name:      req.Name,
		Phone:     req.Phone,
		Address:   req.Address,
		Email:     req.Email,
		Notes:     req.Notes,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.Create(ctx, c); err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	clog.AddClientID(ctx, c.ID)
	s.events.PublishNew(eventbus.ClientCreated, c.ID, map[string]string{"actor": httpx.Actor(r)})
	cerr.SetJSONResponseWithStatus(ctx, http.StatusCreated, toResponse(c))
}

func (s *Server) getClient(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	c, err := s.repo.Get(ctx, chi.URLParam(r, "id"))
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	cerr.SetJSONResponse(ctx, toResponse(c))
}

func (s *Server) listClients(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	page := httpx.Pagination(r)
	clients, total, err := s.repo.List(ctx, page.Limit, page.Offset)
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	page.Total = total
	resp := listClientsResponse{Clients: make([]clientResponse, len(clients)), Pagination: page}
	for i, c := range clients {
		resp.Clients[i] = toResponse(c)
	}
	cerr.SetJSONResponse(ctx, resp)
}

func (s *Server) updateClient(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req clientRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	if err := req.validate(); err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	c, err := s.repo.Get(ctx, chi.URLParam(r, "id"))
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	c.Name = req.Name
	c.Phone = req.Phone
	c.Address = req.Address
	c.Email = req.Email
	c.Notes = req.Notes
	c.UpdatedAt = time.Now()
	if err := s.repo.Update(ctx, c); err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	clog.AddClientID(ctx, c.ID)
	s.events.PublishNew(eventbus.ClientUpdated, c.ID, map[string]string{"actor": httpx.Actor(r)})
	cerr.SetJSONResponse(ctx, toResponse(c))
}

func (s *Server) deleteClient(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")
	clog.AddClientID(ctx, id)
	if _, err := s.repo.Get(ctx, id); err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	n, err := s.tasks.CountByClient(ctx, id)
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	if n > 0 {
		cerr.SetNewJSONError(ctx, cerr.FailedPrecondition,
			fmt.Sprintf("client still has %d task(s)", n), nil)
		return
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	s.events.PublishNew(eventbus.ClientDeleted, id, map[string]string{"actor": httpx.Actor(r)})
	cerr.SetJSONResponseWithStatus(ctx, http.StatusNoContent, nil)
}

func toResponse(c *Client) clientResponse {
	return clientResponse{
		ID:        c.ID,
		Name:      c.Name,
		Phone:     c.Phone,
		Address:   c.Address,
		Email:     c.Email,
		Notes:     c.Notes,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}

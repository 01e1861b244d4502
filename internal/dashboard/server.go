package dashboard

import (
	"net/http"
	"time"

	"github.com/kmmanagement/agenda/internal/period"
	"github.com/kmmanagement/agenda/internal/stats"
	"github.com/kmmanagement/agenda/pkg/cerr"
)

type Server struct {
	service *Service
}

func NewServer(service *Service) *Server {
	return &Server{service: service}
}

type dashboardResponse struct {
	Period string    `json:"period"`
	Date   string    `json:"date"`
	Start  time.Time `json:"start"`
	End    time.Time `json:"end"`
	stats.Stats
}

// GetDashboard serves ?period=day|week|month&date=YYYY-MM-DD. An unknown
// period falls back to month; only a malformed date is rejected.
func (s *Server) GetDashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()

	var anchor *time.Time
	if raw := q.Get("date"); raw != "" {
		d, err := period.ParseDate(raw, s.service.loc)
		if err != nil {
			cerr.SetJSONError(ctx, cerr.NewError(cerr.InvalidArgument, "invalid date", err).
				AddDetailMessageWithCode(err.Error(), "format"))
			return
		}
		anchor = &d
	}

	report, err := s.service.Get(ctx, period.Parse(q.Get("period")), anchor)
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	cerr.SetJSONResponse(ctx, dashboardResponse{
		Period: report.Period.String(),
		Date:   report.Anchor.Format(period.DateLayout),
		Start:  report.Bounds.Start,
		End:    report.Bounds.End,
		Stats:  report.Stats,
	})
}

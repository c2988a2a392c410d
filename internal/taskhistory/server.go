package taskhistory

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/an4xdev/SprintForge/pkg/cerr"
	"github.com/an4xdev/SprintForge/pkg/clog"
)

type Server struct {
	repo Repository
}

func NewServer(repo Repository) *Server {
	return &Server{repo: repo}
}

func (s *Server) Routes(r chi.Router) {
	r.Get("/taskHistories", s.list)
}

// list returns every entry, or one task's entries when ?taskId= is given.
func (s *Server) list(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	raw := r.URL.Query().Get("taskId")
	if raw == "" {
		entries, err := s.repo.List(ctx)
		if err != nil {
			cerr.SetJSONError(ctx, err)
			return
		}
		cerr.SetJSONResponse(ctx, http.StatusOK, "Task histories retrieved", nonNil(entries))
		return
	}

	taskID, err := cerr.ParseUUID("taskId", raw)
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	clog.AddTaskID(ctx, taskID.String())
	entries, err := s.repo.ListByTask(ctx, taskID)
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	cerr.SetJSONResponse(ctx, http.StatusOK, "Task histories retrieved", nonNil(entries))
}

func nonNil(entries []*Entry) []*Entry {
	if entries == nil {
		return []*Entry{}
	}
	return entries
}

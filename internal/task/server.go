package task

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/an4xdev/SprintForge/pkg/cerr"
	"github.com/an4xdev/SprintForge/pkg/clog"
)

type Server struct {
	service *Service
}

func NewServer(service *Service) *Server {
	return &Server{service: service}
}

func (s *Server) Routes(r chi.Router) {
	r.Get("/taskStatuses", s.listStatuses)
	r.Route("/tasks", func(r chi.Router) {
		r.Post("/", s.create)
		r.Get("/developer/{developerId}", s.listByDeveloper)
		r.Get("/developer/{developerId}/times", s.developerTimes)
		r.Get("/{id}", s.get)
		r.Get("/{id}/time", s.activeTime)
		r.Put("/{id}/start", s.transition(TargetStarted, "Task started"))
		r.Put("/{id}/pause", s.transition(TargetPaused, "Task paused"))
		r.Put("/{id}/stop", s.transition(TargetStopped, "Task stopped"))
	})
}

func (s *Server) transition(target Target, message string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		id, err := cerr.UUIDParam(r, "id")
		if err != nil {
			cerr.SetJSONError(ctx, err)
			return
		}
		res, err := s.service.Transition(ctx, id, target)
		if err != nil {
			cerr.SetJSONError(ctx, err)
			return
		}
		cerr.SetJSONResponse(ctx, http.StatusOK, message, res)
	}
}

func (s *Server) activeTime(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := cerr.UUIDParam(r, "id")
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	clog.AddTaskID(ctx, id.String())
	tt, err := s.service.TotalActiveSeconds(ctx, id)
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	cerr.SetJSONResponse(ctx, http.StatusOK, "Task time retrieved", tt)
}

func (s *Server) developerTimes(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	developerID, err := cerr.UUIDParam(r, "developerId")
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	times, err := s.service.ForDeveloper(ctx, developerID)
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	cerr.SetJSONResponse(ctx, http.StatusOK, "Task times retrieved", times)
}

func (s *Server) create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var d Draft
	if err := cerr.DecodeJSON(r, &d); err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	t, err := s.service.Create(ctx, d)
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	cerr.SetJSONResponse(ctx, http.StatusCreated, "Task created", t)
}

func (s *Server) get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := cerr.UUIDParam(r, "id")
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	t, err := s.service.Get(ctx, id)
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	cerr.SetJSONResponse(ctx, http.StatusOK, "Task retrieved", t)
}

func (s *Server) listByDeveloper(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	developerID, err := cerr.UUIDParam(r, "developerId")
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	tasks, err := s.service.ListByDeveloper(ctx, developerID)
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	if tasks == nil {
		tasks = []*Task{}
	}
	cerr.SetJSONResponse(ctx, http.StatusOK, "Tasks retrieved", tasks)
}

func (s *Server) listStatuses(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	statuses, err := s.service.Statuses(ctx)
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	cerr.SetJSONResponse(ctx, http.StatusOK, "Task statuses retrieved", statuses)
}

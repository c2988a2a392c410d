package sprint

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/an4xdev/SprintForge/pkg/cerr"
)

type Server struct {
	service *Service
}

func NewServer(service *Service) *Server {
	return &Server{service: service}
}

func (s *Server) Routes(r chi.Router) {
	r.Route("/sprints", func(r chi.Router) {
		r.Get("/", s.list)
		r.Post("/", s.create)
		r.Get("/manager/{managerId}", s.listByManager)
		r.Get("/manager/{managerId}/last", s.latestByManager)
		r.Get("/{id}", s.get)
		r.Put("/{id}", s.update)
		r.Delete("/{id}", s.delete)
	})
}

func (s *Server) list(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sprints, err := s.service.List(ctx)
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	cerr.SetJSONResponse(ctx, http.StatusOK, "Sprints retrieved", nonNil(sprints))
}

func (s *Server) create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var d Draft
	if err := cerr.DecodeJSON(r, &d); err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	sp, err := s.service.Create(ctx, d)
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	cerr.SetJSONResponse(ctx, http.StatusCreated, "Sprint created", sp)
}

func (s *Server) get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := cerr.UUIDParam(r, "id")
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	sp, err := s.service.Get(ctx, id)
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	cerr.SetJSONResponse(ctx, http.StatusOK, "Sprint retrieved", sp)
}

func (s *Server) update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := cerr.UUIDParam(r, "id")
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	var p Patch
	if err := cerr.DecodeJSON(r, &p); err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	sp, err := s.service.Update(ctx, id, p)
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	cerr.SetJSONResponse(ctx, http.StatusOK, "Sprint updated", sp)
}

func (s *Server) delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := cerr.UUIDParam(r, "id")
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	if err := s.service.Delete(ctx, id); err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	cerr.SetNoContent(ctx)
}

func (s *Server) listByManager(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	managerID, err := cerr.UUIDParam(r, "managerId")
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	sprints, err := s.service.ListByManager(ctx, managerID)
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	cerr.SetJSONResponse(ctx, http.StatusOK, "Sprints retrieved", nonNil(sprints))
}

func (s *Server) latestByManager(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	managerID, err := cerr.UUIDParam(r, "managerId")
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	sp, err := s.service.LatestByManager(ctx, managerID)
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	cerr.SetJSONResponse(ctx, http.StatusOK, "Sprint retrieved", sp)
}

func nonNil(sprints []*Sprint) []*Sprint {
	if sprints == nil {
		return []*Sprint{}
	}
	return sprints
}

package api

import (
	"net/http"

	"github.com/go-chi/chi"
)

// learnerClassAverages handles GET /grades-agg/learner/{id}/avg-class.
func (s *Server) learnerClassAverages(res http.ResponseWriter, req *http.Request) {
	learnerID := numberParam(chi.URLParam(req, "id"))

	averages, err := s.grades.LearnerClassAverages(storeContext(req), learnerID)
	if err != nil {
		s.writeError(res, err)
		return
	}

	writeJSON(res, http.StatusOK, averages)
}

// stats handles GET /grades-agg/stats.
func (s *Server) stats(res http.ResponseWriter, req *http.Request) {
	stats, err := s.grades.Stats(storeContext(req), nil)
	if err != nil {
		s.writeError(res, err)
		return
	}

	writeJSON(res, http.StatusOK, stats)
}

// classStats handles GET /grades-agg/stats/{id}.
func (s *Server) classStats(res http.ResponseWriter, req *http.Request) {
	classID := numberParam(chi.URLParam(req, "id"))

	stats, err := s.grades.Stats(storeContext(req), &classID)
	if err != nil {
		s.writeError(res, err)
		return
	}

	writeJSON(res, http.StatusOK, stats)
}

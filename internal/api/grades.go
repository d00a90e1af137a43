package api

import (
	"net/http"
	"net/url"

	"github.com/go-chi/chi"
	"github.com/ukane-philemon/grades/internal/grade"
)

// updateClassIDRequest is the body of PATCH /grades/class/{id}.
type updateClassIDRequest struct {
	ClassID *int `json:"class_id"`
}

// createGrade handles POST /grades.
func (s *Server) createGrade(res http.ResponseWriter, req *http.Request) {
	newGrade, err := decodeDocument(res, req)
	if err != nil {
		s.writeError(res, err)
		return
	}

	gradeID, err := s.grades.Create(storeContext(req), grade.NewGrade(newGrade))
	if err != nil {
		s.writeError(res, err)
		return
	}

	res.Header().Set("Location", "/grades/"+url.PathEscape(gradeID))
	res.WriteHeader(http.StatusNoContent)
}

// listGrades handles GET /grades.
func (s *Server) listGrades(res http.ResponseWriter, req *http.Request) {
	grades, err := s.grades.Grades(storeContext(req))
	if err != nil {
		s.writeError(res, err)
		return
	}

	writeJSON(res, http.StatusOK, grades)
}

// getGrade handles GET /grades/{id}.
func (s *Server) getGrade(res http.ResponseWriter, req *http.Request) {
	gradeID, ok := s.gradeID(res, req)
	if !ok {
		return
	}

	gradeRecord, err := s.grades.Grade(storeContext(req), gradeID)
	if err != nil {
		s.writeError(res, err)
		return
	}

	writeJSON(res, http.StatusOK, gradeRecord)
}

// addScore handles PATCH /grades/{id}/add.
func (s *Server) addScore(res http.ResponseWriter, req *http.Request) {
	gradeID, ok := s.gradeID(res, req)
	if !ok {
		return
	}

	score, err := decodeDocument(res, req)
	if err != nil {
		s.writeError(res, err)
		return
	}

	result, err := s.grades.AddScore(storeContext(req), gradeID, grade.Score(score))
	if err != nil {
		s.writeError(res, err)
		return
	}

	writeJSON(res, http.StatusOK, result)
}

// removeScore handles PATCH /grades/{id}/remove.
func (s *Server) removeScore(res http.ResponseWriter, req *http.Request) {
	gradeID, ok := s.gradeID(res, req)
	if !ok {
		return
	}

	score, err := decodeDocument(res, req)
	if err != nil {
		s.writeError(res, err)
		return
	}

	result, err := s.grades.RemoveScore(storeContext(req), gradeID, grade.Score(score))
	if err != nil {
		s.writeError(res, err)
		return
	}

	writeJSON(res, http.StatusOK, result)
}

// deleteGrade handles DELETE /grades/{id}.
func (s *Server) deleteGrade(res http.ResponseWriter, req *http.Request) {
	gradeID, ok := s.gradeID(res, req)
	if !ok {
		return
	}

	result, err := s.grades.Delete(storeContext(req), gradeID)
	if err != nil {
		s.writeError(res, err)
		return
	}

	writeJSON(res, http.StatusOK, result)
}

// legacyLearnerGrades handles GET /grades/student/{id}, which was renamed to
// /grades/learner/{id}.
func (s *Server) legacyLearnerGrades(res http.ResponseWriter, req *http.Request) {
	http.Redirect(res, req, "/grades/learner/"+chi.URLParam(req, "id"), http.StatusFound)
}

// learnerGrades handles GET /grades/learner/{id}?class={classID}.
func (s *Server) learnerGrades(res http.ResponseWriter, req *http.Request) {
	learnerID := numberParam(chi.URLParam(req, "id"))
	classID := optionalNumberQuery(req, "class")

	grades, err := s.grades.LearnerGrades(storeContext(req), learnerID, classID)
	if err != nil {
		s.writeError(res, err)
		return
	}

	writeJSON(res, http.StatusOK, grades)
}

// deleteLearnerGrade handles DELETE /grades/learner/{id}. Only the first
// matching grade record is removed.
func (s *Server) deleteLearnerGrade(res http.ResponseWriter, req *http.Request) {
	learnerID := numberParam(chi.URLParam(req, "id"))

	result, err := s.grades.DeleteLearnerGrade(storeContext(req), learnerID)
	if err != nil {
		s.writeError(res, err)
		return
	}

	writeJSON(res, http.StatusOK, result)
}

// classGrades handles GET /grades/class/{id}?learner={learnerID}.
func (s *Server) classGrades(res http.ResponseWriter, req *http.Request) {
	classID := numberParam(chi.URLParam(req, "id"))
	learnerID := optionalNumberQuery(req, "learner")

	grades, err := s.grades.ClassGrades(storeContext(req), classID, learnerID)
	if err != nil {
		s.writeError(res, err)
		return
	}

	writeJSON(res, http.StatusOK, grades)
}

// updateClassID handles PATCH /grades/class/{id}.
func (s *Server) updateClassID(res http.ResponseWriter, req *http.Request) {
	classID := numberParam(chi.URLParam(req, "id"))

	var body updateClassIDRequest
	if err := decodeBody(res, req, &body); err != nil {
		s.writeError(res, err)
		return
	}

	if body.ClassID == nil {
		s.writeError(res, invalidArgument("missing class_id"))
		return
	}

	result, err := s.grades.UpdateClassID(storeContext(req), classID, *body.ClassID)
	if err != nil {
		s.writeError(res, err)
		return
	}

	writeJSON(res, http.StatusOK, result)
}

// deleteClass handles DELETE /grades/class/{id}.
func (s *Server) deleteClass(res http.ResponseWriter, req *http.Request) {
	classID := numberParam(chi.URLParam(req, "id"))

	result, err := s.grades.DeleteClass(storeContext(req), classID)
	if err != nil {
		s.writeError(res, err)
		return
	}

	writeJSON(res, http.StatusOK, result)
}

// gradeID returns the {id} URL parameter. It writes a 400 response and
// returns false if the parameter is not a valid grade ID.
func (s *Server) gradeID(res http.ResponseWriter, req *http.Request) (string, bool) {
	gradeID := chi.URLParam(req, "id")
	if !grade.ValidID(gradeID) {
		s.writeError(res, invalidArgument("Invalid ID format"))
		return "", false
	}
	return gradeID, true
}

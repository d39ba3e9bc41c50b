package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"smartshala/school/internal/auth"
	"smartshala/school/internal/config"
	"smartshala/school/internal/model"
	"smartshala/school/internal/service"
	"smartshala/school/internal/sheet"
)

const sessionCookie = "token"

type Server struct {
	cfg config.Config
	svc *service.Service
}

func NewServer(cfg config.Config, svc *service.Service) *Server {
	return &Server{cfg: cfg, svc: svc}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/auth", func(r chi.Router) {
		r.Post("/register", s.handleRegister)
		r.Post("/login", s.handleLogin)
		r.Post("/logout", s.handleLogout)

		r.Route("/admin", func(r chi.Router) {
			r.Use(s.authMiddleware, s.requireRole(model.RoleAdmin))
			r.Post("/classroom", s.handleAddClassroom)
			r.Post("/subject", s.handleAddSubject)
			r.Post("/subject/teacher", s.handleAssignTeacher)
			r.Post("/registerStudent", s.handleRegisterStudent)
			r.Post("/registerTeacher", s.handleRegisterTeacher)
			r.Get("/dashboard", s.handleDashboard)
			r.Post("/bulk-register-student", s.handleBulkRegisterStudents)
			r.Post("/bulk-register-teacher", s.handleBulkRegisterTeachers)
		})
	})

	return r
}

// Auth

type claimsKey struct{}

// authMiddleware verifies the session cookie and attaches the claims to
// the request context. The embedded role is trusted as-is; the identity
// is not re-read from the store (stateless sessions).
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(sessionCookie)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "missing_token")
			return
		}
		claims, err := auth.ParseSessionToken(s.cfg.JWTSecret, cookie.Value)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "invalid_token")
			return
		}
		ctx := context.WithValue(r.Context(), claimsKey{}, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requireRole gates a route on an allow-list of roles. Absent claims
// mean the middleware chain is miswired, which is an internal error and
// never a pass.
func (s *Server) requireRole(allowed ...model.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims := claimsFromContext(r.Context())
			if claims == nil {
				writeError(w, http.StatusInternalServerError, "server_error")
				return
			}
			for _, role := range allowed {
				if claims.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}
			writeError(w, http.StatusForbidden, "forbidden")
		})
	}
}

func claimsFromContext(ctx context.Context) *auth.Claims {
	value := ctx.Value(claimsKey{})
	claims, _ := value.(*auth.Claims)
	return claims
}

// Registration and sessions

type registerRequest struct {
	Name        string `json:"name"`
	Email       string `json:"email"`
	Password    string `json:"password"`
	Role        string `json:"role"`
	ClassroomID string `json:"classroomId,omitempty"`
	RollNo      int    `json:"rollNo,omitempty"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	role, ok := model.ParseRole(req.Role)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid_role")
		return
	}

	created, err := s.svc.Register(r.Context(), service.RegisterInput{
		Name:        req.Name,
		Email:       req.Email,
		Password:    req.Password,
		Role:        role,
		ClassroomID: req.ClassroomID,
		RollNo:      req.RollNo,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	role, ok := model.ParseRole(req.Role)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid_role")
		return
	}

	identity, err := s.svc.Login(r.Context(), service.LoginInput{
		Email:    req.Email,
		Password: req.Password,
		Role:     role,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrValidation):
			writeError(w, http.StatusBadRequest, "missing_fields")
		case errors.Is(err, service.ErrNotFound):
			writeError(w, http.StatusUnauthorized, "invalid_credentials")
		case errors.Is(err, service.ErrRoleMismatch):
			writeError(w, http.StatusUnauthorized, "role_mismatch")
		case errors.Is(err, service.ErrIncorrectPassword):
			writeError(w, http.StatusUnauthorized, "incorrect_password")
		default:
			writeError(w, http.StatusInternalServerError, "server_error")
		}
		return
	}

	token, err := auth.NewSessionToken(s.cfg.JWTSecret, s.cfg.JWTIssuer, s.cfg.SessionTTL, auth.Claims{
		IdentityID: identity.ID,
		Role:       identity.Role,
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "token_error")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   int(s.cfg.SessionTTL.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})
	writeJSON(w, http.StatusOK, service.IdentitySummary{
		ID:    identity.ID,
		Name:  identity.Name,
		Email: identity.Email,
		Role:  identity.Role,
	})
}

func (s *Server) handleLogout(w http.ResponseWriter, _ *http.Request) {
	// Sessions are stateless; logout just clears the cookie.
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Admin provisioning

type registerStudentRequest struct {
	Name        string `json:"name"`
	Email       string `json:"email"`
	Password    string `json:"password"`
	ClassroomID string `json:"classroomId"`
	RollNo      int    `json:"rollNo"`
}

func (s *Server) handleRegisterStudent(w http.ResponseWriter, r *http.Request) {
	var req registerStudentRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}

	created, err := s.svc.Register(r.Context(), service.RegisterInput{
		Name:        req.Name,
		Email:       req.Email,
		Password:    req.Password,
		Role:        model.RoleStudent,
		ClassroomID: req.ClassroomID,
		RollNo:      req.RollNo,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

type registerTeacherRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) handleRegisterTeacher(w http.ResponseWriter, r *http.Request) {
	var req registerTeacherRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}

	created, err := s.svc.Register(r.Context(), service.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Role:     model.RoleTeacher,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// Academic catalog

type addClassroomRequest struct {
	Name string `json:"name"`
}

type classroomResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func (s *Server) handleAddClassroom(w http.ResponseWriter, r *http.Request) {
	var req addClassroomRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}

	classroom, err := s.svc.AddClassroom(r.Context(), req.Name)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, classroomResponse{ID: classroom.ID, Name: classroom.Name})
}

type addSubjectRequest struct {
	Name        string `json:"name"`
	Code        *int   `json:"code,omitempty"`
	ClassroomID string `json:"classroomId"`
}

type subjectResponse struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Code        *int    `json:"code,omitempty"`
	ClassroomID string  `json:"classroomId"`
	TeacherID   *string `json:"teacherId,omitempty"`
}

func (s *Server) handleAddSubject(w http.ResponseWriter, r *http.Request) {
	var req addSubjectRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}

	subject, err := s.svc.AddSubject(r.Context(), service.AddSubjectInput{
		Name:        req.Name,
		Code:        req.Code,
		ClassroomID: req.ClassroomID,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, mapSubject(subject))
}

type assignTeacherRequest struct {
	SubjectID string `json:"subjectId"`
	TeacherID string `json:"teacherId"`
}

func (s *Server) handleAssignTeacher(w http.ResponseWriter, r *http.Request) {
	var req assignTeacherRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}

	subject, err := s.svc.AssignTeacher(r.Context(), req.SubjectID, req.TeacherID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, mapSubject(subject))
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	dashboard, err := s.svc.DashboardReport(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	writeJSON(w, http.StatusOK, dashboard)
}

// Bulk import

type importResponse struct {
	SuccessCount  int                  `json:"successCount"`
	FailedCount   int                  `json:"failedCount"`
	FailedRecords []service.RowFailure `json:"failedRecords"`
}

func (s *Server) handleBulkRegisterStudents(w http.ResponseWriter, r *http.Request) {
	s.handleBulkRegister(w, r, s.svc.ImportStudents)
}

func (s *Server) handleBulkRegisterTeachers(w http.ResponseWriter, r *http.Request) {
	s.handleBulkRegister(w, r, s.svc.ImportTeachers)
}

func (s *Server) handleBulkRegister(w http.ResponseWriter, r *http.Request, run func(context.Context, []map[string]string) (service.ImportReport, error)) {
	if err := r.ParseMultipartForm(s.cfg.MaxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "file_required")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "file_required")
		return
	}
	defer file.Close()

	rows, err := sheet.Parse(header.Filename, file)
	if err != nil {
		if errors.Is(err, sheet.ErrUnsupportedFormat) {
			writeError(w, http.StatusBadRequest, "unsupported_format")
			return
		}
		writeError(w, http.StatusBadRequest, "unreadable_file")
		return
	}

	report, err := run(r.Context(), rows)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	writeJSON(w, http.StatusCreated, importResponse{
		SuccessCount:  report.SuccessCount(),
		FailedCount:   report.FailureCount(),
		FailedRecords: report.Failed,
	})
}

// Helpers

func mapSubject(subject model.Subject) subjectResponse {
	return subjectResponse{
		ID:          subject.ID,
		Name:        subject.Name,
		Code:        subject.Code,
		ClassroomID: subject.ClassroomID,
		TeacherID:   subject.TeacherID,
	}
}

// writeServiceError maps the service error taxonomy onto status codes.
// Missing fields are a 400, not the 404 the legacy API used.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrValidation):
		writeError(w, http.StatusBadRequest, "missing_fields")
	case errors.Is(err, service.ErrDuplicateIdentity):
		writeError(w, http.StatusConflict, "email_exists")
	case errors.Is(err, service.ErrDuplicate):
		writeError(w, http.StatusConflict, "already_exists")
	case errors.Is(err, service.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found")
	case errors.Is(err, service.ErrRoleMismatch):
		writeError(w, http.StatusBadRequest, "role_mismatch")
	default:
		writeError(w, http.StatusInternalServerError, "server_error")
	}
}

func decodeJSON(r *http.Request, out interface{}) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(out)
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, code string) {
	writeJSON(w, status, map[string]string{"error": code})
}

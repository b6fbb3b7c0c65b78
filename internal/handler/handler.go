package handler

import (
	"encoding/json"
	"net/http"
	"path/filepath"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/yingshengwanyue/zhouzhou/internal/middleware"
	"github.com/yingshengwanyue/zhouzhou/internal/service"
	"github.com/yingshengwanyue/zhouzhou/internal/session"
	"github.com/yingshengwanyue/zhouzhou/internal/upload"
)

// Handler translates HTTP requests into store operations and domain
// outcomes into status codes. It is the only layer that speaks HTTP.
type Handler struct {
	svc        *service.Service
	sessions   session.Store
	saver      *upload.Saver
	log        *logrus.Logger
	cookieName string
	sessionTTL time.Duration
	sliding    bool
	staticDir  string
}

// NewHandler initializes the HTTP handler layer.
func NewHandler(svc *service.Service, sessions session.Store, saver *upload.Saver, log *logrus.Logger, cookieName string, sessionTTL time.Duration, sliding bool, staticDir string) *Handler {
	return &Handler{
		svc:        svc,
		sessions:   sessions,
		saver:      saver,
		log:        log,
		cookieName: cookieName,
		sessionTTL: sessionTTL,
		sliding:    sliding,
		staticDir:  staticDir,
	}
}

// RegisterRoutes wires the public surface, the gated API subrouter and the
// static content routes onto the router. Login is registered before the
// gated subrouter so it bypasses the gate.
func RegisterRoutes(r *mux.Router, h *Handler, gate mux.MiddlewareFunc, uploadDir string) {
	// Public routes
	r.HandleFunc("/api/login", h.Login).Methods("POST")
	r.HandleFunc("/login", h.LoginPage).Methods("GET")

	// Uploaded images are served as static paths under the public prefix.
	r.PathPrefix("/images/").Handler(
		http.StripPrefix("/images/", http.FileServer(http.Dir(uploadDir))))
	r.PathPrefix("/js/").Handler(http.FileServer(http.Dir(h.staticDir)))
	r.PathPrefix("/css/").Handler(http.FileServer(http.Dir(h.staticDir)))

	// Protected API routes
	api := r.PathPrefix("/api").Subrouter()
	api.Use(gate)
	api.HandleFunc("/logout", h.Logout).Methods("POST")
	api.HandleFunc("/users", h.CreateUser).Methods("POST")
	api.HandleFunc("/diaries", h.ListDiaries).Methods("GET")
	api.HandleFunc("/diaries", h.CreateDiary).Methods("POST")
	api.HandleFunc("/diaries/search/{query}", h.SearchDiaries).Methods("GET")
	api.HandleFunc("/diaries/{id}", h.GetDiary).Methods("GET")
	api.HandleFunc("/diaries/{id}", h.UpdateDiary).Methods("PUT")
	api.HandleFunc("/diaries/{id}", h.DeleteDiary).Methods("DELETE")

	// Application shell: the gate redirects unauthenticated visitors to
	// the login page.
	r.Handle("/", gate(http.HandlerFunc(h.Index))).Methods("GET")
}

// Login authenticates credentials and establishes a session.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "username and password are required")
		return
	}
	if req.Username == "" || req.Password == "" {
		h.respondError(w, http.StatusBadRequest, "username and password are required")
		return
	}

	user, err := h.svc.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		h.respondDomainError(w, err)
		return
	}

	token, err := h.sessions.Create(r.Context(), user.ID, user.Username)
	if err != nil {
		h.log.Errorf("Failed to create session: %v", err)
		h.respondError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	cookie := &http.Cookie{
		Name:     h.cookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	if !h.sliding {
		// A sliding session is refreshed server side on every request, so
		// the cookie must not carry the initial lifetime.
		cookie.MaxAge = int(h.sessionTTL.Seconds())
	}
	http.SetCookie(w, cookie)
	h.respondJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "login successful",
	})
}

// Logout tears the session down and clears the cookie.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(h.cookieName); err == nil && cookie.Value != "" {
		if err := h.sessions.Delete(r.Context(), cookie.Value); err != nil {
			h.log.Errorf("Failed to tear down session: %v", err)
			h.respondError(w, http.StatusInternalServerError, "logout failed")
			return
		}
		if name, ok := middleware.Username(r.Context()); ok {
			h.log.WithField("username", name).Info("User logged out")
		}
	}

	http.SetCookie(w, &http.Cookie{
		Name:     h.cookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	h.respondJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "logged out",
	})
}

// CreateUser provisions an additional account. Administrative: callers
// must already hold a session.
func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "username and password are required")
		return
	}

	id, err := h.svc.CreateUser(r.Context(), req.Username, req.Password)
	if err != nil {
		h.respondDomainError(w, err)
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"id":      id,
	})
}

// Index serves the application shell for authenticated visitors.
func (h *Handler) Index(w http.ResponseWriter, r *http.Request) {
	http.ServeFile(w, r, filepath.Join(h.staticDir, "index.html"))
}

// LoginPage serves the login form.
func (h *Handler) LoginPage(w http.ResponseWriter, r *http.Request) {
	http.ServeFile(w, r, filepath.Join(h.staticDir, "login.html"))
}

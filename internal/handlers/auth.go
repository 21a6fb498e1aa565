package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/dealflow/dealflow/internal/auth"
	"github.com/dealflow/dealflow/internal/httpx"
	"github.com/dealflow/dealflow/internal/logger"
	"github.com/dealflow/dealflow/internal/metrics"
	"github.com/dealflow/dealflow/internal/services"
	"github.com/dealflow/dealflow/internal/validation"
	"go.uber.org/zap"
)

const minPasswordLen = 4

type AuthHandler struct {
	users    *services.UserService
	sessions *auth.Manager
	metrics  *metrics.Metrics
}

func NewAuthHandler(users *services.UserService, sessions *auth.Manager, m *metrics.Metrics) *AuthHandler {
	return &AuthHandler{users: users, sessions: sessions, metrics: m}
}

func (h *AuthHandler) Register(mux *http.ServeMux, protect Middleware) {
	mux.HandleFunc("GET /login", h.LoginForm)
	mux.HandleFunc("POST /login", h.Login)
	mux.HandleFunc("GET /logout", h.Logout)
	mux.HandleFunc("POST /logout", h.Logout)
	mux.HandleFunc("GET /register", h.RegisterForm)
	mux.HandleFunc("POST /register", h.CreateAccount)
	mux.Handle("GET /password", protect(http.HandlerFunc(h.PasswordForm)))
	mux.Handle("POST /password", protect(http.HandlerFunc(h.ChangePassword)))
}

func (h *AuthHandler) LoginForm(w http.ResponseWriter, r *http.Request) {
	if _, ok := auth.UserIDFromContext(r.Context()); ok {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	render(w, r, http.StatusOK, "login.html", nil)
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var username, password string
	if isJSONBody(r) {
		var in struct {
			Username string `json:"username"`
			Password string `json:"password"`
		}
		if err := decodeJSON(r, &in); err != nil {
			httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
			return
		}
		username, password = in.Username, in.Password
	} else {
		username, password = strings.TrimSpace(r.FormValue("username")), r.FormValue("password")
	}

	if username == "" || password == "" {
		h.loginFailed(w, r, username, "Informe usuário e senha.")
		return
	}
	user, err := h.users.Authenticate(r.Context(), username, password)
	if err != nil {
		if !errors.Is(err, services.ErrInvalidCredentials) {
			serverError(w, r, "authenticate", err)
			return
		}
		h.metrics.Login(false)
		h.loginFailed(w, r, username, "Usuário ou senha inválidos.")
		return
	}
	h.metrics.Login(true)
	token, err := h.sessions.CreateSession(w, user.ID, user.Username)
	if err != nil {
		serverError(w, r, "create session", err)
		return
	}
	logger.FromContext(r.Context()).Info("user logged in", zap.String("username", user.Username))
	if httpx.WantsJSON(r) {
		httpx.JSON(w, http.StatusOK, map[string]any{"token": token, "user": user})
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *AuthHandler) loginFailed(w http.ResponseWriter, r *http.Request, username, msg string) {
	if httpx.WantsJSON(r) {
		httpx.JSONError(w, http.StatusUnauthorized, "invalid_credentials", nil)
		return
	}
	render(w, r, http.StatusUnauthorized, "login.html", map[string]any{"Error": msg, "Username": username})
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.Logout(w, r); err != nil {
		logger.FromContext(r.Context()).Warn("revoke session", zap.Error(err))
	}
	if httpx.WantsJSON(r) {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

func (h *AuthHandler) RegisterForm(w http.ResponseWriter, r *http.Request) {
	render(w, r, http.StatusOK, "register.html", nil)
}

// CreateAccount handles POST /register.
func (h *AuthHandler) CreateAccount(w http.ResponseWriter, r *http.Request) {
	username := strings.TrimSpace(r.FormValue("username"))
	password := r.FormValue("password")
	v := validation.Violations{}
	validation.Required("username", username, v)
	validation.Required("password", password, v)
	if v.Empty() {
		validation.MinLen("password", password, minPasswordLen, v)
	}
	if !v.Empty() {
		h.registerFailed(w, r, username, v)
		return
	}
	user, err := h.users.CreateUser(r.Context(), username, password)
	switch {
	case errors.Is(err, services.ErrUserExists):
		h.registerFailed(w, r, username, validation.Violations{"username": "taken"})
		return
	case validation.FromError(err, v):
		h.registerFailed(w, r, username, v)
		return
	case err != nil:
		serverError(w, r, "create user", err)
		return
	}
	logger.FromContext(r.Context()).Info("user registered", zap.String("username", user.Username))
	done(w, r, http.StatusCreated, user, "Usuário cadastrado. Faça login.", "/login")
}

func (h *AuthHandler) registerFailed(w http.ResponseWriter, r *http.Request, username string, v validation.Violations) {
	if httpx.WantsJSON(r) {
		status := http.StatusBadRequest
		if v["username"] == "taken" {
			status = http.StatusConflict
		}
		httpx.JSONError(w, status, "validation_failed", v)
		return
	}
	render(w, r, http.StatusBadRequest, "register.html", map[string]any{"Errors": v, "Username": username})
}

func (h *AuthHandler) PasswordForm(w http.ResponseWriter, r *http.Request) {
	render(w, r, http.StatusOK, "password.html", nil)
}

// ChangePassword handles POST /password for the logged in user.
func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	username := auth.UsernameFromContext(r.Context())
	current := r.FormValue("current")
	newPass := r.FormValue("new")
	confirm := r.FormValue("confirm")

	v := validation.Violations{}
	if !h.users.ValidateCredentials(r.Context(), username, current) {
		v["current"] = "invalid_credentials"
	}
	validation.MinLen("new", newPass, minPasswordLen, v)
	if newPass != confirm {
		v["confirm"] = "mismatch"
	}
	if !v.Empty() {
		if httpx.WantsJSON(r) {
			httpx.JSONError(w, http.StatusBadRequest, "validation_failed", v)
			return
		}
		render(w, r, http.StatusBadRequest, "password.html", map[string]any{"Errors": v})
		return
	}
	if err := h.users.ChangePassword(r.Context(), username, newPass); err != nil {
		fail(w, r, "change password", err)
		return
	}
	done(w, r, http.StatusOK, map[string]string{"status": "ok"}, "Senha alterada.", "/")
}

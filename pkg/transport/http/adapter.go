package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/ayhamallaham/testapp/pkg/api"
	"github.com/ayhamallaham/testapp/pkg/auth"
	"github.com/ayhamallaham/testapp/pkg/transport"
	"github.com/ayhamallaham/testapp/pkg/users"
)

// Adapter serves the user API over HTTP. It decodes requests, dispatches
// them to the UserService and encodes the results. Access control is not
// its concern: the gate middleware runs in front of it.
type Adapter struct {
	svc    transport.UserService
	mux    *http.ServeMux
	config Config
}

// Config holds configuration for the HTTP adapter.
type Config struct {
	BasePath    string
	MaxBodySize int64
}

// DefaultConfig returns the default adapter configuration.
func DefaultConfig() Config {
	return Config{
		BasePath:    "/api",
		MaxBodySize: 1 << 20, // 1 MiB
	}
}

// NewAdapter creates an HTTP adapter for svc.
func NewAdapter(svc transport.UserService, cfg Config) *Adapter {
	if cfg.MaxBodySize <= 0 {
		cfg.MaxBodySize = DefaultConfig().MaxBodySize
	}
	cfg.BasePath = strings.TrimSuffix(cfg.BasePath, "/")

	a := &Adapter{
		svc:    svc,
		mux:    http.NewServeMux(),
		config: cfg,
	}

	base := cfg.BasePath
	a.mux.HandleFunc("POST "+base+"/users/register", a.handleRegister)
	a.mux.HandleFunc("POST "+base+"/users/login", a.handleLogin)
	a.mux.HandleFunc("POST "+base+"/users/logout", a.handleLogout)
	a.mux.HandleFunc("GET "+base+"/users/me", a.handleMe)
	a.mux.HandleFunc("GET "+base+"/users/{id}", a.handleGetUser)
	a.mux.HandleFunc("GET "+base+"/users", a.handleListUsers)
	a.mux.HandleFunc("PATCH "+base+"/users/{id}", a.handleUpdateUser)
	a.mux.HandleFunc("PUT "+base+"/users/{id}", a.handleUpdateUser)
	a.mux.HandleFunc("DELETE "+base+"/users/{id}", a.handleDeleteUser)

	return a
}

// Handler returns the http.Handler for this adapter.
func (a *Adapter) Handler() http.Handler {
	return a.mux
}

// handleRegister handles POST /users/register.
func (a *Adapter) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req api.RegisterUserRequest
	if !a.decode(w, r, &req) {
		return
	}
	if req.ID != nil {
		transport.WriteErrorResponse(w,
			&api.APIError{Type: api.ErrorTypeInvalidRequest, Code: "idexists", Param: "id", Message: "a new user cannot already have an ID"},
			http.StatusBadRequest,
		)
		return
	}

	u, err := a.svc.Register(r.Context(), users.RegisterRequest{
		Username: req.Username,
		Password: req.Password,
		Email:    req.Email,
	})
	if err != nil {
		transport.WriteError(w, r, err)
		return
	}

	w.Header().Set("Location", a.config.BasePath+"/users/"+strconv.FormatInt(u.ID, 10))
	writeJSON(w, http.StatusCreated, u.View())
}

// handleLogin handles POST /users/login. The token is returned as plain text.
func (a *Adapter) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req api.LoginRequest
	if !a.decode(w, r, &req) {
		return
	}

	tok, err := a.svc.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		transport.WriteError(w, r, err)
		return
	}
	writeText(w, http.StatusOK, tok)
}

// handleLogout handles POST /users/logout. The token named in the body is
// the one invalidated; the Authorization header only has to pass the gate.
func (a *Adapter) handleLogout(w http.ResponseWriter, r *http.Request) {
	var req api.LogoutRequest
	if !a.decode(w, r, &req) {
		return
	}

	if err := a.svc.Logout(r.Context(), req.Token); err != nil {
		transport.WriteError(w, r, err)
		return
	}
	writeText(w, http.StatusOK, "Success")
}

// handleMe handles GET /users/me, returning the caller's own record.
func (a *Adapter) handleMe(w http.ResponseWriter, r *http.Request) {
	identity := auth.IdentityFromContext(r.Context())
	if identity == nil {
		transport.WriteErrorResponse(w, api.NewForbiddenError(auth.ErrForbidden.Error()), http.StatusForbidden)
		return
	}
	id, ok := api.ParseIdentifier(identity.Subject)
	if !ok {
		transport.WriteErrorResponse(w, api.NewForbiddenError(auth.ErrForbidden.Error()), http.StatusForbidden)
		return
	}

	u, err := a.svc.Get(r.Context(), id)
	if err != nil {
		transport.WriteError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, u.View())
}

// handleGetUser handles GET /users/{id}.
func (a *Adapter) handleGetUser(w http.ResponseWriter, r *http.Request) {
	id, ok := a.pathID(w, r)
	if !ok {
		return
	}

	u, err := a.svc.Get(r.Context(), id)
	if err != nil {
		transport.WriteError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, u.View())
}

// handleListUsers handles GET /users.
func (a *Adapter) handleListUsers(w http.ResponseWriter, r *http.Request) {
	list, err := a.svc.List(r.Context())
	if err != nil {
		transport.WriteError(w, r, err)
		return
	}

	views := make([]*api.UserView, 0, len(list))
	for _, u := range list {
		views = append(views, u.View())
	}
	writeJSON(w, http.StatusOK, views)
}

// handleUpdateUser handles PATCH and PUT /users/{id}. Both apply the same
// partial update: absent fields are left unchanged and the token is never
// touched.
func (a *Adapter) handleUpdateUser(w http.ResponseWriter, r *http.Request) {
	id, ok := a.pathID(w, r)
	if !ok {
		return
	}

	var req api.UpdateUserRequest
	if !a.decode(w, r, &req) {
		return
	}

	u, err := a.svc.UpdateProfile(r.Context(), id, users.UpdateRequest{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		transport.WriteError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, u.View())
}

// handleDeleteUser handles DELETE /users/{id}.
func (a *Adapter) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	id, ok := a.pathID(w, r)
	if !ok {
		return
	}

	if err := a.svc.Delete(r.Context(), id); err != nil {
		transport.WriteError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// pathID parses the {id} path value, writing a 400 when it is malformed.
func (a *Adapter) pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, ok := api.ParseIdentifier(r.PathValue("id"))
	if !ok {
		transport.WriteErrorResponse(w,
			api.NewInvalidRequestError("id", "malformed user ID"),
			http.StatusBadRequest,
		)
		return 0, false
	}
	return id, true
}

// decode reads a JSON body into v. It enforces the body size limit and
// rejects unknown fields and trailing data. On failure the error response
// has been written and false is returned.
func (a *Adapter) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	ct := r.Header.Get("Content-Type")
	if ct != "" && !strings.HasPrefix(ct, "application/json") {
		transport.WriteErrorResponse(w,
			api.NewInvalidRequestError("content_type", "Content-Type must be application/json"),
			http.StatusUnsupportedMediaType,
		)
		return false
	}

	r.Body = http.MaxBytesReader(w, r.Body, a.config.MaxBodySize)

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	err := dec.Decode(v)
	if err == nil && dec.More() {
		err = errors.New("unexpected data after JSON object")
	}
	if err == nil {
		return true
	}

	var maxBytesErr *http.MaxBytesError
	switch {
	case errors.As(err, &maxBytesErr):
		transport.WriteErrorResponse(w,
			api.NewInvalidRequestError("body", fmt.Sprintf("request body too large (max %d bytes)", a.config.MaxBodySize)),
			http.StatusRequestEntityTooLarge,
		)
	case errors.Is(err, io.EOF):
		transport.WriteErrorResponse(w,
			api.NewInvalidRequestError("body", "request body is required"),
			http.StatusBadRequest,
		)
	default:
		transport.WriteErrorResponse(w,
			api.NewInvalidRequestError("body", "invalid JSON: "+err.Error()),
			http.StatusBadRequest,
		)
	}
	return false
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeText(w http.ResponseWriter, status int, s string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	io.WriteString(w, s)
}

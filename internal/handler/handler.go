package handler

import (
	"encoding/json"
	"net/http"

	"github.com/Dan9191/auth-service/internal/middleware"
	"github.com/Dan9191/auth-service/internal/models"
	"github.com/Dan9191/auth-service/internal/service"
	"github.com/Dan9191/auth-service/internal/utils/httpresp"
	"github.com/gorilla/mux"
	"github.com/samber/oops"
	"github.com/sirupsen/logrus"
)

const maxBodyBytes = 1 << 20

type Handler struct {
	svc *service.Service
	log *logrus.Logger
}

func NewHandler(svc *service.Service, log *logrus.Logger) *Handler {
	return &Handler{svc: svc, log: log}
}

// Mount registers the /auth routes on r
func (h *Handler) Mount(r *mux.Router) {
	// Public routes
	r.HandleFunc("/auth/login", h.Login).Methods(http.MethodPost)
	r.HandleFunc("/auth/register", h.Register).Methods(http.MethodPost)
	r.HandleFunc("/auth", h.Create).Methods(http.MethodPost)

	// Protected routes
	protected := r.NewRoute().Subrouter()
	protected.Use(middleware.AuthMiddleware(h.svc, h.log))
	protected.HandleFunc("/auth", h.CurrentUser).Methods(http.MethodGet)
	protected.HandleFunc("/auth/check-token", h.CheckToken).Methods(http.MethodGet)
}

// Login handles user authentication
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var in models.LoginInput
	if !h.decode(w, r, &in) {
		return
	}
	res, err := h.svc.Login(r.Context(), in)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httpresp.JSON(w, http.StatusOK, res)
}

// Register handles user registration and returns the user with a token
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var in models.CreateUserInput
	if !h.decode(w, r, &in) {
		return
	}
	res, err := h.svc.Register(r.Context(), in)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httpresp.JSON(w, http.StatusOK, res)
}

// Create handles user creation without issuing a token
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var in models.CreateUserInput
	if !h.decode(w, r, &in) {
		return
	}
	user, err := h.svc.Create(r.Context(), in)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httpresp.JSON(w, http.StatusOK, user)
}

// CurrentUser returns the user resolved by the auth middleware
func (h *Handler) CurrentUser(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		httpresp.Error(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	httpresp.JSON(w, http.StatusOK, user.View())
}

// CheckToken re-issues a token for the authenticated user
func (h *Handler) CheckToken(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		httpresp.Error(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	token, err := h.svc.IssueToken(user.ID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httpresp.JSON(w, http.StatusOK, models.AuthResult{User: user.View(), Token: token})
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(v); err != nil {
		h.log.WithField("path", r.URL.Path).Debugf("Invalid payload: %v", err)
		httpresp.Error(w, http.StatusBadRequest, "invalid payload")
		return false
	}
	return true
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	entry := h.log.WithField("path", r.URL.Path)
	if status >= http.StatusInternalServerError {
		if oopsErr, ok := oops.AsOops(err); ok {
			entry = entry.WithFields(logrus.Fields(oopsErr.Context()))
		}
		entry.WithError(err).Error("Request failed")
		httpresp.Error(w, status, "Internal server error")
		return
	}
	entry.Debugf("Request rejected: %v", err)
	httpresp.Error(w, status, err.Error())
}

func statusFor(err error) int {
	oopsErr, ok := oops.AsOops(err)
	if !ok {
		return http.StatusInternalServerError
	}
	switch oopsErr.Code() {
	case service.CodeInvalidCredentials, service.CodeUnauthorized:
		return http.StatusUnauthorized
	case service.CodeDuplicateEntity, service.CodeValidation:
		return http.StatusBadRequest
	case service.CodeNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

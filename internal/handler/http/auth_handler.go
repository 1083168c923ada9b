package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"
	"github.com/vasiliy-maslov/laundry-service/internal/auth"
)

// Field presence is checked by auth.Service so failures carry auth codes.
type SignUpRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Password string `json:"password"`
}

type SignInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type ProfileRequest struct {
	Name    string `json:"name" validate:"required"`
	Phone   string `json:"phone"`
	Email   string `json:"email" validate:"required,email"`
	Address string `json:"address"`
}

type AuthErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

type AuthHandler struct {
	service  auth.Service
	validate *validator.Validate
}

func NewAuthHandler(service auth.Service) *AuthHandler {
	return &AuthHandler{
		service:  service,
		validate: validator.New(),
	}
}

// RegisterPublicRoutes mounts the routes reachable without a session.
func (h *AuthHandler) RegisterPublicRoutes(router chi.Router) {
	router.Post("/auth/signup", h.handleSignUp)
	router.Post("/auth/signin", h.handleSignIn)
}

func (h *AuthHandler) RegisterRoutes(router chi.Router) {
	router.Post("/auth/signout", h.handleSignOut)
	router.Get("/profile", h.handleGetProfile)
	router.Put("/profile", h.handleUpdateProfile)
	router.Post("/profile/avatar", h.handleUploadAvatar)
}

func respondWithAuthError(w http.ResponseWriter, err error) {
	code := mapErrorToStatusCode(err)
	if code == http.StatusInternalServerError {
		log.Error().Err(err).Msg("Auth request failed")
	}
	respondWithJSON(w, code, AuthErrorResponse{Error: auth.Message(err), Code: auth.Code(err)})
}

func (h *AuthHandler) handleSignUp(w http.ResponseWriter, r *http.Request) {
	var req SignUpRequest
	if !decodeAndValidate(w, r, h.validate, &req) {
		return
	}

	result, err := h.service.SignUp(r.Context(), auth.SignUpInput{
		Name:     req.Name,
		Email:    req.Email,
		Phone:    req.Phone,
		Password: req.Password,
	})
	if err != nil {
		respondWithAuthError(w, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, result)
}

func (h *AuthHandler) handleSignIn(w http.ResponseWriter, r *http.Request) {
	var req SignInRequest
	if !decodeAndValidate(w, r, h.validate, &req) {
		return
	}

	result, err := h.service.SignIn(r.Context(), req.Email, req.Password)
	if err != nil {
		respondWithAuthError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, result)
}

// Tokens are stateless; signing out only tells the client to drop its token.
func (h *AuthHandler) handleSignOut(w http.ResponseWriter, r *http.Request) {
	if sess, ok := currentSession(w, r); ok {
		log.Info().Stringer("owner_id", sess.OwnerID).Msg("User signed out")
		w.WriteHeader(http.StatusNoContent)
	}
}

func (h *AuthHandler) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	sess, ok := currentSession(w, r)
	if !ok {
		return
	}
	u, err := h.service.Profile(r.Context(), sess)
	if err != nil {
		respondWithServiceError(w, err, "Failed to get profile")
		return
	}
	respondWithJSON(w, http.StatusOK, u)
}

func (h *AuthHandler) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	sess, ok := currentSession(w, r)
	if !ok {
		return
	}
	var req ProfileRequest
	if !decodeAndValidate(w, r, h.validate, &req) {
		return
	}

	u, err := h.service.UpdateProfile(r.Context(), sess, auth.ProfileUpdate{
		Name:    req.Name,
		Phone:   req.Phone,
		Email:   req.Email,
		Address: req.Address,
	})
	if err != nil {
		respondWithAuthError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, u)
}

func (h *AuthHandler) handleUploadAvatar(w http.ResponseWriter, r *http.Request) {
	sess, ok := currentSession(w, r)
	if !ok {
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	file, _, err := r.FormFile("photo")
	if err != nil {
		log.Warn().Err(err).Msg("Failed to read avatar upload")
		respondWithError(w, http.StatusBadRequest, "Photo file is required")
		return
	}
	defer file.Close()

	u, err := h.service.UploadAvatar(r.Context(), sess, file)
	if err != nil {
		respondWithServiceError(w, err, "Failed to upload avatar")
		return
	}
	respondWithJSON(w, http.StatusOK, u)
}

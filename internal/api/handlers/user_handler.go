package handlers

import (
	"net/http"

	"github.com/julienschmidt/httprouter"
	"github.com/rs/zerolog/log"

	apiContext "errdeck/internal/api/context"
	"errdeck/internal/pkg/errors"
	"errdeck/internal/pkg/jsonapi"
	"errdeck/internal/platform/auth"
	"errdeck/internal/platform/models"
	"errdeck/internal/platform/storage"
)

const internalErrorMessage = "An internal server error occurred"

// UserHandler serves the account endpoints. The authenticated principal is
// read from JWT claims placed in context by the auth middleware.
type UserHandler struct {
	store    storage.Storage
	tokenSvc *auth.TokenService
}

func NewUserHandler(store storage.Storage, tokenSvc *auth.TokenService) *UserHandler {
	return &UserHandler{store: store, tokenSvc: tokenSvc}
}

type userWithToken struct {
	models.User
	Token string `json:"token"`
}

// Create bootstraps the one admin account. It only succeeds while the user
// count is zero; after that the deployment's admin adds users via Add.
func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
		Role     string `json:"role"`
	}
	if err := jsonapi.DecodeAttributes(r, &req); err != nil {
		errors.WriteError(w, http.StatusBadRequest, errors.KindBadRequest, "Invalid request body")
		return
	}
	if req.Email == "" || req.Password == "" {
		errors.WriteError(w, http.StatusBadRequest, errors.KindBadRequest, "Email and password are required")
		return
	}

	count, err := h.store.GetUserCount(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("failed to count users")
		errors.WriteInternal(w, err)
		return
	}
	if count > 0 {
		errors.WriteError(w, http.StatusConflict, errors.KindConflict, "Main account already created")
		return
	}

	if req.Role == "" {
		req.Role = models.RoleAdmin
	}

	user, err := h.store.CreateUser(r.Context(), &models.User{
		Name:  req.Name,
		Email: req.Email,
		Role:  req.Role,
	}, req.Password)
	if err != nil || user == nil {
		log.Error().Err(err).Msg("failed to create user")
		errors.WriteError(w, http.StatusInternalServerError, errors.KindInternal, internalErrorMessage)
		return
	}

	token, err := h.tokenSvc.GenerateToken(r.Context(), user)
	if err != nil {
		log.Error().Err(err).Msg("failed to generate token")
		errors.WriteError(w, http.StatusInternalServerError, errors.KindInternal, internalErrorMessage)
		return
	}

	jsonapi.Write(w, http.StatusCreated, jsonapi.TypeUser, user.ID, userWithToken{User: *user, Token: token})
}

func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := jsonapi.DecodeAttributes(r, &req); err != nil {
		errors.WriteError(w, http.StatusBadRequest, errors.KindBadRequest, "Invalid request body")
		return
	}
	if req.Email == "" || req.Password == "" {
		errors.WriteError(w, http.StatusBadRequest, errors.KindBadRequest, "Email and password are required")
		return
	}

	user, err := h.store.VerifyUser(r.Context(), req.Email, req.Password)
	if err != nil {
		log.Error().Err(err).Msg("failed to verify user")
		errors.WriteInternal(w, err)
		return
	}
	if user == nil {
		errors.WriteError(w, http.StatusUnauthorized, errors.KindUnauthorized, "Invalid email or password.")
		return
	}

	token, err := h.tokenSvc.GenerateToken(r.Context(), user)
	if err != nil {
		log.Error().Err(err).Msg("failed to generate token")
		errors.WriteError(w, http.StatusInternalServerError, errors.KindInternal, internalErrorMessage)
		return
	}

	jsonapi.Write(w, http.StatusOK, jsonapi.TypeUser, user.ID, userWithToken{User: *user, Token: token})
}

func (h *UserHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	claims := principal(r)
	if claims == nil || claims.Email == "" {
		errors.WriteError(w, http.StatusBadRequest, errors.KindBadRequest, "Authenticated user email is missing")
		return
	}

	user, err := h.store.GetUserByEmail(r.Context(), claims.Email)
	if err != nil {
		errors.WriteInternal(w, err)
		return
	}
	if user == nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.KindInternal, internalErrorMessage)
		return
	}
	jsonapi.Write(w, http.StatusOK, jsonapi.TypeUser, user.ID, user)
}

func (h *UserHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	claims := principal(r)
	if claims == nil || claims.Email == "" {
		errors.WriteError(w, http.StatusBadRequest, errors.KindBadRequest, "Authenticated user email is missing")
		return
	}

	var req struct {
		Name string `json:"name"`
	}
	if err := jsonapi.DecodeAttributes(r, &req); err != nil || req.Name == "" {
		errors.WriteError(w, http.StatusBadRequest, errors.KindBadRequest, "Name is required")
		return
	}

	user, err := h.store.UpdateUserByEmail(r.Context(), claims.Email, req.Name)
	if err != nil || user == nil {
		errors.WriteInternal(w, err)
		return
	}
	jsonapi.Write(w, http.StatusOK, jsonapi.TypeUser, user.ID, user)
}

func (h *UserHandler) UpdatePassword(w http.ResponseWriter, r *http.Request) {
	claims := principal(r)
	if claims == nil || claims.Email == "" {
		errors.WriteError(w, http.StatusBadRequest, errors.KindBadRequest, "Authenticated user email is missing")
		return
	}

	var req struct {
		CurrentPassword string `json:"current_password"`
		NewPassword     string `json:"new_password"`
	}
	if err := jsonapi.DecodeAttributes(r, &req); err != nil {
		errors.WriteError(w, http.StatusBadRequest, errors.KindBadRequest, "Invalid request body")
		return
	}
	if req.CurrentPassword == "" || req.NewPassword == "" {
		errors.WriteError(w, http.StatusBadRequest, errors.KindBadRequest, "Current and new password are required")
		return
	}

	user, err := h.store.UpdatePassword(r.Context(), claims.Email, req.CurrentPassword, req.NewPassword)
	if err != nil || user == nil {
		errors.WriteInternal(w, err)
		return
	}
	jsonapi.Write(w, http.StatusOK, jsonapi.TypeUser, user.ID, user)
}

func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	claims := principal(r)
	if claims == nil || claims.Email == "" {
		errors.WriteError(w, http.StatusBadRequest, errors.KindBadRequest, "Authenticated user email is missing")
		return
	}

	users, err := h.store.GetAllUsers(r.Context())
	if err != nil {
		errors.WriteInternal(w, err)
		return
	}

	resources := make([]jsonapi.Resource, 0, len(users))
	for _, user := range users {
		resources = append(resources, jsonapi.NewResource(jsonapi.TypeUser, user.ID, user))
	}
	jsonapi.WriteList(w, http.StatusOK, resources)
}

func (h *UserHandler) AdminName(w http.ResponseWriter, r *http.Request) {
	users, err := h.store.GetAllUsers(r.Context())
	if err != nil {
		errors.WriteInternal(w, err)
		return
	}

	for _, user := range users {
		if user.Role == models.RoleAdmin {
			jsonapi.Write(w, http.StatusOK, jsonapi.TypeUser, user.ID, struct {
				Name string `json:"name"`
			}{Name: user.Name})
			return
		}
	}
	jsonapi.Write(w, http.StatusOK, jsonapi.TypeUser, "", struct{}{})
}

// Add creates an additional account. Only an admin caller may do this; the
// caller's record is re-fetched so a role change takes effect immediately.
func (h *UserHandler) Add(w http.ResponseWriter, r *http.Request) {
	claims := principal(r)
	if claims == nil || claims.Email == "" {
		errors.WriteError(w, http.StatusBadRequest, errors.KindBadRequest, "Authenticated user email is missing")
		return
	}

	if !h.requireAdmin(w, r, claims.Email) {
		return
	}

	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
		Role     string `json:"role"`
	}
	if err := jsonapi.DecodeAttributes(r, &req); err != nil {
		errors.WriteError(w, http.StatusBadRequest, errors.KindBadRequest, "Invalid request body")
		return
	}
	if req.Email == "" || req.Password == "" || req.Role == "" {
		errors.WriteError(w, http.StatusBadRequest, errors.KindBadRequest, "Email, password and role are required")
		return
	}

	user, err := h.store.CreateUser(r.Context(), &models.User{
		Name:  "User",
		Email: req.Email,
		Role:  req.Role,
	}, req.Password)
	if err != nil || user == nil {
		log.Error().Err(err).Msg("failed to add user")
		errors.WriteError(w, http.StatusInternalServerError, errors.KindInternal, internalErrorMessage)
		return
	}
	jsonapi.Write(w, http.StatusCreated, jsonapi.TypeUser, user.ID, user)
}

func (h *UserHandler) Remove(w http.ResponseWriter, r *http.Request) {
	claims := principal(r)
	if claims == nil || claims.Email == "" {
		errors.WriteError(w, http.StatusBadRequest, errors.KindBadRequest, "Authenticated user email is missing")
		return
	}

	if !h.requireAdmin(w, r, claims.Email) {
		return
	}

	userID := routeParam(r, "user_id")
	if userID == "" {
		errors.WriteError(w, http.StatusBadRequest, errors.KindBadRequest, "User id is required")
		return
	}

	if err := h.store.DeleteUser(r.Context(), userID); err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("failed to remove user")
		errors.WriteError(w, http.StatusInternalServerError, errors.KindInternal, internalErrorMessage)
		return
	}
	jsonapi.Write(w, http.StatusOK, jsonapi.TypeUser, "", messageAttributes{Message: "User removed successfully"})
}

func (h *UserHandler) Count(w http.ResponseWriter, r *http.Request) {
	count, err := h.store.GetUserCount(r.Context())
	if err != nil {
		errors.WriteInternal(w, err)
		return
	}
	jsonapi.Write(w, http.StatusOK, jsonapi.TypeUser, "", struct {
		Count int `json:"count"`
	}{Count: count})
}

// requireAdmin writes a 403 and returns false unless the caller's stored
// record carries the admin role.
func (h *UserHandler) requireAdmin(w http.ResponseWriter, r *http.Request, email string) bool {
	caller, err := h.store.GetUserByEmail(r.Context(), email)
	if err != nil {
		errors.WriteError(w, http.StatusForbidden, errors.KindForbidden, err.Error())
		return false
	}
	if caller == nil || caller.Role != models.RoleAdmin {
		errors.WriteError(w, http.StatusForbidden, errors.KindForbidden, "Not allowed.")
		return false
	}
	return true
}

func principal(r *http.Request) *auth.Claims {
	claims, _ := r.Context().Value(apiContext.Claims).(*auth.Claims)
	return claims
}

func routeParam(r *http.Request, name string) string {
	params, _ := r.Context().Value(apiContext.Params).(httprouter.Params)
	return params.ByName(name)
}

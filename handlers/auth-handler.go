package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"taskflow/services/tasks-service/logging"
	"taskflow/services/tasks-service/models"
	"taskflow/services/tasks-service/services"
)

type AuthHandler struct {
	service *services.AuthService
}

func NewAuthHandler(service *services.AuthService) *AuthHandler {
	return &AuthHandler{service: service}
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var request struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil || request.Email == "" || request.Password == "" {
		writeError(w, fmt.Errorf("%w: email and password are required", models.ErrValidation))
		return
	}

	user, token, err := h.service.Login(r.Context(), request.Email, request.Password)
	if err != nil {
		logging.Logger.Warnf("Event ID: LOGIN_FAILED, Description: Failed login attempt for %s", request.Email)
		writeError(w, err)
		return
	}

	logging.Logger.Infof("Event ID: LOGIN_SUCCESS, Description: User %s logged in", user.Email)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"token":   token,
		"user":    user,
	})
}

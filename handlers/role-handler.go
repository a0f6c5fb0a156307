package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"taskflow/services/tasks-service/middleware"
	"taskflow/services/tasks-service/models"
	"taskflow/services/tasks-service/services"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type RoleHandler struct {
	service *services.RoleService
}

func NewRoleHandler(service *services.RoleService) *RoleHandler {
	return &RoleHandler{service: service}
}

func roleID(r *http.Request) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(mux.Vars(r)["id"])
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("%w: invalid role ID format", models.ErrValidation)
	}
	return id, nil
}

func (h *RoleHandler) GetRoles(w http.ResponseWriter, r *http.Request) {
	roles, err := h.service.ListRoles(r.Context(), middleware.ActorEmail(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "roles": roles})
}

func (h *RoleHandler) GetRole(w http.ResponseWriter, r *http.Request) {
	id, err := roleID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	role, err := h.service.GetRole(r.Context(), middleware.ActorEmail(r), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "role": role})
}

func (h *RoleHandler) CreateRole(w http.ResponseWriter, r *http.Request) {
	var input services.RoleInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, fmt.Errorf("%w: invalid request payload", models.ErrValidation))
		return
	}

	role, err := h.service.CreateRole(r.Context(), middleware.ActorEmail(r), input)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{"success": true, "role": role})
}

func (h *RoleHandler) UpdateRole(w http.ResponseWriter, r *http.Request) {
	id, err := roleID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var input services.RoleInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, fmt.Errorf("%w: invalid request payload", models.ErrValidation))
		return
	}

	role, err := h.service.UpdateRole(r.Context(), middleware.ActorEmail(r), id, input)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "role": role})
}

func (h *RoleHandler) DeleteRole(w http.ResponseWriter, r *http.Request) {
	id, err := roleID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.service.DeleteRole(r.Context(), middleware.ActorEmail(r), id); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "message": "Role deleted successfully"})
}

package handler

import (
	"net/http"

	"pvcaisse/internal/dto"
	"pvcaisse/internal/service"

	"github.com/gin-gonic/gin"
)

type AgencesHandler struct{ svc service.AgenceService }

func NewAgencesHandler(svc service.AgenceService) *AgencesHandler {
	return &AgencesHandler{svc: svc}
}

// Creer godoc
// @Summary Crée une agence
// @Tags agences
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.CreerAgenceRequest true "Agence"
// @Success 201 {object} dto.AgenceResponse
// @Failure 409 {object} apierror.APIError
// @Router /v1/agences [post]
func (h *AgencesHandler) Creer(c *gin.Context) {
	var req dto.CreerAgenceRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Creer(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// Lister godoc
// @Summary Liste les agences
// @Tags agences
// @Produce json
// @Security BearerAuth
// @Param inactives query bool false "Inclure les agences désactivées"
// @Success 200 {array} dto.AgenceResponse
// @Router /v1/agences [get]
func (h *AgencesHandler) Lister(c *gin.Context) {
	resp, err := h.svc.Lister(c.Request.Context(), c.Query("inactives") == "true")
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Obtenir godoc
// @Summary Détail d'une agence
// @Tags agences
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID agence"
// @Success 200 {object} dto.AgenceResponse
// @Failure 404 {object} apierror.APIError
// @Router /v1/agences/{id} [get]
func (h *AgencesHandler) Obtenir(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.Obtenir(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Modifier godoc
// @Summary Modifie une agence
// @Tags agences
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID agence"
// @Param body body dto.ModifierAgenceRequest true "Champs à modifier"
// @Success 200 {object} dto.AgenceResponse
// @Router /v1/agences/{id} [put]
func (h *AgencesHandler) Modifier(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	var req dto.ModifierAgenceRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Modifier(c.Request.Context(), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Desactiver godoc
// @Summary Désactive une agence
// @Tags agences
// @Security BearerAuth
// @Param id path string true "ID agence"
// @Success 204
// @Router /v1/agences/{id} [delete]
func (h *AgencesHandler) Desactiver(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.Desactiver(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

package handler

import (
	"net/http"

	"pvcaisse/internal/dto"
	"pvcaisse/internal/service"

	"github.com/gin-gonic/gin"
)

type ConfigurationHandler struct{ svc service.ConfigurationService }

func NewConfigurationHandler(svc service.ConfigurationService) *ConfigurationHandler {
	return &ConfigurationHandler{svc: svc}
}

// Obtenir godoc
// @Summary Catalogue des opérations et règles de commission
// @Tags configuration
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.ConfigurationResponse
// @Router /v1/configuration [get]
func (h *ConfigurationHandler) Obtenir(c *gin.Context) {
	resp, err := h.svc.Obtenir(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Modifier godoc
// @Summary Remplace le catalogue des opérations
// @Tags configuration
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.ModifierConfigurationRequest true "Catalogue"
// @Success 200 {object} dto.ConfigurationResponse
// @Failure 400 {object} apierror.APIError
// @Router /v1/configuration [put]
func (h *ConfigurationHandler) Modifier(c *gin.Context) {
	var req dto.ModifierConfigurationRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Modifier(c.Request.Context(), acteur(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

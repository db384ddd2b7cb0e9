package handler

import (
	"net/http"

	"pvcaisse/internal/apierror"
	"pvcaisse/internal/dto"
	"pvcaisse/internal/service"

	"github.com/gin-gonic/gin"
)

// CategoriesHandler serves the versement/retrait label catalogue.
type CategoriesHandler struct{ svc service.CategorieService }

func NewCategoriesHandler(svc service.CategorieService) *CategoriesHandler {
	return &CategoriesHandler{svc: svc}
}

// Lister godoc
// @Summary Liste les catégories actives
// @Tags categories
// @Produce json
// @Security BearerAuth
// @Param type query string false "versement | retrait"
// @Success 200 {array} dto.CategorieResponse
// @Router /v1/categories [get]
func (h *CategoriesHandler) Lister(c *gin.Context) {
	typ := c.Query("type")
	if typ != "" && typ != "versement" && typ != "retrait" {
		c.JSON(http.StatusBadRequest, apierror.New("type doit valoir versement ou retrait"))
		return
	}
	resp, err := h.svc.Lister(c.Request.Context(), typ)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Creer godoc
// @Summary Crée une catégorie
// @Tags categories
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.CreerCategorieRequest true "Catégorie"
// @Success 201 {object} dto.CategorieResponse
// @Failure 409 {object} apierror.APIError
// @Router /v1/categories [post]
func (h *CategoriesHandler) Creer(c *gin.Context) {
	var req dto.CreerCategorieRequest
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

// Modifier godoc
// @Summary Modifie une catégorie
// @Tags categories
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID catégorie"
// @Param body body dto.ModifierCategorieRequest true "Champs à modifier"
// @Success 200 {object} dto.CategorieResponse
// @Router /v1/categories/{id} [put]
func (h *CategoriesHandler) Modifier(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	var req dto.ModifierCategorieRequest
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
// @Summary Désactive une catégorie
// @Tags categories
// @Security BearerAuth
// @Param id path string true "ID catégorie"
// @Success 204
// @Router /v1/categories/{id} [delete]
func (h *CategoriesHandler) Desactiver(c *gin.Context) {
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

package handler

import (
	"net/http"

	"pvcaisse/internal/apierror"
	"pvcaisse/internal/dto"
	"pvcaisse/internal/service"

	"github.com/gin-gonic/gin"
)

type AuthHandler struct{ svc service.AuthService }

func NewAuthHandler(svc service.AuthService) *AuthHandler { return &AuthHandler{svc: svc} }

// Login godoc
// @Summary Connexion utilisateur
// @Tags auth
// @Accept json
// @Produce json
// @Param body body dto.LoginRequest true "Identifiants"
// @Success 200 {object} dto.LoginResponse
// @Failure 401 {object} apierror.APIError
// @Router /v1/auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if !bindAndValidate(c, &req) {
		return
	}

	resp, err := h.svc.Login(c.Request.Context(), req)
	if err != nil {
		c.JSON(http.StatusUnauthorized, apierror.New(err.Error()))
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Refresh godoc
// @Summary Renouvelle le jeton d'accès
// @Tags auth
// @Accept json
// @Produce json
// @Param body body dto.RefreshRequest true "Jeton de rafraîchissement"
// @Success 200 {object} dto.LoginResponse
// @Failure 401 {object} apierror.APIError
// @Router /v1/auth/refresh [post]
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req dto.RefreshRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		c.JSON(http.StatusUnauthorized, apierror.New(err.Error()))
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ── Utilisateurs Handler ─────────────────────────────────────────────────────

type UtilisateursHandler struct{ svc service.AuthService }

func NewUtilisateursHandler(svc service.AuthService) *UtilisateursHandler {
	return &UtilisateursHandler{svc: svc}
}

// Creer godoc
// @Summary Crée un utilisateur
// @Tags utilisateurs
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.CreerUtilisateurRequest true "Utilisateur"
// @Success 201 {object} dto.UtilisateurResponse
// @Failure 409 {object} apierror.APIError
// @Router /v1/utilisateurs [post]
func (h *UtilisateursHandler) Creer(c *gin.Context) {
	var req dto.CreerUtilisateurRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.CreerUtilisateur(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// Lister godoc
// @Summary Liste les utilisateurs
// @Tags utilisateurs
// @Produce json
// @Security BearerAuth
// @Param inactifs query bool false "Inclure les utilisateurs désactivés"
// @Success 200 {array} dto.UtilisateurResponse
// @Router /v1/utilisateurs [get]
func (h *UtilisateursHandler) Lister(c *gin.Context) {
	resp, err := h.svc.ListerUtilisateurs(c.Request.Context(), c.Query("inactifs") == "true")
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Modifier godoc
// @Summary Modifie un utilisateur
// @Tags utilisateurs
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID utilisateur"
// @Param body body dto.ModifierUtilisateurRequest true "Champs à modifier"
// @Success 200 {object} dto.UtilisateurResponse
// @Router /v1/utilisateurs/{id} [put]
func (h *UtilisateursHandler) Modifier(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	var req dto.ModifierUtilisateurRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.ModifierUtilisateur(c.Request.Context(), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Desactiver godoc
// @Summary Désactive un utilisateur
// @Tags utilisateurs
// @Security BearerAuth
// @Param id path string true "ID utilisateur"
// @Success 204
// @Router /v1/utilisateurs/{id} [delete]
func (h *UtilisateursHandler) Desactiver(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	if acteur(c).UtilisateurID == id {
		c.JSON(http.StatusBadRequest, apierror.New("impossible de désactiver son propre compte"))
		return
	}
	if err := h.svc.DesactiverUtilisateur(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Reactiver godoc
// @Summary Réactive un utilisateur
// @Tags utilisateurs
// @Security BearerAuth
// @Param id path string true "ID utilisateur"
// @Success 204
// @Router /v1/utilisateurs/{id}/reactiver [patch]
func (h *UtilisateursHandler) Reactiver(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.ReactiverUtilisateur(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

package handler

import (
	"net/http"

	"pvcaisse/internal/dto"
	"pvcaisse/internal/service"

	"github.com/gin-gonic/gin"
)

type PVHandler struct{ svc service.PVService }

func NewPVHandler(svc service.PVService) *PVHandler { return &PVHandler{svc: svc} }

// Enregistrer godoc
// @Summary Enregistre une nouvelle version du PV du jour
// @Tags pv
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.EnregistrerPVRequest true "Contenu du PV"
// @Success 201 {object} dto.PVResponse
// @Failure 400 {object} apierror.APIError
// @Failure 403 {object} apierror.APIError
// @Failure 422 {object} apierror.ValidationError
// @Router /v1/pv [post]
func (h *PVHandler) Enregistrer(c *gin.Context) {
	var req dto.EnregistrerPVRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Enregistrer(c.Request.Context(), acteur(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// Courant godoc
// @Summary PV courant du jour, ou brouillon avec solde reporté
// @Tags pv
// @Produce json
// @Security BearerAuth
// @Param date query string false "AAAA-MM-JJ (défaut: aujourd'hui)"
// @Param utilisateur_id query string false "Agent (responsable/admin)"
// @Success 200 {object} dto.PVResponse
// @Router /v1/pv/courant [get]
func (h *PVHandler) Courant(c *gin.Context) {
	date, ok := queryDate(c, "date")
	if !ok {
		return
	}
	uid, ok := queryUUID(c, "utilisateur_id")
	if !ok {
		return
	}
	resp, err := h.svc.Courant(c.Request.Context(), acteur(c), uid, date)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Versions godoc
// @Summary Toutes les versions enregistrées d'un jour, la plus récente d'abord
// @Tags pv
// @Produce json
// @Security BearerAuth
// @Param date query string false "AAAA-MM-JJ"
// @Param utilisateur_id query string false "Agent"
// @Success 200 {object} dto.VersionsResponse
// @Router /v1/pv/versions [get]
func (h *PVHandler) Versions(c *gin.Context) {
	date, ok := queryDate(c, "date")
	if !ok {
		return
	}
	uid, ok := queryUUID(c, "utilisateur_id")
	if !ok {
		return
	}
	resp, err := h.svc.Versions(c.Request.Context(), acteur(c), uid, date)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Historique godoc
// @Summary Historique des PV d'un agent, dates décroissantes
// @Tags pv
// @Produce json
// @Security BearerAuth
// @Param du query string false "AAAA-MM-JJ (défaut: au - 30 jours)"
// @Param au query string false "AAAA-MM-JJ (défaut: aujourd'hui)"
// @Param utilisateur_id query string false "Agent"
// @Success 200 {object} dto.HistoriqueResponse
// @Router /v1/pv/historique [get]
func (h *PVHandler) Historique(c *gin.Context) {
	du, au, ok := queryPeriode(c)
	if !ok {
		return
	}
	uid, ok := queryUUID(c, "utilisateur_id")
	if !ok {
		return
	}
	resp, err := h.svc.Historique(c.Request.Context(), acteur(c), uid, du, au)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Operations godoc
// @Summary Détail des opérations du jour avec commissions
// @Tags pv
// @Produce json
// @Security BearerAuth
// @Param date query string false "AAAA-MM-JJ"
// @Param utilisateur_id query string false "Agent"
// @Success 200 {object} dto.OperationsResponse
// @Router /v1/pv/operations [get]
func (h *PVHandler) Operations(c *gin.Context) {
	date, ok := queryDate(c, "date")
	if !ok {
		return
	}
	uid, ok := queryUUID(c, "utilisateur_id")
	if !ok {
		return
	}
	resp, err := h.svc.Operations(c.Request.Context(), acteur(c), uid, date)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// SoldeOuverture godoc
// @Summary Solde de départ reporté du dernier PV antérieur
// @Tags pv
// @Produce json
// @Security BearerAuth
// @Param date query string false "AAAA-MM-JJ"
// @Param utilisateur_id query string false "Agent"
// @Success 200 {object} dto.SoldeOuvertureResponse
// @Router /v1/pv/solde-ouverture [get]
func (h *PVHandler) SoldeOuverture(c *gin.Context) {
	date, ok := queryDate(c, "date")
	if !ok {
		return
	}
	uid, ok := queryUUID(c, "utilisateur_id")
	if !ok {
		return
	}
	resp, err := h.svc.SoldeOuverture(c.Request.Context(), acteur(c), uid, date)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Brouillon godoc
// @Summary Applique des modifications à un PV en mémoire (rien n'est enregistré)
// @Tags pv
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.BrouillonRequest true "Base et modifications"
// @Success 200 {object} dto.PVResponse
// @Failure 400 {object} apierror.APIError
// @Router /v1/pv/brouillon [post]
func (h *PVHandler) Brouillon(c *gin.Context) {
	var req dto.BrouillonRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Brouillon(c.Request.Context(), acteur(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ── Consolidation ─────────────────────────────────────────────────────────────

// ConsolidationAgence godoc
// @Summary PV consolidé d'une agence (dernière version de chaque agent)
// @Tags consolidation
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID agence"
// @Param date query string false "AAAA-MM-JJ"
// @Success 200 {object} dto.ConsolidationResponse
// @Failure 403 {object} apierror.APIError
// @Failure 404 {object} apierror.APIError
// @Router /v1/pv/agence/{id} [get]
func (h *PVHandler) ConsolidationAgence(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	date, ok := queryDate(c, "date")
	if !ok {
		return
	}
	resp, err := h.svc.ConsolidationAgence(c.Request.Context(), acteur(c), id, date)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// TableauDeBord godoc
// @Summary Synthèse de toutes les agences pour une date
// @Tags consolidation
// @Produce json
// @Security BearerAuth
// @Param date query string false "AAAA-MM-JJ"
// @Success 200 {object} dto.TableauDeBordResponse
// @Router /v1/tableau-de-bord [get]
func (h *PVHandler) TableauDeBord(c *gin.Context) {
	date, ok := queryDate(c, "date")
	if !ok {
		return
	}
	resp, err := h.svc.TableauDeBord(c.Request.Context(), acteur(c), date)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// HistoriqueConsolide godoc
// @Summary Historique consolidé par date et par agence
// @Tags consolidation
// @Produce json
// @Security BearerAuth
// @Param du query string false "AAAA-MM-JJ"
// @Param au query string false "AAAA-MM-JJ"
// @Success 200 {object} dto.HistoriqueConsolideResponse
// @Router /v1/tableau-de-bord/historique [get]
func (h *PVHandler) HistoriqueConsolide(c *gin.Context) {
	du, au, ok := queryPeriode(c)
	if !ok {
		return
	}
	resp, err := h.svc.HistoriqueConsolide(c.Request.Context(), acteur(c), du, au)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

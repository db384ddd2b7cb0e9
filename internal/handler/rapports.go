package handler

import (
	"net/http"
	"path/filepath"
	"strconv"

	"pvcaisse/internal/apierror"
	"pvcaisse/internal/dto"
	"pvcaisse/internal/service"
	"pvcaisse/internal/worker"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

type RapportHandler struct{ svc service.RapportService }

func NewRapportHandler(svc service.RapportService) *RapportHandler {
	return &RapportHandler{svc: svc}
}

// PDF godoc
// @Summary Export PDF du PV consolidé d'une agence
// @Tags consolidation
// @Produce application/pdf
// @Security BearerAuth
// @Param id path string true "ID agence"
// @Param date query string false "AAAA-MM-JJ"
// @Success 200 {file} binary
// @Router /v1/pv/agence/{id}/pdf [get]
func (h *RapportHandler) PDF(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	date, ok := queryDate(c, "date")
	if !ok {
		return
	}
	path, err := h.svc.ExporterPDF(c.Request.Context(), acteur(c), id, date)
	if err != nil {
		respondError(c, err)
		return
	}
	c.FileAttachment(path, filepath.Base(path))
}

// Envoyer godoc
// @Summary Envoie le PV consolidé par email (asynchrone)
// @Tags consolidation
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID agence"
// @Param body body dto.RapportRequest true "Date et destinataire"
// @Success 202 {object} dto.RapportResponse
// @Router /v1/pv/agence/{id}/rapport [post]
func (h *RapportHandler) Envoyer(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	var req dto.RapportRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Demander(c.Request.Context(), acteur(c), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, resp)
}

// RapportsEchecs godoc
// @Summary Rapports abandonnés après épuisement des tentatives
// @Tags rapports
// @Produce json
// @Security BearerAuth
// @Param limite query int false "Nombre maximal d'entrées (défaut 50)"
// @Success 200 {array} worker.DLQEntry
// @Router /v1/rapports/echecs [get]
func RapportsEchecs(rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		limite := int64(50)
		if raw := c.Query("limite"); raw != "" {
			n, err := strconv.ParseInt(raw, 10, 64)
			if err != nil || n <= 0 || n > 500 {
				c.JSON(http.StatusBadRequest, apierror.New("limite invalide (1 à 500)"))
				return
			}
			limite = n
		}
		if rdb == nil {
			c.JSON(http.StatusServiceUnavailable, apierror.New("File des rapports indisponible"))
			return
		}
		entries, err := worker.ListDLQ(c.Request.Context(), rdb, worker.QueueRapport, limite)
		if err != nil {
			log.Error().Err(err).Msg("rapports: lecture de la DLQ")
			c.JSON(http.StatusServiceUnavailable, apierror.New("File des rapports indisponible"))
			return
		}
		c.JSON(http.StatusOK, entries)
	}
}

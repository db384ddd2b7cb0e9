package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"pvcaisse/internal/caisse"
	"pvcaisse/internal/dto"
	"pvcaisse/internal/model"
	"pvcaisse/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Statuts of model.RapportEnvoi.
const (
	RapportEnAttente = "en_attente"
	RapportEnvoye    = "envoye"
	RapportEchec     = "echec"
	RapportAbandonne = "abandonne"
)

// RapportEnqueuer hands a report to the background workers.
type RapportEnqueuer interface {
	EnqueueRapport(ctx context.Context, rapportID uuid.UUID) error
}

// PDFRenderer writes the consolidation of one agency and returns the file path.
type PDFRenderer func(c *dto.ConsolidationResponse, storagePath string) (string, error)

type RapportService interface {
	ExporterPDF(ctx context.Context, a Acteur, agenceID uuid.UUID, date time.Time) (string, error)
	Demander(ctx context.Context, a Acteur, agenceID uuid.UUID, req dto.RapportRequest) (*dto.RapportResponse, error)
}

type rapportService struct {
	pv           PVService
	agences      repository.AgenceRepository
	rapports     repository.RapportRepository
	queue        RapportEnqueuer
	render       PDFRenderer
	storagePath  string
	destinataire string
}

func NewRapportService(
	pv PVService,
	agences repository.AgenceRepository,
	rapports repository.RapportRepository,
	queue RapportEnqueuer,
	render PDFRenderer,
	storagePath string,
	destinataireParDefaut string,
) RapportService {
	return &rapportService{
		pv:           pv,
		agences:      agences,
		rapports:     rapports,
		queue:        queue,
		render:       render,
		storagePath:  storagePath,
		destinataire: destinataireParDefaut,
	}
}

func (s *rapportService) ExporterPDF(ctx context.Context, a Acteur, agenceID uuid.UUID, date time.Time) (string, error) {
	c, err := s.pv.ConsolidationAgence(ctx, a, agenceID, date)
	if err != nil {
		return "", err
	}
	return s.render(c, s.storagePath)
}

// Demander records the request and enqueues it. A report that cannot be
// enqueued is left for the retry cron.
func (s *rapportService) Demander(ctx context.Context, a Acteur, agenceID uuid.UUID, req dto.RapportRequest) (*dto.RapportResponse, error) {
	if !a.peutVoirAgence(agenceID) {
		return nil, fmt.Errorf("%w: agence hors de votre périmètre", ErrForbidden)
	}
	date, err := parseDate(req.Date)
	if err != nil {
		return nil, err
	}
	ag, err := s.agences.FindByID(ctx, agenceID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("agence %w", ErrNotFound)
	}
	if err != nil {
		return nil, err
	}

	dest := s.destinataire
	switch {
	case req.Destinataire != nil && *req.Destinataire != "":
		dest = *req.Destinataire
	case ag.Email != nil && *ag.Email != "":
		dest = *ag.Email
	}
	if dest == "" {
		return nil, fmt.Errorf("%w: aucun destinataire pour le rapport", caisse.ErrValidation)
	}

	r := &model.RapportEnvoi{
		AgenceID:     agenceID,
		Date:         date,
		Destinataire: dest,
		DemandePar:   a.UtilisateurID,
		Statut:       RapportEnAttente,
	}
	if err := s.rapports.Create(ctx, r); err != nil {
		return nil, err
	}

	if err := s.queue.EnqueueRapport(ctx, r.ID); err != nil {
		log.Error().Err(err).Str("rapport_id", r.ID.String()).Msg("rapport: mise en file impossible, reprise différée")
		msg := err.Error()
		now := time.Now()
		r.Statut = RapportEchec
		r.LastError = &msg
		r.NextRetryAt = &now
		if uerr := s.rapports.Update(ctx, r); uerr != nil {
			return nil, uerr
		}
	}

	log.Info().
		Str("rapport_id", r.ID.String()).
		Str("agence_id", agenceID.String()).
		Str("date", date.Format(time.DateOnly)).
		Msg("rapport: demandé")
	return &dto.RapportResponse{ID: r.ID.String(), Statut: r.Statut}, nil
}

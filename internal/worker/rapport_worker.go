package worker

// rapport_worker.go
// Delivers the emailed consolidation report of one agency for one day:
// builds the PDF from the current PVs, sends it through the SMTP circuit
// breaker and records the attempt on the rapport_envois row.

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"pvcaisse/internal/caisse"
	"pvcaisse/internal/infra"
	"pvcaisse/internal/model"
	"pvcaisse/internal/repository"
	"pvcaisse/internal/service"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// RapportJobPayload is the job envelope sent to QueueRapport.
type RapportJobPayload struct {
	RapportID string `json:"rapport_id"`
}

// Sender delivers a report email. *infra.Mailer implements it.
type Sender interface {
	SendRapport(to, subject, body, pdfPath string) error
}

type RapportWorkerConfig struct {
	Rapports       repository.RapportRepository
	PV             service.PVService
	Render         service.PDFRenderer
	Mailer         Sender
	CB             *infra.CircuitBreaker
	RDB            *redis.Client
	PDFStoragePath string
	MaxTentatives  int
}

type RapportWorker struct {
	cfg RapportWorkerConfig
	now func() time.Time
}

func NewRapportWorker(cfg RapportWorkerConfig) *RapportWorker {
	if cfg.MaxTentatives <= 0 {
		cfg.MaxTentatives = 3
	}
	if cfg.Render == nil {
		cfg.Render = infra.GenerateConsolidationPDF
	}
	return &RapportWorker{cfg: cfg, now: time.Now}
}

// Process handles one job from QueueRapport.
func (w *RapportWorker) Process(ctx context.Context, raw json.RawMessage) {
	var payload RapportJobPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		log.Error().Err(err).Msg("rapport_worker: invalid payload")
		return
	}
	id, err := uuid.Parse(payload.RapportID)
	if err != nil {
		log.Error().Str("rapport_id", payload.RapportID).Msg("rapport_worker: invalid rapport_id")
		return
	}
	r, err := w.cfg.Rapports.FindByID(ctx, id)
	if err != nil {
		log.Error().Err(err).Str("rapport_id", payload.RapportID).Msg("rapport_worker: rapport not found")
		return
	}
	if r.Statut == service.RapportEnvoye || r.Statut == service.RapportAbandonne {
		log.Debug().Str("rapport_id", payload.RapportID).Str("statut", r.Statut).Msg("rapport_worker: already settled, skipping")
		return
	}
	_ = w.Envoyer(ctx, r)
}

// Envoyer makes one delivery attempt and records its outcome. Attempts
// refused by an open circuit are rescheduled without being counted.
func (w *RapportWorker) Envoyer(ctx context.Context, r *model.RapportEnvoi) error {
	err := w.tenter(ctx, r)
	if err == nil {
		r.Tentatives++
		r.Statut = service.RapportEnvoye
		r.NextRetryAt = nil
		r.LastError = nil
		w.save(ctx, r)
		log.Info().
			Str("rapport_id", r.ID.String()).
			Str("to", r.Destinataire).
			Int("tentatives", r.Tentatives).
			Msg("rapport_worker: rapport envoyé")
		return nil
	}

	msg := err.Error()
	r.LastError = &msg
	if !errors.Is(err, infra.ErrCircuitOpen) {
		r.Tentatives++
	}

	if r.Tentatives >= w.cfg.MaxTentatives {
		r.Statut = service.RapportAbandonne
		r.NextRetryAt = nil
		log.Error().
			Str("rapport_id", r.ID.String()).
			Int("tentatives", r.Tentatives).
			Msg("rapport_worker: max retries exceeded, moving to DLQ")
		SendToDLQ(ctx, w.cfg.RDB, entreeRapport(r,
			fmt.Sprintf("abandon après %d tentatives: %s", w.cfg.MaxTentatives, msg), w.now()))
	} else {
		next := w.now().Add(computeRetryBackoff(r.Tentatives))
		r.Statut = service.RapportEchec
		r.NextRetryAt = &next
		log.Warn().
			Err(err).
			Str("rapport_id", r.ID.String()).
			Int("tentatives", r.Tentatives).
			Time("next_retry_at", next).
			Msg("rapport_worker: delivery failed, scheduled next attempt")
	}
	w.save(ctx, r)
	return err
}

func (w *RapportWorker) tenter(ctx context.Context, r *model.RapportEnvoi) error {
	c, err := w.cfg.PV.ConsolidationAgence(ctx, service.ActeurSysteme, r.AgenceID, r.Date)
	if err != nil {
		return fmt.Errorf("consolidation: %w", err)
	}
	path, err := w.cfg.Render(c, w.cfg.PDFStoragePath)
	if err != nil {
		return err
	}
	rel := filepath.Base(path)
	r.PDFPath = &rel

	subject := fmt.Sprintf("PV de caisse %s du %s", c.Agence, r.Date.Format("02/01/2006"))
	body := fmt.Sprintf(
		"Bonjour,\n\nVeuillez trouver ci-joint le PV de caisse consolidé de l'agence %s.\n\n"+
			"Agents : %d\nSolde final : %s\nÉcart de caisse : %s\n",
		c.Agence, len(c.Agents),
		caisse.FormatMontant(c.Resultat.SoldeFinal),
		caisse.FormatMontant(c.Resultat.EcartCaisse),
	)
	return w.cfg.CB.Execute(func() error {
		return w.cfg.Mailer.SendRapport(r.Destinataire, subject, body, path)
	})
}

func (w *RapportWorker) save(ctx context.Context, r *model.RapportEnvoi) {
	if err := w.cfg.Rapports.Update(ctx, r); err != nil {
		log.Error().Err(err).Str("rapport_id", r.ID.String()).Msg("rapport_worker: failed to persist attempt")
	}
}

// computeRetryBackoff doubles from one minute, capped at one hour.
func computeRetryBackoff(tentatives int) time.Duration {
	if tentatives < 1 {
		tentatives = 1
	}
	d := time.Minute << (tentatives - 1)
	if d > time.Hour || d <= 0 {
		return time.Hour
	}
	return d
}

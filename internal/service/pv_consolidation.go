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
	"github.com/shopspring/decimal"
)

func (s *pvService) ConsolidationAgence(ctx context.Context, a Acteur, agenceID uuid.UUID, date time.Time) (*dto.ConsolidationResponse, error) {
	if !a.peutVoirAgence(agenceID) {
		return nil, fmt.Errorf("%w: agence hors de votre périmètre", ErrForbidden)
	}
	ag, err := s.agences.FindByID(ctx, agenceID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("agence %w", ErrNotFound)
	}
	if err != nil {
		return nil, err
	}

	day := caisse.Day(date)
	rows, err := s.pvs.ListByAgenceDate(ctx, agenceID, day)
	if err != nil {
		return nil, err
	}
	recs, warns := caisse.DecodeAll(model.StoredAll(rows))
	cat, err := s.config.Catalogue(ctx)
	if err != nil {
		return nil, err
	}

	c := caisse.Consolidate(recs)
	resp := &dto.ConsolidationResponse{
		AgenceID:       ag.ID.String(),
		Agence:         ag.Nom,
		Date:           day.Format(time.DateOnly),
		Resultat:       c.Result.Rounded(),
		Agents:         make([]dto.AgentResultat, len(c.Agents)),
		Coupures:       c.Denominations,
		Operations:     make([]dto.OperationLigne, len(c.Operations)),
		Conflits:       c.Conflicts,
		Avertissements: warns,
	}
	for i, ar := range c.Agents {
		resp.Agents[i] = dto.AgentResultat{
			UtilisateurID: ar.Record.UserID.String(),
			PVID:          ar.Record.ID.String(),
			CreatedAt:     ar.Record.CreatedAt.UTC().Format(time.RFC3339),
			Resultat:      ar.Result.Rounded(),
		}
	}

	// Commissions are computed per agent operation and then summed per row so
	// that tiered rules see each agent's own amount.
	for i, op := range c.Operations {
		resp.Operations[i] = operationLigne(op.Operation, commissionDesSources(op, cat))
		resp.Operations[i].Details = nil
	}
	return resp, nil
}

func commissionDesSources(op caisse.MergedOperation, cat caisse.Catalog) decimal.Decimal {
	total := decimal.Zero
	for _, src := range op.Sources {
		total = total.Add(caisse.OperationCommission(src, cat))
	}
	return total
}

func (s *pvService) TableauDeBord(ctx context.Context, a Acteur, date time.Time) (*dto.TableauDeBordResponse, error) {
	if !a.EstAdmin() {
		return nil, ErrForbidden
	}
	day := caisse.Day(date)
	rows, err := s.pvs.ListByDate(ctx, day)
	if err != nil {
		return nil, err
	}
	recs, warns := caisse.DecodeAll(model.StoredAll(rows))
	noms, err := s.nomsAgences(ctx)
	if err != nil {
		return nil, err
	}

	resp := &dto.TableauDeBordResponse{
		Date:           day.Format(time.DateOnly),
		Agences:        []dto.AgenceResultat{},
		Total:          caisse.Aggregate(nil),
		Avertissements: warns,
	}
	// rows all share day: at most one group
	for _, g := range caisse.GroupByDate(recs) {
		resp.Total = g.Result.Rounded()
		resp.Agences = agencesResultat(g.ByAgency, noms)
	}
	return resp, nil
}

func (s *pvService) HistoriqueConsolide(ctx context.Context, a Acteur, du, au time.Time) (*dto.HistoriqueConsolideResponse, error) {
	if !a.EstAdmin() {
		return nil, ErrForbidden
	}
	du, au = caisse.Day(du), caisse.Day(au)
	if err := verifierPeriode(du, au); err != nil {
		return nil, err
	}
	rows, err := s.pvs.ListByPeriode(ctx, du, au)
	if err != nil {
		return nil, err
	}
	recs, warns := caisse.DecodeAll(model.StoredAll(rows))
	noms, err := s.nomsAgences(ctx)
	if err != nil {
		return nil, err
	}

	groups := caisse.GroupByDate(recs)
	resp := &dto.HistoriqueConsolideResponse{
		Jours:          make([]dto.JourConsolide, len(groups)),
		Avertissements: warns,
	}
	for i, g := range groups {
		resp.Jours[i] = dto.JourConsolide{
			Date:     g.Date.Format(time.DateOnly),
			Resultat: g.Result.Rounded(),
			Agences:  agencesResultat(g.ByAgency, noms),
		}
	}
	return resp, nil
}

func (s *pvService) nomsAgences(ctx context.Context) (map[uuid.UUID]string, error) {
	list, err := s.agences.List(ctx, true)
	if err != nil {
		return nil, err
	}
	noms := make(map[uuid.UUID]string, len(list))
	for _, ag := range list {
		noms[ag.ID] = ag.Nom
	}
	return noms, nil
}

func agencesResultat(groups []caisse.AgencyGroup, noms map[uuid.UUID]string) []dto.AgenceResultat {
	out := make([]dto.AgenceResultat, len(groups))
	for i, g := range groups {
		out[i] = dto.AgenceResultat{
			AgenceID:     g.AgencyID.String(),
			Agence:       noms[g.AgencyID],
			NombreAgents: len(g.Records),
			Resultat:     g.Result.Rounded(),
		}
	}
	return out
}

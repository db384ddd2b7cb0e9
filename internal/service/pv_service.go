package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"pvcaisse/internal/caisse"
	"pvcaisse/internal/dto"
	"pvcaisse/internal/model"
	"pvcaisse/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// periodeMax bounds history queries.
const periodeMax = 366 * 24 * time.Hour

// PVService is the entry point for every PV figure: single day, versions,
// history, operations, drafts and the multi-agent consolidations. All totals
// come from package caisse.
type PVService interface {
	Enregistrer(ctx context.Context, a Acteur, req dto.EnregistrerPVRequest) (*dto.PVResponse, error)
	// Courant returns the current version for the day, or a seeded draft with
	// the carried-forward opening balance when nothing was saved yet.
	Courant(ctx context.Context, a Acteur, utilisateurID *uuid.UUID, date time.Time) (*dto.PVResponse, error)
	Versions(ctx context.Context, a Acteur, utilisateurID *uuid.UUID, date time.Time) (*dto.VersionsResponse, error)
	Historique(ctx context.Context, a Acteur, utilisateurID *uuid.UUID, du, au time.Time) (*dto.HistoriqueResponse, error)
	Operations(ctx context.Context, a Acteur, utilisateurID *uuid.UUID, date time.Time) (*dto.OperationsResponse, error)
	SoldeOuverture(ctx context.Context, a Acteur, utilisateurID *uuid.UUID, date time.Time) (*dto.SoldeOuvertureResponse, error)
	// Brouillon applies edits to an in-memory PV. Nothing is persisted.
	Brouillon(ctx context.Context, a Acteur, req dto.BrouillonRequest) (*dto.PVResponse, error)

	ConsolidationAgence(ctx context.Context, a Acteur, agenceID uuid.UUID, date time.Time) (*dto.ConsolidationResponse, error)
	TableauDeBord(ctx context.Context, a Acteur, date time.Time) (*dto.TableauDeBordResponse, error)
	HistoriqueConsolide(ctx context.Context, a Acteur, du, au time.Time) (*dto.HistoriqueConsolideResponse, error)
}

type pvService struct {
	pvs     repository.PVRepository
	users   repository.UtilisateurRepository
	agences repository.AgenceRepository
	config  ConfigurationService
	now     func() time.Time
}

func NewPVService(
	pvs repository.PVRepository,
	users repository.UtilisateurRepository,
	agences repository.AgenceRepository,
	config ConfigurationService,
) PVService {
	return &pvService{pvs: pvs, users: users, agences: agences, config: config, now: time.Now}
}

// ── Access ────────────────────────────────────────────────────────────────────

// cible resolves whose PV a request addresses. Agents only reach their own;
// a responsable reaches the agents of their agency; an admin reaches anyone.
func (s *pvService) cible(ctx context.Context, a Acteur, utilisateurID *uuid.UUID) (*model.Utilisateur, error) {
	id := a.UtilisateurID
	if utilisateurID != nil {
		id = *utilisateurID
	}
	autre := id != a.UtilisateurID
	if autre && a.Role != model.RoleResponsable && a.Role != model.RoleAdmin {
		return nil, fmt.Errorf("%w: PV d'un autre utilisateur", ErrForbidden)
	}

	u, err := s.users.FindByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("utilisateur %w", ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	if autre && (u.AgenceID == nil || !a.peutVoirAgence(*u.AgenceID)) {
		return nil, fmt.Errorf("%w: utilisateur hors de votre agence", ErrForbidden)
	}
	return u, nil
}

func agenceDe(u *model.Utilisateur) uuid.UUID {
	if u.AgenceID == nil {
		return uuid.Nil
	}
	return *u.AgenceID
}

func parseUtilisateurID(raw *string) (*uuid.UUID, error) {
	if raw == nil || *raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(*raw)
	if err != nil {
		return nil, fmt.Errorf("%w: utilisateur_id invalide", caisse.ErrValidation)
	}
	return &id, nil
}

func parseDate(raw string) (time.Time, error) {
	d, err := caisse.ParseDay(raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: date invalide, format attendu AAAA-MM-JJ", caisse.ErrValidation)
	}
	return d, nil
}

func verifierPeriode(du, au time.Time) error {
	if au.Before(du) {
		return fmt.Errorf("%w: la date de fin précède la date de début", caisse.ErrValidation)
	}
	if au.Sub(du) > periodeMax {
		return fmt.Errorf("%w: période limitée à un an", caisse.ErrValidation)
	}
	return nil
}

// ── Loading ───────────────────────────────────────────────────────────────────

func (s *pvService) versionsDuJour(ctx context.Context, userID uuid.UUID, date time.Time) ([]caisse.Record, []caisse.Warning, error) {
	rows, err := s.pvs.ListByUtilisateurDate(ctx, userID, date)
	if err != nil {
		return nil, nil, err
	}
	recs, warns := caisse.DecodeAll(model.StoredAll(rows))
	return recs, warns, nil
}

func (s *pvService) soldeReporte(ctx context.Context, userID uuid.UUID, date time.Time) (decimal.Decimal, []caisse.Warning, error) {
	rows, err := s.pvs.ListDernierJourAvant(ctx, userID, date)
	if err != nil {
		return decimal.Zero, nil, err
	}
	recs, warns := caisse.DecodeAll(model.StoredAll(rows))
	return caisse.OpeningBalance(recs, userID, date), warns, nil
}

// courant returns the authoritative record of the day, or a draft.
func (s *pvService) courant(ctx context.Context, u *model.Utilisateur, date time.Time) (caisse.Record, bool, []caisse.Warning, error) {
	recs, warns, err := s.versionsDuJour(ctx, u.ID, date)
	if err != nil {
		return caisse.Record{}, false, nil, err
	}
	if latest, ok := caisse.Latest(recs); ok {
		return latest, false, warns, nil
	}

	solde, prevWarns, err := s.soldeReporte(ctx, u.ID, date)
	if err != nil {
		return caisse.Record{}, false, nil, err
	}
	cat, err := s.config.Catalogue(ctx)
	if err != nil {
		return caisse.Record{}, false, nil, err
	}
	return caisse.NewDraft(u.ID, agenceDe(u), date, solde, cat), true, append(warns, prevWarns...), nil
}

// ── Operations ────────────────────────────────────────────────────────────────

func (s *pvService) Enregistrer(ctx context.Context, a Acteur, req dto.EnregistrerPVRequest) (*dto.PVResponse, error) {
	uid, err := parseUtilisateurID(req.UtilisateurID)
	if err != nil {
		return nil, err
	}
	date, err := parseDate(req.Date)
	if err != nil {
		return nil, err
	}
	u, err := s.cible(ctx, a, uid)
	if err != nil {
		return nil, err
	}
	if u.AgenceID == nil {
		return nil, fmt.Errorf("%w: l'utilisateur n'est rattaché à aucune agence", caisse.ErrValidation)
	}

	rec := recordDepuis(req.PVContenu, u.ID, *u.AgenceID, date)
	rec.ID = uuid.New()
	rec.CreatedAt = s.now().UTC()
	cat, err := s.config.Catalogue(ctx)
	if err != nil {
		return nil, err
	}
	caisse.SyncAll(&rec)
	cat.LinkOperations(&rec)
	if err := caisse.Validate(rec); err != nil {
		return nil, err
	}

	row, err := model.NewPVCaisse(rec)
	if err != nil {
		return nil, fmt.Errorf("pv: encodage: %w", err)
	}
	if err := s.pvs.Create(ctx, row); err != nil {
		return nil, err
	}

	res := caisse.Reconcile(rec)
	log.Info().
		Str("pv_id", rec.ID.String()).
		Str("utilisateur_id", u.ID.String()).
		Str("date", date.Format(time.DateOnly)).
		Str("solde_final", res.SoldeFinal.StringFixed(2)).
		Str("ecart", res.EcartCaisse.StringFixed(2)).
		Msg("pv: version enregistrée")
	return toPVResponse(rec, false, nil), nil
}

func (s *pvService) Courant(ctx context.Context, a Acteur, utilisateurID *uuid.UUID, date time.Time) (*dto.PVResponse, error) {
	u, err := s.cible(ctx, a, utilisateurID)
	if err != nil {
		return nil, err
	}
	rec, draft, warns, err := s.courant(ctx, u, caisse.Day(date))
	if err != nil {
		return nil, err
	}
	return toPVResponse(rec, draft, warns), nil
}

func (s *pvService) Versions(ctx context.Context, a Acteur, utilisateurID *uuid.UUID, date time.Time) (*dto.VersionsResponse, error) {
	u, err := s.cible(ctx, a, utilisateurID)
	if err != nil {
		return nil, err
	}
	day := caisse.Day(date)
	recs, warns, err := s.versionsDuJour(ctx, u.ID, day)
	if err != nil {
		return nil, err
	}
	sortNewestFirst(recs)

	resp := &dto.VersionsResponse{
		Date:           day.Format(time.DateOnly),
		UtilisateurID:  u.ID.String(),
		Versions:       make([]dto.PVResponse, len(recs)),
		Avertissements: warns,
	}
	for i, r := range recs {
		resp.Versions[i] = *toPVResponse(r, false, nil)
	}
	return resp, nil
}

func (s *pvService) Historique(ctx context.Context, a Acteur, utilisateurID *uuid.UUID, du, au time.Time) (*dto.HistoriqueResponse, error) {
	du, au = caisse.Day(du), caisse.Day(au)
	if err := verifierPeriode(du, au); err != nil {
		return nil, err
	}
	u, err := s.cible(ctx, a, utilisateurID)
	if err != nil {
		return nil, err
	}
	rows, err := s.pvs.ListByUtilisateurPeriode(ctx, u.ID, du, au)
	if err != nil {
		return nil, err
	}
	recs, warns := caisse.DecodeAll(model.StoredAll(rows))

	groups := caisse.GroupByDate(recs)
	resp := &dto.HistoriqueResponse{
		UtilisateurID:  u.ID.String(),
		Jours:          make([]dto.PVResponse, 0, len(groups)),
		Avertissements: warns,
	}
	for _, g := range groups {
		// one user: each date holds exactly one authoritative record
		for _, r := range g.Records {
			resp.Jours = append(resp.Jours, *toPVResponse(r, false, nil))
		}
	}
	return resp, nil
}

func (s *pvService) Operations(ctx context.Context, a Acteur, utilisateurID *uuid.UUID, date time.Time) (*dto.OperationsResponse, error) {
	u, err := s.cible(ctx, a, utilisateurID)
	if err != nil {
		return nil, err
	}
	day := caisse.Day(date)
	rec, _, _, err := s.courant(ctx, u, day)
	if err != nil {
		return nil, err
	}
	cat, err := s.config.Catalogue(ctx)
	if err != nil {
		return nil, err
	}

	resp := &dto.OperationsResponse{
		Date:            day.Format(time.DateOnly),
		UtilisateurID:   u.ID.String(),
		Operations:      make([]dto.OperationLigne, len(rec.Operations)),
		TotalOperations: caisse.Round2(caisse.Reconcile(rec).TotalOperations),
	}
	total := decimal.Zero
	for i, op := range rec.Operations {
		c := caisse.OperationCommission(op, cat)
		total = total.Add(c)
		resp.Operations[i] = operationLigne(op, c)
	}
	resp.TotalCommissions = caisse.Round2(total)
	return resp, nil
}

func (s *pvService) SoldeOuverture(ctx context.Context, a Acteur, utilisateurID *uuid.UUID, date time.Time) (*dto.SoldeOuvertureResponse, error) {
	u, err := s.cible(ctx, a, utilisateurID)
	if err != nil {
		return nil, err
	}
	day := caisse.Day(date)
	solde, _, err := s.soldeReporte(ctx, u.ID, day)
	if err != nil {
		return nil, err
	}
	return &dto.SoldeOuvertureResponse{
		Date:          day.Format(time.DateOnly),
		UtilisateurID: u.ID.String(),
		SoldeDepart:   caisse.Round2(solde),
	}, nil
}

func (s *pvService) Brouillon(ctx context.Context, a Acteur, req dto.BrouillonRequest) (*dto.PVResponse, error) {
	uid, err := parseUtilisateurID(req.UtilisateurID)
	if err != nil {
		return nil, err
	}
	date, err := parseDate(req.Date)
	if err != nil {
		return nil, err
	}
	u, err := s.cible(ctx, a, uid)
	if err != nil {
		return nil, err
	}

	var (
		rec   caisse.Record
		warns []caisse.Warning
	)
	if req.Base != nil {
		rec = recordDepuis(*req.Base, u.ID, agenceDe(u), date)
		caisse.SyncAll(&rec)
	} else if rec, _, warns, err = s.courant(ctx, u, date); err != nil {
		return nil, err
	}
	// The draft is a new version in the making.
	rec.ID, rec.CreatedAt = uuid.Nil, time.Time{}

	for i, e := range req.Modifications {
		if err := caisse.Apply(&rec, e); err != nil {
			return nil, fmt.Errorf("modification %d: %w", i+1, err)
		}
	}
	cat, err := s.config.Catalogue(ctx)
	if err != nil {
		return nil, err
	}
	cat.LinkOperations(&rec)
	return toPVResponse(rec, true, warns), nil
}

// ── Mapping ───────────────────────────────────────────────────────────────────

func recordDepuis(c dto.PVContenu, userID, agenceID uuid.UUID, date time.Time) caisse.Record {
	return caisse.Record{
		UserID:       userID,
		AgencyID:     agenceID,
		Date:         caisse.Day(date),
		Bills:        c.Billets,
		Coins:        c.Pieces,
		Operations:   c.Operations,
		Transactions: c.Transactions,
		SoldeDepart:  c.SoldeDepart,
	}
}

func toPVResponse(r caisse.Record, brouillon bool, warns []caisse.Warning) *dto.PVResponse {
	resp := &dto.PVResponse{
		UtilisateurID:  r.UserID.String(),
		AgenceID:       r.AgencyID.String(),
		Date:           r.Date.Format(time.DateOnly),
		Billets:        nonNil(r.Bills),
		Pieces:         nonNil(r.Coins),
		Operations:     nonNil(r.Operations),
		Transactions:   nonNil(r.Transactions),
		SoldeDepart:    r.SoldeDepart,
		Resultat:       caisse.Reconcile(r).Rounded(),
		Brouillon:      brouillon,
		Avertissements: warns,
	}
	if r.ID != uuid.Nil {
		resp.ID = r.ID.String()
	}
	if !r.CreatedAt.IsZero() {
		resp.CreatedAt = r.CreatedAt.UTC().Format(time.RFC3339)
	}
	return resp
}

func operationLigne(op caisse.Operation, commission decimal.Decimal) dto.OperationLigne {
	sens := op.Direction
	if sens == "" {
		sens = caisse.DirectionIn
	}
	return dto.OperationLigne{
		CatalogueID: op.CatalogID,
		Nom:         op.Name,
		Sens:        sens,
		Nombre:      op.Number,
		Montant:     op.Amount,
		Commission:  caisse.Round2(commission),
		Details:     op.Details,
	}
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

func sortNewestFirst(recs []caisse.Record) {
	sort.Slice(recs, func(i, j int) bool {
		a, b := recs[i], recs[j]
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID.String() > b.ID.String()
	})
}

package service

import (
	"context"
	"testing"
	"time"

	"pvcaisse/internal/caisse"
	"pvcaisse/internal/dto"
	"pvcaisse/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func assertDec(t *testing.T, want string, got decimal.Decimal, msg ...interface{}) {
	t.Helper()
	assert.True(t, d(want).Equal(got), append([]interface{}{"want %s, got %s", want, got.String()}, msg...)...)
}

type pvFixture struct {
	svc     *pvService
	pvs     *fakePVs
	centre  *model.Agence
	nord    *model.Agence
	agent1  *model.Utilisateur
	agent2  *model.Utilisateur
	agent3  *model.Utilisateur
	respCtr *model.Utilisateur
	admin   *model.Utilisateur
}

func utilisateur(username, role string, agence *model.Agence) *model.Utilisateur {
	u := &model.Utilisateur{ID: uuid.New(), Username: username, Nom: username, Role: role, Actif: true}
	if agence != nil {
		id := agence.ID
		u.AgenceID = &id
	}
	return u
}

func newPVFixture(t *testing.T) *pvFixture {
	t.Helper()
	f := &pvFixture{
		pvs:    &fakePVs{},
		centre: &model.Agence{ID: uuid.New(), Code: "CTR", Nom: "Agence Centre", Actif: true},
		nord:   &model.Agence{ID: uuid.New(), Code: "NRD", Nom: "Agence Nord", Actif: true},
	}
	f.agent1 = utilisateur("agent1", model.RoleAgent, f.centre)
	f.agent2 = utilisateur("agent2", model.RoleAgent, f.centre)
	f.agent3 = utilisateur("agent3", model.RoleAgent, f.nord)
	f.respCtr = utilisateur("resp", model.RoleResponsable, f.centre)
	f.admin = utilisateur("admin", model.RoleAdmin, nil)

	users := newFakeUtilisateurs(f.agent1, f.agent2, f.agent3, f.respCtr, f.admin)
	config := NewConfigurationService(&fakeConfigRepo{}, nil, 0)
	f.svc = NewPVService(f.pvs, users, newFakeAgences(f.centre, f.nord), config).(*pvService)

	base := time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)
	n := 0
	f.svc.now = func() time.Time {
		n++
		return base.Add(time.Duration(n) * time.Minute)
	}
	return f
}

func acteurDe(u *model.Utilisateur) Acteur {
	return Acteur{UtilisateurID: u.ID, Role: u.Role, AgenceID: u.AgenceID}
}

// contenu reconciles to solde final 1350 and ecart -50 with solde 1000.
func contenu(solde string) dto.PVContenu {
	return dto.PVContenu{
		Billets: []caisse.DenominationLine{
			{Value: d("200"), CaisseQty: d("1000"), Kind: caisse.KindBillet},
			{Value: d("100"), CaisseQty: d("200"), Kind: caisse.KindBillet},
		},
		Pieces: []caisse.DenominationLine{
			{Value: d("10"), CaisseQty: d("100"), Kind: caisse.KindPiece},
		},
		Operations: []caisse.Operation{
			{Name: "Change", Amount: d("200"), Number: 1, Direction: caisse.DirectionIn},
			{Name: "Frais", Amount: d("50"), Number: 1, Direction: caisse.DirectionOut},
		},
		Transactions: []caisse.Transaction{
			{Kind: caisse.Versement, Label: "Dépôt", Amount: d("300")},
			{Kind: caisse.Retrait, Label: "Retrait banque", Amount: d("100")},
		},
		SoldeDepart: d(solde),
	}
}

func (f *pvFixture) enregistrer(t *testing.T, u *model.Utilisateur, date, solde string) *dto.PVResponse {
	t.Helper()
	resp, err := f.svc.Enregistrer(context.Background(), acteurDe(u), dto.EnregistrerPVRequest{
		Date: date, PVContenu: contenu(solde),
	})
	require.NoError(t, err)
	return resp
}

func jourTest(s string) time.Time {
	t, _ := caisse.ParseDay(s)
	return t
}

func TestPV_EnregistrerPuisCourant(t *testing.T) {
	f := newPVFixture(t)
	ctx := context.Background()

	v1 := f.enregistrer(t, f.agent1, "2026-03-10", "1000")
	assert.NotEmpty(t, v1.ID)
	assert.False(t, v1.Brouillon)
	assertDec(t, "1350", v1.Resultat.SoldeFinal)
	assertDec(t, "-50", v1.Resultat.EcartCaisse)
	assert.Equal(t, f.centre.ID.String(), v1.AgenceID)

	v2 := f.enregistrer(t, f.agent1, "2026-03-10", "500")
	require.Len(t, f.pvs.rows, 2, "every save appends a version")

	cur, err := f.svc.Courant(ctx, acteurDe(f.agent1), nil, jourTest("2026-03-10"))
	require.NoError(t, err)
	assert.Equal(t, v2.ID, cur.ID)
	assertDec(t, "500", cur.SoldeDepart)

	versions, err := f.svc.Versions(ctx, acteurDe(f.agent1), nil, jourTest("2026-03-10"))
	require.NoError(t, err)
	require.Len(t, versions.Versions, 2)
	assert.Equal(t, v2.ID, versions.Versions[0].ID)
	assert.Equal(t, v1.ID, versions.Versions[1].ID)
}

func TestPV_CourantBrouillonAvecSoldeReporte(t *testing.T) {
	f := newPVFixture(t)
	ctx := context.Background()
	f.enregistrer(t, f.agent1, "2026-03-07", "0")
	f.enregistrer(t, f.agent1, "2026-03-08", "1000")

	cur, err := f.svc.Courant(ctx, acteurDe(f.agent1), nil, jourTest("2026-03-10"))
	require.NoError(t, err)
	assert.True(t, cur.Brouillon)
	assert.Empty(t, cur.ID)
	assertDec(t, "1350", cur.SoldeDepart)
	assert.Len(t, cur.Operations, len(caisse.DefaultCatalog().Entries))
	assert.Len(t, cur.Billets, len(caisse.BillValues()))

	ouv, err := f.svc.SoldeOuverture(ctx, acteurDe(f.agent1), nil, jourTest("2026-03-10"))
	require.NoError(t, err)
	assertDec(t, "1350", ouv.SoldeDepart)

	premier, err := f.svc.SoldeOuverture(ctx, acteurDe(f.agent1), nil, jourTest("2026-03-07"))
	require.NoError(t, err)
	assertDec(t, "0", premier.SoldeDepart)
}

func TestPV_Acces(t *testing.T) {
	f := newPVFixture(t)
	inconnu := uuid.New()
	cases := []struct {
		name    string
		acteur  *model.Utilisateur
		cible   *uuid.UUID
		wantErr error
	}{
		{"agent lit son PV", f.agent1, nil, nil},
		{"agent lit un collègue", f.agent1, &f.agent2.ID, ErrForbidden},
		{"responsable lit son agence", f.respCtr, &f.agent1.ID, nil},
		{"responsable hors agence", f.respCtr, &f.agent3.ID, ErrForbidden},
		{"admin lit tout", f.admin, &f.agent3.ID, nil},
		{"utilisateur inconnu", f.admin, &inconnu, ErrNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.svc.Courant(context.Background(), acteurDe(tc.acteur), tc.cible, jourTest("2026-03-10"))
			if tc.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tc.wantErr)
		})
	}
}

func TestPV_ResponsableEnregistrePourUnAgent(t *testing.T) {
	f := newPVFixture(t)
	uid := f.agent1.ID.String()
	resp, err := f.svc.Enregistrer(context.Background(), acteurDe(f.respCtr), dto.EnregistrerPVRequest{
		UtilisateurID: &uid, Date: "2026-03-10", PVContenu: contenu("0"),
	})
	require.NoError(t, err)
	assert.Equal(t, uid, resp.UtilisateurID)
}

func TestPV_EnregistrerRejetteContenuInvalide(t *testing.T) {
	f := newPVFixture(t)
	ctx := context.Background()

	c := contenu("0")
	c.Billets[0].Value = d("150")
	_, err := f.svc.Enregistrer(ctx, acteurDe(f.agent1), dto.EnregistrerPVRequest{Date: "2026-03-10", PVContenu: c})
	assert.ErrorIs(t, err, caisse.ErrValidation)

	_, err = f.svc.Enregistrer(ctx, acteurDe(f.agent1), dto.EnregistrerPVRequest{Date: "10/03/2026", PVContenu: contenu("0")})
	assert.ErrorIs(t, err, caisse.ErrValidation)

	_, err = f.svc.Enregistrer(ctx, acteurDe(f.admin), dto.EnregistrerPVRequest{Date: "2026-03-10", PVContenu: contenu("0")})
	assert.ErrorIs(t, err, caisse.ErrValidation, "admin has no agency")

	assert.Empty(t, f.pvs.rows)
}

func TestPV_EnregistrerSynchroniseLesDetails(t *testing.T) {
	f := newPVFixture(t)
	c := contenu("0")
	c.Operations = []caisse.Operation{{
		Name: "Dépenses", Direction: caisse.DirectionOut,
		Details: []caisse.DetailLine{{Label: "Taxi", Amount: d("30")}, {Label: "Café", Amount: d("12")}},
	}}
	resp, err := f.svc.Enregistrer(context.Background(), acteurDe(f.agent1), dto.EnregistrerPVRequest{Date: "2026-03-10", PVContenu: c})
	require.NoError(t, err)
	require.Len(t, resp.Operations, 1)
	assertDec(t, "42", resp.Operations[0].Amount)
	assert.Equal(t, 2, resp.Operations[0].Number)
	assertDec(t, "-42", resp.Resultat.TotalOperations)
}

func TestPV_BrouillonNePersistePas(t *testing.T) {
	f := newPVFixture(t)
	ctx := context.Background()

	resp, err := f.svc.Brouillon(ctx, acteurDe(f.agent1), dto.BrouillonRequest{
		Date: "2026-03-10",
		Modifications: []caisse.Edit{
			{Target: caisse.TargetSoldeDepart, Value: "=100+50"},
			{Target: caisse.TargetBillet, Index: 0, Field: "caisse", Value: "=200*2"},
		},
	})
	require.NoError(t, err)
	assert.True(t, resp.Brouillon)
	assert.Empty(t, resp.ID)
	assertDec(t, "150", resp.SoldeDepart)
	assertDec(t, "400", resp.Resultat.TotalCaisse)
	assert.Empty(t, f.pvs.rows)

	_, err = f.svc.Brouillon(ctx, acteurDe(f.agent1), dto.BrouillonRequest{
		Date:          "2026-03-10",
		Modifications: []caisse.Edit{{Target: caisse.TargetBillet, Index: 0, Field: "caisse", Value: "=5-10"}},
	})
	assert.ErrorIs(t, err, caisse.ErrValidation)
	assert.Contains(t, err.Error(), "modification 1")
}

func TestPV_BrouillonDepuisUneBase(t *testing.T) {
	f := newPVFixture(t)
	base := contenu("1000")
	resp, err := f.svc.Brouillon(context.Background(), acteurDe(f.agent1), dto.BrouillonRequest{
		Date:          "2026-03-10",
		Base:          &base,
		Modifications: []caisse.Edit{{Target: caisse.TargetTransaction, Action: "remove", Index: 0}},
	})
	require.NoError(t, err)
	require.Len(t, resp.Transactions, 1)
	assertDec(t, "1050", resp.Resultat.SoldeFinal)
}

func TestPV_OperationsCommissions(t *testing.T) {
	f := newPVFixture(t)
	c := contenu("0")
	c.Operations = []caisse.Operation{
		{CatalogID: "paiement-factures", Name: "Paiement factures", Amount: d("100"), Number: 2, Direction: caisse.DirectionIn},
		{CatalogID: "transfert-envoi", Name: "Transfert envoi", Amount: d("700"), Number: 1, Direction: caisse.DirectionIn},
		{Name: "Recharge", Amount: d("50"), Number: 5},
	}
	_, err := f.svc.Enregistrer(context.Background(), acteurDe(f.agent1), dto.EnregistrerPVRequest{Date: "2026-03-10", PVContenu: c})
	require.NoError(t, err)

	ops, err := f.svc.Operations(context.Background(), acteurDe(f.agent1), nil, jourTest("2026-03-10"))
	require.NoError(t, err)
	require.Len(t, ops.Operations, 3)
	assertDec(t, "3", ops.Operations[0].Commission)
	assertDec(t, "18", ops.Operations[1].Commission)
	assertDec(t, "1", ops.Operations[2].Commission)
	assert.Equal(t, caisse.DirectionIn, ops.Operations[2].Sens)
	assertDec(t, "22", ops.TotalCommissions)
	assertDec(t, "850", ops.TotalOperations)
}

func TestPV_ConsolidationAgence(t *testing.T) {
	f := newPVFixture(t)
	ctx := context.Background()
	f.enregistrer(t, f.agent1, "2026-03-10", "1000")
	dernier := f.enregistrer(t, f.agent1, "2026-03-10", "2000")
	f.enregistrer(t, f.agent2, "2026-03-10", "1000")
	f.enregistrer(t, f.agent3, "2026-03-10", "9999")

	c, err := f.svc.ConsolidationAgence(ctx, acteurDe(f.respCtr), f.centre.ID, jourTest("2026-03-10"))
	require.NoError(t, err)
	assert.Equal(t, "Agence Centre", c.Agence)
	require.Len(t, c.Agents, 2, "latest version per agent only")
	assertDec(t, "3000", c.Resultat.SoldeDepart)
	assertDec(t, "2600", c.Resultat.TotalCash)
	assertDec(t, "3700", c.Resultat.SoldeFinal)
	assertDec(t, "-1100", c.Resultat.EcartCaisse)

	var ids []string
	for _, a := range c.Agents {
		ids = append(ids, a.PVID)
	}
	assert.Contains(t, ids, dernier.ID)
	require.Len(t, c.Operations, 2)
	for _, op := range c.Operations {
		assert.True(t, op.Commission.IsZero())
	}

	_, err = f.svc.ConsolidationAgence(ctx, acteurDe(f.respCtr), f.nord.ID, jourTest("2026-03-10"))
	assert.ErrorIs(t, err, ErrForbidden)
	_, err = f.svc.ConsolidationAgence(ctx, acteurDe(f.agent1), f.centre.ID, jourTest("2026-03-10"))
	assert.ErrorIs(t, err, ErrForbidden)
	_, err = f.svc.ConsolidationAgence(ctx, acteurDe(f.admin), uuid.New(), jourTest("2026-03-10"))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPV_ConsolidationCommissionParAgent(t *testing.T) {
	f := newPVFixture(t)
	for _, u := range []*model.Utilisateur{f.agent1, f.agent2} {
		c := contenu("0")
		c.Operations = []caisse.Operation{
			{CatalogID: "transfert-envoi", Name: "Transfert envoi", Amount: d("400"), Number: 1, Direction: caisse.DirectionIn},
		}
		_, err := f.svc.Enregistrer(context.Background(), acteurDe(u), dto.EnregistrerPVRequest{Date: "2026-03-10", PVContenu: c})
		require.NoError(t, err)
	}

	c, err := f.svc.ConsolidationAgence(context.Background(), acteurDe(f.admin), f.centre.ID, jourTest("2026-03-10"))
	require.NoError(t, err)
	require.Len(t, c.Operations, 1)
	assertDec(t, "800", c.Operations[0].Montant)
	// two 400 transfers fall in the 13 bracket each, not the 18 bracket of 800
	assertDec(t, "26", c.Operations[0].Commission)
}

func TestPV_EnregistrerRattacheAuCatalogue(t *testing.T) {
	f := newPVFixture(t)
	resp := f.enregistrer(t, f.agent1, "2026-03-10", "0")
	require.Len(t, resp.Operations, 2)
	assert.Equal(t, "change", resp.Operations[0].CatalogID)
	assert.Equal(t, "frais", resp.Operations[1].CatalogID)
}

func TestPV_ConsolidationFusionneLigneSansIdentifiant(t *testing.T) {
	f := newPVFixture(t)
	ctx := context.Background()

	ancien := caisse.Record{
		ID: uuid.New(), UserID: f.agent1.ID, AgencyID: f.centre.ID, Date: jourTest("2026-03-10"),
		Operations: []caisse.Operation{{Name: "Transfert envoi", Amount: d("400"), Number: 1, Direction: caisse.DirectionIn}},
		CreatedAt:  time.Date(2026, 3, 10, 7, 0, 0, 0, time.UTC),
	}
	row, err := model.NewPVCaisse(ancien)
	require.NoError(t, err)
	require.NoError(t, f.pvs.Create(ctx, row))

	c := contenu("0")
	c.Operations = []caisse.Operation{
		{CatalogID: "transfert-envoi", Name: "Transfert envoi", Amount: d("400"), Number: 1, Direction: caisse.DirectionIn},
	}
	_, err = f.svc.Enregistrer(ctx, acteurDe(f.agent2), dto.EnregistrerPVRequest{Date: "2026-03-10", PVContenu: c})
	require.NoError(t, err)

	cons, err := f.svc.ConsolidationAgence(ctx, acteurDe(f.admin), f.centre.ID, jourTest("2026-03-10"))
	require.NoError(t, err)
	require.Len(t, cons.Operations, 1)
	assert.Equal(t, "transfert-envoi", cons.Operations[0].CatalogueID)
	assertDec(t, "800", cons.Operations[0].Montant)
	assert.Equal(t, 2, cons.Operations[0].Nombre)
	assertDec(t, "26", cons.Operations[0].Commission)
}

func TestPV_TableauDeBord(t *testing.T) {
	f := newPVFixture(t)
	ctx := context.Background()
	f.enregistrer(t, f.agent1, "2026-03-10", "1000")
	f.enregistrer(t, f.agent3, "2026-03-10", "1000")

	tdb, err := f.svc.TableauDeBord(ctx, acteurDe(f.admin), jourTest("2026-03-10"))
	require.NoError(t, err)
	require.Len(t, tdb.Agences, 2)
	assertDec(t, "2000", tdb.Total.SoldeDepart)
	assertDec(t, "2700", tdb.Total.SoldeFinal)
	for _, a := range tdb.Agences {
		assert.NotEmpty(t, a.Agence)
		assert.Equal(t, 1, a.NombreAgents)
	}

	vide, err := f.svc.TableauDeBord(ctx, acteurDe(f.admin), jourTest("2026-03-11"))
	require.NoError(t, err)
	assert.Empty(t, vide.Agences)
	assert.True(t, vide.Total.SoldeFinal.IsZero())

	_, err = f.svc.TableauDeBord(ctx, acteurDe(f.respCtr), jourTest("2026-03-10"))
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestPV_Historique(t *testing.T) {
	f := newPVFixture(t)
	ctx := context.Background()
	f.enregistrer(t, f.agent1, "2026-03-08", "1000")
	f.enregistrer(t, f.agent1, "2026-03-10", "1000")
	f.enregistrer(t, f.agent1, "2026-03-10", "1350")

	h, err := f.svc.Historique(ctx, acteurDe(f.agent1), nil, jourTest("2026-03-01"), jourTest("2026-03-10"))
	require.NoError(t, err)
	require.Len(t, h.Jours, 2)
	assert.Equal(t, "2026-03-10", h.Jours[0].Date)
	assertDec(t, "1350", h.Jours[0].SoldeDepart)
	assert.Equal(t, "2026-03-08", h.Jours[1].Date)

	_, err = f.svc.Historique(ctx, acteurDe(f.agent1), nil, jourTest("2026-03-10"), jourTest("2026-03-01"))
	assert.ErrorIs(t, err, caisse.ErrValidation)
	_, err = f.svc.Historique(ctx, acteurDe(f.agent1), nil, jourTest("2024-01-01"), jourTest("2026-03-01"))
	assert.ErrorIs(t, err, caisse.ErrValidation)
}

func TestPV_HistoriqueConsolide(t *testing.T) {
	f := newPVFixture(t)
	ctx := context.Background()
	f.enregistrer(t, f.agent1, "2026-03-09", "1000")
	f.enregistrer(t, f.agent2, "2026-03-10", "1000")
	f.enregistrer(t, f.agent3, "2026-03-10", "1000")

	h, err := f.svc.HistoriqueConsolide(ctx, acteurDe(f.admin), jourTest("2026-03-01"), jourTest("2026-03-10"))
	require.NoError(t, err)
	require.Len(t, h.Jours, 2)
	assert.Equal(t, "2026-03-10", h.Jours[0].Date)
	assert.Len(t, h.Jours[0].Agences, 2)
	assertDec(t, "2700", h.Jours[0].Resultat.SoldeFinal)

	_, err = f.svc.HistoriqueConsolide(ctx, acteurDe(f.agent1), jourTest("2026-03-01"), jourTest("2026-03-10"))
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestPV_DonneesCorrompuesSignalees(t *testing.T) {
	f := newPVFixture(t)
	v := f.enregistrer(t, f.agent1, "2026-03-10", "1000")
	f.pvs.rows[0].OperationsData = `[{"name":`

	cur, err := f.svc.Courant(context.Background(), acteurDe(f.agent1), nil, jourTest("2026-03-10"))
	require.NoError(t, err)
	assert.Equal(t, v.ID, cur.ID)
	require.Len(t, cur.Avertissements, 1)
}

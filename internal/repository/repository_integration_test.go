//go:build integration

package repository

// Run with: go test -tags integration ./internal/repository/... -v

import (
	"context"
	"testing"
	"time"

	"pvcaisse/internal/infra"
	"pvcaisse/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcPostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"gorm.io/gorm"
)

func setupDB(t *testing.T) *gorm.DB {
	t.Helper()
	ctx := context.Background()

	pgC, err := tcPostgres.RunContainer(ctx,
		testcontainers.WithImage("postgres:15-alpine"),
		tcPostgres.WithDatabase("pvcaisse_test"),
		tcPostgres.WithUsername("pvcaisse"),
		tcPostgres.WithPassword("pvcaisse"),
		tcPostgres.BasicWaitStrategies(),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = pgC.Terminate(ctx) })

	dsn, err := pgC.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)
	db, err := infra.NewDatabase(dsn)
	require.NoError(t, err)
	return db
}

func day(s string) time.Time {
	d, _ := time.Parse(time.DateOnly, s)
	return d
}

func TestPVRepo_Versions(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()
	repo := NewPVRepository(db)

	user, agence := uuid.New(), uuid.New()
	base := time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)
	insert := func(date string, solde string, offset time.Duration) *model.PVCaisse {
		pv := &model.PVCaisse{
			ID: uuid.New(), UtilisateurID: user, AgenceID: agence, Date: day(date),
			BilletsData: "[]", PiecesData: "[]", OperationsData: "[]", TransactionsData: "[]",
			SoldeDepart: decimal.RequireFromString(solde), CreatedAt: base.Add(offset),
		}
		require.NoError(t, repo.Create(ctx, pv))
		return pv
	}

	insert("2026-03-05", "100", 0)
	insert("2026-03-08", "200", time.Minute)
	last := insert("2026-03-08", "250", 2*time.Minute)
	insert("2026-03-10", "300", 3*time.Minute)

	versions, err := repo.ListByUtilisateurDate(ctx, user, day("2026-03-08"))
	require.NoError(t, err)
	require.Len(t, versions, 2)
	assert.Equal(t, last.ID, versions[0].ID, "latest version first")

	prev, err := repo.ListDernierJourAvant(ctx, user, day("2026-03-10"))
	require.NoError(t, err)
	require.Len(t, prev, 2)
	for _, p := range prev {
		assert.Equal(t, "2026-03-08", p.Date.Format(time.DateOnly))
	}

	none, err := repo.ListDernierJourAvant(ctx, user, day("2026-03-05"))
	require.NoError(t, err)
	assert.Empty(t, none)

	periode, err := repo.ListByUtilisateurPeriode(ctx, user, day("2026-03-06"), day("2026-03-10"))
	require.NoError(t, err)
	assert.Len(t, periode, 3)

	parAgence, err := repo.ListByAgenceDate(ctx, agence, day("2026-03-10"))
	require.NoError(t, err)
	assert.Len(t, parAgence, 1)

	dup := *last
	assert.ErrorIs(t, repo.Create(ctx, &dup), ErrDuplicate)
}

func TestAgenceEtUtilisateurRepo(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()
	agences := NewAgenceRepository(db)
	users := NewUtilisateurRepository(db)

	a := &model.Agence{Code: "CTR", Nom: "Agence Centre", Actif: true}
	require.NoError(t, agences.Create(ctx, a))
	assert.ErrorIs(t, agences.Create(ctx, &model.Agence{Code: "CTR", Nom: "Doublon", Actif: true}), ErrDuplicate)

	u := &model.Utilisateur{Username: "agent1", Nom: "Agent Un", PasswordHash: "x", Role: model.RoleAgent, AgenceID: &a.ID, Actif: true}
	require.NoError(t, users.Create(ctx, u))

	found, err := users.FindByUsername(ctx, "agent1")
	require.NoError(t, err)
	assert.Equal(t, u.ID, found.ID)

	byAgence, err := users.ListByAgence(ctx, a.ID)
	require.NoError(t, err)
	assert.Len(t, byAgence, 1)

	require.NoError(t, users.SoftDelete(ctx, u.ID))
	_, err = users.FindByUsername(ctx, "agent1")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, users.Reactiver(ctx, u.ID))
	_, err = users.FindByUsername(ctx, "agent1")
	assert.NoError(t, err)

	_, err = agences.FindByID(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestConfigurationRepo_Upsert(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()
	repo := NewConfigurationRepository(db)

	_, err := repo.Get(ctx)
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, repo.Save(ctx, &model.ConfigurationPV{Catalogue: `{"entries":[]}`}))
	admin := uuid.New()
	require.NoError(t, repo.Save(ctx, &model.ConfigurationPV{Catalogue: `{"entries":[{"id":"x"}]}`, ModifiePar: &admin}))

	got, err := repo.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, model.ConfigurationSingletonID, got.ID)
	assert.Contains(t, got.Catalogue, `"x"`)
	require.NotNil(t, got.ModifiePar)
	assert.Equal(t, admin, *got.ModifiePar)

	var n int64
	require.NoError(t, db.Model(&model.ConfigurationPV{}).Count(&n).Error)
	assert.EqualValues(t, 1, n)
}

func TestRapportRepo_ListPendingRetries(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()
	repo := NewRapportRepository(db)

	now := time.Now().UTC()
	past, future := now.Add(-time.Minute), now.Add(time.Hour)
	mk := func(statut string, next *time.Time) *model.RapportEnvoi {
		r := &model.RapportEnvoi{
			AgenceID: uuid.New(), Date: day("2026-03-10"), Destinataire: "a@example.com",
			DemandePar: uuid.New(), Statut: statut, NextRetryAt: next,
		}
		require.NoError(t, repo.Create(ctx, r))
		return r
	}

	due := mk("echec", &past)
	mk("echec", &future)
	mk("envoye", nil)
	mk("en_attente", &past)

	list, err := repo.ListPendingRetries(ctx, now, 10)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, due.ID, list[0].ID)

	due.Statut = "envoye"
	require.NoError(t, repo.Update(ctx, due))
	got, err := repo.FindByID(ctx, due.ID)
	require.NoError(t, err)
	assert.Equal(t, "envoye", got.Statut)
}

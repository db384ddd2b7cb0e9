package service

import (
	"context"
	"testing"

	"pvcaisse/internal/caisse"
	"pvcaisse/internal/dto"
	"pvcaisse/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func catalogueTest() caisse.Catalog {
	return caisse.Catalog{Entries: []caisse.CatalogEntry{
		{ID: "mandat", Name: "Mandat", Direction: caisse.DirectionIn,
			Commission: caisse.CommissionRule{Type: caisse.CommissionFixed, FixedAmount: d("5")}},
	}}
}

func TestConfiguration_ParDefaut(t *testing.T) {
	svc := NewConfigurationService(&fakeConfigRepo{}, nil, 0)
	resp, err := svc.Obtenir(context.Background())
	require.NoError(t, err)
	assert.True(t, resp.ParDefaut)
	assert.Equal(t, caisse.DefaultCatalog(), resp.Catalogue)
}

func TestConfiguration_ModifierInvalideLeCache(t *testing.T) {
	repo := &fakeConfigRepo{}
	c := &memCache{}
	svc := NewConfigurationService(repo, c, 0)
	ctx := context.Background()

	_, err := svc.Catalogue(ctx)
	require.NoError(t, err)
	_, err = svc.Catalogue(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, repo.gets, "second read served from cache")

	admin := Acteur{UtilisateurID: uuid.New(), Role: model.RoleAdmin}
	resp, err := svc.Modifier(ctx, admin, dto.ModifierConfigurationRequest{Catalogue: catalogueTest()})
	require.NoError(t, err)
	assert.False(t, resp.ParDefaut)
	assert.Equal(t, 1, c.invalidated)
	require.NotNil(t, repo.row.ModifiePar)
	assert.Equal(t, admin.UtilisateurID, *repo.row.ModifiePar)

	cat, err := svc.Catalogue(ctx)
	require.NoError(t, err)
	require.Len(t, cat.Entries, 1)
	assert.Equal(t, "mandat", cat.Entries[0].ID)
}

func TestConfiguration_ModifierRefuse(t *testing.T) {
	svc := NewConfigurationService(&fakeConfigRepo{}, nil, 0)
	ctx := context.Background()

	_, err := svc.Modifier(ctx, Acteur{Role: model.RoleResponsable}, dto.ModifierConfigurationRequest{Catalogue: catalogueTest()})
	assert.ErrorIs(t, err, ErrForbidden)

	doublon := catalogueTest()
	doublon.Entries = append(doublon.Entries, doublon.Entries[0])
	_, err = svc.Modifier(ctx, Acteur{Role: model.RoleAdmin}, dto.ModifierConfigurationRequest{Catalogue: doublon})
	assert.ErrorIs(t, err, caisse.ErrValidation)

	chevauchement := caisse.Catalog{Entries: []caisse.CatalogEntry{{
		ID: "t", Name: "T", Direction: caisse.DirectionIn,
		Commission: caisse.CommissionRule{Type: caisse.CommissionTiered, Tiers: []caisse.Tier{
			{Min: d("0"), Max: d("500"), Commission: d("1")},
			{Min: d("400"), Max: d("900"), Commission: d("2")},
		}},
	}}}
	_, err = svc.Modifier(ctx, Acteur{Role: model.RoleAdmin}, dto.ModifierConfigurationRequest{Catalogue: chevauchement})
	assert.ErrorIs(t, err, caisse.ErrValidation)
}

func TestConfiguration_CatalogueIllisible(t *testing.T) {
	repo := &fakeConfigRepo{row: &model.ConfigurationPV{ID: 1, Catalogue: "{pas du json"}}
	svc := NewConfigurationService(repo, nil, 0)
	cat, err := svc.Catalogue(context.Background())
	require.NoError(t, err)
	assert.Equal(t, caisse.DefaultCatalog(), cat)
}

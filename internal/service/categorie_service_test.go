package service

import (
	"context"
	"testing"

	"pvcaisse/internal/dto"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCategories(t *testing.T) {
	svc := NewCategorieService(newFakeCategories())
	ctx := context.Background()

	depot, err := svc.Creer(ctx, dto.CreerCategorieRequest{Nom: "Banque", Type: "versement"})
	require.NoError(t, err)
	_, err = svc.Creer(ctx, dto.CreerCategorieRequest{Nom: "Banque", Type: "retrait"})
	require.NoError(t, err, "same name is allowed for the other type")
	_, err = svc.Creer(ctx, dto.CreerCategorieRequest{Nom: "Banque", Type: "versement"})
	assert.ErrorIs(t, err, ErrConflit)

	versements, err := svc.Lister(ctx, "versement")
	require.NoError(t, err)
	assert.Len(t, versements, 1)

	autre, err := svc.Creer(ctx, dto.CreerCategorieRequest{Nom: "Poste", Type: "versement"})
	require.NoError(t, err)
	nom := "Banque"
	_, err = svc.Modifier(ctx, autre.ID, dto.ModifierCategorieRequest{Nom: &nom})
	assert.ErrorIs(t, err, ErrConflit)

	require.NoError(t, svc.Desactiver(ctx, depot.ID))
	tous, err := svc.Lister(ctx, "")
	require.NoError(t, err)
	assert.Len(t, tous, 2)

	assert.ErrorIs(t, svc.Desactiver(ctx, uuid.New()), ErrNotFound)
}

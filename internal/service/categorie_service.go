package service

import (
	"context"
	"errors"
	"fmt"

	"pvcaisse/internal/dto"
	"pvcaisse/internal/model"
	"pvcaisse/internal/repository"

	"github.com/google/uuid"
)

// CategorieService manages the labels offered for versements and retraits.
type CategorieService interface {
	Creer(ctx context.Context, req dto.CreerCategorieRequest) (dto.CategorieResponse, error)
	Lister(ctx context.Context, typ string) ([]dto.CategorieResponse, error)
	Modifier(ctx context.Context, id uuid.UUID, req dto.ModifierCategorieRequest) (dto.CategorieResponse, error)
	Desactiver(ctx context.Context, id uuid.UUID) error
}

type categorieService struct {
	repo repository.CategorieRepository
}

func NewCategorieService(repo repository.CategorieRepository) CategorieService {
	return &categorieService{repo: repo}
}

func mapCategorie(c model.Categorie) dto.CategorieResponse {
	return dto.CategorieResponse{
		ID:          c.ID,
		Nom:         c.Nom,
		Type:        c.Type,
		Description: c.Description,
		Actif:       c.Actif,
	}
}

var errCategorieDoublon = fmt.Errorf("%w: une catégorie de ce type porte déjà ce nom", ErrConflit)

func (s *categorieService) Creer(ctx context.Context, req dto.CreerCategorieRequest) (dto.CategorieResponse, error) {
	existing, err := s.repo.ObtenirParNom(ctx, req.Nom, req.Type)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return dto.CategorieResponse{}, err
	}
	if existing != nil {
		return dto.CategorieResponse{}, errCategorieDoublon
	}

	c := &model.Categorie{
		Nom:         req.Nom,
		Type:        req.Type,
		Description: req.Description,
		Actif:       true,
	}
	if err := s.repo.Creer(ctx, c); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return dto.CategorieResponse{}, errCategorieDoublon
		}
		return dto.CategorieResponse{}, err
	}
	return mapCategorie(*c), nil
}

func (s *categorieService) Lister(ctx context.Context, typ string) ([]dto.CategorieResponse, error) {
	list, err := s.repo.Lister(ctx, typ)
	if err != nil {
		return nil, err
	}
	result := make([]dto.CategorieResponse, 0, len(list))
	for _, c := range list {
		result = append(result, mapCategorie(c))
	}
	return result, nil
}

func (s *categorieService) Modifier(ctx context.Context, id uuid.UUID, req dto.ModifierCategorieRequest) (dto.CategorieResponse, error) {
	c, err := s.repo.ObtenirParID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return dto.CategorieResponse{}, fmt.Errorf("catégorie %w", ErrNotFound)
		}
		return dto.CategorieResponse{}, err
	}

	if req.Nom != nil && *req.Nom != c.Nom {
		existing, err := s.repo.ObtenirParNom(ctx, *req.Nom, c.Type)
		if err != nil && !errors.Is(err, repository.ErrNotFound) {
			return dto.CategorieResponse{}, err
		}
		if existing != nil && existing.ID != id {
			return dto.CategorieResponse{}, errCategorieDoublon
		}
		c.Nom = *req.Nom
	}
	if req.Description != nil {
		c.Description = req.Description
	}
	if req.Actif != nil {
		c.Actif = *req.Actif
	}

	if err := s.repo.Modifier(ctx, c); err != nil {
		return dto.CategorieResponse{}, err
	}
	return mapCategorie(*c), nil
}

func (s *categorieService) Desactiver(ctx context.Context, id uuid.UUID) error {
	if _, err := s.repo.ObtenirParID(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("catégorie %w", ErrNotFound)
		}
		return err
	}
	return s.repo.Desactiver(ctx, id)
}

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

type AgenceService interface {
	Creer(ctx context.Context, req dto.CreerAgenceRequest) (dto.AgenceResponse, error)
	Lister(ctx context.Context, inclureInactives bool) ([]dto.AgenceResponse, error)
	Obtenir(ctx context.Context, id uuid.UUID) (dto.AgenceResponse, error)
	Modifier(ctx context.Context, id uuid.UUID, req dto.ModifierAgenceRequest) (dto.AgenceResponse, error)
	Desactiver(ctx context.Context, id uuid.UUID) error
}

type agenceService struct {
	repo repository.AgenceRepository
}

func NewAgenceService(repo repository.AgenceRepository) AgenceService {
	return &agenceService{repo: repo}
}

func mapAgence(a model.Agence) dto.AgenceResponse {
	return dto.AgenceResponse{
		ID:      a.ID,
		Code:    a.Code,
		Nom:     a.Nom,
		Adresse: a.Adresse,
		Email:   a.Email,
		Actif:   a.Actif,
	}
}

func (s *agenceService) Creer(ctx context.Context, req dto.CreerAgenceRequest) (dto.AgenceResponse, error) {
	a := &model.Agence{
		Code:    req.Code,
		Nom:     req.Nom,
		Adresse: req.Adresse,
		Email:   req.Email,
		Actif:   true,
	}
	if err := s.repo.Create(ctx, a); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return dto.AgenceResponse{}, fmt.Errorf("%w: une agence utilise déjà ce code", ErrConflit)
		}
		return dto.AgenceResponse{}, err
	}
	return mapAgence(*a), nil
}

func (s *agenceService) Lister(ctx context.Context, inclureInactives bool) ([]dto.AgenceResponse, error) {
	list, err := s.repo.List(ctx, inclureInactives)
	if err != nil {
		return nil, err
	}
	result := make([]dto.AgenceResponse, 0, len(list))
	for _, a := range list {
		result = append(result, mapAgence(a))
	}
	return result, nil
}

func (s *agenceService) Obtenir(ctx context.Context, id uuid.UUID) (dto.AgenceResponse, error) {
	a, err := s.trouver(ctx, id)
	if err != nil {
		return dto.AgenceResponse{}, err
	}
	return mapAgence(*a), nil
}

func (s *agenceService) Modifier(ctx context.Context, id uuid.UUID, req dto.ModifierAgenceRequest) (dto.AgenceResponse, error) {
	a, err := s.trouver(ctx, id)
	if err != nil {
		return dto.AgenceResponse{}, err
	}
	if req.Nom != nil {
		a.Nom = *req.Nom
	}
	if req.Adresse != nil {
		a.Adresse = req.Adresse
	}
	if req.Email != nil {
		a.Email = req.Email
	}
	if req.Actif != nil {
		a.Actif = *req.Actif
	}
	if err := s.repo.Update(ctx, a); err != nil {
		return dto.AgenceResponse{}, err
	}
	return mapAgence(*a), nil
}

func (s *agenceService) Desactiver(ctx context.Context, id uuid.UUID) error {
	if _, err := s.trouver(ctx, id); err != nil {
		return err
	}
	return s.repo.Desactiver(ctx, id)
}

func (s *agenceService) trouver(ctx context.Context, id uuid.UUID) (*model.Agence, error) {
	a, err := s.repo.FindByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("agence %w", ErrNotFound)
	}
	return a, err
}

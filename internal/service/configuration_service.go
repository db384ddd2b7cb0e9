package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"pvcaisse/internal/cache"
	"pvcaisse/internal/caisse"
	"pvcaisse/internal/dto"
	"pvcaisse/internal/model"
	"pvcaisse/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// ConfigurationService owns the operation catalogue and its commission rules.
type ConfigurationService interface {
	// Catalogue returns the configured catalogue, or caisse.DefaultCatalog()
	// while nothing has been saved.
	Catalogue(ctx context.Context) (caisse.Catalog, error)
	Obtenir(ctx context.Context) (*dto.ConfigurationResponse, error)
	Modifier(ctx context.Context, a Acteur, req dto.ModifierConfigurationRequest) (*dto.ConfigurationResponse, error)
}

type configurationService struct {
	repo  repository.ConfigurationRepository
	cache cache.CatalogueCache
	ttl   time.Duration
}

func NewConfigurationService(repo repository.ConfigurationRepository, c cache.CatalogueCache, ttl time.Duration) ConfigurationService {
	if c == nil {
		c = cache.NoopCatalogueCache{}
	}
	return &configurationService{repo: repo, cache: c, ttl: ttl}
}

func (s *configurationService) Catalogue(ctx context.Context) (caisse.Catalog, error) {
	if cat, ok, err := s.cache.Get(ctx); err != nil {
		log.Warn().Err(err).Msg("configuration: lecture du cache impossible")
	} else if ok {
		return *cat, nil
	}

	resp, err := s.Obtenir(ctx)
	if err != nil {
		return caisse.Catalog{}, err
	}
	if err := s.cache.Set(ctx, &resp.Catalogue, s.ttl); err != nil {
		log.Warn().Err(err).Msg("configuration: écriture du cache impossible")
	}
	return resp.Catalogue, nil
}

func (s *configurationService) Obtenir(ctx context.Context) (*dto.ConfigurationResponse, error) {
	row, err := s.repo.Get(ctx)
	if errors.Is(err, repository.ErrNotFound) {
		return &dto.ConfigurationResponse{Catalogue: caisse.DefaultCatalog(), ParDefaut: true}, nil
	}
	if err != nil {
		return nil, err
	}

	var cat caisse.Catalog
	if err := json.Unmarshal([]byte(row.Catalogue), &cat); err != nil {
		// An unreadable row must not block PV entry.
		log.Error().Err(err).Msg("configuration: catalogue illisible, catalogue par défaut utilisé")
		return &dto.ConfigurationResponse{Catalogue: caisse.DefaultCatalog(), ParDefaut: true}, nil
	}
	updated := row.UpdatedAt.UTC().Format(time.RFC3339)
	return &dto.ConfigurationResponse{Catalogue: cat, UpdatedAt: &updated}, nil
}

func (s *configurationService) Modifier(ctx context.Context, a Acteur, req dto.ModifierConfigurationRequest) (*dto.ConfigurationResponse, error) {
	if !a.EstAdmin() {
		return nil, ErrForbidden
	}
	if err := req.Catalogue.Validate(); err != nil {
		return nil, err
	}
	raw, err := json.Marshal(req.Catalogue)
	if err != nil {
		return nil, fmt.Errorf("configuration: encodage du catalogue: %w", err)
	}

	row := &model.ConfigurationPV{Catalogue: string(raw), UpdatedAt: time.Now()}
	if a.UtilisateurID != uuid.Nil {
		id := a.UtilisateurID
		row.ModifiePar = &id
	}
	if err := s.repo.Save(ctx, row); err != nil {
		return nil, err
	}
	if err := s.cache.Invalidate(ctx); err != nil {
		log.Warn().Err(err).Msg("configuration: invalidation du cache impossible")
	}

	log.Info().Int("entrees", len(req.Catalogue.Entries)).Msg("configuration: catalogue modifié")
	updated := row.UpdatedAt.UTC().Format(time.RFC3339)
	return &dto.ConfigurationResponse{Catalogue: req.Catalogue, UpdatedAt: &updated}, nil
}

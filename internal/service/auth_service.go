package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"pvcaisse/internal/caisse"
	"pvcaisse/internal/config"
	"pvcaisse/internal/dto"
	"pvcaisse/internal/model"
	"pvcaisse/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const bcryptCost = 12

type AuthService interface {
	Login(ctx context.Context, req dto.LoginRequest) (*dto.LoginResponse, error)
	Refresh(ctx context.Context, refreshToken string) (*dto.LoginResponse, error)
	CreerUtilisateur(ctx context.Context, req dto.CreerUtilisateurRequest) (*dto.UtilisateurResponse, error)
	ListerUtilisateurs(ctx context.Context, inclureInactifs bool) ([]dto.UtilisateurResponse, error)
	ModifierUtilisateur(ctx context.Context, id uuid.UUID, req dto.ModifierUtilisateurRequest) (*dto.UtilisateurResponse, error)
	DesactiverUtilisateur(ctx context.Context, id uuid.UUID) error
	ReactiverUtilisateur(ctx context.Context, id uuid.UUID) error
}

type authService struct {
	repo    repository.UtilisateurRepository
	agences repository.AgenceRepository
	cfg     *config.Config
}

func NewAuthService(repo repository.UtilisateurRepository, agences repository.AgenceRepository, cfg *config.Config) AuthService {
	return &authService{repo: repo, agences: agences, cfg: cfg}
}

func (s *authService) Login(ctx context.Context, req dto.LoginRequest) (*dto.LoginResponse, error) {
	user, err := s.repo.FindByUsername(ctx, req.Username)
	if err != nil {
		return nil, errors.New("identifiants invalides")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, errors.New("identifiants invalides")
	}
	return s.tokens(user)
}

func (s *authService) Refresh(ctx context.Context, refreshToken string) (*dto.LoginResponse, error) {
	token, err := jwt.Parse(refreshToken, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(s.cfg.JWTSecret), nil
	})
	if err != nil || !token.Valid {
		return nil, errors.New("jeton de rafraîchissement invalide ou expiré")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errors.New("jeton mal formé")
	}
	userIDStr, ok := claims["user_id"].(string)
	if !ok {
		return nil, errors.New("jeton mal formé")
	}
	uid, err := uuid.Parse(userIDStr)
	if err != nil {
		return nil, errors.New("jeton mal formé")
	}

	user, err := s.repo.FindByID(ctx, uid)
	if err != nil || !user.Actif {
		return nil, errors.New("utilisateur introuvable ou inactif")
	}
	return s.tokens(user)
}

func (s *authService) tokens(user *model.Utilisateur) (*dto.LoginResponse, error) {
	accessToken, err := s.generateToken(user, time.Duration(s.cfg.JWTExpirationHours)*time.Hour)
	if err != nil {
		return nil, err
	}
	refreshToken, err := s.generateToken(user, time.Duration(s.cfg.JWTRefreshHours)*time.Hour)
	if err != nil {
		return nil, err
	}
	return &dto.LoginResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "bearer",
		ExpiresIn:    s.cfg.JWTExpirationHours * 3600,
		User:         mapUtilisateur(*user),
	}, nil
}

func (s *authService) CreerUtilisateur(ctx context.Context, req dto.CreerUtilisateurRequest) (*dto.UtilisateurResponse, error) {
	agenceID, err := s.agenceValide(ctx, req.AgenceID)
	if err != nil {
		return nil, err
	}
	if agenceID == nil && req.Role != model.RoleAdmin {
		return nil, fmt.Errorf("%w: agence requise pour le rôle %s", caisse.ErrValidation, req.Role)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcryptCost)
	if err != nil {
		return nil, err
	}
	user := &model.Utilisateur{
		Username:     req.Username,
		Nom:          req.Nom,
		Email:        req.Email,
		PasswordHash: string(hash),
		Role:         req.Role,
		AgenceID:     agenceID,
		Actif:        true,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, fmt.Errorf("%w: nom d'utilisateur déjà utilisé", ErrConflit)
		}
		return nil, err
	}
	resp := mapUtilisateur(*user)
	return &resp, nil
}

func (s *authService) ListerUtilisateurs(ctx context.Context, inclureInactifs bool) ([]dto.UtilisateurResponse, error) {
	var users []model.Utilisateur
	var err error
	if inclureInactifs {
		users, err = s.repo.ListAll(ctx)
	} else {
		users, err = s.repo.List(ctx)
	}
	if err != nil {
		return nil, err
	}
	resp := make([]dto.UtilisateurResponse, len(users))
	for i, u := range users {
		resp[i] = mapUtilisateur(u)
	}
	return resp, nil
}

func (s *authService) ModifierUtilisateur(ctx context.Context, id uuid.UUID, req dto.ModifierUtilisateurRequest) (*dto.UtilisateurResponse, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("utilisateur %w", ErrNotFound)
	}
	if req.Nom != "" {
		user.Nom = req.Nom
	}
	if req.Email != nil {
		user.Email = req.Email
	}
	if req.Role != "" {
		user.Role = req.Role
	}
	if req.AgenceID != nil {
		agenceID, err := s.agenceValide(ctx, req.AgenceID)
		if err != nil {
			return nil, err
		}
		user.AgenceID = agenceID
	}
	if req.Password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcryptCost)
		if err != nil {
			return nil, err
		}
		user.PasswordHash = string(hash)
	}
	if err := s.repo.Update(ctx, user); err != nil {
		return nil, err
	}
	resp := mapUtilisateur(*user)
	return &resp, nil
}

func (s *authService) DesactiverUtilisateur(ctx context.Context, id uuid.UUID) error {
	return s.repo.SoftDelete(ctx, id)
}

func (s *authService) ReactiverUtilisateur(ctx context.Context, id uuid.UUID) error {
	return s.repo.Reactiver(ctx, id)
}

// agenceValide parses raw and checks the agency exists and is active.
func (s *authService) agenceValide(ctx context.Context, raw *string) (*uuid.UUID, error) {
	if raw == nil || *raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(*raw)
	if err != nil {
		return nil, fmt.Errorf("%w: agence_id invalide", caisse.ErrValidation)
	}
	ag, err := s.agences.FindByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("agence %w", ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	if !ag.Actif {
		return nil, fmt.Errorf("%w: agence inactive", caisse.ErrValidation)
	}
	return &id, nil
}

func (s *authService) generateToken(user *model.Utilisateur, duration time.Duration) (string, error) {
	var agence *string
	if user.AgenceID != nil {
		a := user.AgenceID.String()
		agence = &a
	}
	claims := jwt.MapClaims{
		"user_id":   user.ID.String(),
		"username":  user.Username,
		"role":      user.Role,
		"agence_id": agence,
		"exp":       time.Now().Add(duration).Unix(),
		"iat":       time.Now().Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.cfg.JWTSecret))
}

func mapUtilisateur(u model.Utilisateur) dto.UtilisateurResponse {
	var agence *string
	if u.AgenceID != nil {
		a := u.AgenceID.String()
		agence = &a
	}
	return dto.UtilisateurResponse{
		ID: u.ID.String(), Username: u.Username, Nom: u.Nom,
		Email: u.Email, Role: u.Role, AgenceID: agence, Actif: u.Actif,
	}
}

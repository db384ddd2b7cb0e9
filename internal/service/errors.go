package service

import (
	"errors"

	"pvcaisse/internal/model"

	"github.com/google/uuid"
)

var (
	ErrNotFound  = errors.New("ressource introuvable")
	ErrForbidden = errors.New("accès refusé")
	ErrConflit   = errors.New("conflit")
)

// Acteur is the authenticated caller a request is evaluated for.
type Acteur struct {
	UtilisateurID uuid.UUID
	Role          string
	AgenceID      *uuid.UUID
}

// ActeurSysteme is used by background jobs. It has admin scope.
var ActeurSysteme = Acteur{Role: model.RoleAdmin}

func (a Acteur) EstAdmin() bool { return a.Role == model.RoleAdmin }

// peutVoirAgence reports whether a may read the PVs of agenceID.
func (a Acteur) peutVoirAgence(agenceID uuid.UUID) bool {
	switch a.Role {
	case model.RoleAdmin:
		return true
	case model.RoleResponsable:
		return a.AgenceID != nil && *a.AgenceID == agenceID
	}
	return false
}

package model

import (
	"time"

	"github.com/google/uuid"
)

// Roles.
const (
	RoleAgent       = "agent"
	RoleResponsable = "responsable"
	RoleAdmin       = "admin"
)

// Utilisateur stores system users with role-based access.
// Role: "agent" | "responsable" | "admin"
type Utilisateur struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Username     string    `gorm:"uniqueIndex;not null"`
	Nom          string    `gorm:"not null"`
	Email        *string
	PasswordHash string `gorm:"not null"`
	Role         string `gorm:"type:varchar(20);not null"`
	// AgenceID is the agency the user enters PVs for; nil only for admins.
	AgenceID  *uuid.UUID `gorm:"type:uuid;index"`
	Actif     bool       `gorm:"not null;default:true"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (Utilisateur) TableName() string { return "utilisateurs" }

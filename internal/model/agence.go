package model

import (
	"time"

	"github.com/google/uuid"
)

// Agence is a branch office. PVs and agents are scoped to one agency.
type Agence struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Code      string    `gorm:"type:varchar(20);uniqueIndex;not null"`
	Nom       string    `gorm:"not null"`
	Adresse   *string
	Email     *string
	Actif     bool `gorm:"not null;default:true"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (Agence) TableName() string { return "agences" }

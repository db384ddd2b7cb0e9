package model

import (
	"time"

	"github.com/google/uuid"
)

// RapportEnvoi tracks the emailed consolidation report of one agency for one day.
// Statut: "en_attente" | "envoye" | "echec" | "abandonne"
type RapportEnvoi struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	AgenceID     uuid.UUID `gorm:"type:uuid;not null;index"`
	Date         time.Time `gorm:"type:date;not null"`
	Destinataire string    `gorm:"not null"`
	DemandePar   uuid.UUID `gorm:"type:uuid;not null"`
	Statut       string    `gorm:"type:varchar(20);not null;default:'en_attente'"`
	// PDFPath is relative to PDF_STORAGE_PATH
	PDFPath     *string
	Tentatives  int        `gorm:"not null;default:0"`
	NextRetryAt *time.Time `gorm:"index"`
	LastError   *string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (RapportEnvoi) TableName() string { return "rapport_envois" }

package dto

import "github.com/google/uuid"

// ── Request DTOs ──────────────────────────────────────────────────────────────

type CreerCategorieRequest struct {
	Nom         string  `json:"nom"         validate:"required,min=2,max=100"`
	Type        string  `json:"type"        validate:"required,oneof=versement retrait"`
	Description *string `json:"description"`
}

type ModifierCategorieRequest struct {
	Nom         *string `json:"nom"         validate:"omitempty,min=2,max=100"`
	Description *string `json:"description"`
	Actif       *bool   `json:"actif"`
}

// ── Response DTOs ─────────────────────────────────────────────────────────────

type CategorieResponse struct {
	ID          uuid.UUID `json:"id"`
	Nom         string    `json:"nom"`
	Type        string    `json:"type"`
	Description *string   `json:"description,omitempty"`
	Actif       bool      `json:"actif"`
}

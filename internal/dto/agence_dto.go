package dto

import "github.com/google/uuid"

// ── Request DTOs ──────────────────────────────────────────────────────────────

type CreerAgenceRequest struct {
	Code    string  `json:"code"    validate:"required,min=2,max=20"`
	Nom     string  `json:"nom"     validate:"required,min=2,max=100"`
	Adresse *string `json:"adresse"`
	Email   *string `json:"email"   validate:"omitempty,email"`
}

type ModifierAgenceRequest struct {
	Nom     *string `json:"nom"     validate:"omitempty,min=2,max=100"`
	Adresse *string `json:"adresse"`
	Email   *string `json:"email"   validate:"omitempty,email"`
	Actif   *bool   `json:"actif"`
}

// ── Response DTOs ─────────────────────────────────────────────────────────────

type AgenceResponse struct {
	ID      uuid.UUID `json:"id"`
	Code    string    `json:"code"`
	Nom     string    `json:"nom"`
	Adresse *string   `json:"adresse,omitempty"`
	Email   *string   `json:"email,omitempty"`
	Actif   bool      `json:"actif"`
}

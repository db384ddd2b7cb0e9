package dto

import (
	"pvcaisse/internal/caisse"

	"github.com/shopspring/decimal"
)

// ─── Request DTOs ────────────────────────────────────────────────────────────

// PVContenu is the content of a PV as entered by the operator.
type PVContenu struct {
	Billets      []caisse.DenominationLine `json:"billets"`
	Pieces       []caisse.DenominationLine `json:"pieces"`
	Operations   []caisse.Operation        `json:"operations"`
	Transactions []caisse.Transaction      `json:"transactions"`
	SoldeDepart  decimal.Decimal           `json:"solde_depart" validate:"min=0"`
}

// EnregistrerPVRequest is a full PV snapshot. Every save appends a new version.
type EnregistrerPVRequest struct {
	// UtilisateurID lets a responsable or admin save on behalf of an agent.
	UtilisateurID *string `json:"utilisateur_id" validate:"omitempty,uuid"`
	Date          string  `json:"date"           validate:"required,datetime=2006-01-02"`
	PVContenu
}

// BrouillonRequest applies operator edits to an in-memory PV. When Base is
// nil the current PV (or a fresh draft) for Date is used.
type BrouillonRequest struct {
	UtilisateurID *string       `json:"utilisateur_id" validate:"omitempty,uuid"`
	Date          string        `json:"date"           validate:"required,datetime=2006-01-02"`
	Base          *PVContenu    `json:"base"`
	Modifications []caisse.Edit `json:"modifications"  validate:"dive"`
}

type RapportRequest struct {
	Date         string  `json:"date"         validate:"required,datetime=2006-01-02"`
	Destinataire *string `json:"destinataire" validate:"omitempty,email"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type PVResponse struct {
	ID            string                    `json:"id,omitempty"`
	UtilisateurID string                    `json:"utilisateur_id"`
	AgenceID      string                    `json:"agence_id"`
	Date          string                    `json:"date"`
	Billets       []caisse.DenominationLine `json:"billets"`
	Pieces        []caisse.DenominationLine `json:"pieces"`
	Operations    []caisse.Operation        `json:"operations"`
	Transactions  []caisse.Transaction      `json:"transactions"`
	SoldeDepart   decimal.Decimal           `json:"solde_depart"`
	CreatedAt     string                    `json:"created_at,omitempty"`
	Resultat      caisse.Result             `json:"resultat"`
	// Brouillon is true when nothing has been saved yet for this day.
	Brouillon      bool             `json:"brouillon"`
	Avertissements []caisse.Warning `json:"avertissements,omitempty"`
}

type VersionsResponse struct {
	Date           string           `json:"date"`
	UtilisateurID  string           `json:"utilisateur_id"`
	Versions       []PVResponse     `json:"versions"` // newest first
	Avertissements []caisse.Warning `json:"avertissements,omitempty"`
}

type HistoriqueResponse struct {
	UtilisateurID  string           `json:"utilisateur_id"`
	Jours          []PVResponse     `json:"jours"` // dates descending
	Avertissements []caisse.Warning `json:"avertissements,omitempty"`
}

type OperationLigne struct {
	CatalogueID string              `json:"catalogue_id,omitempty"`
	Nom         string              `json:"nom"`
	Sens        caisse.Direction    `json:"sens"`
	Nombre      int                 `json:"nombre"`
	Montant     decimal.Decimal     `json:"montant"`
	Commission  decimal.Decimal     `json:"commission"`
	Details     []caisse.DetailLine `json:"details,omitempty"`
}

type OperationsResponse struct {
	Date             string           `json:"date"`
	UtilisateurID    string           `json:"utilisateur_id"`
	Operations       []OperationLigne `json:"operations"`
	TotalOperations  decimal.Decimal  `json:"total_operations"`
	TotalCommissions decimal.Decimal  `json:"total_commissions"`
}

type SoldeOuvertureResponse struct {
	Date          string          `json:"date"`
	UtilisateurID string          `json:"utilisateur_id"`
	SoldeDepart   decimal.Decimal `json:"solde_depart"`
}

type AgentResultat struct {
	UtilisateurID string        `json:"utilisateur_id"`
	PVID          string        `json:"pv_id"`
	CreatedAt     string        `json:"created_at"`
	Resultat      caisse.Result `json:"resultat"`
}

type ConsolidationResponse struct {
	AgenceID       string                    `json:"agence_id"`
	Agence         string                    `json:"agence"`
	Date           string                    `json:"date"`
	Resultat       caisse.Result             `json:"resultat"`
	Agents         []AgentResultat           `json:"agents"`
	Coupures       []caisse.DenominationLine `json:"coupures"`
	Operations     []OperationLigne          `json:"operations"`
	Conflits       []caisse.MergeConflict    `json:"conflits,omitempty"`
	Avertissements []caisse.Warning          `json:"avertissements,omitempty"`
}

type AgenceResultat struct {
	AgenceID     string        `json:"agence_id"`
	Agence       string        `json:"agence"`
	NombreAgents int           `json:"nombre_agents"`
	Resultat     caisse.Result `json:"resultat"`
}

type TableauDeBordResponse struct {
	Date           string           `json:"date"`
	Agences        []AgenceResultat `json:"agences"`
	Total          caisse.Result    `json:"total"`
	Avertissements []caisse.Warning `json:"avertissements,omitempty"`
}

type JourConsolide struct {
	Date     string           `json:"date"`
	Resultat caisse.Result    `json:"resultat"`
	Agences  []AgenceResultat `json:"agences"`
}

type HistoriqueConsolideResponse struct {
	Jours          []JourConsolide  `json:"jours"` // dates descending
	Avertissements []caisse.Warning `json:"avertissements,omitempty"`
}

type RapportResponse struct {
	ID     string `json:"id"`
	Statut string `json:"statut"`
}

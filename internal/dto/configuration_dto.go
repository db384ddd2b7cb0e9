package dto

import "pvcaisse/internal/caisse"

type ModifierConfigurationRequest struct {
	Catalogue caisse.Catalog `json:"catalogue"`
}

type ConfigurationResponse struct {
	Catalogue caisse.Catalog `json:"catalogue"`
	// ParDefaut is true while no configuration has been saved.
	ParDefaut bool    `json:"par_defaut"`
	UpdatedAt *string `json:"updated_at,omitempty"`
}

package dto

// ─── Request DTOs ────────────────────────────────────────────────────────────

type LoginRequest struct {
	Username string `json:"username" validate:"required,min=1"`
	Password string `json:"password" validate:"required,min=4"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

type CreerUtilisateurRequest struct {
	Username string  `json:"username"  validate:"required,min=1,max=150"`
	Nom      string  `json:"nom"       validate:"required,min=2,max=100"`
	Email    *string `json:"email"     validate:"omitempty,email"`
	Password string  `json:"password"  validate:"required,min=8"`
	Role     string  `json:"role"      validate:"required,oneof=agent responsable admin"`
	AgenceID *string `json:"agence_id" validate:"omitempty,uuid"`
}

type ModifierUtilisateurRequest struct {
	Nom      string  `json:"nom"       validate:"omitempty,min=2,max=100"`
	Email    *string `json:"email"     validate:"omitempty,email"`
	Role     string  `json:"role"      validate:"omitempty,oneof=agent responsable admin"`
	AgenceID *string `json:"agence_id" validate:"omitempty,uuid"`
	Password string  `json:"password"  validate:"omitempty,min=8"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type UtilisateurResponse struct {
	ID       string  `json:"id"`
	Username string  `json:"username"`
	Nom      string  `json:"nom"`
	Email    *string `json:"email"`
	Role     string  `json:"role"`
	AgenceID *string `json:"agence_id"`
	Actif    bool    `json:"actif"`
}

type LoginResponse struct {
	AccessToken  string              `json:"access_token"`
	RefreshToken string              `json:"refresh_token"`
	TokenType    string              `json:"token_type"`
	ExpiresIn    int                 `json:"expires_in"` // seconds
	User         UtilisateurResponse `json:"user"`
}

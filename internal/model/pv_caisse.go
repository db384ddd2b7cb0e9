package model

import (
	"time"

	"pvcaisse/internal/caisse"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PVCaisse is one saved version of an agent's daily cash statement.
// Rows are NEVER updated or deleted: every save inserts a new version and the
// current one for (utilisateur, date) is the latest by created_at.
//
// Ledgers are stored as JSON text so that a single unreadable row is reported
// instead of failing the whole query.
type PVCaisse struct {
	ID               uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UtilisateurID    uuid.UUID       `gorm:"type:uuid;not null;index:idx_pv_utilisateur_date"`
	AgenceID         uuid.UUID       `gorm:"type:uuid;not null;index:idx_pv_agence_date"`
	Date             time.Time       `gorm:"type:date;not null;index:idx_pv_utilisateur_date;index:idx_pv_agence_date"`
	BilletsData      string          `gorm:"type:text;not null;default:'[]'"`
	PiecesData       string          `gorm:"type:text;not null;default:'[]'"`
	OperationsData   string          `gorm:"type:text;not null;default:'[]'"`
	TransactionsData string          `gorm:"type:text;not null;default:'[]'"`
	SoldeDepart      decimal.Decimal `gorm:"type:decimal(14,2);not null;default:0"`
	CreatedAt        time.Time       `gorm:"not null;index"`
}

func (PVCaisse) TableName() string { return "pv_caisses" }

// Stored exposes the row to the reconciliation engine without decoding it.
func (p PVCaisse) Stored() caisse.Stored {
	return caisse.Stored{
		ID:               p.ID,
		UserID:           p.UtilisateurID,
		AgencyID:         p.AgenceID,
		Date:             p.Date,
		BillsJSON:        []byte(p.BilletsData),
		CoinsJSON:        []byte(p.PiecesData),
		OperationsJSON:   []byte(p.OperationsData),
		TransactionsJSON: []byte(p.TransactionsData),
		SoldeDepart:      p.SoldeDepart,
		CreatedAt:        p.CreatedAt,
	}
}

// NewPVCaisse encodes r into a row ready to be inserted.
func NewPVCaisse(r caisse.Record) (*PVCaisse, error) {
	enc, err := caisse.Encode(r)
	if err != nil {
		return nil, err
	}
	return &PVCaisse{
		ID:               r.ID,
		UtilisateurID:    r.UserID,
		AgenceID:         r.AgencyID,
		Date:             caisse.Day(r.Date),
		BilletsData:      string(enc.Bills),
		PiecesData:       string(enc.Coins),
		OperationsData:   string(enc.Operations),
		TransactionsData: string(enc.Transactions),
		SoldeDepart:      r.SoldeDepart,
		CreatedAt:        r.CreatedAt,
	}, nil
}

// StoredAll converts a result set for caisse.DecodeAll.
func StoredAll(rows []PVCaisse) []caisse.Stored {
	out := make([]caisse.Stored, len(rows))
	for i, p := range rows {
		out[i] = p.Stored()
	}
	return out
}

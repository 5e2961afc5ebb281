package accounts

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PartnerAccount represents a ledger-bearing partner (shareholder,
// investor or similar stakeholder) of one company.
type PartnerAccount struct {
	ID                  uuid.UUID       `json:"id"`
	CompanyID           int64           `json:"company_id"`
	PartnerName         string          `json:"partner_name"`
	AccountType         string          `json:"account_type"`
	Currency            string          `json:"currency"`
	InitialCapital      decimal.Decimal `json:"initial_capital"`
	CurrentBalance      decimal.Decimal `json:"current_balance"`
	OwnershipPercentage decimal.Decimal `json:"ownership_percentage"`
	IsActive            bool            `json:"is_active"`
	CreatedAt           time.Time       `json:"created_at"`
	UpdatedAt           time.Time       `json:"updated_at"`
}

// AccountType values accepted for partner accounts.
const (
	TypePartner     = "partner"
	TypeShareholder = "shareholder"
	TypeInvestor    = "investor"
)

// ValidAccountType reports whether t is one of the known account types.
func ValidAccountType(t string) bool {
	switch t {
	case TypePartner, TypeShareholder, TypeInvestor:
		return true
	}
	return false
}

package accounts

// CreateAccountRequest is the JSON body for a new partner account.
type CreateAccountRequest struct {
	PartnerName         string `json:"partner_name" validate:"required,max=200"`
	AccountType         string `json:"account_type" validate:"required,oneof=partner shareholder investor"`
	Currency            string `json:"currency" validate:"required,len=3"`
	InitialCapital      string `json:"initial_capital,omitempty"`
	OwnershipPercentage string `json:"ownership_percentage,omitempty"`
}

// UpdateAccountRequest carries optional field updates. Initial capital is
// accepted only while the account has no ledger activity.
type UpdateAccountRequest struct {
	PartnerName         *string `json:"partner_name,omitempty" validate:"omitempty,max=200"`
	AccountType         *string `json:"account_type,omitempty" validate:"omitempty,oneof=partner shareholder investor"`
	InitialCapital      *string `json:"initial_capital,omitempty"`
	OwnershipPercentage *string `json:"ownership_percentage,omitempty"`
	IsActive            *bool   `json:"is_active,omitempty"`
}

// ListAccountsRequest captures list filters.
type ListAccountsRequest struct {
	IsActive *bool
	Search   string
	Page     int
	PerPage  int
}

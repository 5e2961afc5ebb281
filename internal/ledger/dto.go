package ledger

import (
	"time"

	"github.com/shopspring/decimal"
)

// RecordTransactionRequest is the JSON body for a new income/expense
// entry. Amounts travel as strings so clients keep decimal precision.
type RecordTransactionRequest struct {
	Type            string `json:"type" validate:"required,oneof=income expense"`
	Amount          string `json:"amount" validate:"required"`
	Description     string `json:"description" validate:"max=500"`
	Category        string `json:"category" validate:"max=100"`
	TransactionDate string `json:"transaction_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
}

// CreateTransferRequest is the JSON body for a new transfer.
type CreateTransferRequest struct {
	FromAccountID string `json:"from_account_id" validate:"required,uuid4"`
	ToAccountID   string `json:"to_account_id" validate:"required,uuid4"`
	Amount        string `json:"amount" validate:"required"`
	TransferDate  string `json:"transfer_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
}

// ActivityResponse is the wire form of one feed row.
type ActivityResponse struct {
	ID              string    `json:"id"`
	Kind            string    `json:"kind"`
	Type            string    `json:"type"`
	Amount          string    `json:"amount"`
	Description     string    `json:"description"`
	Category        string    `json:"category"`
	TransactionDate time.Time `json:"transaction_date"`
	UpdatedAt       time.Time `json:"updated_at"`
	BalanceAfter    string    `json:"balance_after"`
}

// LedgerViewResponse is the wire form of the reconciled ledger.
type LedgerViewResponse struct {
	AccountID      string             `json:"account_id"`
	PartnerName    string             `json:"partner_name"`
	Currency       string             `json:"currency"`
	InitialCapital string             `json:"initial_capital"`
	CurrentBalance string             `json:"current_balance"`
	TotalIncome    string             `json:"total_income"`
	TotalExpense   string             `json:"total_expense"`
	TransferIn     string             `json:"transfer_in"`
	TransferOut    string             `json:"transfer_out"`
	Activities     []ActivityResponse `json:"activities"`
}

// TransferResponse is the wire form of one transfer history row.
type TransferResponse struct {
	ID              string    `json:"id"`
	FromAccountID   string    `json:"from_account_id"`
	ToAccountID     string    `json:"to_account_id"`
	FromAccountName string    `json:"from_account_name"`
	ToAccountName   string    `json:"to_account_name"`
	Amount          string    `json:"amount"`
	TransferDate    time.Time `json:"transfer_date"`
	CreatedAt       time.Time `json:"created_at"`
}

func toLedgerViewResponse(view *LedgerView) LedgerViewResponse {
	activities := make([]ActivityResponse, 0, len(view.Activities))
	for _, a := range view.Activities {
		activities = append(activities, ActivityResponse{
			ID:              a.ID,
			Kind:            string(a.Kind),
			Type:            string(a.Type),
			Amount:          a.Amount.String(),
			Description:     a.Description,
			Category:        a.Category,
			TransactionDate: a.TransactionDate,
			UpdatedAt:       a.UpdatedAt,
			BalanceAfter:    a.BalanceAfter.String(),
		})
	}
	return LedgerViewResponse{
		AccountID:      view.Account.ID.String(),
		PartnerName:    view.Account.PartnerName,
		Currency:       view.Account.Currency,
		InitialCapital: view.Account.InitialCapital.String(),
		CurrentBalance: view.Account.CurrentBalance.String(),
		TotalIncome:    view.Totals.TotalIncome.String(),
		TotalExpense:   view.Totals.TotalExpense.String(),
		TransferIn:     view.Totals.TransferIn.String(),
		TransferOut:    view.Totals.TransferOut.String(),
		Activities:     activities,
	}
}

func toTransferResponses(transfers []TransferRecord) []TransferResponse {
	out := make([]TransferResponse, 0, len(transfers))
	for _, tr := range transfers {
		out = append(out, TransferResponse{
			ID:              tr.ID.String(),
			FromAccountID:   tr.FromAccountID.String(),
			ToAccountID:     tr.ToAccountID.String(),
			FromAccountName: tr.FromAccountName,
			ToAccountName:   tr.ToAccountName,
			Amount:          tr.Amount.String(),
			TransferDate:    tr.TransferDate,
			CreatedAt:       tr.CreatedAt,
		})
	}
	return out
}

func parseAmount(raw string) (decimal.Decimal, error) {
	return decimal.NewFromString(raw)
}

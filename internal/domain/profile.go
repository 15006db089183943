package domain

import "time"

// UserProfile holds household settings shown on the dashboard.
type UserProfile struct {
	Name          string  `json:"name"`
	MonthlyIncome float64 `json:"monthlyIncome"`
	FamilySize    int     `json:"familySize"`
	Currency      string  `json:"currency"`
	SavingsGoal   float64 `json:"savingsGoal"`
}

// SheetsConfig is the service-account configuration for spreadsheet sync.
type SheetsConfig struct {
	SheetID     string `json:"sheetId"`
	ClientEmail string `json:"clientEmail"`
	PrivateKey  string `json:"privateKey"`
}

// Attachment describes a stored bill or receipt. The bytes live in a blob
// store keyed by ID.
type Attachment struct {
	ID            string    `json:"id"`
	TransactionID string    `json:"transactionId,omitempty"`
	FileName      string    `json:"fileName"`
	FileType      string    `json:"fileType"` // MIME type
	Size          int64     `json:"size"`
	CreatedAt     time.Time `json:"createdAt"`
}

package domain

// Frequency is the cadence of a detected recurring payment.
type Frequency string

const (
	Monthly   Frequency = "Monthly"
	Yearly    Frequency = "Yearly"
	Irregular Frequency = "Irregular"
)

// RecurringStatus tells whether the next projected payment is still ahead.
type RecurringStatus string

const (
	StatusActive  RecurringStatus = "Active"
	StatusOverdue RecurringStatus = "Overdue"
)

// RecurringPayment is derived from the transaction history on every request
// and never persisted.
type RecurringPayment struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Amount      float64         `json:"amount"` // mean of the group
	Frequency   Frequency       `json:"frequency"`
	LastDate    string          `json:"lastDate"`
	NextDueDate string          `json:"nextDueDate"`
	Confidence  float64         `json:"confidence"`
	Status      RecurringStatus `json:"status"`
}

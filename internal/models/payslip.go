package models

type PayslipLineItem struct {
	Label  string  `json:"label"`
	Amount float64 `json:"amount"`
}

// Payslip is a read-side cache of a monthly payslip fetched from the
// backend; it is never enqueued for delivery.
type Payslip struct {
	ID         string            `json:"id"`
	UserID     string            `json:"user_id"`
	Year       int               `json:"year"`
	Month      int               `json:"month"`
	Earnings   []PayslipLineItem `json:"earnings"`
	Deductions []PayslipLineItem `json:"deductions"`
	Net        float64           `json:"net"`
	PDFURL     string            `json:"pdf_url,omitempty"`
}

package models

// UserProfile identifies the employee this client instance acts for. It is
// supplied by configuration; session management lives outside this core.
type UserProfile struct {
	UserID     string `yaml:"user_id" json:"user_id"`
	Name       string `yaml:"name" json:"name"`
	Email      string `yaml:"email" json:"email"`
	Phone      string `yaml:"phone" json:"phone"`
	EmployeeID string `yaml:"employee_id" json:"employee_id"`
	Department string `yaml:"department" json:"department"`
}

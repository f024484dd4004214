package domain

import "time"

// Company is the business record tied one-to-one to a customer user.
type Company struct {
	ID           string
	UserID       int64
	Name         string
	Address      *string
	OpeningTime  *string
	ClosingTime  *string
	OnlyWeekdays bool
	CreatedAt    time.Time
	UpdatedAt    time.Time

	Contacts []CompanyContact
}

// CompanyContact is a phone/person pair attached to a company.
type CompanyContact struct {
	ID        string
	CompanyID string
	Phone     string
	Person    *string
}

package dto

// ContactPayload is one company phone contact.
type ContactPayload struct {
	Phone  string  `json:"phone"`
	Person *string `json:"person"`
}

// CreateCustomerRequest payload.
type CreateCustomerRequest struct {
	Username       string           `json:"username"`
	Password       string           `json:"password"`
	CompanyName    string           `json:"company_name"`
	CompanyAddress *string          `json:"company_address"`
	OpeningTime    *string          `json:"opening_time"`
	ClosingTime    *string          `json:"closing_time"`
	OnlyWeekdays   bool             `json:"only_weekdays"`
	Contacts       []ContactPayload `json:"contacts"`
}

// UpdateCustomerRequest patches account and company details. Absent
// fields are left untouched.
type UpdateCustomerRequest struct {
	Username       *string           `json:"username"`
	Password       *string           `json:"password"`
	CompanyName    *string           `json:"company_name"`
	CompanyAddress *string           `json:"company_address"`
	OpeningTime    *string           `json:"opening_time"`
	ClosingTime    *string           `json:"closing_time"`
	OnlyWeekdays   *bool             `json:"only_weekdays"`
	Contacts       *[]ContactPayload `json:"contacts"`
}

// CreateExecutorRequest payload.
type CreateExecutorRequest struct {
	Username string  `json:"username"`
	Password string  `json:"password"`
	Name     *string `json:"name"`
	Phone    *string `json:"phone"`
}

// UpdateExecutorRequest patches an executor account and card.
type UpdateExecutorRequest struct {
	Username *string `json:"username"`
	Password *string `json:"password"`
	Name     *string `json:"name"`
	Phone    *string `json:"phone"`
}

// CustomerCard is the joined customer projection on a request card.
type CustomerCard struct {
	UserID      int64            `json:"user_id"`
	Username    string           `json:"username"`
	CompanyID   string           `json:"company_id,omitempty"`
	Company     string           `json:"company,omitempty"`
	Address     *string          `json:"address,omitempty"`
	OpeningTime *string          `json:"opening_time,omitempty"`
	ClosingTime *string          `json:"closing_time,omitempty"`
	Contacts    []ContactPayload `json:"contacts,omitempty"`
}

// ExecutorCard is the joined executor projection on a request card.
type ExecutorCard struct {
	UserID   int64   `json:"user_id"`
	Username string  `json:"username"`
	Name     *string `json:"name"`
	Phone    *string `json:"phone"`
}

// CustomerSearchRow is one customer roster hit.
type CustomerSearchRow struct {
	UserID  int64   `json:"user_id"`
	Company string  `json:"company"`
	Address *string `json:"address"`
}

// ExecutorSearchRow is one executor roster hit.
type ExecutorSearchRow struct {
	UserID int64   `json:"user_id"`
	Name   *string `json:"name"`
	Phone  *string `json:"phone"`
}

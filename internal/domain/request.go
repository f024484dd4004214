package domain

import "time"

// RequestStatus enumerates lifecycle states for service requests.
type RequestStatus string

const (
	RequestStatusNew       RequestStatus = "NEW"
	RequestStatusWorking   RequestStatus = "WORKING"
	RequestStatusVerifying RequestStatus = "VERIFYING"
	RequestStatusClosed    RequestStatus = "CLOSED"
)

// ParseRequestStatus maps the lowercase path keyword used by listing
// endpoints to a status value.
func ParseRequestStatus(value string) (RequestStatus, bool) {
	switch value {
	case "new":
		return RequestStatusNew, true
	case "working":
		return RequestStatusWorking, true
	case "verifying":
		return RequestStatusVerifying, true
	case "closed":
		return RequestStatusClosed, true
	default:
		return "", false
	}
}

// SortOrder selects listing order over updated_at.
type SortOrder string

const (
	SortDateAsc  SortOrder = "date_asc"
	SortDateDesc SortOrder = "date_desc"
)

// ServiceRequest is the aggregate for customer work orders.
type ServiceRequest struct {
	ID                   string
	CustomerID           int64
	ExecutorID           *int64
	CompanyID            string
	Title                string
	Description          *string
	MaterialAvailability bool
	Emergency            bool
	CustomPosition       bool
	Status               RequestStatus
	Comment              *string
	ViewedAdmin          bool
	ViewedCustomer       bool
	ViewedExecutor       bool
	DeadlineAt           *time.Time
	CreatedAt            time.Time
	UpdatedAt            time.Time

	// Joined projections, populated on detail reads.
	Customer   *User
	Executor   *User
	MediaFiles []MediaFile
}

// Viewed reports the unread flag for the given audience.
func (r *ServiceRequest) Viewed(role Role) bool {
	switch role {
	case RoleAdmin:
		return r.ViewedAdmin
	case RoleCustomer:
		return r.ViewedCustomer
	case RoleExecutor:
		return r.ViewedExecutor
	default:
		return true
	}
}

// SetViewed flips the unread flag for the given audience.
func (r *ServiceRequest) SetViewed(role Role, viewed bool) {
	switch role {
	case RoleAdmin:
		r.ViewedAdmin = viewed
	case RoleCustomer:
		r.ViewedCustomer = viewed
	case RoleExecutor:
		r.ViewedExecutor = viewed
	}
}

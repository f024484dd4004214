package dto

import (
	"time"

	"github.com/spec-kit/service-desk/internal/domain"
)

// AssignRequest payload.
type AssignRequest struct {
	ServiceID      string     `json:"service_id"`
	ExecutorID     int64      `json:"executor_id"`
	DeadlineAt     *time.Time `json:"deadline_at"`
	Comment        *string    `json:"comment"`
	Emergency      *bool      `json:"emergency"`
	CustomPosition *bool      `json:"custom_position"`
}

// MediaFileResponse metadata for one attachment.
type MediaFileResponse struct {
	ID        string           `json:"id"`
	FileType  domain.FileType  `json:"file_type"`
	OwnerType domain.OwnerType `json:"owner_type"`
	URL       string           `json:"url"`
	CreatedAt time.Time        `json:"created_at"`
}

// RequestResponse is the full request card.
type RequestResponse struct {
	ID                   string               `json:"id"`
	CustomerID           int64                `json:"customer_id"`
	ExecutorID           *int64               `json:"executor_id"`
	CompanyID            string               `json:"company_id"`
	Title                string               `json:"title"`
	Description          *string              `json:"description"`
	MaterialAvailability bool                 `json:"material_availability"`
	Emergency            bool                 `json:"emergency"`
	CustomPosition       bool                 `json:"custom_position"`
	Status               domain.RequestStatus `json:"status"`
	Comment              *string              `json:"comment"`
	ViewedAdmin          bool                 `json:"viewed_admin"`
	ViewedCustomer       bool                 `json:"viewed_customer"`
	ViewedExecutor       bool                 `json:"viewed_executor"`
	DeadlineAt           *time.Time           `json:"deadline_at"`
	CreatedAt            time.Time            `json:"created_at"`
	UpdatedAt            time.Time            `json:"updated_at"`
	Customer             *CustomerCard        `json:"customer,omitempty"`
	Executor             *ExecutorCard        `json:"executor,omitempty"`
	MediaFiles           []MediaFileResponse  `json:"media_files"`
}

// RequestListResponse is one page of request cards with counters.
type RequestListResponse struct {
	Items  []RequestResponse `json:"items"`
	Total  int               `json:"total"`
	Unread int               `json:"unread"`
	Page   int               `json:"page"`
	Limit  int               `json:"limit"`
}

// CompanyTabCounters carries per-status unread counts.
type CompanyTabCounters struct {
	New       int `json:"new"`
	Working   int `json:"working"`
	Verifying int `json:"verifying"`
	Closed    int `json:"closed"`
}

// CompanySummaryResponse is one roster row.
type CompanySummaryResponse struct {
	CompanyID   string             `json:"company_id"`
	Name        string             `json:"name"`
	Address     *string            `json:"address"`
	Marked      bool               `json:"marked"`
	UnreadTotal int                `json:"unread_total"`
	Tabs        CompanyTabCounters `json:"tabs"`
}

// CompanyListResponse pages the roster.
type CompanyListResponse struct {
	Items []CompanySummaryResponse `json:"items"`
	Total int                      `json:"total"`
	Page  int                      `json:"page"`
	Limit int                      `json:"limit"`
}

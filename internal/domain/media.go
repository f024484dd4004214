package domain

import "time"

// FileType distinguishes stored media kinds.
type FileType string

const (
	FileTypeImage FileType = "IMAGE"
	FileTypeVideo FileType = "VIDEO"
)

// OwnerType records which side of a request attached a file.
type OwnerType string

const (
	OwnerTypeCustomer OwnerType = "CUSTOMER"
	OwnerTypeExecutor OwnerType = "EXECUTOR"
)

// MediaFile is attachment metadata tied 1:1 to a stored file.
type MediaFile struct {
	ID        string
	ServiceID string
	FileType  FileType
	OwnerType OwnerType
	URL       string // relative path under the media root
	CreatedAt time.Time
}

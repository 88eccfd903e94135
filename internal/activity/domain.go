package activity

import "time"

// Type enumerates the administrative actions recorded in the activity log.
type Type string

const (
	TypeProfileUpdated         Type = "profile_updated"
	TypePasswordResetRequested Type = "password_reset_requested"
	TypePasswordResetFailed    Type = "password_reset_failed"
	TypeDeletionStarted        Type = "deletion_started"
	TypeDeletionCompleted      Type = "deletion_completed"
	TypeDeletionFailed         Type = "deletion_failed"
	TypeExportInitiated        Type = "export_initiated"
	TypeExportCompleted        Type = "export_completed"
	TypeExportFailed           Type = "export_failed"
)

// Entry is one append-only audit record. Meta carries actor identity,
// timestamps, optional error text and old/new value snapshots.
type Entry struct {
	ID          int64          `json:"id"`
	UserID      int64          `json:"user_id"`
	Type        Type           `json:"activity_type"`
	Description string         `json:"description"`
	Meta        map[string]any `json:"metadata,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
}

// TimelineFilters holds the basic filters for the activity timeline.
type TimelineFilters struct {
	From     time.Time
	To       time.Time
	Type     string
	Page     int
	PageSize int
}

// PagingInfo carries simple pagination metadata.
type PagingInfo struct {
	Page     int  `json:"page"`
	PageSize int  `json:"page_size"`
	HasNext  bool `json:"has_next"`
	PrevPage int  `json:"prev_page,omitempty"`
	NextPage int  `json:"next_page,omitempty"`
}

// Result wraps timeline rows with paging information.
type Result struct {
	Rows   []Entry    `json:"rows"`
	Paging PagingInfo `json:"paging"`
}

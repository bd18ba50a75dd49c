package domain

type RequestStatus string

const (
	StatusPending    RequestStatus = "pending"
	StatusInProgress RequestStatus = "in_progress"
	StatusResolved   RequestStatus = "resolved"
)

func (s RequestStatus) Valid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusResolved:
		return true
	}
	return false
}

type MedicineRequest struct {
	ID           string        `db:"id" json:"id"`
	CustomerName string        `db:"customer_name" json:"customer_name"`
	Email        string        `db:"email" json:"email"`
	Phone        string        `db:"phone" json:"phone"`
	MedicineName string        `db:"medicine_name" json:"medicine_name"`
	Message      string        `db:"message" json:"message"`
	Status       RequestStatus `db:"status" json:"status"`
	Notes        string        `db:"notes" json:"notes,omitempty"`
	CreatedAt    string        `db:"created_at" json:"created_at"`
	UpdatedAt    string        `db:"updated_at" json:"updated_at"`
}

// Notification types.
const (
	NotifyReport          = "report"
	NotifyRequest         = "medicine_request"
	NotifyRequestReminder = "medicine_request_reminder"
)

type Notification struct {
	ID           string `db:"id" json:"id"`
	Type         string `db:"type" json:"type"`
	Title        string `db:"title" json:"title"`
	Message      string `db:"message" json:"message"`
	ActionURL    string `db:"action_url" json:"action_url,omitempty"`
	Read         bool   `db:"is_read" json:"read"`
	UserID       string `db:"user_id" json:"user_id"`
	RequestID    string `db:"request_id" json:"request_id,omitempty"`
	ReminderDate string `db:"reminder_date" json:"reminder_date,omitempty"`
	CreatedAt    string `db:"created_at" json:"created_at"`
}

type UnavailableMedicine struct {
	MedicineName    string        `db:"medicine_name" json:"medicine_name"`
	SearchCount     int           `db:"search_count" json:"search_count"`
	FirstSearchedAt string        `db:"first_searched_at" json:"first_searched_at"`
	LastSearchedAt  string        `db:"last_searched_at" json:"last_searched_at"`
	Status          RequestStatus `db:"status" json:"status"`
}

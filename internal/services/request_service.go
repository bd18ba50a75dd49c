package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"medicart/internal/domain"
	"medicart/internal/events"
	"medicart/internal/notify"
	"medicart/internal/repos"
	"medicart/internal/validate"
)

const defaultRequestMessage = "I need this medicine urgently. Can you please make it available and let me know when it arrives?"

type RequestInput struct {
	CustomerName string `json:"customer_name" form:"customer_name"`
	Email        string `json:"email" form:"email"`
	Phone        string `json:"phone" form:"phone"`
	MedicineName string `json:"medicine_name" form:"medicine_name"`
	Message      string `json:"message" form:"message"`
}

// RequestService takes medicine requests from customers and lets admins work them.
type RequestService struct {
	Store  *repos.Store
	Sender notify.Sender
	Bus    *events.Bus
	Now    clock
}

func NewRequestService(store *repos.Store, sender notify.Sender, bus *events.Bus) *RequestService {
	return &RequestService{Store: store, Sender: sender, Bus: bus}
}

func (in RequestInput) clean() (domain.MedicineRequest, error) {
	var m domain.MedicineRequest
	var ok bool
	if m.CustomerName, ok = validate.Name(in.CustomerName); !ok {
		return m, invalid("customer_name", "Please enter your name")
	}
	if m.Email, ok = validate.Email(in.Email); !ok {
		return m, invalid("email", "Please enter a valid email address")
	}
	if m.Phone, ok = validate.Phone(in.Phone); !ok {
		return m, invalid("phone", "Please enter a valid phone number")
	}
	if m.MedicineName, ok = validate.Name(in.MedicineName); !ok {
		return m, invalid("medicine_name", "Please enter the medicine name")
	}
	if m.Message, ok = validate.Text(in.Message, 1000); !ok {
		return m, invalid("message", "Message is too long")
	}
	if m.Message == "" {
		m.Message = defaultRequestMessage
	}
	return m, nil
}

// Create stores a pending request, notifies every admin in-app and sends the
// WhatsApp alert. The alert is best effort.
func (s *RequestService) Create(ctx context.Context, in RequestInput) (domain.MedicineRequest, error) {
	m, err := in.clean()
	if err != nil {
		return domain.MedicineRequest{}, err
	}
	ts := s.Now.stamp()
	m.ID = uuid.NewString()
	m.Status = domain.StatusPending
	m.CreatedAt, m.UpdatedAt = ts, ts

	err = s.Store.InTx(ctx, func(r *repos.Repos) error {
		if err := r.Requests.Create(ctx, m); err != nil {
			return err
		}
		admins, err := r.Users.ListByRole(ctx, domain.RoleAdmin)
		if err != nil {
			return err
		}
		for _, a := range admins {
			if err := r.Notifications.Create(ctx, domain.Notification{
				ID:        uuid.NewString(),
				Type:      domain.NotifyRequest,
				Title:     "New Medicine Request",
				Message:   fmt.Sprintf("Customer %s requested %s", m.CustomerName, m.MedicineName),
				ActionURL: "/admin/requests/" + m.ID,
				UserID:    a.ID,
				RequestID: m.ID,
				CreatedAt: ts,
			}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return domain.MedicineRequest{}, err
	}

	notify.Safe(ctx, s.Sender, "whatsapp.request", requestAlert(m, s.Now.now().Format("2006-01-02 15:04")))
	s.Bus.Publish(events.RequestCreated, map[string]any{"id": m.ID, "medicine": m.MedicineName})
	return m, nil
}

func requestAlert(m domain.MedicineRequest, at string) string {
	var b strings.Builder
	b.WriteString("Medicine Request Form Submission!\n\n")
	fmt.Fprintf(&b, "Customer: %s\nEmail: %s\nPhone: %s\nMedicine: %s\nMessage: %s\nTime: %s\n\n",
		m.CustomerName, m.Email, m.Phone, m.MedicineName, m.Message, at)
	b.WriteString("A customer has requested availability of a medicine.")
	return b.String()
}

// List filters by status; "" lists all.
func (s *RequestService) List(ctx context.Context, status string) ([]domain.MedicineRequest, error) {
	st := domain.RequestStatus(status)
	if st != "" && !st.Valid() {
		return nil, invalid("status", "Unknown request status")
	}
	return s.Store.Requests.List(ctx, st)
}

func (s *RequestService) Get(ctx context.Context, id string) (domain.MedicineRequest, error) {
	m, err := s.Store.Requests.Get(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.MedicineRequest{}, ErrRequestNotFound
	}
	return m, err
}

func (s *RequestService) Counts(ctx context.Context) (map[domain.RequestStatus]int, error) {
	return s.Store.Requests.CountByStatus(ctx)
}

// UpdateStatus moves a request to any of the three states and replaces its notes.
func (s *RequestService) UpdateStatus(ctx context.Context, id, status, notes string) error {
	st := domain.RequestStatus(status)
	if !st.Valid() {
		return invalid("status", "Unknown request status")
	}
	notes, ok := validate.Text(notes, 1000)
	if !ok {
		return invalid("notes", "Notes are too long")
	}
	err := s.Store.Requests.UpdateStatus(ctx, id, st, notes, s.Now.stamp())
	if errors.Is(err, sql.ErrNoRows) {
		return ErrRequestNotFound
	}
	return err
}

// SetReminder schedules a reminder notification for the acting admin.
func (s *RequestService) SetReminder(ctx context.Context, adminID, requestID, date string) (domain.Notification, error) {
	day, ok := validate.Date(date)
	if !ok {
		return domain.Notification{}, invalid("reminder_date", "Please pick a valid reminder date")
	}
	m, err := s.Get(ctx, requestID)
	if err != nil {
		return domain.Notification{}, err
	}
	n := domain.Notification{
		ID:           uuid.NewString(),
		Type:         domain.NotifyRequestReminder,
		Title:        "Medicine Request Reminder",
		Message:      fmt.Sprintf("Follow up on %s's request for %s", m.CustomerName, m.MedicineName),
		ActionURL:    "/admin/requests/" + m.ID,
		UserID:       adminID,
		RequestID:    m.ID,
		ReminderDate: day,
		CreatedAt:    s.Now.stamp(),
	}
	if err := s.Store.Notifications.Create(ctx, n); err != nil {
		return domain.Notification{}, err
	}
	return n, nil
}

// Unavailable lists medicines customers searched for but the catalog lacks.
func (s *RequestService) Unavailable(ctx context.Context) ([]domain.UnavailableMedicine, error) {
	return s.Store.Unavailable.List(ctx)
}

func (s *RequestService) SetUnavailableStatus(ctx context.Context, name, status string) error {
	st := domain.RequestStatus(status)
	if !st.Valid() {
		return invalid("status", "Unknown request status")
	}
	err := s.Store.Unavailable.UpdateStatus(ctx, name, st)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrRequestNotFound
	}
	return err
}

package services_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"medicart/internal/domain"
	"medicart/internal/services"
)

func TestRequestLifecycle(t *testing.T) {
	e := newEnv(t, "2025-03-14T10:00:00Z")
	ctx := context.Background()
	svc := services.NewRequestService(e.store, e.sender, e.bus)
	svc.Now = fixed("2025-03-14T10:00:00Z")

	m, err := svc.Create(ctx, services.RequestInput{
		CustomerName: "Dana", Email: "dana@example.com", Phone: "+1 555 010 3000",
		MedicineName: "Melatonin 3mg",
	})
	if err != nil {
		t.Fatal(err)
	}
	if m.Status != domain.StatusPending || m.Message == "" {
		t.Fatalf("request: %+v", m)
	}
	if e.sender.count() != 1 || !strings.Contains(e.sender.msgs[0], "Melatonin 3mg") {
		t.Fatalf("alert: %v", e.sender.msgs)
	}
	notes, _ := e.store.Notifications.ListForUser(ctx, "u-admin", 10)
	if len(notes) != 1 || notes[0].Type != domain.NotifyRequest || notes[0].RequestID != m.ID {
		t.Fatalf("admin notification: %+v", notes)
	}

	var ve *services.ValidationError
	if err := svc.UpdateStatus(ctx, m.ID, "archived", ""); !errors.As(err, &ve) {
		t.Fatalf("unknown status accepted: %v", err)
	}
	if err := svc.UpdateStatus(ctx, "missing", "resolved", ""); !errors.Is(err, services.ErrRequestNotFound) {
		t.Fatalf("missing id: %v", err)
	}
	for _, st := range []string{"in_progress", "resolved", "pending"} {
		if err := svc.UpdateStatus(ctx, m.ID, st, "called back"); err != nil {
			t.Fatalf("%s: %v", st, err)
		}
	}
	got, _ := svc.Get(ctx, m.ID)
	if got.Status != domain.StatusPending || got.Notes != "called back" {
		t.Fatalf("after transitions: %+v", got)
	}

	pending, _ := svc.List(ctx, "pending")
	resolved, _ := svc.List(ctx, "resolved")
	if len(pending) != 1 || len(resolved) != 0 {
		t.Fatalf("filters: %d pending, %d resolved", len(pending), len(resolved))
	}
}

func TestRequestReminderBecomesDue(t *testing.T) {
	e := newEnv(t, "2025-03-14T10:00:00Z")
	ctx := context.Background()
	svc := services.NewRequestService(e.store, e.sender, e.bus)
	inbox := services.NewNotificationService(e.store.Notifications)
	inbox.Now = fixed("2025-03-20T09:00:00Z")

	m, err := svc.Create(ctx, services.RequestInput{
		CustomerName: "Dana", Email: "dana@example.com", Phone: "5550103000", MedicineName: "Melatonin 3mg",
	})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := svc.SetReminder(ctx, "u-admin", m.ID, "2025-03-20"); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.SetReminder(ctx, "u-admin", m.ID, "soon"); err == nil {
		t.Fatal("bad date accepted")
	}

	box, err := inbox.Inbox(ctx, "u-admin")
	if err != nil {
		t.Fatal(err)
	}
	if box.Unread != 2 || len(box.Due) != 1 || box.Due[0].ReminderDate != "2025-03-20" {
		t.Fatalf("inbox: %+v", box)
	}
	if n, _ := inbox.MarkAllRead(ctx, "u-admin"); n != 2 {
		t.Fatalf("marked %d", n)
	}
	if err := inbox.MarkRead(ctx, "u-alice", box.Items[0].ID); !errors.Is(err, services.ErrNotificationNotFound) {
		t.Fatalf("foreign notification: %v", err)
	}
}

func TestSearchMissRecordsUnavailable(t *testing.T) {
	e := newEnv(t, "2025-03-14T10:00:00Z")
	ctx := context.Background()
	cat := services.NewCatalogService(e.store, e.sender)

	hits, err := cat.Search(ctx, services.SearchQuery{Q: "paracetamol"})
	if err != nil || len(hits) != 1 {
		t.Fatalf("hit: %v %v", hits, err)
	}
	for i := 0; i < 2; i++ {
		if hits, _ := cat.Search(ctx, services.SearchQuery{Q: "Melatonin"}); len(hits) != 0 {
			t.Fatalf("unexpected hits: %+v", hits)
		}
	}
	list, _ := e.store.Unavailable.List(ctx)
	if len(list) != 1 || list[0].MedicineName != "melatonin" || list[0].SearchCount != 2 {
		t.Fatalf("unavailable: %+v", list)
	}
	if e.sender.count() != 1 {
		t.Fatalf("alerts sent: %d", e.sender.count())
	}

	in, _ := cat.Search(ctx, services.SearchQuery{Q: "vitamin", InStockOnly: true})
	if len(in) != 0 {
		t.Fatalf("out of stock product listed: %+v", in)
	}
}

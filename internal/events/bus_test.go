package events_test

import (
	"testing"
	"time"

	"medicart/internal/events"
)

func TestBusFanOut(t *testing.T) {
	bus := events.NewBus()
	a, cancelA := bus.Subscribe(4)
	b, cancelB := bus.Subscribe(4)
	defer cancelA()
	defer cancelB()

	bus.Publish(events.StockUpdated, map[string]any{"product": "Paracetamol"})

	for _, ch := range []<-chan events.Event{a, b} {
		select {
		case ev := <-ch:
			if ev.Type != events.StockUpdated || ev.Data["product"] != "Paracetamol" {
				t.Fatalf("unexpected event %+v", ev)
			}
		case <-time.After(time.Second):
			t.Fatal("subscriber did not receive event")
		}
	}
}

func TestBusPublishDoesNotBlockOnFullSubscriber(t *testing.T) {
	bus := events.NewBus()
	_, cancel := bus.Subscribe(1)
	defer cancel()

	done := make(chan struct{})
	go func() {
		for i := 0; i < 10; i++ {
			bus.Publish(events.SaleRecorded, nil)
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish blocked on a full subscriber")
	}
}

func TestBusCancelClosesChannel(t *testing.T) {
	bus := events.NewBus()
	ch, cancel := bus.Subscribe(1)
	cancel()
	cancel() // second cancel is a no-op

	if _, ok := <-ch; ok {
		t.Fatal("channel should be closed after cancel")
	}
	if n := bus.Subscribers(); n != 0 {
		t.Fatalf("want 0 subscribers, got %d", n)
	}
	bus.Publish(events.ReportGenerated, nil)
}

package notify_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"medicart/internal/notify"
)

func TestWhatsAppPostsTextMessage(t *testing.T) {
	var gotPath, gotAuth string
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		b, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(b, &got)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"messages":[{"id":"wamid.1"}]}`))
	}))
	defer srv.Close()

	key := "EAAGliveKey0123456789abcdef"
	wa := notify.NewWhatsApp(key, "15550001111", "1098765", srv.URL)
	if wa.TestMode() {
		t.Fatal("long live key should not be test mode")
	}
	if err := wa.Send(context.Background(), "hello"); err != nil {
		t.Fatalf("send: %v", err)
	}
	if gotPath != "/1098765/messages" {
		t.Fatalf("unexpected path %q", gotPath)
	}
	if gotAuth != "Bearer "+key {
		t.Fatalf("unexpected auth header %q", gotAuth)
	}
	if got["messaging_product"] != "whatsapp" || got["to"] != "15550001111" || got["type"] != "text" {
		t.Fatalf("unexpected body %v", got)
	}
	text, _ := got["text"].(map[string]any)
	if text["body"] != "hello" {
		t.Fatalf("unexpected text %v", got["text"])
	}
}

func TestWhatsAppErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"bad token"}}`))
	}))
	defer srv.Close()

	wa := notify.NewWhatsApp("EAAGliveKey0123456789abcdef", "15550001111", "1098765", srv.URL)
	if err := wa.Send(context.Background(), "hello"); err == nil {
		t.Fatal("expected error for 401")
	}
}

func TestWhatsAppTestModeSkipsNetwork(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer srv.Close()

	for _, key := range []string{"short", "this-is-a-test-key-0123456789", "MOCK_0123456789abcdefghij"} {
		wa := notify.NewWhatsApp(key, "15550001111", "1098765", srv.URL)
		if !wa.TestMode() {
			t.Fatalf("key %q should be test mode", key)
		}
		if err := wa.Send(context.Background(), "hi"); err != nil {
			t.Fatalf("test mode send: %v", err)
		}
	}
	if called {
		t.Fatal("test mode must not call the API")
	}
}

func TestWhatsAppNotConfigured(t *testing.T) {
	wa := notify.NewWhatsApp("", "", "", "http://127.0.0.1:1")
	if err := wa.Send(context.Background(), "x"); !errors.Is(err, notify.ErrNotConfigured) {
		t.Fatalf("want ErrNotConfigured, got %v", err)
	}
}

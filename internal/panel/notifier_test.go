package panel

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestPostDeliversPayload(t *testing.T) {
	got := make(chan MessageRecord, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/messages" {
			t.Errorf("path = %q, want /api/messages", r.URL.Path)
		}
		var rec MessageRecord
		if err := json.NewDecoder(r.Body).Decode(&rec); err != nil {
			t.Errorf("decode: %v", err)
		}
		got <- rec
	}))
	defer srv.Close()

	n := NewNotifier(srv.URL, time.Second)
	n.Notify("messages", MessageRecord{From: "905551112233@c.us", Body: "menu", IsCommand: true})

	select {
	case rec := <-got:
		if rec.From != "905551112233@c.us" || !rec.IsCommand {
			t.Fatalf("record = %+v", rec)
		}
	case <-time.After(time.Second):
		t.Fatal("panel never received the record")
	}
}

func TestNotifyNeverBlocksOnDeadPanel(t *testing.T) {
	// Point at a closed port; Notify must return immediately.
	n := NewNotifier("http://127.0.0.1:1", 100*time.Millisecond)

	start := time.Now()
	n.Notify("messages", MessageRecord{From: "x"})
	if elapsed := time.Since(start); elapsed > 50*time.Millisecond {
		t.Fatalf("Notify blocked for %v", elapsed)
	}
}

func TestDisabledNotifier(t *testing.T) {
	n := NewNotifier("", time.Second)
	// Must be a no-op, not a panic.
	n.Notify("groups", GroupRecord{ID: "g1", Name: "Yurt A"})
}

package httptransport

import (
	"net/http"
	"testing"
	"time"
)

func TestNewServerAppliesTimeouts(t *testing.T) {
	handler := http.NewServeMux()
	server := NewServer(":8080", handler)

	if server.Addr != ":8080" {
		t.Fatalf("expected addr :8080 got %s", server.Addr)
	}
	if server.Handler != handler {
		t.Fatal("handler not wired")
	}
	if server.ReadTimeout != 5*time.Second {
		t.Fatalf("unexpected read timeout %s", server.ReadTimeout)
	}
	if server.ReadHeaderTimeout != 5*time.Second {
		t.Fatalf("unexpected read header timeout %s", server.ReadHeaderTimeout)
	}
	if server.WriteTimeout != 10*time.Second {
		t.Fatalf("unexpected write timeout %s", server.WriteTimeout)
	}
	if server.IdleTimeout != 60*time.Second {
		t.Fatalf("unexpected idle timeout %s", server.IdleTimeout)
	}
}

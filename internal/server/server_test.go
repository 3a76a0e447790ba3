package server

import (
	"net/http"
	"testing"
	"time"

	"github.com/meghna/ringsight/internal/config"
)

func TestNewServer(t *testing.T) {
	cfg := config.HTTPConfig{
		Host:         "127.0.0.1",
		Port:         9090,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 7 * time.Second,
		IdleTimeout:  40 * time.Second,
	}

	srv := New(testLogger(), cfg, http.NewServeMux())

	if got := srv.Addr(); got != "127.0.0.1:9090" {
		t.Errorf("Addr() = %q", got)
	}
	if srv.httpServer.ReadTimeout != cfg.ReadTimeout {
		t.Errorf("ReadTimeout = %v", srv.httpServer.ReadTimeout)
	}
	if srv.httpServer.WriteTimeout != cfg.WriteTimeout {
		t.Errorf("WriteTimeout = %v", srv.httpServer.WriteTimeout)
	}
	if srv.httpServer.IdleTimeout != cfg.IdleTimeout {
		t.Errorf("IdleTimeout = %v", srv.httpServer.IdleTimeout)
	}
}

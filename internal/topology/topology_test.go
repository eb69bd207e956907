package topology

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/yntha/castleclash/internal/core"
)

const testDocument = `<root>
	<Update isMaintain="0" maintainStart="2024-01-01 00:00" maintainEnd="2024-01-01 06:00" isUpdate="0" version="3.8.9" size="120"/>
	<LoginServer>
		<array IP="10.0.0.1" PORT="8001"/>
		<array IP="10.0.0.2" PORT="8002"/>
	</LoginServer>
</root>`

const maintenanceDocument = `<root>
	<Update isMaintain="1" maintainStart="2024-01-01 00:00" maintainEnd="2024-01-01 06:00" isUpdate="0" version="3.8.9" size="120"/>
	<LoginServer/>
</root>`

const updateDocument = `<root>
	<Update isMaintain="0" maintainStart="" maintainEnd="" isUpdate="1" version="4.0.0" size="300"/>
	<LoginServer>
		<array IP="10.0.0.1" PORT="8001"/>
	</LoginServer>
</root>`

func newTestClient(t *testing.T, document string, override bool) (*Client, *atomic.Int32) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if r.URL.Query().Get("v") == "" || r.URL.Query().Get("rnd_t") == "" {
			t.Errorf("missing query parameters in %s", r.URL.RawQuery)
		}
		_, _ = io.WriteString(w, document)
	}))
	t.Cleanup(server.Close)

	cfg := &core.Config{}
	cfg.ServerConfig.URL = server.URL
	cfg.ServerConfig.Version = 3
	cfg.Client.VersionString = "3.8.9"
	cfg.Client.VersionOverride = override

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	return NewClient(cfg, logger), &hits
}

func TestClient_Fetch(t *testing.T) {
	client, _ := newTestClient(t, testDocument, false)

	sc, err := client.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch() unexpected error: %v", err)
	}

	if len(sc.LoginServers) != 2 {
		t.Fatalf("Fetch() returned %d login servers, want 2", len(sc.LoginServers))
	}
	if sc.LoginServers[0].Host != "10.0.0.1" || sc.LoginServers[0].Port != 8001 {
		t.Errorf("first login server = %+v", sc.LoginServers[0])
	}
	if sc.Update.Maintenance || sc.Update.UpdateRequired {
		t.Errorf("update block = %+v, want neither flag set", sc.Update)
	}
	if sc.Update.MaintainStart.IsZero() {
		t.Error("maintainStart was not parsed")
	}

	chosen, err := client.ChooseLoginServer(sc)
	if err != nil {
		t.Fatalf("ChooseLoginServer() unexpected error: %v", err)
	}
	if chosen.Host != "10.0.0.1" && chosen.Host != "10.0.0.2" {
		t.Errorf("ChooseLoginServer() = %+v, not in advertised list", chosen)
	}
}

func TestClient_FetchCaches(t *testing.T) {
	client, hits := newTestClient(t, testDocument, false)

	for i := 0; i < 3; i++ {
		if _, err := client.Fetch(context.Background()); err != nil {
			t.Fatalf("Fetch() unexpected error: %v", err)
		}
	}
	if got := hits.Load(); got != 1 {
		t.Errorf("endpoint hit %d times, want 1", got)
	}
}

func TestClient_FetchMaintenance(t *testing.T) {
	client, _ := newTestClient(t, maintenanceDocument, false)

	_, err := client.Fetch(context.Background())
	if !errors.Is(err, ErrMaintenance) {
		t.Errorf("Fetch() error = %v, want %v", err, ErrMaintenance)
	}
}

func TestClient_FetchUpdateRequired(t *testing.T) {
	client, _ := newTestClient(t, updateDocument, false)
	_, err := client.Fetch(context.Background())
	if !errors.Is(err, ErrVersionRejected) {
		t.Errorf("Fetch() error = %v, want %v", err, ErrVersionRejected)
	}

	// The override flag downgrades the rejection to a warning.
	client, _ = newTestClient(t, updateDocument, true)
	sc, err := client.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch() with override unexpected error: %v", err)
	}
	if len(sc.LoginServers) != 1 {
		t.Errorf("Fetch() returned %d login servers, want 1", len(sc.LoginServers))
	}
}

func TestClient_ChooseLoginServerEmpty(t *testing.T) {
	client, _ := newTestClient(t, testDocument, false)
	_, err := client.ChooseLoginServer(&ServerConfig{})
	if !errors.Is(err, ErrNoLoginServers) {
		t.Errorf("ChooseLoginServer() error = %v, want %v", err, ErrNoLoginServers)
	}
}

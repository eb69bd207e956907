package core

import (
	"path/filepath"
	"testing"
)

func TestConfig_DatabaseURL(t *testing.T) {
	cfg := &Config{}
	cfg.Database.Host = "localhost"
	cfg.Database.Port = 5432
	cfg.Database.Name = "testdb"
	cfg.Database.Username = "testuser"
	cfg.Database.Password = "testpassword"

	url := cfg.DatabaseURL()
	expected := "host=localhost port=5432 dbname=testdb user=testuser password=testpassword sslmode="
	if url != expected {
		t.Errorf("DatabaseURL() want = %s, got = %s", expected, url)
	}
}

func TestConfig_QualifiedPath(t *testing.T) {
	cfg := &Config{baseDir: "/etc/castleclash"}

	if got := cfg.QualifiedPath("chat.db"); got != filepath.Join("/etc/castleclash", "chat.db") {
		t.Errorf("QualifiedPath() = %s", got)
	}
	if got := cfg.QualifiedPath("/var/lib/chat.db"); got != "/var/lib/chat.db" {
		t.Errorf("QualifiedPath() should leave absolute paths alone, got %s", got)
	}
}

func TestNewLogger_BadLevel(t *testing.T) {
	cfg := &Config{LogLevel: "shouting"}
	if _, err := NewLogger(cfg); err == nil {
		t.Error("NewLogger() accepted an invalid log level")
	}
}

package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}
	return path
}

func TestLoad(t *testing.T) {
	configContent := `
server:
  port: 9090
  allowed_redirect_hosts: ["www.example.com"]
  max_upload_mb: 5
storage:
  driver: minio
  minio:
    endpoint: "localhost:9000"
    access_key: "minioadmin"
    secret_key: "minioadmin"
    bucket: "uploads"
    expire_days: 14
smtp:
  host: "smtp.example.com"
  port: 2525
  from: "forms@example.com"
leads:
  driver: mongo
  mongo:
    uri: "mongodb://localhost:27017"
log:
  level: "debug"
  format: "json"
crm:
  api_key: "crm-key"
  pipeline_id: "pipe-1"
  stage_id: "stage-1"
forms:
  contact:
    title: "Contact Us"
    recipient: "office@example.com"
    webhook_url: "https://hooks.example.com/contact"
    email_enabled: false
  career:
    recipient: "jobs@example.com"
`
	cfg, err := Load(writeConfig(t, configContent))
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("Expected port 9090, got %d", cfg.Server.Port)
	}
	if cfg.Storage.Driver != "minio" {
		t.Errorf("Expected storage driver minio, got %s", cfg.Storage.Driver)
	}
	if cfg.Storage.Minio.ExpireDays != 14 {
		t.Errorf("Expected expire_days 14, got %d", cfg.Storage.Minio.ExpireDays)
	}
	if cfg.SMTP.Port != 2525 {
		t.Errorf("Expected smtp port 2525, got %d", cfg.SMTP.Port)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("Expected log level debug, got %s", cfg.Log.Level)
	}
	if len(cfg.Forms) != 2 {
		t.Fatalf("Expected 2 forms, got %d", len(cfg.Forms))
	}
	contact := cfg.Forms["contact"]
	if contact.Title != "Contact Us" {
		t.Errorf("Expected title 'Contact Us', got %s", contact.Title)
	}
	if contact.LeadType != "contact" {
		t.Errorf("Expected lead type defaulted to form key, got %s", contact.LeadType)
	}
	if Enabled(contact.EmailEnabled) {
		t.Error("Expected email disabled for contact form")
	}
	if !Enabled(cfg.Forms["career"].EmailEnabled) {
		t.Error("Expected email enabled by default for career form")
	}
	if cfg.CRM.APIKey != "crm-key" {
		t.Errorf("Expected crm api key, got %s", cfg.CRM.APIKey)
	}
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "server:\n  port: 8081\n"))
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.Server.MaxUploadMB != 10 {
		t.Errorf("Expected default max_upload_mb 10, got %d", cfg.Server.MaxUploadMB)
	}
	if cfg.Storage.Driver != "local" {
		t.Errorf("Expected default storage driver local, got %s", cfg.Storage.Driver)
	}
	if cfg.Leads.Driver != "memory" {
		t.Errorf("Expected default leads driver memory, got %s", cfg.Leads.Driver)
	}
	if cfg.Log.Level != "info" || cfg.Log.Format != "text" {
		t.Errorf("Expected default log info/text, got %s/%s", cfg.Log.Level, cfg.Log.Format)
	}
	if cfg.CSRF.Secret == "" {
		t.Error("Expected generated csrf secret")
	}
	if cfg.CRM.BaseURL != "https://services.leadconnectorhq.com" {
		t.Errorf("Unexpected default crm base url %s", cfg.CRM.BaseURL)
	}
	if len(cfg.CRM.CustomFields) != len(DefaultCustomFields) {
		t.Errorf("Expected %d default custom fields, got %d", len(DefaultCustomFields), len(cfg.CRM.CustomFields))
	}
	for _, key := range []string{"contact", "career", "acquisition"} {
		if _, ok := cfg.Forms[key]; !ok {
			t.Errorf("Expected default form %s", key)
		}
	}
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("FORMRELAY_CRM_API_KEY", "from-env")
	t.Setenv("FORMRELAY_PORT", "7070")

	cfg, err := Load(writeConfig(t, "crm:\n  api_key: from-file\n"))
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}
	if cfg.CRM.APIKey != "from-env" {
		t.Errorf("Expected env api key, got %s", cfg.CRM.APIKey)
	}
	if cfg.Server.Port != 7070 {
		t.Errorf("Expected env port 7070, got %d", cfg.Server.Port)
	}
}

func TestLoadDotEnv(t *testing.T) {
	path := writeConfig(t, "log:\n  level: info\n")
	dotenv := filepath.Join(filepath.Dir(path), ".env")
	if err := os.WriteFile(dotenv, []byte("FORMRELAY_SMTP_PASSWORD=s3cret\n"), 0o600); err != nil {
		t.Fatalf("Failed to write .env: %v", err)
	}
	t.Cleanup(func() { os.Unsetenv("FORMRELAY_SMTP_PASSWORD") })

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}
	if cfg.SMTP.Password != "s3cret" {
		t.Errorf("Expected smtp password from .env, got %q", cfg.SMTP.Password)
	}
}

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"bad storage driver", "storage:\n  driver: ftp\n"},
		{"bad recipient", "forms:\n  contact:\n    recipient: not-an-email\n"},
		{"bad webhook", "forms:\n  contact:\n    webhook_url: '::nope'\n"},
		{"bad log level", "log:\n  level: loud\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Load(writeConfig(t, tt.content)); err == nil {
				t.Error("Expected validation error")
			}
		})
	}
}

func TestLoadNonExistent(t *testing.T) {
	_, err := Load("nonexistent.yaml")
	if err == nil {
		t.Error("Expected error for non-existent file")
	}
}

func TestLoadInvalidYAML(t *testing.T) {
	_, err := Load(writeConfig(t, "invalid: yaml: content:"))
	if err == nil {
		t.Error("Expected error for invalid YAML")
	}
}

package service

import (
	"testing"

	"github.com/AnTengye/formrelay/config"
)

func TestNewConfigStoreFromConfig(t *testing.T) {
	disabled := false
	cfg := &config.Config{Forms: map[string]config.FormConfig{
		"contact": {
			Title:        "Contact",
			Recipient:    "office@example.com",
			WebhookURL:   "https://hooks.example.com/x",
			LeadType:     "contact",
			EmailEnabled: &disabled,
			Schema:       `[{"id":"email","label":"Email","type":"email"}]`,
		},
	}}

	store := NewConfigStoreFromConfig(cfg)

	if v, _ := store.Get("forms.contact.recipient"); v != "office@example.com" {
		t.Errorf("Expected recipient, got %q", v)
	}
	if v, _ := store.Get("forms.contact.schema"); v == "" {
		t.Error("Expected schema to be stored")
	}
	if !FormExists(store, "contact") {
		t.Error("Expected contact form to exist")
	}
	if FormExists(store, "career") {
		t.Error("Expected career form not to exist")
	}

	settings := LoadFormSettings(store, "contact")
	if settings.EmailEnabled {
		t.Error("Expected email disabled")
	}
	if !settings.LeadLogEnabled {
		t.Error("Expected lead log enabled by default")
	}
	if settings.CRMSyncEnabled {
		t.Error("Expected crm sync disabled by default")
	}
	if settings.WebhookURL != "https://hooks.example.com/x" {
		t.Errorf("Unexpected webhook url %q", settings.WebhookURL)
	}
}

func TestLoadFormSettingsDefaults(t *testing.T) {
	store := NewMapConfigStore(map[string]string{
		"forms.career.email_enabled": "not-a-bool",
	})

	settings := LoadFormSettings(store, "career")
	if settings.Title != "career" || settings.LeadType != "career" {
		t.Errorf("Expected title and lead type to default to form key, got %q/%q", settings.Title, settings.LeadType)
	}
	if !settings.EmailEnabled {
		t.Error("Expected unparsable flag to fall back to default")
	}

	store.Set("forms.career.email_enabled", "false")
	if LoadFormSettings(store, "career").EmailEnabled {
		t.Error("Expected Set to take effect on next read")
	}
}

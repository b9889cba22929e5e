package service

import (
	"strconv"
	"sync"

	"github.com/AnTengye/formrelay/config"
)

// ConfigStore is the read side of the operator-managed settings.
type ConfigStore interface {
	Get(key string) (string, bool)
}

// Form setting names, stored under "forms.<form>.<name>"
const (
	SettingSchema          = "schema"
	SettingTitle           = "title"
	SettingRecipient       = "recipient"
	SettingWebhookURL      = "webhook_url"
	SettingLeadType        = "lead_type"
	SettingSuccessRedirect = "success_redirect"
	SettingEmailEnabled    = "email_enabled"
	SettingLeadLogEnabled  = "lead_log_enabled"
	SettingCRMSyncEnabled  = "crm_sync_enabled"
)

// FormSettingKey builds the store key of a per-form setting.
func FormSettingKey(form, name string) string {
	return "forms." + form + "." + name
}

// MapConfigStore is an in-memory ConfigStore.
type MapConfigStore struct {
	mu     sync.RWMutex
	values map[string]string
}

func NewMapConfigStore(values map[string]string) *MapConfigStore {
	copied := make(map[string]string, len(values))
	for k, v := range values {
		copied[k] = v
	}
	return &MapConfigStore{values: copied}
}

// NewConfigStoreFromConfig flattens the configured forms into a MapConfigStore.
func NewConfigStoreFromConfig(cfg *config.Config) *MapConfigStore {
	values := make(map[string]string)
	for form, fc := range cfg.Forms {
		values[FormSettingKey(form, SettingTitle)] = fc.Title
		values[FormSettingKey(form, SettingLeadType)] = fc.LeadType
		values[FormSettingKey(form, SettingEmailEnabled)] = strconv.FormatBool(config.Enabled(fc.EmailEnabled))
		values[FormSettingKey(form, SettingLeadLogEnabled)] = strconv.FormatBool(config.Enabled(fc.LeadLogEnabled))
		values[FormSettingKey(form, SettingCRMSyncEnabled)] = strconv.FormatBool(fc.CRMSyncEnabled)
		if fc.Recipient != "" {
			values[FormSettingKey(form, SettingRecipient)] = fc.Recipient
		}
		if fc.WebhookURL != "" {
			values[FormSettingKey(form, SettingWebhookURL)] = fc.WebhookURL
		}
		if fc.SuccessRedirect != "" {
			values[FormSettingKey(form, SettingSuccessRedirect)] = fc.SuccessRedirect
		}
		if fc.Schema != "" {
			values[FormSettingKey(form, SettingSchema)] = fc.Schema
		}
	}
	return NewMapConfigStore(values)
}

func (s *MapConfigStore) Get(key string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[key]
	return v, ok
}

// Set replaces a value. Used by the admin surface and tests.
func (s *MapConfigStore) Set(key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
}

// FormSettings is the snapshot of one form's settings read at submission time.
type FormSettings struct {
	Form            string
	Title           string
	Recipient       string
	WebhookURL      string
	LeadType        string
	SuccessRedirect string
	EmailEnabled    bool
	LeadLogEnabled  bool
	CRMSyncEnabled  bool
}

// FormExists reports whether the form is registered in the store.
func FormExists(store ConfigStore, form string) bool {
	_, ok := store.Get(FormSettingKey(form, SettingTitle))
	return ok
}

// LoadFormSettings reads the settings of form; missing values fall back to defaults.
func LoadFormSettings(store ConfigStore, form string) FormSettings {
	get := func(name, fallback string) string {
		if v, ok := store.Get(FormSettingKey(form, name)); ok && v != "" {
			return v
		}
		return fallback
	}
	flag := func(name string, fallback bool) bool {
		v, ok := store.Get(FormSettingKey(form, name))
		if !ok {
			return fallback
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fallback
		}
		return b
	}

	return FormSettings{
		Form:            form,
		Title:           get(SettingTitle, form),
		Recipient:       get(SettingRecipient, ""),
		WebhookURL:      get(SettingWebhookURL, ""),
		LeadType:        get(SettingLeadType, form),
		SuccessRedirect: get(SettingSuccessRedirect, ""),
		EmailEnabled:    flag(SettingEmailEnabled, true),
		LeadLogEnabled:  flag(SettingLeadLogEnabled, true),
		CRMSyncEnabled:  flag(SettingCRMSyncEnabled, false),
	}
}

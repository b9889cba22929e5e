package service

import (
	"strings"

	"github.com/AnTengye/formrelay/model"
)

// SchemaStore loads form schemas from the ConfigStore on every call.
type SchemaStore struct {
	store ConfigStore
}

func NewSchemaStore(store ConfigStore) *SchemaStore {
	return &SchemaStore{store: store}
}

// Load returns the schema for form. The returned schema is always usable:
// when the persisted schema is malformed, has an unknown field type or
// duplicate ids, the built-in default is returned together with a
// *model.ConfigError for the caller to log.
func (s *SchemaStore) Load(form string) (model.FieldSchema, error) {
	raw, ok := s.store.Get(FormSettingKey(form, SettingSchema))
	if !ok || strings.TrimSpace(raw) == "" {
		return DefaultSchema(form), nil
	}

	schema, err := model.ParseSchema(form, []byte(raw))
	if err != nil {
		return DefaultSchema(form), &model.ConfigError{
			Form:   form,
			Reason: "persisted schema rejected, using default",
			Err:    err,
		}
	}
	return schema, nil
}

package service

import "github.com/AnTengye/formrelay/model"

// defaultSchemas are used when a form has no persisted schema or the
// persisted one is unusable.
var defaultSchemas = map[string][]model.FieldDefinition{
	"contact": {
		{ID: "first_name", Label: "First Name", Type: model.FieldText, Required: true, Width: model.WidthHalf},
		{ID: "last_name", Label: "Last Name", Type: model.FieldText, Required: true, Width: model.WidthHalf},
		{ID: "email", Label: "Email", Type: model.FieldEmail, Required: true, Width: model.WidthHalf},
		{ID: "phone", Label: "Phone", Type: model.FieldTel, Width: model.WidthHalf},
		{ID: "message", Label: "Message", Type: model.FieldTextarea, Width: model.WidthFull},
	},
	"career": {
		{ID: "first_name", Label: "First Name", Type: model.FieldText, Required: true, Width: model.WidthHalf},
		{ID: "last_name", Label: "Last Name", Type: model.FieldText, Required: true, Width: model.WidthHalf},
		{ID: "email", Label: "Email", Type: model.FieldEmail, Required: true, Width: model.WidthHalf},
		{ID: "phone", Label: "Phone", Type: model.FieldTel, Required: true, Width: model.WidthHalf},
		{ID: "position", Label: "Position", Type: model.FieldSelect, Required: true, Width: model.WidthHalf,
			Options: []string{"Lead Teacher", "Assistant Teacher", "Center Director", "Cook", "Other"}},
		{ID: "location", Label: "Preferred Location", Type: model.FieldSelectLocation, Width: model.WidthHalf},
		{ID: "resume", Label: "Resume", Type: model.FieldFile, Required: true, Width: model.WidthFull},
		{ID: "message", Label: "Cover Letter", Type: model.FieldTextarea, Width: model.WidthFull},
	},
	"acquisition": {
		{ID: "name", Label: "Your Name", Type: model.FieldText, Required: true, Width: model.WidthHalf},
		{ID: "email", Label: "Email", Type: model.FieldEmail, Required: true, Width: model.WidthHalf},
		{ID: "phone", Label: "Phone", Type: model.FieldTel, Required: true, Width: model.WidthHalf},
		{ID: "company", Label: "Business Name", Type: model.FieldText, Width: model.WidthHalf},
		{ID: "location", Label: "Business Location", Type: model.FieldText, Width: model.WidthFull},
		{ID: "message", Label: "Tell Us About Your Business", Type: model.FieldTextarea, Required: true, Width: model.WidthFull},
	},
}

// genericSchema backs forms that have neither a persisted nor a built-in schema.
var genericSchema = []model.FieldDefinition{
	{ID: "name", Label: "Name", Type: model.FieldText, Required: true, Width: model.WidthHalf},
	{ID: "email", Label: "Email", Type: model.FieldEmail, Required: true, Width: model.WidthHalf},
	{ID: "message", Label: "Message", Type: model.FieldTextarea, Width: model.WidthFull},
}

// DefaultSchema returns a copy of the built-in schema for form.
func DefaultSchema(form string) model.FieldSchema {
	fields, ok := defaultSchemas[form]
	if !ok {
		fields = genericSchema
	}
	copied := make([]model.FieldDefinition, len(fields))
	copy(copied, fields)
	return model.FieldSchema{Form: form, Fields: copied}
}

package service

import (
	"context"
	"strings"

	"github.com/AnTengye/formrelay/model"
	"github.com/AnTengye/formrelay/pkg/logger"
	"github.com/go-playground/validator/v10"
)

// SubmissionValidator checks a raw submission against a schema. Every field
// is visited and recorded even after an error so the full payload can be
// audited; only ValidationOutcome.HasError gates the fanout.
type SubmissionValidator struct {
	uploads   *UploadGate
	sanitizer *Sanitizer
	validate  *validator.Validate
}

func NewSubmissionValidator(uploads *UploadGate) *SubmissionValidator {
	return &SubmissionValidator{
		uploads:   uploads,
		sanitizer: NewSanitizer(),
		validate:  validator.New(),
	}
}

func (v *SubmissionValidator) Validate(ctx context.Context, schema model.FieldSchema, raw model.RawSubmission) model.ValidationOutcome {
	outcome := model.ValidationOutcome{Record: model.NewSubmissionRecord()}
	record := outcome.Record
	log := logger.WithContext(ctx)

	for _, field := range schema.Fields {
		switch field.Type {
		case model.FieldFile:
			part := raw.Files[field.ID]
			stored, err := v.uploads.Accept(ctx, schema.Form, field, part)
			if err != nil {
				outcome.HasError = true
				log.Info("file field rejected", "field", field.ID, "error", err)
				if part != nil {
					record.Set(field, v.sanitizer.Text(part.Filename))
				} else {
					record.Set(field, "")
				}
				continue
			}
			if stored == nil {
				record.Set(field, "")
				continue
			}
			outcome.Files = append(outcome.Files, *stored)
			record.Set(field, stored.URL)

		case model.FieldEmail:
			email := v.sanitizer.Email(raw.Values[field.ID])
			record.Set(field, email)
			switch {
			case email == "":
				if field.Required {
					outcome.HasError = true
					log.Info("required field missing", "field", field.ID)
				}
			case v.validate.Var(email, "required,email") != nil:
				outcome.HasError = true
				log.Info("invalid email", "field", field.ID)
			case record.Email == "":
				// The first valid email-typed field is the contact address
				record.Email = email
			}

		case model.FieldTextarea:
			value := v.sanitizer.Textarea(raw.Values[field.ID])
			record.Set(field, value)
			if field.Required && value == "" {
				outcome.HasError = true
				log.Info("required field missing", "field", field.ID)
			}

		default:
			value := v.sanitizer.Text(raw.Values[field.ID])
			record.Set(field, value)
			if field.Required && value == "" {
				outcome.HasError = true
				log.Info("required field missing", "field", field.ID)
			}
		}
	}

	record.Name = identify(record)
	return outcome
}

// identify picks a human-readable name for notification subjects.
func identify(record *model.SubmissionRecord) string {
	for _, id := range []string{"name", "full_name", "applicant_name", "contact_name"} {
		if v := record.ValueOf(id); v != "" {
			return v
		}
	}
	full := strings.TrimSpace(record.ValueOf("first_name") + " " + record.ValueOf("last_name"))
	if full != "" {
		return full
	}
	return record.Email
}

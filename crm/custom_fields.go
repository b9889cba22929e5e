package crm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/AnTengye/formrelay/pkg/logger"
)

// Custom field data types accepted by the CRM
const (
	DataTypeText            = "TEXT"
	DataTypeLargeText       = "LARGE_TEXT"
	DataTypeNumerical       = "NUMERICAL"
	DataTypeDate            = "DATE"
	DataTypeMultipleOptions = "MULTIPLE_OPTIONS"
	DataTypeSingleOptions   = "SINGLE_OPTIONS"
	DataTypeCheckbox        = "CHECKBOX"
)

// CustomField is a CRM custom field definition. Options is only sent for
// option-typed fields.
type CustomField struct {
	ID       string   `json:"id,omitempty"`
	Name     string   `json:"name"`
	DataType string   `json:"dataType"`
	Options  []string `json:"options,omitempty"`
}

type customFieldsResponse struct {
	CustomFields []CustomField `json:"customFields"`
}

// AuditReport lists what an audit pass did per desired field name.
type AuditReport struct {
	Created []string
	Skipped []string
	Failed  []string
}

// CustomFieldAuditor creates the desired custom fields that are missing by
// name. Existing fields are never updated or deleted.
//
// The check-then-create sequence is not atomic: two audits racing against
// the same location can both create a field. A conflict response from the
// CRM is treated as the field already existing.
type CustomFieldAuditor struct {
	client   *Client
	resolver *LocationResolver
}

func NewCustomFieldAuditor(client *Client, resolver *LocationResolver) *CustomFieldAuditor {
	return &CustomFieldAuditor{client: client, resolver: resolver}
}

// Existing returns the location's custom fields keyed by name.
func (a *CustomFieldAuditor) Existing(ctx context.Context) (map[string]string, error) {
	locationID, ok := a.resolver.Resolve(ctx)
	if !ok {
		return nil, ErrLocationUnresolved
	}

	var resp customFieldsResponse
	if err := a.client.Do(ctx, http.MethodGet, customFieldsPath(locationID), nil, nil, &resp); err != nil {
		return nil, fmt.Errorf("failed to list custom fields: %w", err)
	}

	byName := make(map[string]string, len(resp.CustomFields))
	for _, f := range resp.CustomFields {
		byName[strings.TrimSpace(f.Name)] = f.ID
	}
	return byName, nil
}

// Audit ensures every desired field exists. Individual create failures are
// logged and collected; they do not stop the pass.
func (a *CustomFieldAuditor) Audit(ctx context.Context, desired []CustomField) (AuditReport, error) {
	var report AuditReport

	existing, err := a.Existing(ctx)
	if err != nil {
		return report, err
	}
	locationID, _ := a.resolver.Resolve(ctx)

	var errs []error
	for _, field := range desired {
		name := strings.TrimSpace(field.Name)
		if _, ok := existing[name]; ok {
			report.Skipped = append(report.Skipped, name)
			continue
		}

		body := CustomField{Name: name, DataType: field.DataType}
		if field.DataType == DataTypeMultipleOptions || field.DataType == DataTypeSingleOptions {
			body.Options = field.Options
		}

		var created struct {
			CustomField CustomField `json:"customField"`
		}
		err := a.client.Do(ctx, http.MethodPost, customFieldsPath(locationID), nil, body, &created)
		if err != nil {
			var statusErr *StatusError
			if errors.As(err, &statusErr) && statusErr.IsConflict() {
				logger.Info(ctx, "crm custom field already exists", "name", name)
				existing[name] = ""
				report.Skipped = append(report.Skipped, name)
				continue
			}
			logger.Error(ctx, "failed to create crm custom field", "name", name, "error", err)
			report.Failed = append(report.Failed, name)
			errs = append(errs, fmt.Errorf("create %q: %w", name, err))
			continue
		}

		existing[name] = created.CustomField.ID
		report.Created = append(report.Created, name)
		logger.Info(ctx, "crm custom field created", "name", name, "id", created.CustomField.ID)
	}

	return report, errors.Join(errs...)
}

func customFieldsPath(locationID string) string {
	return "/locations/" + url.PathEscape(locationID) + "/customFields"
}

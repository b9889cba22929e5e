package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/AnTengye/formrelay/crm"
	"github.com/AnTengye/formrelay/model"
	"github.com/AnTengye/formrelay/pkg/logger"
)

// CRMLeadSyncer turns a submission into a CRM contact, an optional
// opportunity and a note. Steps are not compensated if a later one fails.
type CRMLeadSyncer struct {
	contacts   *crm.ContactSyncService
	pipelineID string
	stageID    string
}

func NewCRMLeadSyncer(contacts *crm.ContactSyncService, pipelineID, stageID string) *CRMLeadSyncer {
	return &CRMLeadSyncer{contacts: contacts, pipelineID: pipelineID, stageID: stageID}
}

func (s *CRMLeadSyncer) SyncLead(ctx context.Context, settings FormSettings, record *model.SubmissionRecord) error {
	contact := ContactFromRecord(settings, record)
	result, err := s.contacts.UpsertContact(ctx, contact)
	if err != nil {
		return err
	}
	logger.Info(ctx, "crm contact upserted", "contact_id", result.ContactID, "new", result.New)

	if s.pipelineID != "" && s.stageID != "" {
		title := settings.Title + " - " + record.Name
		if _, err := s.contacts.CreateOpportunity(ctx, result.ContactID, s.pipelineID, s.stageID, title); err != nil {
			return err
		}
	}

	if _, err := s.contacts.AddNote(ctx, result.ContactID, noteBody(settings, record)); err != nil {
		return err
	}
	return nil
}

// ContactFromRecord maps well-known field ids onto CRM contact attributes.
func ContactFromRecord(settings FormSettings, record *model.SubmissionRecord) crm.Contact {
	contact := crm.Contact{
		FirstName:   record.ValueOf("first_name"),
		LastName:    record.ValueOf("last_name"),
		Email:       record.Email,
		Phone:       record.ValueOf("phone"),
		Address1:    record.ValueOf("address"),
		City:        record.ValueOf("city"),
		State:       record.ValueOf("state"),
		PostalCode:  record.ValueOf("zip"),
		CompanyName: record.ValueOf("company"),
		Source:      settings.Title + " form",
		Tags:        []string{settings.LeadType + "-form"},
	}
	if contact.FirstName == "" && contact.LastName == "" {
		contact.Name = record.Name
	}
	return contact
}

func noteBody(settings FormSettings, record *model.SubmissionRecord) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Submitted via %s form\n\n", settings.Title)
	for _, e := range record.Entries {
		fmt.Fprintf(&b, "%s: %s\n", e.Label, e.Value)
	}
	return b.String()
}

package crm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// CustomFieldValue sets a custom field on a contact by id or key.
type CustomFieldValue struct {
	ID    string `json:"id,omitempty"`
	Key   string `json:"key,omitempty"`
	Value any    `json:"field_value"`
}

// Contact is the whitelisted set of attributes forwarded on upsert.
type Contact struct {
	FirstName    string             `json:"firstName,omitempty"`
	LastName     string             `json:"lastName,omitempty"`
	Name         string             `json:"name,omitempty"`
	Email        string             `json:"email,omitempty"`
	Phone        string             `json:"phone,omitempty"`
	Address1     string             `json:"address1,omitempty"`
	City         string             `json:"city,omitempty"`
	State        string             `json:"state,omitempty"`
	PostalCode   string             `json:"postalCode,omitempty"`
	Country      string             `json:"country,omitempty"`
	CompanyName  string             `json:"companyName,omitempty"`
	Source       string             `json:"source,omitempty"`
	Tags         []string           `json:"tags,omitempty"`
	CustomFields []CustomFieldValue `json:"customFields,omitempty"`
}

type upsertContactRequest struct {
	Contact
	LocationID string `json:"locationId"`
}

// UpsertResult identifies the contact the CRM matched or created.
type UpsertResult struct {
	ContactID string
	New       bool
}

// Task is a follow-up assigned against a contact. AssignedTo is optional.
type Task struct {
	Title       string
	Description string
	DueDate     time.Time
	AssignedTo  string
}

type taskRequest struct {
	Title      string `json:"title"`
	Body       string `json:"body,omitempty"`
	DueDate    string `json:"dueDate"`
	Completed  bool   `json:"completed"`
	AssignedTo string `json:"assignedTo,omitempty"`
}

type opportunityRequest struct {
	PipelineID      string `json:"pipelineId"`
	LocationID      string `json:"locationId"`
	Name            string `json:"name"`
	PipelineStageID string `json:"pipelineStageId"`
	Status          string `json:"status"`
	ContactID       string `json:"contactId"`
}

// ContactSyncService writes contacts and their related records to the CRM.
// Calls are independent: a failure in one never rolls back another.
type ContactSyncService struct {
	client   *Client
	resolver *LocationResolver
}

func NewContactSyncService(client *Client, resolver *LocationResolver) *ContactSyncService {
	return &ContactSyncService{client: client, resolver: resolver}
}

// UpsertContact creates or updates a contact; the CRM decides which by its own matching rule.
func (s *ContactSyncService) UpsertContact(ctx context.Context, contact Contact) (*UpsertResult, error) {
	locationID, ok := s.resolver.Resolve(ctx)
	if !ok {
		return nil, ErrLocationUnresolved
	}

	var resp struct {
		New     bool `json:"new"`
		Contact struct {
			ID string `json:"id"`
		} `json:"contact"`
	}
	req := upsertContactRequest{Contact: contact, LocationID: locationID}
	if err := s.client.Do(ctx, http.MethodPost, "/contacts/upsert", nil, req, &resp); err != nil {
		return nil, fmt.Errorf("failed to upsert contact: %w", err)
	}
	if resp.Contact.ID == "" {
		return nil, errors.New("crm upsert returned no contact id")
	}

	return &UpsertResult{ContactID: resp.Contact.ID, New: resp.New}, nil
}

// CreateOpportunity opens an opportunity for the contact in the given pipeline stage.
func (s *ContactSyncService) CreateOpportunity(ctx context.Context, contactID, pipelineID, stageID, title string) (string, error) {
	locationID, ok := s.resolver.Resolve(ctx)
	if !ok {
		return "", ErrLocationUnresolved
	}
	if contactID == "" {
		return "", errors.New("contact id is required")
	}

	req := opportunityRequest{
		PipelineID:      pipelineID,
		LocationID:      locationID,
		Name:            title,
		PipelineStageID: stageID,
		Status:          "open",
		ContactID:       contactID,
	}
	var resp struct {
		Opportunity struct {
			ID string `json:"id"`
		} `json:"opportunity"`
	}
	if err := s.client.Do(ctx, http.MethodPost, "/opportunities/", nil, req, &resp); err != nil {
		return "", fmt.Errorf("failed to create opportunity: %w", err)
	}
	return resp.Opportunity.ID, nil
}

// CreateTask adds a task to the contact.
func (s *ContactSyncService) CreateTask(ctx context.Context, contactID string, task Task) (string, error) {
	if _, ok := s.resolver.Resolve(ctx); !ok {
		return "", ErrLocationUnresolved
	}
	if contactID == "" {
		return "", errors.New("contact id is required")
	}

	req := taskRequest{
		Title:      task.Title,
		Body:       task.Description,
		DueDate:    task.DueDate.UTC().Format(time.RFC3339),
		AssignedTo: task.AssignedTo,
	}
	var resp struct {
		Task struct {
			ID string `json:"id"`
		} `json:"task"`
	}
	if err := s.client.Do(ctx, http.MethodPost, contactPath(contactID, "tasks"), nil, req, &resp); err != nil {
		return "", fmt.Errorf("failed to create task: %w", err)
	}
	return resp.Task.ID, nil
}

// AddNote attaches a note to the contact.
func (s *ContactSyncService) AddNote(ctx context.Context, contactID, body string) (string, error) {
	if _, ok := s.resolver.Resolve(ctx); !ok {
		return "", ErrLocationUnresolved
	}
	if contactID == "" {
		return "", errors.New("contact id is required")
	}

	var resp struct {
		Note struct {
			ID string `json:"id"`
		} `json:"note"`
	}
	req := map[string]string{"body": body}
	if err := s.client.Do(ctx, http.MethodPost, contactPath(contactID, "notes"), nil, req, &resp); err != nil {
		return "", fmt.Errorf("failed to add note: %w", err)
	}
	return resp.Note.ID, nil
}

func contactPath(contactID, resource string) string {
	return "/contacts/" + url.PathEscape(contactID) + "/" + resource
}

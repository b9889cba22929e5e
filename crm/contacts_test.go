package crm

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSyncService(t *testing.T) (*fakeCRM, *ContactSyncService) {
	fake, server := newFakeCRM(t)
	client := newTestClient(server.URL)
	return fake, NewContactSyncService(client, NewLocationResolver(client, ""))
}

func TestUpsertContact(t *testing.T) {
	fake, svc := newTestSyncService(t)

	result, err := svc.UpsertContact(context.Background(), Contact{
		FirstName: "Jane",
		LastName:  "Doe",
		Email:     "jane@x.com",
		Phone:     "5551234567",
		Tags:      []string{"contact-form"},
		CustomFields: []CustomFieldValue{
			{Key: "inquiry_source", Value: "website"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "contact-1", result.ContactID)
	assert.True(t, result.New)

	body := fake.lastBody("/contacts/upsert")
	require.NotNil(t, body)
	assert.Equal(t, "loc-1", body["locationId"])
	assert.Equal(t, "jane@x.com", body["email"])
	assert.Equal(t, []any{"contact-form"}, body["tags"])
	_, hasCity := body["city"]
	assert.False(t, hasCity, "empty attributes are not forwarded")
}

func TestCreateOpportunity(t *testing.T) {
	fake, svc := newTestSyncService(t)

	id, err := svc.CreateOpportunity(context.Background(), "contact-1", "pipe-1", "stage-1", "Acquisition - Jane Doe")
	require.NoError(t, err)
	assert.Equal(t, "opp-1", id)

	body := fake.lastBody("/opportunities/")
	assert.Equal(t, "open", body["status"])
	assert.Equal(t, "contact-1", body["contactId"])
	assert.Equal(t, "pipe-1", body["pipelineId"])
	assert.Equal(t, "stage-1", body["pipelineStageId"])
	assert.Equal(t, "loc-1", body["locationId"])
}

func TestCreateTaskOmitsMissingAssignee(t *testing.T) {
	fake, svc := newTestSyncService(t)
	due := time.Date(2026, 10, 20, 9, 0, 0, 0, time.UTC)

	id, err := svc.CreateTask(context.Background(), "contact-1", Task{Title: "Call back", Description: "Tour request", DueDate: due})
	require.NoError(t, err)
	assert.Equal(t, "task-1", id)

	body := fake.lastBody("/contacts/contact-1/tasks")
	_, hasAssignee := body["assignedTo"]
	assert.False(t, hasAssignee)
	assert.Equal(t, "2026-10-20T09:00:00Z", body["dueDate"])
	assert.Equal(t, false, body["completed"])

	_, err = svc.CreateTask(context.Background(), "contact-1", Task{Title: "Call back", DueDate: due, AssignedTo: "user-9"})
	require.NoError(t, err)
	assert.Equal(t, "user-9", fake.lastBody("/contacts/contact-1/tasks")["assignedTo"])
}

func TestAddNote(t *testing.T) {
	fake, svc := newTestSyncService(t)

	id, err := svc.AddNote(context.Background(), "contact-1", "Submitted via contact form")
	require.NoError(t, err)
	assert.Equal(t, "note-1", id)
	assert.Equal(t, "Submitted via contact form", fake.lastBody("/contacts/contact-1/notes")["body"])
}

func TestContactPathsEscapeIDs(t *testing.T) {
	fake, svc := newTestSyncService(t)

	_, err := svc.AddNote(context.Background(), "contact-1/../x", "body")
	assert.Error(t, err)
	assert.Equal(t, "/contacts/contact-1%2F..%2Fx/notes", fake.lastRawPath())

	_, err = svc.CreateTask(context.Background(), "a b?c", Task{Title: "x", DueDate: time.Now()})
	assert.Error(t, err)
	assert.Equal(t, "/contacts/a%20b%3Fc/tasks", fake.lastRawPath())
}

func TestContactSyncRequiresContactID(t *testing.T) {
	_, svc := newTestSyncService(t)

	_, err := svc.AddNote(context.Background(), "", "body")
	assert.Error(t, err)
	_, err = svc.CreateTask(context.Background(), "", Task{Title: "x"})
	assert.Error(t, err)
	_, err = svc.CreateOpportunity(context.Background(), "", "p", "s", "t")
	assert.Error(t, err)
}

func TestContactSyncShortCircuitsWithoutLocation(t *testing.T) {
	fake, svc := newTestSyncService(t)
	fake.locations = nil
	ctx := context.Background()

	_, err := svc.UpsertContact(ctx, Contact{Email: "jane@x.com"})
	assert.ErrorIs(t, err, ErrLocationUnresolved)
	_, err = svc.CreateOpportunity(ctx, "contact-1", "p", "s", "t")
	assert.ErrorIs(t, err, ErrLocationUnresolved)
	_, err = svc.CreateTask(ctx, "contact-1", Task{Title: "t", DueDate: time.Now()})
	assert.ErrorIs(t, err, ErrLocationUnresolved)
	_, err = svc.AddNote(ctx, "contact-1", "n")
	assert.ErrorIs(t, err, ErrLocationUnresolved)

	assert.Equal(t, 0, fake.count(http.MethodPost, "/contacts/upsert"))
	assert.Equal(t, 0, fake.count(http.MethodPost, "/opportunities/"))
	assert.Equal(t, 0, fake.count(http.MethodPost, "/contacts/contact-1/tasks"))
	assert.Equal(t, 0, fake.count(http.MethodPost, "/contacts/contact-1/notes"))
}

func TestUpsertContactFailure(t *testing.T) {
	fake, svc := newTestSyncService(t)
	fake.failPaths["/contacts/upsert"] = http.StatusBadRequest

	_, err := svc.UpsertContact(context.Background(), Contact{Email: "jane@x.com"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to upsert contact")
}

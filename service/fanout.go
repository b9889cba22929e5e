package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/AnTengye/formrelay/model"
	"github.com/AnTengye/formrelay/pkg/logger"
)

// crmSyncTimeout bounds one detached CRM sync.
const crmSyncTimeout = 60 * time.Second

// LeadSyncer pushes an accepted submission to the CRM.
type LeadSyncer interface {
	SyncLead(ctx context.Context, settings FormSettings, record *model.SubmissionRecord) error
}

// NotificationFanout delivers an accepted submission to the enabled sinks.
// Email and lead persistence finish before Dispatch returns; the webhook
// and CRM sync run detached.
type NotificationFanout struct {
	config   ConfigStore
	mailer   MailSender
	leads    LeadStore
	webhooks *WebhookDispatcher
	syncer   LeadSyncer
	tasks    *Detached
	now      func() time.Time
}

// FanoutOption configures optional sinks.
type FanoutOption func(*NotificationFanout)

func WithMailer(m MailSender) FanoutOption { return func(f *NotificationFanout) { f.mailer = m } }

func WithLeadStore(s LeadStore) FanoutOption { return func(f *NotificationFanout) { f.leads = s } }

func WithWebhooks(d *WebhookDispatcher) FanoutOption {
	return func(f *NotificationFanout) { f.webhooks = d }
}

func WithLeadSyncer(s LeadSyncer, tasks *Detached) FanoutOption {
	return func(f *NotificationFanout) {
		f.syncer = s
		f.tasks = tasks
	}
}

func NewNotificationFanout(store ConfigStore, opts ...FanoutOption) *NotificationFanout {
	f := &NotificationFanout{config: store, now: time.Now}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Dispatch sends outcome to the sinks enabled for form. A rejected outcome is ignored.
func (f *NotificationFanout) Dispatch(ctx context.Context, form string, outcome model.ValidationOutcome) {
	log := logger.WithContext(ctx)
	if !outcome.Accepted() {
		log.Warn("fanout skipped for rejected submission")
		return
	}

	settings := LoadFormSettings(f.config, form)
	submittedAt := f.now()

	if settings.EmailEnabled && settings.Recipient != "" && f.mailer != nil {
		msg := ComposeNotification(settings, outcome, submittedAt)
		if err := f.mailer.Send(ctx, msg); err != nil {
			log.Error("notification email failed", "recipient", settings.Recipient, "error", err)
		} else {
			log.Info("notification email sent", "recipient", settings.Recipient)
		}
	}

	if settings.LeadLogEnabled && f.leads != nil {
		payload, err := json.Marshal(outcome.Record)
		if err != nil {
			log.Error("failed to serialize lead", "error", err)
		} else {
			lead := &model.Lead{
				LeadType:  settings.LeadType,
				Form:      form,
				Email:     outcome.Record.Email,
				Name:      outcome.Record.Name,
				Payload:   string(payload),
				CreatedAt: submittedAt,
			}
			if err := f.leads.SaveLead(ctx, lead); err != nil {
				log.Error("failed to persist lead", "lead_type", settings.LeadType, "error", err)
			} else {
				log.Info("lead persisted", "lead_id", lead.ID, "lead_type", settings.LeadType)
			}
		}
	}

	if settings.WebhookURL != "" && f.webhooks != nil {
		f.webhooks.Fire(ctx, settings.WebhookURL, WebhookEnvelope{
			FormName:    form,
			SubmittedAt: submittedAt.UTC().Format(time.RFC3339),
			Data:        outcome.Record,
		})
	}

	if settings.CRMSyncEnabled && f.syncer != nil && f.tasks != nil {
		record := outcome.Record
		f.tasks.Go(ctx, "crm_sync", crmSyncTimeout, func(ctx context.Context) error {
			return f.syncer.SyncLead(ctx, settings, record)
		})
	}
}

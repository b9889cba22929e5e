package service

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/AnTengye/formrelay/model"
	"github.com/google/uuid"
)

// LeadStore persists accepted submissions as leads.
type LeadStore interface {
	SaveLead(ctx context.Context, lead *model.Lead) error
}

// MemoryLeadStore is an in-memory lead log
// In production, use MongoLeadStore
type MemoryLeadStore struct {
	leads    map[string]*model.Lead
	mu       sync.RWMutex
	maxLeads int // Maximum leads to keep, 0 = unlimited
}

func NewMemoryLeadStore(maxLeads int) *MemoryLeadStore {
	if maxLeads < 0 {
		maxLeads = 0
	}
	slog.Info("lead store initialized", "driver", "memory", "max_leads", maxLeads)
	return &MemoryLeadStore{
		leads:    make(map[string]*model.Lead),
		maxLeads: maxLeads,
	}
}

func (s *MemoryLeadStore) SaveLead(ctx context.Context, lead *model.Lead) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if lead.ID == "" {
		lead.ID = uuid.NewString()
	}
	if lead.CreatedAt.IsZero() {
		lead.CreatedAt = time.Now()
	}
	s.leads[lead.ID] = lead

	// Cleanup if exceeds max
	s.cleanupIfNeeded()
	return nil
}

// cleanupIfNeeded removes oldest leads if store exceeds maxLeads
// Must be called with lock held
func (s *MemoryLeadStore) cleanupIfNeeded() {
	if s.maxLeads <= 0 {
		return // Unlimited
	}

	if len(s.leads) <= s.maxLeads {
		return
	}

	leads := make([]*model.Lead, 0, len(s.leads))
	for _, l := range s.leads {
		leads = append(leads, l)
	}
	sort.Slice(leads, func(i, j int) bool {
		return leads[i].CreatedAt.Before(leads[j].CreatedAt)
	})

	removeCount := len(leads) - s.maxLeads
	for i := 0; i < removeCount; i++ {
		slog.Info("evicting old lead",
			"lead_id", leads[i].ID,
			"lead_type", leads[i].LeadType,
			"created_at", leads[i].CreatedAt,
		)
		delete(s.leads, leads[i].ID)
	}
}

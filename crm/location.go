package crm

import (
	"context"
	"net/http"
	"sync"

	"github.com/AnTengye/formrelay/pkg/logger"
)

// Location is one CRM account as returned by the location search.
type Location struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type locationSearchResponse struct {
	Locations []Location `json:"locations"`
}

// LocationResolver finds the location id behind the API key and
// memoizes it for the life of the resolver. Only a successful lookup is
// memoized.
type LocationResolver struct {
	client *Client

	mu sync.Mutex
	id string
}

// NewLocationResolver returns a resolver. A non-empty preset is used as the
// location id without querying the CRM.
func NewLocationResolver(client *Client, preset string) *LocationResolver {
	return &LocationResolver{client: client, id: preset}
}

// Resolve returns the location id, or false if the search failed or found nothing.
func (r *LocationResolver) Resolve(ctx context.Context) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.id != "" {
		return r.id, true
	}

	var resp locationSearchResponse
	if err := r.client.Do(ctx, http.MethodGet, "/locations/search", nil, nil, &resp); err != nil {
		logger.Warn(ctx, "crm location search failed", "error", err)
		return "", false
	}
	if len(resp.Locations) == 0 || resp.Locations[0].ID == "" {
		logger.Warn(ctx, "crm location search returned no locations")
		return "", false
	}

	r.id = resp.Locations[0].ID
	logger.Info(ctx, "crm location resolved", "location_id", r.id, "name", resp.Locations[0].Name)
	return r.id, true
}

package model

import "time"

// Lead type constants
const (
	LeadContact     = "contact"
	LeadCareer      = "career"
	LeadAcquisition = "acquisition"
)

// Lead is the persisted form of an accepted submission
type Lead struct {
	ID        string    `json:"id" bson:"_id"`
	LeadType  string    `json:"lead_type" bson:"lead_type"`
	Form      string    `json:"form" bson:"form"`
	Email     string    `json:"email" bson:"email"`
	Name      string    `json:"name,omitempty" bson:"name,omitempty"`
	Payload   string    `json:"payload" bson:"payload"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
}

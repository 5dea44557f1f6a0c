package provider

import (
	"time"

	"github.com/google/uuid"
)

// Provider is a prescribing provider, identified by NPI. An NPI is globally
// unique and, once bound to a name, never silently rebinds to another.
type Provider struct {
	ID        uuid.UUID `json:"id"`
	NPI       string    `json:"npi"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone,omitempty"`
	Fax       string    `json:"fax,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

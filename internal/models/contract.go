// Package models defines data structures for the bidsweep contract store.
package models

import (
	"strings"
	"time"

	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"
)

// Contract represents one discovered procurement opportunity.
// Records are immutable after insert; downstream consumers own any
// status tracking.
type Contract struct {
	ID                 surrealmodels.RecordID `json:"id"`
	Title              string                 `json:"title"`
	Agency             string                 `json:"agency"`
	Location           string                 `json:"location,omitempty"`
	EstimatedValue     *string                `json:"estimated_value,omitempty"`
	Deadline           *time.Time             `json:"deadline,omitempty"`
	Description        string                 `json:"description,omitempty"`
	NAICSCode          *string                `json:"naics_code,omitempty"`
	URL                string                 `json:"url"`
	SolicitationNumber *string                `json:"solicitation_number,omitempty"`
	ContactName        *string                `json:"contact_name,omitempty"`
	ContactEmail       *string                `json:"contact_email,omitempty"`
	ContactPhone       *string                `json:"contact_phone,omitempty"`
	Source             string                 `json:"source"`
	DiscoveredAt       time.Time              `json:"discovered_at,omitempty"`
}

// ContractInput is a contract candidate produced by an adapter, before
// the store assigns an ID and discovery timestamp.
type ContractInput struct {
	Title              string     `json:"title"`
	Agency             string     `json:"agency"`
	Location           string     `json:"location,omitempty"`
	EstimatedValue     *string    `json:"estimated_value,omitempty"`
	Deadline           *time.Time `json:"deadline,omitempty"`
	Description        string     `json:"description,omitempty"`
	NAICSCode          *string    `json:"naics_code,omitempty"`
	URL                string     `json:"url"`
	SolicitationNumber *string    `json:"solicitation_number,omitempty"`
	ContactName        *string    `json:"contact_name,omitempty"`
	ContactEmail       *string    `json:"contact_email,omitempty"`
	ContactPhone       *string    `json:"contact_phone,omitempty"`
	Source             string     `json:"source"`
}

// DedupKey returns the uniqueness key for the (solicitation number, agency)
// constraint. Contracts without a solicitation number return "", meaning
// they are never treated as duplicates of each other.
func (c ContractInput) DedupKey() string {
	if c.SolicitationNumber == nil {
		return ""
	}
	num := strings.TrimSpace(*c.SolicitationNumber)
	if num == "" {
		return ""
	}
	return num + "|" + strings.ToLower(strings.TrimSpace(c.Agency))
}

package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"
)

func strPtr(s string) *string { return &s }

func TestDedupKey(t *testing.T) {
	tests := []struct {
		name string
		in   ContractInput
		want string
	}{
		{
			"number and agency",
			ContractInput{SolicitationNumber: strPtr("RFP-2026-001"), Agency: "City of Example"},
			"RFP-2026-001|city of example",
		},
		{
			"agency whitespace and case folded",
			ContractInput{SolicitationNumber: strPtr("RFP-2026-001"), Agency: "  CITY OF EXAMPLE "},
			"RFP-2026-001|city of example",
		},
		{
			"number whitespace trimmed",
			ContractInput{SolicitationNumber: strPtr("  RFP-2026-001 "), Agency: "Example"},
			"RFP-2026-001|example",
		},
		{
			"nil number",
			ContractInput{Agency: "Example"},
			"",
		},
		{
			"blank number",
			ContractInput{SolicitationNumber: strPtr("   "), Agency: "Example"},
			"",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.in.DedupKey())
		})
	}
}

func TestRecordIDString(t *testing.T) {
	s, err := RecordIDString(surrealmodels.RecordID{Table: "contract", ID: "abc123"})
	require.NoError(t, err)
	assert.Equal(t, "abc123", s)

	_, err = RecordIDString(surrealmodels.RecordID{Table: "contract", ID: 42})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected ID type")
}

package cli

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/contracta-cli/internal/core/domain"
	"github.com/custodia-labs/contracta-cli/internal/core/ports/driven"
)

// scriptExtraction makes the fake provider return a fixed extraction
// result with only the rent field populated.
func scriptExtraction(t *testing.T, llm *fakeLLM) {
	t.Helper()
	llm.completeFn = func(_ string, opts driven.GenerateOptions) (*driven.Completion, error) {
		assert.True(t, opts.JSONMode)
		return &driven.Completion{
			Text: `{"rent_amount": {"value": "SGD $3,500", "page": 2, "found": true}}`,
		}, nil
	}
}

func TestExtractCmd_PrintsFieldTable(t *testing.T) {
	llm := setupTestServices(t)
	ingestTenancyDoc(t)
	scriptExtraction(t, llm)

	output, err := execute(t, "extract")
	require.NoError(t, err)

	assert.Contains(t, output, "Extracted fields:")
	assert.Contains(t, output, "SGD $3,500 (page 2)")
	// Missing fields appear with an explicit marker, never omitted.
	assert.Contains(t, output, "pet_policy")
	assert.Contains(t, output, domain.FieldNotFound)
}

func TestExtractCmd_JSONOutput(t *testing.T) {
	llm := setupTestServices(t)
	ingestTenancyDoc(t)
	scriptExtraction(t, llm)

	output, err := execute(t, "extract", "--json")
	require.NoError(t, err)

	var fields domain.FieldSet
	require.NoError(t, json.Unmarshal([]byte(output), &fields))
	assert.True(t, fields.RentAmount.Found)
	assert.Equal(t, "SGD $3,500", fields.RentAmount.Value)
	assert.Equal(t, 2, fields.RentAmount.Page)
	assert.False(t, fields.PetPolicy.Found)
	assert.Equal(t, domain.FieldNotFound, fields.PetPolicy.Value)
}

func TestExtractCmd_RepeatServedFromProviderOnlyOnce(t *testing.T) {
	llm := setupTestServices(t)
	ingestTenancyDoc(t)

	calls := 0
	llm.completeFn = func(_ string, _ driven.GenerateOptions) (*driven.Completion, error) {
		calls++
		return &driven.Completion{
			Text: `{"rent_amount": {"value": "SGD $3,500", "page": 2, "found": true}}`,
		}, nil
	}

	_, err := execute(t, "extract")
	require.NoError(t, err)
	_, err = execute(t, "extract")
	require.NoError(t, err)

	assert.Equal(t, 1, calls)
}

func TestExtractCmd_NoDocuments(t *testing.T) {
	setupTestServices(t)

	_, err := execute(t, "extract")
	assert.ErrorContains(t, err, "contracta load")
}

package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlattenCaseFieldsMainOnly(t *testing.T) {
	main, annexures := FlattenCaseFields(map[string]interface{}{
		"overall_status": "wip",
		"qc": map[string]interface{}{
			"qc_done_by": "analyst-1",
			"qc_remarks": "pending docs",
		},
	})

	assert.Equal(t, "wip", main["overall_status"])
	assert.Equal(t, "analyst-1", main["qc_done_by"])
	assert.Equal(t, "pending docs", main["qc_remarks"])
	assert.Empty(t, annexures)
}

func TestFlattenCaseFieldsAnnexureBuckets(t *testing.T) {
	main, annexures := FlattenCaseFields(map[string]interface{}{
		"overall_status": "completed",
		"annexure": map[string]interface{}{
			"employment_checks": map[string]interface{}{
				"employer_name":           "Acme Corp",
				"emp_verification_status": "completed_green",
			},
			"address_checks": map[string]interface{}{
				"address_line": "42 High St",
			},
		},
	})

	assert.Equal(t, "completed", main["overall_status"])
	require.Contains(t, annexures, "employment_checks")
	require.Contains(t, annexures, "address_checks")
	assert.Equal(t, "Acme Corp", annexures["employment_checks"]["employer_name"])
	assert.Equal(t, "completed_green", annexures["employment_checks"]["emp_verification_status"])
	assert.Equal(t, "42 High St", annexures["address_checks"]["address_line"])
}

func TestFlattenCaseFieldsScalarUnderAnnexureKey(t *testing.T) {
	main, annexures := FlattenCaseFields(map[string]interface{}{
		"annexure": map[string]interface{}{
			"stray_note": "no parent bucket",
			"education_checks": map[string]interface{}{
				"degree": "BSc",
			},
		},
	})

	assert.Equal(t, "no parent bucket", main["stray_note"])
	assert.Equal(t, "BSc", annexures["education_checks"]["degree"])
}

func TestFlattenCaseFieldsDeepNestingInsideAnnexure(t *testing.T) {
	_, annexures := FlattenCaseFields(map[string]interface{}{
		"annexure": map[string]interface{}{
			"employment_checks": map[string]interface{}{
				"supervisor": map[string]interface{}{
					"name": "J. Smith",
				},
			},
		},
	})

	// Deeper objects bucket under their own key, the scalar's immediate parent.
	assert.Equal(t, "J. Smith", annexures["supervisor"]["name"])
}

func TestFlattenCaseFieldsScalarCoercion(t *testing.T) {
	main, _ := FlattenCaseFields(map[string]interface{}{
		"tat_days":   float64(7),
		"score":      float64(92.5),
		"is_final":   true,
		"dropped":    nil,
		"references": []interface{}{"a", "b"},
	})

	assert.Equal(t, "7", main["tat_days"])
	assert.Equal(t, "92.5", main["score"])
	assert.Equal(t, "true", main["is_final"])
	assert.NotContains(t, main, "dropped")
	assert.Equal(t, `["a","b"]`, main["references"])
}

func TestFlattenCaseFieldsNormalizesKeys(t *testing.T) {
	main, _ := FlattenCaseFields(map[string]interface{}{
		"Insuff-Raised Date": "2026-01-05",
	})
	assert.Equal(t, "2026-01-05", main["insuff_raised_date"])
}

package naming

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	cases := map[string]string{
		"Employment-Check":    "employment_check",
		"  dav forms ":        "dav_forms",
		"cef_forms":           "cef_forms",
		"123table":            "_123table",
		"weird!@#chars":       "weirdchars",
		"UPPER-CASE NAME":     "upper_case_name",
		"":                    "",
		"multiple   spaces":   "multiple___spaces",
		"trailing-hyphen-":    "trailing_hyphen_",
	}
	for input, want := range cases {
		assert.Equal(t, want, Normalize(input), "input %q", input)
	}
}

func TestNormalizeTruncates(t *testing.T) {
	long := strings.Repeat("a", 100)
	got := Normalize(long)
	assert.Len(t, got, MaxIdentifierLength)
}

func TestValidate(t *testing.T) {
	require.NoError(t, Validate("employment_check"))
	require.NoError(t, Validate("_private"))
	require.NoError(t, Validate("table2"))

	assert.Error(t, Validate(""))
	assert.Error(t, Validate("1table"))
	assert.Error(t, Validate("has-hyphen"))
	assert.Error(t, Validate("has space"))
	assert.Error(t, Validate("drop table; --"))
}

func TestValidateTableRejectsReserved(t *testing.T) {
	assert.Error(t, ValidateTable("cases"))
	assert.Error(t, ValidateTable("holidays"))
	require.NoError(t, ValidateTable("employment_checks"))
}

func TestNormalizeAndValidateTable(t *testing.T) {
	table, err := NormalizeAndValidateTable("Employment-Checks")
	require.NoError(t, err)
	assert.Equal(t, "employment_checks", table)

	_, err = NormalizeAndValidateTable("!!!")
	assert.Error(t, err)
}

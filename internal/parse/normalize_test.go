package parse

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeDate(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"04/08/25", "2025-08-04"},
		{"15/01/2024", "2024-01-15"},
		{"1/2/25", "2025-02-01"},
		{"09-12-23", "2023-12-09"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeDate(tt.in), "input %q", tt.in)
	}
}

// A date capture that does not split into three parts is passed through
// unmodified rather than dropped. Downstream prefill depends on getting
// something back here; do not "fix" this without checking consumers.
func TestNormalizeDateMalformedPassthrough(t *testing.T) {
	assert.Equal(t, "04/08", NormalizeDate("04/08"))
	assert.Equal(t, "2025", NormalizeDate("2025"))
	assert.Equal(t, "04/08/25/99", NormalizeDate("04/08/25/99"))
}

func TestNormalizeProductName(t *testing.T) {
	assert.Equal(t, "Nori Half Sheets WPL", NormalizeProductName("Nori  Half Sheets   WPL (A)"))
	assert.Equal(t, "Chicken Gyoza", NormalizeProductName("Chicken Gyoza (F)"))
	assert.Equal(t, "Miso Paste", NormalizeProductName("Miso Paste (FS) (AS)"))
	// annotation codes only strip from the end
	assert.Equal(t, "Rice (A) Premium", NormalizeProductName("Rice (A) Premium"))
}

func TestParseAmount(t *testing.T) {
	d, err := ParseAmount("£1,234.56")
	require.NoError(t, err)
	assert.Equal(t, "1234.56", d.StringFixed(2))

	_, err = ParseAmount("not-a-number")
	assert.Error(t, err)
}

package catalog

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValidateEAN13(t *testing.T) {
	require.True(t, ValidateEAN13("4006381333931"))
	require.True(t, ValidateEAN13("7501031311309"))
	require.False(t, ValidateEAN13("4006381333932"))
	require.False(t, ValidateEAN13("400638133393"))
	require.False(t, ValidateEAN13("40063813339a1"))
}

func TestGenerateEAN13(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		code, err := GenerateEAN13()
		require.NoError(t, err)
		require.Len(t, code, 13)
		require.True(t, ValidateEAN13(code), code)
		require.Equal(t, eanPrefix, code[:3])
		seen[code] = true
	}
	require.Greater(t, len(seen), 1)
}

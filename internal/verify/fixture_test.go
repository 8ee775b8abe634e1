package verify

import (
	"os"
	"testing"

	"github.com/stretchr/testify/require"
)

func openFixture(t *testing.T) *os.File {
	t.Helper()
	f, err := os.Open("../../testdata/estimate.xml")
	require.NoError(t, err)
	t.Cleanup(func() { f.Close() })
	return f
}

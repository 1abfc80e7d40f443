package contexthelpers_test

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/zheruizz/another.ai-app/internal/contexthelpers"
)

func TestRequestID(t *testing.T) {
	require.Empty(t, contexthelpers.RequestID(context.Background()))

	r := httptest.NewRequest("GET", "/", nil)
	r = contexthelpers.SetRequestID(r, "abc")
	require.Equal(t, "abc", contexthelpers.RequestID(r.Context()))
}

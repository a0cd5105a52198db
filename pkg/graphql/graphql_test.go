package graphql

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunSendsQueryVariablesAndHeaders(t *testing.T) {
	var received struct {
		Query     string                 `json:"query"`
		Variables map[string]interface{} `json:"variables"`
	}
	var authHeader, traceHeader string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader = r.Header.Get("Authentication")
		traceHeader = r.Header.Get("X-Trace")
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"data":{"createReport":{"id":"r1"}}}`))
	}))
	defer srv.Close()

	sb := &strings.Builder{}
	client := NewClient(srv.URL,
		WithHeader("Authentication", "Bearer secret"),
		WithLog(func(s string) { sb.WriteString(s) }),
	)

	req := NewRequest(`mutation { createReport { id } }`)
	req.Var("network", 1)
	req.Header["X-Trace"] = "abc"

	var resp struct {
		CreateReport struct {
			ID string `json:"id"`
		} `json:"createReport"`
	}
	require.NoError(t, client.Run(context.Background(), req, &resp))

	assert.Equal(t, "r1", resp.CreateReport.ID)
	assert.Equal(t, "Bearer secret", authHeader)
	assert.Equal(t, "abc", traceHeader)
	assert.Equal(t, `mutation { createReport { id } }`, received.Query)
	assert.Equal(t, float64(1), received.Variables["network"])
	assert.Contains(t, sb.String(), "<< status: 200")
}

func TestRunReturnsGraphQLErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":null,"errors":[{"message":"token not supported"}]}`))
	}))
	defer srv.Close()

	var resp map[string]interface{}
	err := NewClient(srv.URL).Run(context.Background(), NewRequest("{ x }"), &resp)

	var gqlErr Error
	require.True(t, errors.As(err, &gqlErr))
	assert.Equal(t, "token not supported", gqlErr.Message)
}

func TestRunReturnsStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	var resp map[string]interface{}
	err := NewClient(srv.URL).Run(context.Background(), NewRequest("{ x }"), &resp)

	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusUnauthorized, statusErr.StatusCode)
}

func TestRunRejectsMalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`not json`))
	}))
	defer srv.Close()

	var resp map[string]interface{}
	err := NewClient(srv.URL).Run(context.Background(), NewRequest("{ x }"), &resp)
	assert.ErrorContains(t, err, "decoding response")
}

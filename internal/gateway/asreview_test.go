package gateway

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/naka-gawa/asreview-stats/internal/domain"
)

func discardLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

// setupTestGateway creates an ASReviewGateway that communicates with a mock HTTP server.
func setupTestGateway(t *testing.T, handler http.Handler) (*ASReviewGateway, *httptest.Server) {
	server := httptest.NewServer(handler)

	baseURL, err := url.Parse(server.URL + "/")
	require.NoError(t, err)

	return newGateway(server.Client(), baseURL, discardLogger()), server
}

func TestASReviewGateway_FetchDashboardStats(t *testing.T) {
	testCases := []struct {
		name           string
		handlerFunc    func(w http.ResponseWriter, r *http.Request)
		expected       domain.DisplayValues
		expectError    bool
		expectedErrMsg string
		expectedErr    error
	}{
		{
			name: "happy path - decodes all counters",
			handlerFunc: func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/api/projects/stats", r.URL.Path)
				assert.Equal(t, http.MethodGet, r.Method)
				w.WriteHeader(http.StatusOK)
				fmt.Fprint(w, `{"result": {"n_in_review": 12, "n_finished": 3, "n_reviewed": 1340, "n_included": 25}}`)
			},
			expected: domain.DisplayValues{InReview: 12, Finished: 3, Reviewed: 1340, Relevant: 25},
		},
		{
			name: "partial result - missing counters are absent",
			handlerFunc: func(w http.ResponseWriter, r *http.Request) {
				fmt.Fprint(w, `{"result": {"n_in_review": 12, "n_finished": 0, "n_reviewed": 340}}`)
			},
			expected: domain.DisplayValues{InReview: 12, Reviewed: 340},
		},
		{
			name: "empty result - all counters absent",
			handlerFunc: func(w http.ResponseWriter, r *http.Request) {
				fmt.Fprint(w, `{}`)
			},
			expected: domain.DisplayValues{},
		},
		{
			name: "error case - server returns an error status",
			handlerFunc: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
				fmt.Fprint(w, `{"message": "Internal Server Error"}`)
			},
			expectError:    true,
			expectedErrMsg: "failed to fetch dashboard stats",
			expectedErr:    ErrUnexpectedStatus,
		},
		{
			name: "error case - body is not JSON",
			handlerFunc: func(w http.ResponseWriter, r *http.Request) {
				fmt.Fprint(w, `<html>oops</html>`)
			},
			expectError:    true,
			expectedErrMsg: "failed to decode dashboard stats",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			gateway, server := setupTestGateway(t, http.HandlerFunc(tc.handlerFunc))
			defer server.Close()

			payload, err := gateway.FetchDashboardStats(context.Background())

			if tc.expectError {
				assert.Error(t, err)
				assert.Nil(t, payload)
				assert.Contains(t, err.Error(), tc.expectedErrMsg)
				if tc.expectedErr != nil {
					assert.True(t, errors.Is(err, tc.expectedErr))
				}
			} else {
				require.NoError(t, err)
				require.NotNil(t, payload)
				assert.Equal(t, tc.expected, domain.DeriveDisplayValues(domain.FetchState{Ready: true, Payload: payload}))
			}
		})
	}
}

func TestNewASReviewGateway_SendsBearerToken(t *testing.T) {
	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		fmt.Fprint(w, `{"result": {"n_in_review": 1}}`)
	}))
	defer server.Close()

	gateway, err := NewASReviewGateway(Options{BaseURL: server.URL, Token: "secret"}, discardLogger())
	require.NoError(t, err)

	_, err = gateway.FetchDashboardStats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Bearer secret", gotAuth)
}

func TestNewASReviewGateway_InvalidURL(t *testing.T) {
	testCases := []string{"", "ftp://example.com", "://bad"}

	for _, raw := range testCases {
		t.Run(raw, func(t *testing.T) {
			gateway, err := NewASReviewGateway(Options{BaseURL: raw}, discardLogger())
			assert.Error(t, err)
			assert.Nil(t, gateway)
		})
	}
}

func TestASReviewGateway_CanceledContext(t *testing.T) {
	gateway, server := setupTestGateway(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"result": {}}`)
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := gateway.FetchDashboardStats(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

package erp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func samplePayload() Payload {
	return Payload{
		BuyerEmail: "buyer@example.com",
		Entries: []Entry{
			{
				RequestID:     "DA-2026-0042",
				Buyer:         "alice",
				SupplierCode:  "SUP-001",
				SupplierEmail: "sales@acme.test",
				SupplierPhone: "+33 1 23 45 67 89",
				ArticleCode:   "A100",
				Amount:        50,
				Brand:         "Acme",
				Project:       "PRJ-7",
			},
		},
	}
}

func TestPushSendsPayload(t *testing.T) {
	var received Payload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, time.Second, true)
	require.NoError(t, client.Push(context.Background(), samplePayload()))
	require.True(t, received.Headless)
	require.Equal(t, "buyer@example.com", received.BuyerEmail)
	require.Len(t, received.Entries, 1)
	require.Equal(t, "DA-2026-0042", received.Entries[0].RequestID)
	require.Equal(t, "sales@acme.test", received.Entries[0].SupplierEmail)
}

func TestPushNon200IsUpstreamFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, time.Second, false)
	err := client.Push(context.Background(), samplePayload())
	require.ErrorIs(t, err, ErrUpstream)
}

func TestPushTransportErrorIsUpstreamFailure(t *testing.T) {
	client := NewClient("http://127.0.0.1:1", 200*time.Millisecond, false)
	err := client.Push(context.Background(), samplePayload())
	require.ErrorIs(t, err, ErrUpstream)
}

package provider

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"smmpanel/internal/models"
	"smmpanel/internal/utils"
)

func testCipher(t *testing.T) *utils.Cipher {
	t.Helper()
	c, err := utils.NewCipher("test-master-secret", "test-salt")
	require.NoError(t, err)
	return c
}

func testProvider(t *testing.T, c *utils.Cipher, apiURL string) *models.Provider {
	t.Helper()
	ciphertext, nonce, err := c.Encrypt("secret-api-key")
	require.NoError(t, err)
	return &models.Provider{
		ID:           1,
		Name:         "test",
		APIURL:       apiURL,
		APIKeyCipher: ciphertext,
		APIKeyNonce:  nonce,
		Status:       models.ProviderStatusActive,
	}
}

func TestSubmitOrder_Success(t *testing.T) {
	var received map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"order": 123456}`))
	}))
	defer srv.Close()

	cipher := testCipher(t)
	client := NewClient(cipher, 5*time.Second)
	prov := testProvider(t, cipher, srv.URL)

	orderID, err := client.SubmitOrder(context.Background(), prov, SubmitRequest{
		Service:  101,
		Link:     "https://instagram.com/p/abc",
		Quantity: 100,
	})
	require.NoError(t, err)
	assert.Equal(t, "123456", orderID)

	// The decrypted key travels in the body, alongside the order params.
	assert.Equal(t, "secret-api-key", received["key"])
	assert.Equal(t, "add", received["action"])
	assert.Equal(t, float64(101), received["service"])
	assert.Equal(t, float64(100), received["quantity"])
}

func TestSubmitOrder_StringOrderID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"order": "abc-789"}`))
	}))
	defer srv.Close()

	cipher := testCipher(t)
	client := NewClient(cipher, 5*time.Second)

	orderID, err := client.SubmitOrder(context.Background(), testProvider(t, cipher, srv.URL), SubmitRequest{})
	require.NoError(t, err)
	assert.Equal(t, "abc-789", orderID)
}

func TestSubmitOrder_ErrorInsideOK(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Vendors report logical failures with HTTP 200.
		w.Write([]byte(`{"error": "not enough funds"}`))
	}))
	defer srv.Close()

	cipher := testCipher(t)
	client := NewClient(cipher, 5*time.Second)

	_, err := client.SubmitOrder(context.Background(), testProvider(t, cipher, srv.URL), SubmitRequest{})
	require.Error(t, err)
	assert.False(t, IsRetryable(err))

	var pe *Error
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "not enough funds", pe.Message)
	assert.Equal(t, http.StatusOK, pe.StatusCode)
}

func TestSubmitOrder_ServerErrorIsRetryable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	cipher := testCipher(t)
	client := NewClient(cipher, 5*time.Second)

	_, err := client.SubmitOrder(context.Background(), testProvider(t, cipher, srv.URL), SubmitRequest{})
	require.Error(t, err)
	assert.True(t, IsRetryable(err))
}

func TestSubmitOrder_ClientErrorIsNotRetryable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	cipher := testCipher(t)
	client := NewClient(cipher, 5*time.Second)

	_, err := client.SubmitOrder(context.Background(), testProvider(t, cipher, srv.URL), SubmitRequest{})
	require.Error(t, err)
	assert.False(t, IsRetryable(err))
}

func TestSubmitOrder_TimeoutIsRetryable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.Write([]byte(`{"order": 1}`))
	}))
	defer srv.Close()

	cipher := testCipher(t)
	client := NewClient(cipher, 5*time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := client.SubmitOrder(ctx, testProvider(t, cipher, srv.URL), SubmitRequest{})
	require.Error(t, err)
	assert.True(t, IsRetryable(err))
}

func TestSubmitOrder_MissingOrderID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	cipher := testCipher(t)
	client := NewClient(cipher, 5*time.Second)

	_, err := client.SubmitOrder(context.Background(), testProvider(t, cipher, srv.URL), SubmitRequest{})
	require.Error(t, err)
	assert.False(t, IsRetryable(err))
}

func TestGetStatus_NormalizesVendorSpellings(t *testing.T) {
	status := ""
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"status": status})
	}))
	defer srv.Close()

	cipher := testCipher(t)
	client := NewClient(cipher, 5*time.Second)
	prov := testProvider(t, cipher, srv.URL)

	tests := []struct {
		raw  string
		want OrderStatus
	}{
		{"Completed", StatusCompleted},
		{"In progress", StatusInProgress},
		{"Partial", StatusPartial},
		{"Canceled", StatusCanceled},
		{"queued", StatusPending},
		{"something-new", StatusUnknown},
	}
	for _, tt := range tests {
		status = tt.raw
		got, err := client.GetStatus(context.Background(), prov, "42")
		require.NoError(t, err, tt.raw)
		assert.Equal(t, tt.want, got, tt.raw)
	}
}

func TestCancelOrder_PropagatesVendorError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"error": "order is not cancellable"}`))
	}))
	defer srv.Close()

	cipher := testCipher(t)
	client := NewClient(cipher, 5*time.Second)

	err := client.CancelOrder(context.Background(), testProvider(t, cipher, srv.URL), "42")
	require.Error(t, err)
	assert.False(t, IsRetryable(err))
}

func TestNormalizeStatus(t *testing.T) {
	assert.Equal(t, StatusCompleted, NormalizeStatus(" completed "))
	assert.Equal(t, StatusInProgress, NormalizeStatus("InProgress"))
	assert.Equal(t, StatusCanceled, NormalizeStatus("refunded"))
	assert.Equal(t, StatusError, NormalizeStatus("FAILED"))
	assert.Equal(t, StatusUnknown, NormalizeStatus(""))
}

func TestOrderStatus_Terminality(t *testing.T) {
	assert.True(t, StatusCompleted.Completed())
	assert.False(t, StatusPartial.Completed())

	// Partial delivery is a failure requiring a full refund.
	assert.True(t, StatusPartial.Failed())
	assert.True(t, StatusCanceled.Failed())
	assert.True(t, StatusError.Failed())
	assert.False(t, StatusInProgress.Failed())
	assert.False(t, StatusPending.Failed())
}

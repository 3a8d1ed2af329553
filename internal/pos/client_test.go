package pos

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type staticTokens string

func (s staticTokens) Token(ctx context.Context, storeID string) (string, error) {
	return string(s), nil
}

func TestRegisterTransaction_OAuth(t *testing.T) {
	var gotAuth string
	var gotBody Transaction
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		_ = json.NewEncoder(w).Encode(map[string]string{"transactionHeadId": "rcpt-991"})
	}))
	defer srv.Close()

	c := New(Config{BaseURL: srv.URL, Mode: AuthOAuth}, staticTokens("tok-abc"))
	tran := BuildTransaction(TransactionFacts{Total: 9500, Subtotal: 8636, ChargeAmount: 4000, TableName: "B-2"}, time.Now())
	receipt, err := c.RegisterTransaction(context.Background(), "store-1", tran)

	assert.NoError(t, err)
	assert.Equal(t, "rcpt-991", receipt)
	assert.Equal(t, "Bearer tok-abc", gotAuth)
	assert.Equal(t, "9500", gotBody.Total)
}

func TestRegisterTransaction_StaticCredentials(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "cid", user)
		assert.Equal(t, "secret", pass)
		assert.Equal(t, "contract-9", r.Header.Get("X-Contract-Id"))
		_ = json.NewEncoder(w).Encode(map[string]string{"transactionHeadId": "rcpt-1"})
	}))
	defer srv.Close()

	c := New(Config{BaseURL: srv.URL, Mode: AuthStatic, ClientID: "cid", ClientSecret: "secret", ContractID: "contract-9"}, nil)
	receipt, err := c.RegisterTransaction(context.Background(), "ignored", &Transaction{})
	assert.NoError(t, err)
	assert.Equal(t, "rcpt-1", receipt)
}

func TestRegisterTransaction_ProviderFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := New(Config{BaseURL: srv.URL, Mode: AuthStatic}, nil)
	_, err := c.RegisterTransaction(context.Background(), "", &Transaction{})
	assert.Error(t, err)
}

func TestRegisterTransaction_EmptyReceipt(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{})
	}))
	defer srv.Close()

	c := New(Config{BaseURL: srv.URL, Mode: AuthStatic}, nil)
	_, err := c.RegisterTransaction(context.Background(), "", &Transaction{})
	assert.ErrorIs(t, err, ErrNoReceipt)
}

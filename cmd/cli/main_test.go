package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/walletledger/internal/adapter/http/dto"
)

const walletID = "6f1c1e0a-4b7e-4a8e-9f53-2d2b7c9a1e01"

func execute(t *testing.T, srv *httptest.Server, args ...string) (string, string, error) {
	t.Helper()

	var stdout, stderr bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(append([]string{"--url", srv.URL}, args...))

	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestTruncate(t *testing.T) {
	if got := truncate("short", 10); got != "short" {
		t.Fatalf("expected short unchanged, got %q", got)
	}

	if got := truncate("longerstring", 6); got != "lon..." {
		t.Fatalf("expected lon..., got %q", got)
	}
}

func TestPrintJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, printJSON(&buf, struct {
		A int `json:"a"`
	}{A: 1}))

	expected := "{\n  \"a\": 1\n}\n"
	if buf.String() != expected {
		t.Fatalf("unexpected json output:\n%s", buf.String())
	}
}

func TestWalletCreate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v1/wallets", r.URL.Path)

		var req dto.CreateWalletRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "JPY", req.Currency)

		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(dto.WalletResponse{ID: walletID, Currency: "JPY", Balance: "0"})
	}))
	defer srv.Close()

	out, _, err := execute(t, srv, "wallet", "create", "--currency", "JPY")
	require.NoError(t, err)
	assert.Contains(t, out, walletID)
}

func TestWalletDeposit_SendsKeyAndAmount(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/wallets/"+walletID+"/operation", r.URL.Path)
		assert.Equal(t, "my-key", r.Header.Get("Idempotency-Key"))

		var req dto.OperationRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "deposit", req.OperationType)
		assert.Equal(t, dto.Amount("12.50"), req.Amount)

		w.Header().Set("Idempotency-Key", "my-key")
		json.NewEncoder(w).Encode(dto.SubmitOperationResponse{
			Operation: &dto.OperationResponse{Version: 1, Amount: "12.50"},
		})
	}))
	defer srv.Close()

	out, errOut, err := execute(t, srv, "wallet", "deposit", walletID, "12.50", "--key", "my-key")
	require.NoError(t, err)
	assert.Contains(t, out, `"amount": "12.50"`)
	assert.Contains(t, errOut, "idempotency key: my-key")
}

func TestWalletWithdraw_InsufficientFunds(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Idempotency-Key", "generated")
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(dto.ErrorResponse{Error: "insufficient funds", Message: "operation was recorded as rejected"})
	}))
	defer srv.Close()

	_, errOut, err := execute(t, srv, "wallet", "withdraw", walletID, "5")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "insufficient funds")
	assert.Contains(t, errOut, "idempotency key: generated")
}

func TestWalletDeposit_RejectsBadAmountLocally(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected")
	}))
	defer srv.Close()

	_, _, err := execute(t, srv, "wallet", "deposit", walletID, "ten")
	assert.ErrorContains(t, err, "invalid amount")

	_, _, err = execute(t, srv, "wallet", "deposit", walletID, "1e-10000000")
	assert.ErrorContains(t, err, "invalid amount")
}

func TestWalletHistory_FollowsCursor(t *testing.T) {
	var afters []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		after := r.URL.Query().Get("after_version")
		afters = append(afters, after)

		resp := dto.ListOperationsResponse{}
		if after == "0" {
			resp.Operations = []*dto.OperationResponse{{Version: 1, OperationType: "deposit"}, {Version: 2, OperationType: "deposit"}}
			resp.NextAfterVersion = 2
		} else {
			resp.Operations = []*dto.OperationResponse{{Version: 3, OperationType: "withdrawal"}}
		}
		json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	out, _, err := execute(t, srv, "wallet", "history", walletID, "--page-size", "2")
	require.NoError(t, err)
	assert.Equal(t, []string{"0", "2"}, afters)
	assert.Equal(t, 3, strings.Count(out, "\n"))
	assert.Contains(t, out, "withdrawal")
}

func TestWalletReconcile_Ledger(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/reconciliation", r.URL.Path)
		w.WriteHeader(http.StatusConflict)
		json.NewEncoder(w).Encode(dto.ReconciliationReportResponse{
			TotalWallets:  4,
			Discrepancies: []*dto.ReconciliationResponse{{WalletID: walletID, Difference: "1.00"}},
		})
	}))
	defer srv.Close()

	out, _, err := execute(t, srv, "wallet", "reconcile")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 of 4 wallets")
	assert.Contains(t, out, walletID)
}

func TestWalletGet_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(dto.ErrorResponse{Error: "failed to get wallet", Message: "wallet not found"})
	}))
	defer srv.Close()

	_, _, err := execute(t, srv, "wallet", "get", walletID)
	var apiErr *apiError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.Status)
}

func TestMigrate_RequiresDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")

	cmd := newRootCmd()
	cmd.SetArgs([]string{"migrate", "up"})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})

	assert.ErrorContains(t, cmd.Execute(), "DATABASE_URL")
}

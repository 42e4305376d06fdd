package payments

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestInProcessCreateIntent(t *testing.T) {
	p := NewInProcessProvider()
	intent, err := p.CreateIntent(context.Background(), IntentRequest{Amount: decimal.NewFromFloat(100.80)})
	if err != nil {
		t.Fatalf("CreateIntent: %v", err)
	}
	if !strings.HasPrefix(intent.PaymentIntentID, "pi_") {
		t.Errorf("PaymentIntentID = %q, want pi_ prefix", intent.PaymentIntentID)
	}
}

func TestInProcessRejectsNegativeAmount(t *testing.T) {
	p := NewInProcessProvider()
	if _, err := p.CreateIntent(context.Background(), IntentRequest{Amount: decimal.NewFromInt(-1)}); err == nil {
		t.Fatal("expected error for negative amount")
	}
}

func TestInProcessRecordPayment(t *testing.T) {
	p := NewInProcessProvider()
	receipt, err := p.RecordPayment(context.Background(), RecordRequest{
		Amount: decimal.NewFromInt(50), PaymentMethod: "cash", Status: "completed",
	})
	if err != nil {
		t.Fatalf("RecordPayment: %v", err)
	}
	if !strings.HasPrefix(receipt.TransactionID, "txn_") {
		t.Errorf("TransactionID = %q", receipt.TransactionID)
	}
	if !receipt.Amount.Equal(decimal.NewFromInt(50)) {
		t.Errorf("Amount = %s", receipt.Amount)
	}
}

func TestHTTPProviderCreateIntent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/payment_intents" {
			t.Errorf("path = %q", r.URL.Path)
		}
		json.NewEncoder(w).Encode(Intent{PaymentIntentID: "pi_remote"})
	}))
	defer srv.Close()

	p := NewHTTPProvider(srv.URL, time.Second)
	intent, err := p.CreateIntent(context.Background(), IntentRequest{Amount: decimal.NewFromInt(80)})
	if err != nil {
		t.Fatalf("CreateIntent: %v", err)
	}
	if intent.PaymentIntentID != "pi_remote" {
		t.Errorf("PaymentIntentID = %q", intent.PaymentIntentID)
	}
}

func TestHTTPProviderUpstreamFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	p := NewHTTPProvider(srv.URL, time.Second)
	_, err := p.CreateIntent(context.Background(), IntentRequest{Amount: decimal.NewFromInt(80)})
	if !errors.Is(err, ErrUpstream) {
		t.Fatalf("err = %v, want ErrUpstream", err)
	}
}

func TestHTTPProviderRecordPayment(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req RecordRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode: %v", err)
		}
		if req.PaymentIntentID != "pi_1" {
			t.Errorf("PaymentIntentID = %q", req.PaymentIntentID)
		}
		json.NewEncoder(w).Encode(Receipt{TransactionID: "txn_1", Amount: req.Amount})
	}))
	defer srv.Close()

	p := NewHTTPProvider(srv.URL, time.Second)
	receipt, err := p.RecordPayment(context.Background(), RecordRequest{
		PaymentIntentID: "pi_1", Amount: decimal.NewFromInt(25), Status: "completed",
	})
	if err != nil {
		t.Fatalf("RecordPayment: %v", err)
	}
	if receipt.TransactionID != "txn_1" {
		t.Errorf("TransactionID = %q", receipt.TransactionID)
	}
}

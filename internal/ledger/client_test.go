package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"splitbook/internal/core"
)

func TestListScopesByStatus(t *testing.T) {
	var gotStatus string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/obligations" {
			t.Errorf("path = %q", r.URL.Path)
		}
		gotStatus = r.URL.Query().Get("status")
		fmt.Fprint(w, `[{"id":"ob-1","person_name":"Rahul","direction":"owes_me","type":"one_time","total_amount":1000,"remaining_amount":800,"status":"active"}]`)
	}))
	defer srv.Close()

	c := New(srv.URL)
	obs, err := c.List(context.Background(), core.StatusActive)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if gotStatus != "active" {
		t.Fatalf("status query = %q, want active", gotStatus)
	}
	if len(obs) != 1 {
		t.Fatalf("got %d obligations, want 1", len(obs))
	}
	ob := obs[0]
	if ob.TotalAmount != 100000 || ob.RemainingAmount != 80000 {
		t.Fatalf("amounts not decoded to paise: total=%d remaining=%d", ob.TotalAmount, ob.RemainingAmount)
	}

	if _, err := c.List(context.Background(), ""); err != nil {
		t.Fatalf("list all: %v", err)
	}
	if gotStatus != "" {
		t.Fatalf("empty status must omit the query param, got %q", gotStatus)
	}
}

func TestCreateSendsDecimalAmounts(t *testing.T) {
	var body map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/obligations" {
			t.Errorf("%s %s", r.Method, r.URL.Path)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("content type = %q", ct)
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.WriteHeader(http.StatusCreated)
		fmt.Fprint(w, `{"id":"ob-2","person_name":"Ananya","status":"active"}`)
	}))
	defer srv.Close()

	c := New(srv.URL)
	ob, err := c.Create(context.Background(), CreateObligationRequest{
		PersonName:  "Ananya",
		Type:        core.OneTime,
		Direction:   core.OwesMe,
		TotalAmount: 30050, // ₹300.50
		TrxnID:      "grp-1",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if ob.ID != "ob-2" {
		t.Fatalf("id = %q", ob.ID)
	}
	if body["total_amount"] != 300.5 {
		t.Fatalf("total_amount on the wire = %v, want decimal rupees 300.5", body["total_amount"])
	}
	if body["trxn_id"] != "grp-1" {
		t.Fatalf("trxn_id = %v", body["trxn_id"])
	}
	if _, present := body["expected_per_cycle"]; present {
		t.Fatalf("zero per-cycle must be omitted from the body")
	}
}

func TestUpdateOmitsNilFields(t *testing.T) {
	var body map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPatch || r.URL.Path != "/obligations/ob-1" {
			t.Errorf("%s %s", r.Method, r.URL.Path)
		}
		json.NewDecoder(r.Body).Decode(&body)
		fmt.Fprint(w, `{"id":"ob-1"}`)
	}))
	defer srv.Close()

	name := "Rahul K"
	c := New(srv.URL)
	if _, err := c.Update(context.Background(), "ob-1", UpdateObligationRequest{PersonName: &name}); err != nil {
		t.Fatalf("update: %v", err)
	}
	if len(body) != 1 || body["person_name"] != "Rahul K" {
		t.Fatalf("patch body = %v, want only person_name", body)
	}
}

func TestErrorDetailSurfacedVerbatim(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		fmt.Fprint(w, `{"detail":"Obligation already settled"}`)
	}))
	defer srv.Close()

	c := New(srv.URL)
	_, err := c.Settle(context.Background(), "ob-1")
	if err == nil {
		t.Fatalf("expected error")
	}
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("want *APIError, got %T", err)
	}
	if apiErr.StatusCode != http.StatusConflict {
		t.Fatalf("status = %d", apiErr.StatusCode)
	}
	if got := apiErr.Error(); got != "Obligation already settled" {
		t.Fatalf("detail = %q", got)
	}
}

func TestErrorWithoutDetailBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad gateway", http.StatusBadGateway)
	}))
	defer srv.Close()

	c := New(srv.URL)
	err := c.Delete(context.Background(), "ob-1")
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("want *APIError, got %T", err)
	}
	if got := apiErr.Error(); got != "server returned status 502" {
		t.Fatalf("fallback message = %q", got)
	}
}

func TestIsNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"detail":"Obligation not found"}`)
	}))
	defer srv.Close()

	c := New(srv.URL)
	err := c.Delete(context.Background(), "gone")
	if !IsNotFound(err) {
		t.Fatalf("IsNotFound(%v) = false", err)
	}
	if IsNotFound(errors.New("plain")) {
		t.Fatalf("plain errors are not 404s")
	}
	if IsNotFound(&APIError{StatusCode: http.StatusConflict}) {
		t.Fatalf("409 is not a 404")
	}
}

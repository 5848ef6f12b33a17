package engine

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"splitbook/internal/core"
	"splitbook/internal/ledger"
	"splitbook/internal/workflow"
)

type noRefresh struct{}

func (noRefresh) Refresh(context.Context) {}

// newTestClient spins up a repository on a throwaway database and returns a
// ledger client pointed at its HTTP surface. This exercises the full wire
// round trip, decimal rupee amounts included.
func newTestClient(t *testing.T) *ledger.Client {
	t.Helper()

	repo, err := NewRepository(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })

	srv := httptest.NewServer(NewRouter(repo, nil))
	t.Cleanup(srv.Close)

	return ledger.New(srv.URL)
}

func mustCreate(t *testing.T, c *ledger.Client, req ledger.CreateObligationRequest) core.Obligation {
	t.Helper()
	ob, err := c.Create(context.Background(), req)
	if err != nil {
		t.Fatalf("create obligation: %v", err)
	}
	return ob
}

func TestCreateAndList(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()

	ob := mustCreate(t, c, ledger.CreateObligationRequest{
		PersonName:  "Rahul",
		Type:        core.OneTime,
		Direction:   core.OwesMe,
		TotalAmount: 100000, // ₹1000
	})
	if ob.ID == "" {
		t.Fatalf("engine must assign an id")
	}
	if ob.Status != core.StatusActive {
		t.Fatalf("new obligation status = %q, want active", ob.Status)
	}
	if ob.RemainingAmount != 100000 {
		t.Fatalf("remaining = %d, want full total", ob.RemainingAmount)
	}
	if ob.CreatedAt.IsZero() {
		t.Fatalf("created_at not set")
	}

	active, err := c.List(ctx, core.StatusActive)
	if err != nil {
		t.Fatalf("list active: %v", err)
	}
	if len(active) != 1 || active[0].ID != ob.ID {
		t.Fatalf("active list = %+v", active)
	}

	settled, err := c.List(ctx, core.StatusSettled)
	if err != nil {
		t.Fatalf("list settled: %v", err)
	}
	if len(settled) != 0 {
		t.Fatalf("settled list should be empty, got %d", len(settled))
	}
}

func TestPaymentReducesRemaining(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()

	ob := mustCreate(t, c, ledger.CreateObligationRequest{
		PersonName:  "Rahul",
		Type:        core.OneTime,
		Direction:   core.OwesMe,
		TotalAmount: 100000,
	})

	got, err := c.AddTransaction(ctx, ob.ID, ledger.TransactionRequest{Amount: 20000, Note: "upi"})
	if err != nil {
		t.Fatalf("add transaction: %v", err)
	}
	if got.RemainingAmount != 80000 {
		t.Fatalf("remaining after ₹200 payment = %d, want 80000", got.RemainingAmount)
	}
	if got.Status != core.StatusActive {
		t.Fatalf("payment must not change status, got %q", got.Status)
	}
	if len(got.Transactions) != 1 || got.Transactions[0].Amount != 20000 {
		t.Fatalf("transactions = %+v", got.Transactions)
	}
}

func TestOverpaymentClampsToZero(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()

	ob := mustCreate(t, c, ledger.CreateObligationRequest{
		PersonName:  "Rahul",
		Type:        core.OneTime,
		Direction:   core.OwesMe,
		TotalAmount: 50000,
	})

	got, err := c.AddTransaction(ctx, ob.ID, ledger.TransactionRequest{Amount: 70000})
	if err != nil {
		t.Fatalf("add transaction: %v", err)
	}
	if got.RemainingAmount != 0 {
		t.Fatalf("remaining = %d, want clamp to 0", got.RemainingAmount)
	}
	// Even at zero remaining the obligation stays active until settled.
	if got.Status != core.StatusActive {
		t.Fatalf("status = %q, want active", got.Status)
	}
}

func TestSettleMovesTabs(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()

	ob := mustCreate(t, c, ledger.CreateObligationRequest{
		PersonName:  "Ananya",
		Type:        core.OneTime,
		Direction:   core.IOwe,
		TotalAmount: 30000,
	})

	got, err := c.Settle(ctx, ob.ID)
	if err != nil {
		t.Fatalf("settle: %v", err)
	}
	if got.Status != core.StatusSettled {
		t.Fatalf("status = %q, want settled", got.Status)
	}
	if got.RemainingAmount != 0 {
		t.Fatalf("settled remaining = %d, want 0", got.RemainingAmount)
	}

	active, _ := c.List(ctx, core.StatusActive)
	if len(active) != 0 {
		t.Fatalf("settled obligation still in active list")
	}
	settled, _ := c.List(ctx, core.StatusSettled)
	if len(settled) != 1 {
		t.Fatalf("settled list = %+v", settled)
	}

	// A second settle conflicts.
	_, err = c.Settle(ctx, ob.ID)
	var apiErr *ledger.APIError
	if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusConflict {
		t.Fatalf("second settle: %v", err)
	}
	if apiErr.Detail != "Obligation already settled" {
		t.Fatalf("detail = %q", apiErr.Detail)
	}
}

func TestPaymentAgainstSettledConflicts(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()

	ob := mustCreate(t, c, ledger.CreateObligationRequest{
		PersonName:  "Sid",
		Type:        core.OneTime,
		Direction:   core.OwesMe,
		TotalAmount: 10000,
	})
	if _, err := c.Settle(ctx, ob.ID); err != nil {
		t.Fatalf("settle: %v", err)
	}

	_, err := c.AddTransaction(ctx, ob.ID, ledger.TransactionRequest{Amount: 100})
	var apiErr *ledger.APIError
	if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusConflict {
		t.Fatalf("payment against settled: %v", err)
	}
}

func TestThreeWaySplitSharesTrxnID(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()

	share := core.SplitEqually(90000, 3)
	for _, name := range []string{"Rahul", "Ananya", "Sid"} {
		mustCreate(t, c, ledger.CreateObligationRequest{
			PersonName:  name,
			Type:        core.OneTime,
			Direction:   core.OwesMe,
			TotalAmount: share,
			TrxnID:      "grp-1",
		})
	}

	obs, err := c.List(ctx, core.StatusActive)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(obs) != 3 {
		t.Fatalf("got %d obligations, want 3", len(obs))
	}
	for _, ob := range obs {
		if ob.TrxnID != "grp-1" {
			t.Fatalf("trxn_id = %q", ob.TrxnID)
		}
		if ob.TotalAmount != 30000 {
			t.Fatalf("share = %d, want 30000", ob.TotalAmount)
		}
	}
}

// TestRecurringSplitEndToEnd drives the whole client path against a live
// engine: a three-way recurring split whose monthly deduction is larger
// than any one share must be accepted, because each member's deduction is
// scaled down with their share.
func TestRecurringSplitEndToEnd(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()

	w := workflow.New(c, noRefresh{}, nil)
	err := w.CreateSplit(ctx, core.SplitDraft{
		Names:            []string{"Rahul", "Ananya", "Sid"},
		Direction:        core.OwesMe,
		Type:             core.Recurring,
		TotalAmount:      90000, // ₹900
		ExpectedPerCycle: 60000, // ₹600, above any single ₹300 share
	})
	if err != nil {
		t.Fatalf("create split: %v", err)
	}

	obs, err := c.List(ctx, core.StatusActive)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(obs) != 3 {
		t.Fatalf("got %d obligations, want 3", len(obs))
	}
	for _, ob := range obs {
		if ob.TotalAmount != 30000 || ob.ExpectedPerCycle != 20000 {
			t.Fatalf("%s: total %d per-cycle %d, want 30000/20000",
				ob.PersonName, ob.TotalAmount, ob.ExpectedPerCycle)
		}
	}
}

func TestPerCycleDetailInRupees(t *testing.T) {
	c := newTestClient(t)

	_, err := c.Create(context.Background(), ledger.CreateObligationRequest{
		PersonName:       "Rahul",
		Type:             core.Recurring,
		Direction:        core.OwesMe,
		TotalAmount:      30050, // ₹300.50
		ExpectedPerCycle: 40000,
	})
	var apiErr *ledger.APIError
	if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusBadRequest {
		t.Fatalf("create = %v, want 400", err)
	}
	if !strings.Contains(apiErr.Detail, "must be no greater than 300.5") {
		t.Fatalf("detail = %q, want the limit in rupees", apiErr.Detail)
	}
}

func TestUpdateRejectsPerCycleAboveTotal(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()

	ob := mustCreate(t, c, ledger.CreateObligationRequest{
		PersonName:       "Sunita",
		Type:             core.Recurring,
		Direction:        core.OwesMe,
		TotalAmount:      100000,
		ExpectedPerCycle: 20000,
	})

	// Raising the deduction past the stored total fails even when the
	// total itself is not part of the patch.
	perCycle := core.Money(200000)
	_, err := c.Update(ctx, ob.ID, ledger.UpdateObligationRequest{ExpectedPerCycle: &perCycle})
	var apiErr *ledger.APIError
	if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusBadRequest {
		t.Fatalf("update = %v, want 400", err)
	}

	// Lowering the total below the stored deduction fails the same way.
	total := core.Money(10000)
	_, err = c.Update(ctx, ob.ID, ledger.UpdateObligationRequest{TotalAmount: &total})
	if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusBadRequest {
		t.Fatalf("update = %v, want 400", err)
	}

	got, err := c.Get(ctx, ob.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.TotalAmount != 100000 || got.ExpectedPerCycle != 20000 {
		t.Fatalf("rejected patches must leave the record unchanged: %+v", got)
	}
}

func TestPartialUpdate(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()

	ob := mustCreate(t, c, ledger.CreateObligationRequest{
		PersonName:  "Rahul",
		Type:        core.Recurring,
		Direction:   core.OwesMe,
		TotalAmount: 450000,
		Note:        "festival loan",
	})

	total := core.Money(500000)
	got, err := c.Update(ctx, ob.ID, ledger.UpdateObligationRequest{TotalAmount: &total})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if got.TotalAmount != 500000 {
		t.Fatalf("total = %d", got.TotalAmount)
	}
	if got.PersonName != "Rahul" || got.Note != "festival loan" {
		t.Fatalf("untouched fields changed: %+v", got)
	}
	if got.RemainingAmount != 500000 {
		t.Fatalf("remaining must follow the new total, got %d", got.RemainingAmount)
	}
}

func TestDeleteThen404(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()

	ob := mustCreate(t, c, ledger.CreateObligationRequest{
		PersonName:  "Rahul",
		Type:        core.OneTime,
		Direction:   core.OwesMe,
		TotalAmount: 100,
	})
	if err := c.Delete(ctx, ob.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := c.Delete(ctx, ob.ID); !ledger.IsNotFound(err) {
		t.Fatalf("second delete: %v, want 404", err)
	}
	if _, err := c.Get(ctx, ob.ID); !ledger.IsNotFound(err) {
		t.Fatalf("get after delete: %v, want 404", err)
	}
}

func TestCreateValidation(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()

	tests := []struct {
		name string
		req  ledger.CreateObligationRequest
	}{
		{
			name: "missing person name",
			req: ledger.CreateObligationRequest{
				Type:        core.OneTime,
				Direction:   core.OwesMe,
				TotalAmount: 100,
			},
		},
		{
			name: "zero amount",
			req: ledger.CreateObligationRequest{
				PersonName: "Rahul",
				Type:       core.OneTime,
				Direction:  core.OwesMe,
			},
		},
		{
			name: "bad direction",
			req: ledger.CreateObligationRequest{
				PersonName:  "Rahul",
				Type:        core.OneTime,
				Direction:   "sideways",
				TotalAmount: 100,
			},
		},
		{
			name: "per-cycle above total",
			req: ledger.CreateObligationRequest{
				PersonName:       "Rahul",
				Type:             core.Recurring,
				Direction:        core.OwesMe,
				TotalAmount:      100,
				ExpectedPerCycle: 200,
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := c.Create(ctx, tt.req)
			var apiErr *ledger.APIError
			if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusBadRequest {
				t.Fatalf("create = %v, want 400", err)
			}
		})
	}
}

// TestReopenRepositoryKeepsData reopens the same database file: migrations
// must recognize the applied schema as current and the stored obligations
// must survive.
func TestReopenRepositoryKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.db")
	ctx := context.Background()

	repo, err := NewRepository(path)
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}
	if _, err := repo.Create(ctx, core.Obligation{
		PersonName:  "Rahul",
		Direction:   core.OwesMe,
		Type:        core.OneTime,
		TotalAmount: 100000,
	}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := repo.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	reopened, err := NewRepository(path)
	if err != nil {
		t.Fatalf("reopen repository: %v", err)
	}
	defer reopened.Close()

	obs, err := reopened.List(ctx, "")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(obs) != 1 || obs[0].PersonName != "Rahul" {
		t.Fatalf("obligations after reopen = %+v, want the stored record", obs)
	}
}

func TestListRejectsUnknownStatus(t *testing.T) {
	c := newTestClient(t)

	_, err := c.List(context.Background(), core.Status("archived"))
	var apiErr *ledger.APIError
	if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusBadRequest {
		t.Fatalf("list = %v, want 400", err)
	}
}

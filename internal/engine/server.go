package engine

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	validation "github.com/go-ozzo/ozzo-validation/v4"

	"splitbook/internal/core"
	"splitbook/internal/ledger"
	"splitbook/internal/log"
)

// Handler holds the ledger API route handlers.
type Handler struct {
	repo   *Repository
	logger *log.Logger
}

func NewHandler(repo *Repository, logger *log.Logger) *Handler {
	if logger == nil {
		logger = log.New(nil, log.ComponentEngine)
	}
	return &Handler{repo: repo, logger: logger}
}

// NewRouter creates a chi router with the ledger API mounted.
func NewRouter(repo *Repository, logger *log.Logger) chi.Router {
	h := NewHandler(repo, logger)

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/obligations", h.ListObligations)
	r.Post("/obligations", h.CreateObligation)
	r.Get("/obligations/{id}", h.GetObligation)
	r.Patch("/obligations/{id}", h.UpdateObligation)
	r.Delete("/obligations/{id}", h.DeleteObligation)
	r.Post("/obligations/{id}/transactions", h.AddTransaction)
	r.Post("/obligations/{id}/settle", h.SettleObligation)

	return r
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

type detailResponse struct {
	Detail string `json:"detail"`
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, detailResponse{Detail: detail})
}

// writeRepoError maps repository sentinels onto the wire contract.
func (h *Handler) writeRepoError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		writeDetail(w, http.StatusNotFound, "Obligation not found")
	case errors.Is(err, ErrAlreadySettled):
		writeDetail(w, http.StatusConflict, "Obligation already settled")
	default:
		h.logger.Error("repository error", "error", err)
		writeDetail(w, http.StatusInternalServerError, "internal error")
	}
}

// ListObligations handles GET /obligations with an optional status filter.
func (h *Handler) ListObligations(w http.ResponseWriter, r *http.Request) {
	status := core.Status(r.URL.Query().Get("status"))
	if status != "" && status != core.StatusActive && status != core.StatusSettled {
		writeDetail(w, http.StatusBadRequest, "status must be 'active' or 'settled'")
		return
	}

	obs, err := h.repo.List(r.Context(), status)
	if err != nil {
		h.writeRepoError(w, err)
		return
	}
	if obs == nil {
		obs = []core.Obligation{}
	}
	writeJSON(w, http.StatusOK, obs)
}

// GetObligation handles GET /obligations/{id}.
func (h *Handler) GetObligation(w http.ResponseWriter, r *http.Request) {
	ob, err := h.repo.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeRepoError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ob)
}

// rupees renders a paise amount as a plain decimal rupee number, the unit
// every wire field and error detail speaks.
func rupees(m core.Money) string {
	return strconv.FormatFloat(m.Rupees(), 'f', -1, 64)
}

// perCycleRule caps a recurring deduction at the obligation total.
func perCycleRule(perCycle, total core.Money) error {
	return validation.Validate(int64(perCycle),
		validation.Max(int64(total)).Error(
			fmt.Sprintf("must be no greater than %s", rupees(total))))
}

func validateCreate(req ledger.CreateObligationRequest) error {
	return validation.Errors{
		"person_name": validation.Validate(req.PersonName, validation.Required),
		"direction": validation.Validate(req.Direction,
			validation.Required, validation.In(core.OwesMe, core.IOwe)),
		"type": validation.Validate(req.Type,
			validation.Required, validation.In(core.OneTime, core.Recurring)),
		"total_amount": validation.Validate(int64(req.TotalAmount),
			validation.Required, validation.Min(int64(1)).Error("must be greater than 0")),
		"expected_per_cycle": perCycleRule(req.ExpectedPerCycle, req.TotalAmount),
		"note":               validation.Validate(req.Note, validation.RuneLength(0, 200)),
	}.Filter()
}

// CreateObligation handles POST /obligations.
func (h *Handler) CreateObligation(w http.ResponseWriter, r *http.Request) {
	var req ledger.CreateObligationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if err := validateCreate(req); err != nil {
		writeDetail(w, http.StatusBadRequest, err.Error())
		return
	}

	ob, err := h.repo.Create(r.Context(), core.Obligation{
		PersonName:       req.PersonName,
		Direction:        req.Direction,
		Type:             req.Type,
		TotalAmount:      req.TotalAmount,
		ExpectedPerCycle: req.ExpectedPerCycle,
		Note:             req.Note,
		TrxnID:           req.TrxnID,
	})
	if err != nil {
		h.writeRepoError(w, err)
		return
	}
	h.logger.Info("obligation created",
		"id", ob.ID, "person", ob.PersonName, "trxn_id", ob.TrxnID)
	writeJSON(w, http.StatusCreated, ob)
}

func validateUpdate(req ledger.UpdateObligationRequest) error {
	errs := validation.Errors{}
	if req.PersonName != nil {
		errs["person_name"] = validation.Validate(*req.PersonName, validation.Required)
	}
	if req.TotalAmount != nil {
		errs["total_amount"] = validation.Validate(int64(*req.TotalAmount),
			validation.Required, validation.Min(int64(1)))
	}
	if req.Note != nil {
		errs["note"] = validation.Validate(*req.Note, validation.RuneLength(0, 200))
	}
	return errs.Filter()
}

// UpdateObligation handles PATCH /obligations/{id}. Absent fields are left
// unchanged; remaining_amount and status are not patchable. The per-cycle
// cap is checked against the merged record, so raising the deduction past
// the stored total is rejected even when the total is not in the patch.
func (h *Handler) UpdateObligation(w http.ResponseWriter, r *http.Request) {
	var req ledger.UpdateObligationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if err := validateUpdate(req); err != nil {
		writeDetail(w, http.StatusBadRequest, err.Error())
		return
	}

	cur, err := h.repo.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeRepoError(w, err)
		return
	}
	total, perCycle := cur.TotalAmount, cur.ExpectedPerCycle
	if req.TotalAmount != nil {
		total = *req.TotalAmount
	}
	if req.ExpectedPerCycle != nil {
		perCycle = *req.ExpectedPerCycle
	}
	if err := (validation.Errors{
		"expected_per_cycle": perCycleRule(perCycle, total),
	}).Filter(); err != nil {
		writeDetail(w, http.StatusBadRequest, err.Error())
		return
	}

	ob, err := h.repo.Update(r.Context(), chi.URLParam(r, "id"), UpdateFields{
		PersonName:       req.PersonName,
		TotalAmount:      req.TotalAmount,
		ExpectedPerCycle: req.ExpectedPerCycle,
		Note:             req.Note,
	})
	if err != nil {
		h.writeRepoError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ob)
}

// DeleteObligation handles DELETE /obligations/{id}.
func (h *Handler) DeleteObligation(w http.ResponseWriter, r *http.Request) {
	if err := h.repo.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.writeRepoError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// AddTransaction handles POST /obligations/{id}/transactions.
func (h *Handler) AddTransaction(w http.ResponseWriter, r *http.Request) {
	var req ledger.TransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Amount <= 0 {
		writeDetail(w, http.StatusBadRequest, "amount must be greater than 0")
		return
	}

	ob, err := h.repo.AddTransaction(r.Context(), chi.URLParam(r, "id"), req.Amount, req.Note)
	if err != nil {
		h.writeRepoError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ob)
}

// SettleObligation handles POST /obligations/{id}/settle.
func (h *Handler) SettleObligation(w http.ResponseWriter, r *http.Request) {
	ob, err := h.repo.Settle(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeRepoError(w, err)
		return
	}
	h.logger.Info("obligation settled", "id", ob.ID, "person", ob.PersonName)
	writeJSON(w, http.StatusOK, ob)
}

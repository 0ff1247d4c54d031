package rest

import (
	"net/http"

	"github.com/go-chi/chi"

	"creditline/core"
	"creditline/handler/render"
	"creditline/handler/request"
)

// caps endpoints are advisory pre-trade checks for external tranche vaults.
// The ledger re-checks the debt cap on every borrow regardless.

func debtCapCheckHandler(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			ProspectiveTotalBorrow string `json:"prospective_total_borrow"`
		}
		if err := request.Binding(r, &body); err != nil {
			render.BadRequest(w, err)
			return
		}

		total, err := core.NewBigIntFromString(body.ProspectiveTotalBorrow)
		if err != nil {
			render.BadRequest(w, err)
			return
		}

		marketID := chi.URLParam(r, "market_id")
		if err := deps.Caps.CheckDebtCap(r.Context(), marketID, &total.Int); err != nil {
			render.Error(w, err)
			return
		}

		render.JSON(w, render.H{"market_id": marketID, "allowed": true})
	}
}

func trancheDepositCheckHandler(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			JuniorAssets string `json:"junior_assets"`
			Deposit      string `json:"deposit"`
		}
		if err := request.Binding(r, &body); err != nil {
			render.BadRequest(w, err)
			return
		}

		junior, err := core.NewBigIntFromString(body.JuniorAssets)
		if err != nil {
			render.BadRequest(w, err)
			return
		}
		deposit, err := core.NewBigIntFromString(body.Deposit)
		if err != nil {
			render.BadRequest(w, err)
			return
		}

		marketID := chi.URLParam(r, "market_id")
		if err := deps.Caps.CheckTrancheDeposit(r.Context(), marketID, &junior.Int, &deposit.Int); err != nil {
			render.Error(w, err)
			return
		}

		render.JSON(w, render.H{"market_id": marketID, "allowed": true})
	}
}

func trancheWithdrawCheckHandler(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			JuniorAssets string `json:"junior_assets"`
			Withdrawal   string `json:"withdrawal"`
		}
		if err := request.Binding(r, &body); err != nil {
			render.BadRequest(w, err)
			return
		}

		junior, err := core.NewBigIntFromString(body.JuniorAssets)
		if err != nil {
			render.BadRequest(w, err)
			return
		}
		withdrawal, err := core.NewBigIntFromString(body.Withdrawal)
		if err != nil {
			render.BadRequest(w, err)
			return
		}

		marketID := chi.URLParam(r, "market_id")
		if err := deps.Caps.CheckTrancheWithdraw(r.Context(), marketID, &junior.Int, &withdrawal.Int); err != nil {
			render.Error(w, err)
			return
		}

		render.JSON(w, render.H{"market_id": marketID, "allowed": true})
	}
}

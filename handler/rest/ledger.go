package rest

import (
	"math/big"
	"net/http"

	"github.com/go-chi/chi"

	"creditline/core"
	"creditline/handler/render"
	"creditline/handler/request"
	"creditline/handler/views"
	"creditline/internal/ledger"
)

type transferBody struct {
	UserID string `json:"user_id"`
	Amount string `json:"amount"`
}

func (b transferBody) amount(w http.ResponseWriter) (*big.Int, bool) {
	amount, err := core.NewBigIntFromString(b.Amount)
	if err != nil {
		render.BadRequest(w, err)
		return nil, false
	}
	return &amount.Int, true
}

func supplyHandler(deps Deps) http.HandlerFunc {
	return transferHandler(deps, func(r *http.Request, deps Deps, marketID string, body transferBody, amount *big.Int) (*core.Transfer, error) {
		return deps.Ledger.Supply(r.Context(), marketID, body.UserID, amount)
	})
}

func withdrawHandler(deps Deps) http.HandlerFunc {
	return transferHandler(deps, func(r *http.Request, deps Deps, marketID string, body transferBody, amount *big.Int) (*core.Transfer, error) {
		return deps.Ledger.Withdraw(r.Context(), marketID, body.UserID, amount)
	})
}

func borrowHandler(deps Deps) http.HandlerFunc {
	return transferHandler(deps, func(r *http.Request, deps Deps, marketID string, body transferBody, amount *big.Int) (*core.Transfer, error) {
		return deps.Ledger.Borrow(r.Context(), marketID, body.UserID, amount)
	})
}

func repayHandler(deps Deps) http.HandlerFunc {
	return transferHandler(deps, func(r *http.Request, deps Deps, marketID string, body transferBody, amount *big.Int) (*core.Transfer, error) {
		return deps.Ledger.Repay(r.Context(), marketID, body.UserID, amount)
	})
}

func transferHandler(deps Deps, op func(*http.Request, Deps, string, transferBody, *big.Int) (*core.Transfer, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body transferBody
		if err := request.Binding(r, &body); err != nil {
			render.BadRequest(w, err)
			return
		}
		amount, ok := body.amount(w)
		if !ok {
			return
		}

		out, err := op(r, deps, chi.URLParam(r, "market_id"), body, amount)
		if err != nil {
			render.Error(w, err)
			return
		}

		render.JSON(w, render.H{
			"market_id": out.MarketID,
			"user_id":   out.UserID,
			"assets":    out.Assets.String(),
			"shares":    out.Shares.String(),
		})
	}
}

func positionHandler(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		marketID := chi.URLParam(r, "market_id")

		market, err := deps.Markets.Find(ctx, marketID)
		if err != nil {
			render.Error(w, err)
			return
		}
		if market.ID == 0 {
			render.Error(w, core.ErrMarketNotCreated)
			return
		}

		position, err := deps.Positions.Find(ctx, marketID, chi.URLParam(r, "user_id"))
		if err != nil {
			render.Error(w, err)
			return
		}

		view := views.Position{Position: *position}
		view.SupplyBalance = shareBalance(&position.SupplyShares.Int, &market.TotalSupplyAssets.Int, &market.TotalSupplyShares.Int)
		view.BorrowBalance = shareBalance(&position.BorrowShares.Int, &market.TotalBorrowAssets.Int, &market.TotalBorrowShares.Int)
		render.JSON(w, view)
	}
}

func setCreditLineHandler(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			CallerID             string `json:"caller_id"`
			BorrowerID           string `json:"borrower_id"`
			CreditLimit          string `json:"credit_limit"`
			PremiumRatePerSecond string `json:"premium_rate_per_second"`
		}
		if err := request.Binding(r, &body); err != nil {
			render.BadRequest(w, err)
			return
		}

		limit, err := core.NewBigIntFromString(body.CreditLimit)
		if err != nil {
			render.BadRequest(w, err)
			return
		}
		premium, err := core.NewBigIntFromString(body.PremiumRatePerSecond)
		if err != nil {
			render.BadRequest(w, err)
			return
		}

		marketID := chi.URLParam(r, "market_id")
		if err := deps.Ledger.SetCreditLine(r.Context(), body.CallerID, marketID, body.BorrowerID, &limit.Int, &premium.Int); err != nil {
			render.Error(w, err)
			return
		}

		render.JSON(w, render.H{"market_id": marketID, "borrower_id": body.BorrowerID})
	}
}

func shareBalance(shares, totalAssets, totalShares *big.Int) string {
	assets, err := ledger.ToAssetsDown(shares, totalAssets, totalShares)
	if err != nil {
		return "0"
	}
	return assets.String()
}

func creditLinesHandler(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		lines, err := deps.Lines.FindByMarket(r.Context(), chi.URLParam(r, "market_id"))
		if err != nil {
			render.Error(w, err)
			return
		}
		render.JSON(w, lines)
	}
}

package rest

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi"

	"creditline/core"
	"creditline/handler/render"
	"creditline/handler/request"
	"creditline/handler/views"
)

func allMarketsHandler(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		markets, err := deps.Markets.All(ctx)
		if err != nil {
			render.Error(w, err)
			return
		}

		now := time.Now().Unix()
		marketViews := make([]*views.Market, 0, len(markets))
		for _, market := range markets {
			marketViews = append(marketViews, marketView(ctx, deps, market, now))
		}

		render.JSON(w, marketViews)
	}
}

func marketHandler(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		market, err := deps.Markets.Find(ctx, chi.URLParam(r, "market_id"))
		if err != nil {
			render.Error(w, err)
			return
		}
		if market.ID == 0 {
			render.Error(w, core.ErrMarketNotCreated)
			return
		}

		render.JSON(w, marketView(ctx, deps, market, time.Now().Unix()))
	}
}

func createMarketHandler(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var body struct {
			core.MarketParams
			core.MarketConfig
			DebtCap string `json:"debt_cap"`
		}
		if err := request.Binding(r, &body); err != nil {
			render.BadRequest(w, err)
			return
		}

		cfg := body.MarketConfig
		if body.DebtCap != "" {
			cap, err := core.NewBigIntFromString(body.DebtCap)
			if err != nil {
				render.BadRequest(w, err)
				return
			}
			cfg.DebtCap = &cap.Int
		}

		market, err := deps.Ledger.CreateMarket(ctx, body.MarketParams, cfg)
		if err != nil {
			render.Error(w, err)
			return
		}

		render.JSON(w, marketView(ctx, deps, market, time.Now().Unix()))
	}
}

func accrueHandler(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		market, err := deps.Ledger.AccrueInterest(ctx, chi.URLParam(r, "market_id"))
		if err != nil {
			render.Error(w, err)
			return
		}

		render.JSON(w, marketView(ctx, deps, market, time.Now().Unix()))
	}
}

func marketView(ctx context.Context, deps Deps, market *core.Market, now int64) *views.Market {
	rate, err := deps.IRM.BorrowRatePerSecond(ctx, market)
	if err != nil {
		rate = nil
	}
	return views.MarketView(market, rate, now)
}

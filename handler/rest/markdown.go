package rest

import (
	"net/http"

	"github.com/go-chi/chi"

	"creditline/handler/render"
)

func marketMarkdownHandler(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		info, err := deps.Markdown.GetMarketMarkdownInfo(r.Context(), chi.URLParam(r, "market_id"))
		if err != nil {
			render.Error(w, err)
			return
		}

		render.JSON(w, render.H{
			"market_id":             info.MarketID,
			"total_supply_assets":   info.TotalSupplyAssets.String(),
			"total_markdown":        info.TotalMarkdown.String(),
			"reported_supply_value": info.ReportedSupplyValue.String(),
		})
	}
}

func borrowerMarkdownHandler(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		info, err := deps.Markdown.GetBorrowerMarkdownInfo(r.Context(), chi.URLParam(r, "market_id"), chi.URLParam(r, "borrower_id"))
		if err != nil {
			render.Error(w, err)
			return
		}

		render.JSON(w, render.H{
			"market_id":   info.MarketID,
			"borrower_id": info.BorrowerID,
			"status":      info.Status.String(),
			"principal":   info.Principal.String(),
			"markdown":    info.Markdown.String(),
		})
	}
}

package rest

import (
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/spf13/cast"

	"creditline/core"
	"creditline/handler/render"
	"creditline/handler/request"
	"creditline/handler/views"
)

func closeCycleHandler(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			CallerID string `json:"caller_id"`
			CycleEnd int64  `json:"cycle_end"`
			Postings []struct {
				BorrowerID    string `json:"borrower_id"`
				ObligationBps uint64 `json:"obligation_bps"`
				EndingBalance string `json:"ending_balance"`
			} `json:"postings"`
		}
		if err := request.Binding(r, &body); err != nil {
			render.BadRequest(w, err)
			return
		}

		postings := make([]core.ObligationPosting, 0, len(body.Postings))
		for _, p := range body.Postings {
			posting := core.ObligationPosting{
				BorrowerID:    p.BorrowerID,
				ObligationBps: p.ObligationBps,
			}
			if p.EndingBalance != "" {
				balance, err := core.NewBigIntFromString(p.EndingBalance)
				if err != nil {
					render.BadRequest(w, err)
					return
				}
				posting.EndingBalance = &balance.Int
			}
			postings = append(postings, posting)
		}

		marketID := chi.URLParam(r, "market_id")
		if err := deps.Cycle.CloseCycleAndPostObligations(r.Context(), body.CallerID, marketID, body.CycleEnd, postings); err != nil {
			render.Error(w, err)
			return
		}

		render.JSON(w, render.H{"market_id": marketID, "cycle_end": body.CycleEnd})
	}
}

func cyclesHandler(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := cast.ToInt(r.URL.Query().Get("limit"))
		if limit <= 0 || limit > 100 {
			limit = 20
		}

		cycles, err := deps.Cycles.List(r.Context(), chi.URLParam(r, "market_id"), limit)
		if err != nil {
			render.Error(w, err)
			return
		}
		render.JSON(w, cycles)
	}
}

func obligationHandler(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		marketID := chi.URLParam(r, "market_id")
		borrowerID := chi.URLParam(r, "borrower_id")

		obligation, err := deps.Obligations.Find(ctx, marketID, borrowerID)
		if err != nil {
			render.Error(w, err)
			return
		}

		status, err := deps.Cycle.StatusOf(ctx, marketID, borrowerID, time.Now().Unix())
		if err != nil {
			render.Error(w, err)
			return
		}

		render.JSON(w, views.Obligation{
			RepaymentObligation: *obligation,
			Status:              status.String(),
		})
	}
}

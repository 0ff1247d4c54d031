package rest

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi"

	"creditline/core"
	"creditline/handler/render"
)

// Deps handler dependencies
type Deps struct {
	Markets     core.IMarketStore
	Positions   core.IPositionStore
	Lines       core.ICreditLineStore
	Cycles      core.IPaymentCycleStore
	Obligations core.IObligationStore

	Ledger   core.ILedgerService
	Cycle    core.ICycleService
	Markdown core.IMarkdownService
	Caps     core.ICapsService
	IRM      core.InterestRateModel
}

// Handle handle rest api request
func Handle(deps Deps) http.Handler {
	router := chi.NewRouter()

	router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		render.NotFoundRequest(w, errors.New("not found"))
	})

	router.Get("/markets", allMarketsHandler(deps))
	router.Post("/markets", createMarketHandler(deps))
	router.Get("/markets/{market_id}", marketHandler(deps))
	router.Post("/markets/{market_id}/accrue", accrueHandler(deps))

	router.Post("/markets/{market_id}/supply", supplyHandler(deps))
	router.Post("/markets/{market_id}/withdraw", withdrawHandler(deps))
	router.Post("/markets/{market_id}/borrow", borrowHandler(deps))
	router.Post("/markets/{market_id}/repay", repayHandler(deps))
	router.Get("/markets/{market_id}/positions/{user_id}", positionHandler(deps))

	router.Post("/markets/{market_id}/credit-lines", setCreditLineHandler(deps))
	router.Get("/markets/{market_id}/credit-lines", creditLinesHandler(deps))

	router.Post("/markets/{market_id}/cycles", closeCycleHandler(deps))
	router.Get("/markets/{market_id}/cycles", cyclesHandler(deps))
	router.Get("/markets/{market_id}/obligations/{borrower_id}", obligationHandler(deps))

	router.Get("/markets/{market_id}/markdown", marketMarkdownHandler(deps))
	router.Get("/markets/{market_id}/markdown/{borrower_id}", borrowerMarkdownHandler(deps))

	router.Post("/markets/{market_id}/caps/debt", debtCapCheckHandler(deps))
	router.Post("/markets/{market_id}/caps/tranche-deposit", trancheDepositCheckHandler(deps))
	router.Post("/markets/{market_id}/caps/tranche-withdraw", trancheWithdrawCheckHandler(deps))

	return router
}

// Package v1 contains the full set of handler functions and routes
// supported by the v1 web api.
package v1

import (
	"net/http"

	"github.com/qingah/zkdpos/app/services/opnode/handlers/v1/private"
	"github.com/qingah/zkdpos/app/services/opnode/handlers/v1/public"
	"github.com/qingah/zkdpos/business/core/rollup"
	"github.com/qingah/zkdpos/foundation/events"
	"github.com/qingah/zkdpos/foundation/web"
	"go.uber.org/zap"
)

const version = "v1"

// Config contains all the mandatory systems required by handlers.
type Config struct {
	Log    *zap.SugaredLogger
	Rollup *rollup.Core
	Evts   *events.Events
}

// PublicRoutes binds all the version 1 public routes.
func PublicRoutes(app *web.App, cfg Config) {
	pbl := public.Handlers{
		Log:    cfg.Log,
		Rollup: cfg.Rollup,
		Evts:   cfg.Evts,
	}

	app.Handle(http.MethodGet, version, "/events", pbl.Events)
	app.Handle(http.MethodGet, version, "/tokens/list", pbl.Tokens)
	app.Handle(http.MethodGet, version, "/fee/closest/:amount", pbl.ClosestFee)
	app.Handle(http.MethodGet, version, "/amount/closest/:amount", pbl.ClosestAmount)
	app.Handle(http.MethodGet, version, "/tx/uncommitted/list", pbl.Mempool)
	app.Handle(http.MethodPost, version, "/tx/submit", pbl.SubmitTransaction)
	app.Handle(http.MethodPost, version, "/tx/batch/submit", pbl.SubmitBatch)
	app.Handle(http.MethodGet, version, "/queue/status", pbl.QueueStatus)
	app.Handle(http.MethodGet, version, "/queue/pending/list", pbl.QueuePending)
	app.Handle(http.MethodGet, version, "/queue/op/:serial", pbl.QueueLookup)
	app.Handle(http.MethodPost, version, "/pubdata/decode", pbl.DecodePublicData)
}

// PrivateRoutes binds all the version 1 private routes.
func PrivateRoutes(app *web.App, cfg Config) {
	prv := private.Handlers{
		Log:    cfg.Log,
		Rollup: cfg.Rollup,
	}

	app.Handle(http.MethodGet, version, "/node/status", prv.Status)
	app.Handle(http.MethodPost, version, "/node/priority/observe", prv.ObservePriority)
	app.Handle(http.MethodPost, version, "/node/priority/expire/:block", prv.ExpirePriority)
	app.Handle(http.MethodPost, version, "/node/block/seal", prv.SealBlock)
}

//
// Copyright 2019 Insolar Technologies GmbH
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//

package component

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/insolar/crowdfund/configuration"
	"github.com/insolar/crowdfund/internal/app/api"
	"github.com/insolar/crowdfund/internal/pkg/panic"
	"github.com/insolar/crowdfund/observability"
)

func NewRouter(cfg *configuration.Configuration, obs *observability.Observability, server api.ServerInterface) *Router {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Logger.SetOutput(obs.Log().Writer())
	e.Use(middleware.Recover())

	r := &Router{
		addr: cfg.API.Addr,
		e:    e,
		obs:  obs,
	}
	e.GET("/healthcheck", r.healthCheck)
	e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(obs.Metrics(), promhttp.HandlerOpts{
		ErrorLog: obs.Log(),
	})))
	api.RegisterHandlers(e, server)
	return r
}

type Router struct {
	addr string
	e    *echo.Echo
	obs  *observability.Observability
}

func (r *Router) Start() {
	log := r.obs.Log()
	go func() {
		defer panic.Log("component.Router")

		err := r.e.Start(r.addr)
		if err != http.ErrServerClosed {
			log.Error(errors.Wrapf(err, "http server ListenAndServe"))
		}
	}()
}

func (r *Router) Stop() {
	log := r.obs.Log()

	if err := r.e.Shutdown(context.Background()); err != nil {
		log.Error(errors.Wrapf(err, "http server shutdown"))
	}
}

func (r *Router) healthCheck(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "OK")
}

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

package api

import (
	"fmt"
	"net/http"

	"github.com/deepmap/oapi-codegen/pkg/runtime"
	"github.com/labstack/echo/v4"
)

// ServerInterface represents all server handlers.
type ServerInterface interface {
	// (POST /api/campaigns)
	CreateCampaign(ctx echo.Context) error
	// (GET /api/campaigns)
	ListCampaigns(ctx echo.Context, params ListCampaignsParams) error
	// (GET /api/campaigns/{id})
	GetCampaign(ctx echo.Context, id string) error
	// (POST /api/campaigns/{id}/shares)
	CommitShares(ctx echo.Context, id string) error
	// (GET /api/campaigns/{id}/shares)
	GetShares(ctx echo.Context, id string) error
	// (DELETE /api/campaigns/{id}/shares/{asset})
	RollbackShares(ctx echo.Context, id string, asset string) error
	// (POST /api/campaigns/{id}/shares/{asset}/release)
	ReleaseShares(ctx echo.Context, id string, asset string) error
	// (POST /api/campaigns/{id}/ready)
	ReadyCampaign(ctx echo.Context, id string) error
	// (POST /api/campaigns/{id}/activate)
	ActivateCampaign(ctx echo.Context, id string) error
	// (POST /api/campaigns/{id}/investments)
	Invest(ctx echo.Context, id string) error
	// (GET /api/campaigns/{id}/investments)
	GetInvestments(ctx echo.Context, id string) error
	// (POST /api/campaigns/{id}/investments/increase)
	IncreaseInvestment(ctx echo.Context, id string) error
	// (POST /api/campaigns/{id}/finish)
	FinishCampaign(ctx echo.Context, id string) error
	// (POST /api/campaigns/{id}/payouts)
	Payout(ctx echo.Context, id string) error
	// (POST /api/campaigns/{id}/raise)
	Raise(ctx echo.Context, id string) error
	// (POST /api/campaigns/{id}/expire)
	ExpireCampaign(ctx echo.Context, id string) error
	// (POST /api/campaigns/{id}/refund)
	RefundCampaign(ctx echo.Context, id string) error
	// (GET /api/accounts/{account}/balances/{asset})
	GetBalance(ctx echo.Context, account string, asset string) error
	// (GET /api/accounts/{account}/campaigns)
	GetAccountCampaigns(ctx echo.Context, account string) error
}

// ServerInterfaceWrapper converts echo contexts to parameters.
type ServerInterfaceWrapper struct {
	Handler ServerInterface
}

func bindPath(ctx echo.Context, name string) (string, error) {
	var value string
	err := runtime.BindStyledParameter("simple", false, name, ctx.Param(name), &value)
	if err != nil {
		return "", echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("Invalid format for parameter %s: %s", name, err))
	}
	return value, nil
}

type idHandler func(ctx echo.Context, id string) error

func (w *ServerInterfaceWrapper) withID(h idHandler) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		id, err := bindPath(ctx, "id")
		if err != nil {
			return err
		}
		return h(ctx, id)
	}
}

type idAssetHandler func(ctx echo.Context, id string, asset string) error

func (w *ServerInterfaceWrapper) withIDAsset(h idAssetHandler) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		id, err := bindPath(ctx, "id")
		if err != nil {
			return err
		}
		asset, err := bindPath(ctx, "asset")
		if err != nil {
			return err
		}
		return h(ctx, id, asset)
	}
}

func (w *ServerInterfaceWrapper) CreateCampaign(ctx echo.Context) error {
	return w.Handler.CreateCampaign(ctx)
}

func (w *ServerInterfaceWrapper) ListCampaigns(ctx echo.Context) error {
	var params ListCampaignsParams
	err := runtime.BindQueryParameter("form", true, false, "status", ctx.QueryParams(), &params.Status)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("Invalid format for parameter status: %s", err))
	}
	return w.Handler.ListCampaigns(ctx, params)
}

func (w *ServerInterfaceWrapper) GetBalance(ctx echo.Context) error {
	account, err := bindPath(ctx, "account")
	if err != nil {
		return err
	}
	asset, err := bindPath(ctx, "asset")
	if err != nil {
		return err
	}
	return w.Handler.GetBalance(ctx, account, asset)
}

func (w *ServerInterfaceWrapper) GetAccountCampaigns(ctx echo.Context) error {
	account, err := bindPath(ctx, "account")
	if err != nil {
		return err
	}
	return w.Handler.GetAccountCampaigns(ctx, account)
}

// RegisterHandlers adds each server route to the EchoRouter.
func RegisterHandlers(router runtime.EchoRouter, si ServerInterface) {
	wrapper := ServerInterfaceWrapper{
		Handler: si,
	}

	router.POST("/api/campaigns", wrapper.CreateCampaign)
	router.GET("/api/campaigns", wrapper.ListCampaigns)
	router.GET("/api/campaigns/:id", wrapper.withID(si.GetCampaign))
	router.POST("/api/campaigns/:id/shares", wrapper.withID(si.CommitShares))
	router.GET("/api/campaigns/:id/shares", wrapper.withID(si.GetShares))
	router.DELETE("/api/campaigns/:id/shares/:asset", wrapper.withIDAsset(si.RollbackShares))
	router.POST("/api/campaigns/:id/shares/:asset/release", wrapper.withIDAsset(si.ReleaseShares))
	router.POST("/api/campaigns/:id/ready", wrapper.withID(si.ReadyCampaign))
	router.POST("/api/campaigns/:id/activate", wrapper.withID(si.ActivateCampaign))
	router.POST("/api/campaigns/:id/investments", wrapper.withID(si.Invest))
	router.GET("/api/campaigns/:id/investments", wrapper.withID(si.GetInvestments))
	router.POST("/api/campaigns/:id/investments/increase", wrapper.withID(si.IncreaseInvestment))
	router.POST("/api/campaigns/:id/finish", wrapper.withID(si.FinishCampaign))
	router.POST("/api/campaigns/:id/payouts", wrapper.withID(si.Payout))
	router.POST("/api/campaigns/:id/raise", wrapper.withID(si.Raise))
	router.POST("/api/campaigns/:id/expire", wrapper.withID(si.ExpireCampaign))
	router.POST("/api/campaigns/:id/refund", wrapper.withID(si.RefundCampaign))
	router.GET("/api/accounts/:account/balances/:asset", wrapper.GetBalance)
	router.GET("/api/accounts/:account/campaigns", wrapper.GetAccountCampaigns)
}

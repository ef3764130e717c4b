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
	"context"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/insolar/crowdfund/internal/app/crowdfund"
	"github.com/insolar/crowdfund/internal/app/crowdfund/dispatch"
	"github.com/insolar/crowdfund/ledger"
)

// AccountHeader carries the hex account id of the caller.
const AccountHeader = "X-Account"

type Applier interface {
	Apply(ctx context.Context, call dispatch.Call) (*dispatch.Receipt, error)
}

type Reader interface {
	Campaign(id crowdfund.CampaignID) (*crowdfund.Campaign, error)
	Campaigns(status crowdfund.Status) ([]*crowdfund.Campaign, error)
	Shares(id crowdfund.CampaignID) ([]*crowdfund.ShareLine, error)
	Investments(id crowdfund.CampaignID) ([]*crowdfund.Investment, error)
	Balance(acc crowdfund.AccountID, asset crowdfund.AssetID) (ledger.Balances, error)
	Consumes(investor crowdfund.AccountID) ([]crowdfund.CampaignID, error)
}

type CrowdfundServer struct {
	calls   Applier
	queries Reader
	log     *logrus.Logger
}

func NewCrowdfundServer(calls Applier, queries Reader, log *logrus.Logger) *CrowdfundServer {
	return &CrowdfundServer{calls: calls, queries: queries, log: log}
}

func badRequest(ctx echo.Context, msg string) error {
	return ctx.JSON(http.StatusBadRequest, NewSingleMessageError(msg))
}

func (s *CrowdfundServer) fail(ctx echo.Context, err error) error {
	code := httpStatus(err)
	if code == http.StatusInternalServerError {
		s.log.Error(err)
	}
	return ctx.JSON(code, newKindError(err))
}

func parseAsset(s string) (crowdfund.AssetID, error) {
	v, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, errors.Errorf("invalid asset %q", s)
	}
	return crowdfund.AssetID(v), nil
}

// apply builds the call from the path, the caller header and fill, then runs it.
func (s *CrowdfundServer) apply(ctx echo.Context, kind dispatch.CallKind, id string, fill func(*dispatch.Call) error) error {
	call := dispatch.Call{Kind: kind}

	campaign, err := crowdfund.NewCampaignIDFromString(id)
	if err != nil {
		return badRequest(ctx, err.Error())
	}
	call.Campaign = campaign

	if header := ctx.Request().Header.Get(AccountHeader); header != "" {
		origin, err := crowdfund.NewAccountIDFromString(header)
		if err != nil {
			return badRequest(ctx, err.Error())
		}
		call.Origin = origin
	}

	if fill != nil {
		if err := fill(&call); err != nil {
			return badRequest(ctx, err.Error())
		}
	}

	receipt, err := s.calls.Apply(ctx.Request().Context(), call)
	if err != nil {
		return s.fail(ctx, err)
	}
	return ctx.JSON(http.StatusOK, receipt)
}

func bind(ctx echo.Context, dst interface{}) error {
	if err := ctx.Bind(dst); err != nil {
		return errors.New("invalid request body")
	}
	return nil
}

func (s *CrowdfundServer) CreateCampaign(ctx echo.Context) error {
	var req CreateCampaignRequest
	if err := bind(ctx, &req); err != nil {
		return badRequest(ctx, err.Error())
	}
	return s.apply(ctx, dispatch.CallCreate, req.ID, func(c *dispatch.Call) error {
		c.FundAsset = crowdfund.AssetID(req.FundAsset)
		return nil
	})
}

func (s *CrowdfundServer) CommitShares(ctx echo.Context, id string) error {
	return s.apply(ctx, dispatch.CallCommitShares, id, func(c *dispatch.Call) error {
		var req CommitSharesRequest
		if err := bind(ctx, &req); err != nil {
			return err
		}
		c.Asset = crowdfund.AssetID(req.Asset)
		c.Amount = crowdfund.Balance(req.Amount)
		return nil
	})
}

func (s *CrowdfundServer) RollbackShares(ctx echo.Context, id string, asset string) error {
	return s.apply(ctx, dispatch.CallRollbackShares, id, func(c *dispatch.Call) error {
		var err error
		c.Asset, err = parseAsset(asset)
		return err
	})
}

func (s *CrowdfundServer) ReleaseShares(ctx echo.Context, id string, asset string) error {
	return s.apply(ctx, dispatch.CallReleaseShares, id, func(c *dispatch.Call) error {
		var err error
		c.Asset, err = parseAsset(asset)
		return err
	})
}

func (s *CrowdfundServer) ReadyCampaign(ctx echo.Context, id string) error {
	return s.apply(ctx, dispatch.CallReady, id, func(c *dispatch.Call) error {
		var req ReadyRequest
		if err := bind(ctx, &req); err != nil {
			return err
		}
		c.Start, c.End = req.Start, req.End
		c.SoftCap = crowdfund.Balance(req.SoftCap)
		c.HardCap = crowdfund.Balance(req.HardCap)
		return nil
	})
}

func (s *CrowdfundServer) ActivateCampaign(ctx echo.Context, id string) error {
	return s.apply(ctx, dispatch.CallActivate, id, nil)
}

func (s *CrowdfundServer) amountCall(ctx echo.Context, kind dispatch.CallKind, id string) error {
	return s.apply(ctx, kind, id, func(c *dispatch.Call) error {
		var req AmountRequest
		if err := bind(ctx, &req); err != nil {
			return err
		}
		c.Amount = crowdfund.Balance(req.Amount)
		return nil
	})
}

func (s *CrowdfundServer) Invest(ctx echo.Context, id string) error {
	return s.amountCall(ctx, dispatch.CallInvest, id)
}

func (s *CrowdfundServer) IncreaseInvestment(ctx echo.Context, id string) error {
	return s.amountCall(ctx, dispatch.CallIncreaseInvestment, id)
}

func (s *CrowdfundServer) FinishCampaign(ctx echo.Context, id string) error {
	return s.apply(ctx, dispatch.CallFinish, id, nil)
}

func (s *CrowdfundServer) Payout(ctx echo.Context, id string) error {
	return s.apply(ctx, dispatch.CallPayout, id, func(c *dispatch.Call) error {
		var req PayoutRequest
		if err := bind(ctx, &req); err != nil {
			return err
		}
		investor, err := crowdfund.NewAccountIDFromString(req.Investor)
		if err != nil {
			return err
		}
		c.Investor = investor
		c.Asset = crowdfund.AssetID(req.Asset)
		return nil
	})
}

func (s *CrowdfundServer) Raise(ctx echo.Context, id string) error {
	return s.apply(ctx, dispatch.CallRaise, id, nil)
}

func (s *CrowdfundServer) ExpireCampaign(ctx echo.Context, id string) error {
	return s.apply(ctx, dispatch.CallExpire, id, nil)
}

func (s *CrowdfundServer) RefundCampaign(ctx echo.Context, id string) error {
	return s.apply(ctx, dispatch.CallRefund, id, nil)
}

func (s *CrowdfundServer) GetCampaign(ctx echo.Context, id string) error {
	campaign, err := crowdfund.NewCampaignIDFromString(id)
	if err != nil {
		return badRequest(ctx, err.Error())
	}
	c, err := s.queries.Campaign(campaign)
	if err != nil {
		return s.fail(ctx, err)
	}
	return ctx.JSON(http.StatusOK, c)
}

func (s *CrowdfundServer) ListCampaigns(ctx echo.Context, params ListCampaignsParams) error {
	statuses := crowdfund.Statuses
	if params.Status != "" {
		status, err := crowdfund.ParseStatus(params.Status)
		if err != nil {
			return badRequest(ctx, err.Error())
		}
		statuses = []crowdfund.Status{status}
	}
	res := []*crowdfund.Campaign{}
	for _, status := range statuses {
		list, err := s.queries.Campaigns(status)
		if err != nil {
			return s.fail(ctx, err)
		}
		res = append(res, list...)
	}
	return ctx.JSON(http.StatusOK, res)
}

func (s *CrowdfundServer) GetShares(ctx echo.Context, id string) error {
	campaign, err := crowdfund.NewCampaignIDFromString(id)
	if err != nil {
		return badRequest(ctx, err.Error())
	}
	lines, err := s.queries.Shares(campaign)
	if err != nil {
		return s.fail(ctx, err)
	}
	return ctx.JSON(http.StatusOK, lines)
}

func (s *CrowdfundServer) GetInvestments(ctx echo.Context, id string) error {
	campaign, err := crowdfund.NewCampaignIDFromString(id)
	if err != nil {
		return badRequest(ctx, err.Error())
	}
	invs, err := s.queries.Investments(campaign)
	if err != nil {
		return s.fail(ctx, err)
	}
	return ctx.JSON(http.StatusOK, invs)
}

func (s *CrowdfundServer) GetBalance(ctx echo.Context, account string, asset string) error {
	acc, err := crowdfund.NewAccountIDFromString(account)
	if err != nil {
		return badRequest(ctx, err.Error())
	}
	a, err := parseAsset(asset)
	if err != nil {
		return badRequest(ctx, err.Error())
	}
	b, err := s.queries.Balance(acc, a)
	if err != nil {
		return s.fail(ctx, err)
	}
	return ctx.JSON(http.StatusOK, BalanceResponse{
		Account: acc.String(),
		Asset:   uint32(a),
		Free:    uint64(b.Free),
		Locked:  uint64(b.Locked),
	})
}

// GetAccountCampaigns lists campaigns the account still expects payouts or refunds from.
func (s *CrowdfundServer) GetAccountCampaigns(ctx echo.Context, account string) error {
	acc, err := crowdfund.NewAccountIDFromString(account)
	if err != nil {
		return badRequest(ctx, err.Error())
	}
	ids, err := s.queries.Consumes(acc)
	if err != nil {
		return s.fail(ctx, err)
	}
	if ids == nil {
		ids = []crowdfund.CampaignID{}
	}
	return ctx.JSON(http.StatusOK, ids)
}

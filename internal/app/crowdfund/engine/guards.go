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

package engine

import (
	"github.com/pkg/errors"

	"github.com/insolar/crowdfund/internal/app/crowdfund"
)

// Step is a system call that advances a campaign without a user.
type Step uint8

const (
	StepNone Step = iota
	StepActivate
	StepFinish
	StepExpire
	StepRefund
)

func (s Step) String() string {
	switch s {
	case StepActivate:
		return "activate"
	case StepFinish:
		return "finish"
	case StepExpire:
		return "expire"
	case StepRefund:
		return "refund"
	default:
		return "none"
	}
}

func wrongStatus(c *crowdfund.Campaign) error {
	return errors.Wrapf(crowdfund.ErrWrongStatus, "campaign %s is %s", c.ID, c.Status)
}

func CheckActivate(c *crowdfund.Campaign, now int64) error {
	if c.Status != crowdfund.StatusReady {
		return wrongStatus(c)
	}
	if now < c.StartTime {
		return errors.Wrapf(crowdfund.ErrNotStarted, "campaign %s starts at %d", c.ID, c.StartTime)
	}
	return nil
}

func CheckFinish(c *crowdfund.Campaign, now int64) error {
	if c.Status != crowdfund.StatusActive {
		return wrongStatus(c)
	}
	if now < c.EndTime {
		return errors.Wrapf(crowdfund.ErrNotEnded, "campaign %s ends at %d", c.ID, c.EndTime)
	}
	if !c.SoftCapReached() {
		return errors.Wrapf(crowdfund.ErrSoftCapNotReached, "campaign %s raised %d of %d", c.ID, c.Raised, c.SoftCap)
	}
	return nil
}

func CheckExpire(c *crowdfund.Campaign, now int64) error {
	if c.Status != crowdfund.StatusActive {
		return wrongStatus(c)
	}
	if now < c.EndTime {
		return errors.Wrapf(crowdfund.ErrNotEnded, "campaign %s ends at %d", c.ID, c.EndTime)
	}
	if c.SoftCapReached() {
		return errors.Wrapf(crowdfund.ErrSoftCapReached, "campaign %s raised %d of %d", c.ID, c.Raised, c.SoftCap)
	}
	return nil
}

func CheckRefund(c *crowdfund.Campaign) error {
	if c.Status != crowdfund.StatusRefund {
		return wrongStatus(c)
	}
	return nil
}

func CheckInvest(c *crowdfund.Campaign, now int64) error {
	if c.Status != crowdfund.StatusActive {
		return wrongStatus(c)
	}
	if now >= c.EndTime {
		return errors.Wrapf(crowdfund.ErrCampaignEnded, "campaign %s ended at %d", c.ID, c.EndTime)
	}
	if c.HardCapReached() {
		return errors.Wrapf(crowdfund.ErrHardCapReached, "campaign %s", c.ID)
	}
	return nil
}

// Check evaluates the guard of a system step.
func Check(step Step, c *crowdfund.Campaign, now int64) error {
	switch step {
	case StepActivate:
		return CheckActivate(c, now)
	case StepFinish:
		return CheckFinish(c, now)
	case StepExpire:
		return CheckExpire(c, now)
	case StepRefund:
		return CheckRefund(c)
	}
	return errors.Errorf("unknown step %d", step)
}

// Advancement returns the system step due for the campaign at now.
func Advancement(c *crowdfund.Campaign, now int64) Step {
	for _, step := range []Step{StepActivate, StepFinish, StepExpire, StepRefund} {
		if Check(step, c, now) == nil {
			return step
		}
	}
	return StepNone
}

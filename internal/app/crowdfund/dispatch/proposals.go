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

package dispatch

import (
	"context"
	"sync"

	"github.com/pkg/errors"

	"github.com/insolar/crowdfund/internal/app/crowdfund"
	"github.com/insolar/crowdfund/internal/app/crowdfund/engine"
	"github.com/insolar/crowdfund/internal/app/crowdfund/store"
	"github.com/insolar/crowdfund/internal/pkg/panic"
)

var (
	ErrDuplicateProposal = errors.New("proposal already pending")
	ErrPoolFull          = errors.New("proposal pool is full")
)

// Proposal asks the node to run a system step for a campaign.
type Proposal struct {
	Step     engine.Step
	Campaign crowdfund.CampaignID
}

// Pool queues system proposals that are valid against committed state.
// A proposal stays pending until the worker has applied or rejected it.
type Pool struct {
	dispatcher *Dispatcher
	reader     store.Reader

	mu      sync.Mutex
	pending map[Proposal]struct{}
	queue   chan Proposal
}

func NewPool(d *Dispatcher, reader store.Reader, size int) *Pool {
	if size <= 0 {
		size = 1
	}
	return &Pool{
		dispatcher: d,
		reader:     reader,
		pending:    make(map[Proposal]struct{}),
		queue:      make(chan Proposal, size),
	}
}

func (p *Pool) Propose(prop Proposal) error {
	if _, ok := StepCall(prop.Step); !ok {
		return errors.Wrapf(crowdfund.ErrUnknownCall, "step %s", prop.Step)
	}
	err := p.propose(prop)
	if err != nil {
		p.dispatcher.common.ProposalsRejected.Inc()
		return err
	}
	p.dispatcher.common.ProposalsAccepted.Inc()
	return nil
}

func (p *Pool) propose(prop Proposal) error {
	c, err := p.reader.Campaign(prop.Campaign)
	if err != nil {
		return err
	}
	if err := engine.Check(prop.Step, c, p.dispatcher.clock.Now().Unix()); err != nil {
		return errors.Wrapf(err, "stale %s proposal", prop.Step)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.pending[prop]; ok {
		return ErrDuplicateProposal
	}
	select {
	case p.queue <- prop:
		p.pending[prop] = struct{}{}
		p.dispatcher.common.ProposalsPending.Set(float64(len(p.pending)))
		return nil
	default:
		return ErrPoolFull
	}
}

func (p *Pool) Pending() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.pending)
}

// Run applies queued proposals until the context is done.
func (p *Pool) Run(ctx context.Context) {
	defer panic.Log("dispatch.Pool")

	for {
		select {
		case <-ctx.Done():
			return
		case prop := <-p.queue:
			p.apply(ctx, prop)
		}
	}
}

func (p *Pool) apply(ctx context.Context, prop Proposal) {
	defer func() {
		p.mu.Lock()
		delete(p.pending, prop)
		p.dispatcher.common.ProposalsPending.Set(float64(len(p.pending)))
		p.mu.Unlock()
	}()

	kind, _ := StepCall(prop.Step)
	_, err := p.dispatcher.Apply(ctx, Call{Kind: kind, Campaign: prop.Campaign})
	if err != nil {
		p.dispatcher.common.ProposalsRejected.Inc()
		p.dispatcher.log.WithField("campaign", prop.Campaign.String()).
			WithField("step", prop.Step.String()).
			WithError(err).
			Debug("proposal not applied")
	}
}

// Drain applies every queued proposal synchronously.
func (p *Pool) Drain(ctx context.Context) {
	for {
		select {
		case prop := <-p.queue:
			p.apply(ctx, prop)
		default:
			return
		}
	}
}

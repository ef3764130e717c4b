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

package store

import (
	"sync"

	lru "github.com/hashicorp/golang-lru"
	"github.com/pkg/errors"

	"github.com/insolar/crowdfund/internal/app/crowdfund"
)

// CacheReader keeps recently read campaigns in memory. Writers must call
// Invalidate for every campaign a committed call touched.
//
// A backend read that overlaps an Invalidate is returned to the caller but
// not cached, so a value read before a commit can not outlive it.
type CacheReader struct {
	backend Reader
	cache   *lru.Cache

	mu    sync.Mutex
	epoch uint64
}

func NewCacheReader(backend Reader, size int) (*CacheReader, error) {
	cache, err := lru.New(size)
	if err != nil {
		return nil, errors.Wrap(err, "failed to init cache")
	}
	return &CacheReader{
		backend: backend,
		cache:   cache,
	}, nil
}

type scope uint8

const (
	scopeCampaign scope = iota
	scopeShares
)

type cacheKey struct {
	scope scope
	id    crowdfund.CampaignID
}

func (c *CacheReader) Campaign(id crowdfund.CampaignID) (*crowdfund.Campaign, error) {
	if val, ok := c.cache.Get(cacheKey{scope: scopeCampaign, id: id}); ok {
		if camp, ok := val.(crowdfund.Campaign); ok {
			return &camp, nil
		}
	}

	epoch := c.current()
	camp, err := c.backend.Campaign(id)
	if err != nil {
		return nil, err
	}
	c.add(epoch, cacheKey{scope: scopeCampaign, id: id}, *camp)
	return camp, nil
}

func (c *CacheReader) Shares(id crowdfund.CampaignID) ([]*crowdfund.ShareLine, error) {
	if val, ok := c.cache.Get(cacheKey{scope: scopeShares, id: id}); ok {
		if lines, ok := val.([]crowdfund.ShareLine); ok {
			return linePointers(lines), nil
		}
	}

	epoch := c.current()
	lines, err := c.backend.Shares(id)
	if err != nil {
		return nil, err
	}
	copied := make([]crowdfund.ShareLine, 0, len(lines))
	for _, l := range lines {
		copied = append(copied, *l)
	}
	c.add(epoch, cacheKey{scope: scopeShares, id: id}, copied)
	return lines, nil
}

func (c *CacheReader) Invalidate(id crowdfund.CampaignID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.epoch++
	c.cache.Remove(cacheKey{scope: scopeCampaign, id: id})
	c.cache.Remove(cacheKey{scope: scopeShares, id: id})
}

func (c *CacheReader) current() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.epoch
}

// add stores val unless an invalidation happened since epoch was taken.
func (c *CacheReader) add(epoch uint64, key cacheKey, val interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.epoch != epoch {
		return
	}
	_ = c.cache.Add(key, val)
}

func linePointers(lines []crowdfund.ShareLine) []*crowdfund.ShareLine {
	res := make([]*crowdfund.ShareLine, 0, len(lines))
	for i := range lines {
		l := lines[i]
		res = append(res, &l)
	}
	return res
}

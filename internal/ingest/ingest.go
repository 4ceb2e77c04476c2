// Copyright 2026 Blink Labs Software
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

// Package ingest implements the cooperative worker pool that drains
// the feed and dispatches each message into the event router. The
// blockchain subscription transport itself is an external
// collaborator — Pool consumes from whatever channel a FeedSource
// produces, so this package owns no transport-specific code.
package ingest

import (
	"context"

	"github.com/blinklabs-io/nft-indexer/internal/chain"
	"github.com/blinklabs-io/nft-indexer/internal/logging"
	"github.com/blinklabs-io/nft-indexer/internal/router"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

// FeedSource is the transport-level collaborator: it is handed a
// context and two channels to publish onto, and should close both
// when the feed ends (or ctx is canceled). The concrete implementation
// — chain subscription client, fixture replay, whatever — lives
// outside this package.
type FeedSource interface {
	Run(ctx context.Context, instructions chan<- chain.InstructionMessage, accounts chan<- chain.AccountMessage) error
}

// Pool is the bounded-concurrency consumer: each incoming message
// becomes an independent task that may suspend at every database
// round-trip the handler it's routed to performs. Ordering across
// distinct messages is not guaranteed.
type Pool struct {
	Router  *router.Router
	Workers int
}

// New builds a Pool dispatching through r with the given worker
// concurrency bound.
func New(r *router.Router, workers int) *Pool {
	if workers <= 0 {
		workers = 1
	}
	return &Pool{Router: r, Workers: workers}
}

// Run drains source until ctx is canceled or the source's channels
// close, fanning each message out to at most p.Workers concurrent
// handler invocations. Cancellation is cooperative: in-flight handler
// work is allowed to complete rather than being forcibly aborted.
func (p *Pool) Run(ctx context.Context, source FeedSource) error {
	logger := logging.GetLogger()

	instructions := make(chan chain.InstructionMessage)
	accounts := make(chan chain.AccountMessage)

	group, groupCtx := errgroup.WithContext(ctx)
	sem := semaphore.NewWeighted(int64(p.Workers))

	group.Go(func() error {
		return source.Run(groupCtx, instructions, accounts)
	})

	group.Go(func() error {
		for {
			select {
			case <-groupCtx.Done():
				return groupCtx.Err()
			case msg, ok := <-instructions:
				if !ok {
					instructions = nil
					if accounts == nil {
						return nil
					}
					continue
				}
				if err := sem.Acquire(groupCtx, 1); err != nil {
					return err
				}
				group.Go(func() error {
					defer sem.Release(1)
					p.Router.DispatchInstruction(groupCtx, msg)
					return nil
				})
			case msg, ok := <-accounts:
				if !ok {
					accounts = nil
					if instructions == nil {
						return nil
					}
					continue
				}
				if err := sem.Acquire(groupCtx, 1); err != nil {
					return err
				}
				group.Go(func() error {
					defer sem.Release(1)
					p.Router.DispatchAccount(groupCtx, msg)
					return nil
				})
			}
		}
	})

	err := group.Wait()
	if err != nil && ctx.Err() != nil {
		logger.Infow("ingest pool stopped", "reason", ctx.Err())
		return nil
	}
	return err
}

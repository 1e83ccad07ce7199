// Copyright (c) 2026 StrataVault
// Strata - multi-tenant vault storage service
// This source code is licensed under the MIT license found in the LICENSE file.

// Package viewsync keeps every open vault view consistent. Viewers of
// the same vault page form a group; a slot change is pushed to the
// whole group as a single-slot patch, and filtered views are told to
// re-run their query. All viewer-facing calls run on one dispatch
// goroutine so transports never see concurrent patches.
package viewsync

import (
	"sync"

	"github.com/stratavault/strata/internal/logging"
)

// Loop is a single-goroutine dispatcher. Everything submitted runs in
// submission order on the loop goroutine.
type Loop struct {
	tasks chan func()
	stop  chan struct{}
	done  chan struct{}
	once  sync.Once
}

// NewLoop returns a started dispatcher.
func NewLoop() *Loop {
	l := &Loop{
		tasks: make(chan func(), 256),
		stop:  make(chan struct{}),
		done:  make(chan struct{}),
	}
	go l.run()
	return l
}

func (l *Loop) run() {
	defer close(l.done)
	for {
		select {
		case fn := <-l.tasks:
			fn()
		case <-l.stop:
			// Drain anything already queued before exiting.
			for {
				select {
				case fn := <-l.tasks:
					fn()
				default:
					return
				}
			}
		}
	}
}

// Submit queues fn on the loop. After Stop, submissions are dropped.
func (l *Loop) Submit(fn func()) {
	select {
	case <-l.stop:
		return
	default:
	}
	select {
	case l.tasks <- fn:
	case <-l.stop:
	default:
		logging.Warnf("viewsync: dispatch queue full, task dropped")
	}
}

// Stop shuts the loop down after draining queued tasks.
func (l *Loop) Stop() {
	l.once.Do(func() { close(l.stop) })
	<-l.done
}

// MIT License
//
// Copyright (c) 2022-2026 GoAkt Team
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

package activation

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	otelmetric "go.opentelemetry.io/otel/metric"

	gerrors "github.com/tochemey/cmframework/errors"
	"github.com/tochemey/cmframework/internal/queue"
	"github.com/tochemey/cmframework/log"
)

type worker struct {
	id        int
	activator *Activator
	parallel  bool
	logger    log.Logger
}

func newWorker(id int, activator *Activator, parallel bool) *worker {
	return &worker{
		id:        id,
		activator: activator,
		parallel:  parallel,
		logger:    activator.logger.With("worker", fmt.Sprintf("worker-%d", id)),
	}
}

func (w *worker) queue() *queue.Queue[*Work] {
	if w.parallel {
		return w.activator.node
	}
	return w.activator.global
}

func (w *worker) run(ctx context.Context) error {
	q := w.queue()
	for {
		work, ok := q.Wait()
		if !ok {
			return nil
		}
		if err := w.acquire(ctx); err != nil {
			work.abort(err)
			return nil
		}
		w.handle(ctx, work)
		w.release()
	}
}

// acquire takes the activator lock, exclusively for global works
func (w *worker) acquire(ctx context.Context) error {
	if w.parallel {
		return w.activator.lock.RLock(ctx)
	}
	return w.activator.lock.Lock(ctx)
}

func (w *worker) release() {
	if w.parallel {
		w.activator.lock.RUnlock()
		return
	}
	w.activator.lock.Unlock()
}

// handle runs every handler. A failing handler never prevents the next
// one from running.
func (w *worker) handle(ctx context.Context, work *Work) {
	w.logger.Debugf("handling work %s", work)
	start := time.Now()

	failures := Failures{}
	for _, handler := range w.activator.handlers {
		name := handler.Name()
		w.logger.Infof("activating using %s", name)
		pluginFailures, err := activate(ctx, handler, work)
		if err != nil {
			w.logger.Errorf("activation using %s failed with error %v", name, err)
			if pluginFailures == nil {
				pluginFailures = map[string]string{}
			}
			pluginFailures[name] = err.Error()
		}
		if len(pluginFailures) > 0 {
			w.logger.Errorf("activation using %s failed, error count=%d", name, len(pluginFailures))
			failures[name] = pluginFailures
		}
	}

	if m := w.activator.metric; m != nil {
		m.WorkDuration().Record(ctx, time.Since(start).Milliseconds(),
			otelmetric.WithAttributes(attribute.String("operation", work.Operation.String())))
	}

	w.record(ctx, work, failures)
	work.AddResult(failures)
	w.logger.Debugf("handled work %s", work)
}

// record mirrors the outcome into the change recorder before the result
// is published so waiters always observe a terminal change state
func (w *worker) record(ctx context.Context, work *Work, failures Failures) {
	recorder := w.activator.recorder
	if recorder == nil || work.ChangeID == "" {
		return
	}
	var err error
	if failures.IsEmpty() {
		err = recorder.ChangeOK(ctx, work.ChangeID)
	} else {
		err = recorder.ChangeNOK(ctx, work.ChangeID, failures.Flatten())
	}
	if err != nil {
		w.logger.Warnf("failed to record the outcome of change %s: %v", work.ChangeID, err)
	}
}

func activate(ctx context.Context, handler Handler, work *Work) (failures map[string]string, err error) {
	defer func() {
		if r := recover(); r != nil {
			failures, err = nil, gerrors.NewPanicError(r)
		}
	}()
	return handler.Activate(ctx, work)
}

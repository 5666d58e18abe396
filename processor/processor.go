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

package processor

import (
	"context"
	"sort"

	goset "github.com/deckarep/golang-set/v2"
	"go.opentelemetry.io/otel/attribute"
	otelmetric "go.opentelemetry.io/otel/metric"

	"github.com/tochemey/cmframework/activation"
	"github.com/tochemey/cmframework/alarm"
	"github.com/tochemey/cmframework/backend"
	"github.com/tochemey/cmframework/changemonitor"
	"github.com/tochemey/cmframework/csn"
	gerrors "github.com/tochemey/cmframework/errors"
	"github.com/tochemey/cmframework/flagfile"
	"github.com/tochemey/cmframework/internal/match"
	"github.com/tochemey/cmframework/internal/rwlock"
	"github.com/tochemey/cmframework/log"
	"github.com/tochemey/cmframework/metric"
	"github.com/tochemey/cmframework/plugin"
	"github.com/tochemey/cmframework/snapshot"
	"github.com/tochemey/cmframework/state"
	"github.com/tochemey/cmframework/validator"
)

const (
	// ServiceGroupName is the service group full activation alarms are raised for
	ServiceGroupName = "config-manager"
	// AutomaticActivationDisabledFlag is the flag file disabling automatic activation
	AutomaticActivationDisabledFlag = "automatic_activation_disabled"
	// NoChange is returned instead of a change id when no activation was started
	NoChange = ""

	failedActivatorsInfo = "failed activators"
)

// Validator validates proposed changes before they are persisted
type Validator interface {
	ValidateSet(ctx context.Context, props map[string]string) error
	ValidateDelete(ctx context.Context, names []string) error
}

// WorkQueue accepts activation works
type WorkQueue interface {
	AddWork(ctx context.Context, work *activation.Work) error
}

var (
	_ Validator              = (*validator.Validator)(nil)
	_ WorkQueue              = (*activation.Activator)(nil)
	_ plugin.RebootRequester = (*Processor)(nil)
)

// Processor is the configuration management facade. Mutations are validated,
// persisted and sequenced under the writer lock, activation runs afterwards.
type Processor struct {
	store           backend.Store
	lock            *rwlock.RWLock
	csn             *csn.Tracker
	validator       Validator
	activator       WorkQueue
	changes         *changemonitor.Monitor
	activationState *state.ActivationState
	snapshots       *snapshot.Manager
	flags           *flagfile.Dir
	alarms          *alarm.Service
	metric          *metric.ProcessorMetric
	rebootRequests  goset.Set[string]
	logger          log.Logger
}

// New creates an instance of Processor. The persisted CSN is loaded from store,
// snapshots and activation state live in stateStore.
func New(ctx context.Context, store backend.Store, validator Validator, activator WorkQueue, stateStore state.Store, opts ...Option) (*Processor, error) {
	processor := &Processor{
		store:          store,
		lock:           rwlock.New(),
		validator:      validator,
		activator:      activator,
		flags:          flagfile.New(flagfile.DefaultDir),
		rebootRequests: goset.NewSet[string](),
		logger:         log.DefaultLogger,
	}

	for _, opt := range opts {
		opt.Apply(processor)
	}

	if processor.changes == nil {
		processor.changes = changemonitor.New(processor.logger)
	}

	tracker, err := csn.New(ctx, store, csn.WithLogger(processor.logger))
	if err != nil {
		return nil, err
	}

	processor.csn = tracker
	processor.snapshots = snapshot.New(stateStore, processor.logger)
	processor.activationState = state.NewActivationState(stateStore, processor.logger)
	return processor, nil
}

// GetProperty reads a property, from the named snapshot when snapshotName is set
func (p *Processor) GetProperty(ctx context.Context, name, snapshotName string) (value string, err error) {
	p.logger.Debugf("get property called for %s", name)
	err = p.read(ctx, func() error {
		if snapshotName != "" {
			value, err = p.snapshots.Property(ctx, snapshotName, name)
			return err
		}
		value, err = p.store.GetProperty(ctx, name)
		return err
	})
	return value, err
}

// GetProperties reads the properties matching filter, from the named snapshot
// when snapshotName is set
func (p *Processor) GetProperties(ctx context.Context, filter, snapshotName string) (props map[string]string, err error) {
	p.logger.Debugf("get properties called with filter %s", filter)
	err = p.read(ctx, func() error {
		if snapshotName != "" {
			props, err = p.snapshots.Properties(ctx, snapshotName, filter)
			return err
		}
		props, err = p.store.GetProperties(ctx, filter)
		return err
	})
	return props, err
}

// SetProperty sets a single property
func (p *Processor) SetProperty(ctx context.Context, name, value string) (string, error) {
	return p.SetProperties(ctx, map[string]string{name: value}, false)
}

// SetProperties validates and persists props. With overwrite every existing
// property is removed first. It returns the id of the started change, or
// NoChange when automatic activation is disabled.
func (p *Processor) SetProperties(ctx context.Context, props map[string]string, overwrite bool) (string, error) {
	p.logger.Debugf("set properties called for %v", props)
	err := p.write(ctx, func() error {
		if err := p.validator.ValidateSet(ctx, props); err != nil {
			p.record(ctx, p.rejectedCounter(), "set")
			return err
		}

		if overwrite {
			p.logger.Debug("deleting old configuration data as requested")
			current, err := p.store.GetProperties(ctx, ".*")
			if err != nil {
				return err
			}
			if len(current) > 0 {
				if err := p.store.DeleteProperties(ctx, match.SortedKeys(current)); err != nil {
					return err
				}
			}
		}

		if err := p.store.SetProperties(ctx, props); err != nil {
			return err
		}
		p.record(ctx, p.mutationsCounter(), "set")
		return p.csn.Increment(ctx)
	})
	if err != nil {
		return NoChange, err
	}

	if !p.AutomaticActivationEnabled() {
		return NoChange, nil
	}

	var changeID string
	err = p.read(ctx, func() (err error) {
		changeID, err = p.enqueueChange(ctx, activation.NewSetWork(p.csn.Get(), props))
		return err
	})
	return changeID, err
}

// DeleteProperty removes a single property
func (p *Processor) DeleteProperty(ctx context.Context, name string) (string, error) {
	return p.deleteProperties(ctx, []string{name}, "")
}

// DeleteProperties removes the named properties
func (p *Processor) DeleteProperties(ctx context.Context, names []string) (string, error) {
	return p.deleteProperties(ctx, names, "")
}

// DeletePropertiesMatching removes every property matching filter
func (p *Processor) DeletePropertiesMatching(ctx context.Context, filter string) (string, error) {
	props, err := p.GetProperties(ctx, filter, "")
	if err != nil {
		return NoChange, err
	}
	return p.deleteProperties(ctx, match.SortedKeys(props), filter)
}

func (p *Processor) deleteProperties(ctx context.Context, names []string, filter string) (string, error) {
	p.logger.Debugf("delete properties called with names %v filter %q", names, filter)
	err := p.write(ctx, func() error {
		if err := p.validator.ValidateDelete(ctx, names); err != nil {
			p.record(ctx, p.rejectedCounter(), "delete")
			return err
		}

		var err error
		switch {
		case filter != "":
			err = p.store.DeletePropertiesMatching(ctx, filter)
		case len(names) == 1:
			err = p.store.DeleteProperty(ctx, names[0])
		default:
			err = p.store.DeleteProperties(ctx, names)
		}
		if err != nil {
			return err
		}

		p.record(ctx, p.mutationsCounter(), "delete")
		return p.csn.Increment(ctx)
	})
	if err != nil {
		return NoChange, err
	}

	if !p.AutomaticActivationEnabled() {
		return NoChange, nil
	}

	var changeID string
	err = p.read(ctx, func() (err error) {
		changeID, err = p.enqueueChange(ctx, activation.NewDeleteWork(p.csn.Get(), names))
		return err
	})
	return changeID, err
}

// CreateSnapshot captures every live property under name
func (p *Processor) CreateSnapshot(ctx context.Context, name string, custom map[string]any) (metadata snapshot.Metadata, err error) {
	p.logger.Debugf("create snapshot called, snapshot name is %s", name)
	err = p.write(ctx, func() error {
		metadata, err = p.snapshots.Create(ctx, name, p.store, custom)
		return err
	})
	return metadata, err
}

// RestoreSnapshot replaces the live properties with the named snapshot and
// activates them. The global CSN keeps increasing across the restore.
func (p *Processor) RestoreSnapshot(ctx context.Context, name string) (string, error) {
	p.logger.Debugf("restore snapshot called, snapshot name is %s", name)
	changeID := NoChange
	err := p.write(ctx, func() error {
		if err := p.snapshots.Load(ctx, name); err != nil {
			return err
		}

		props, err := p.snapshots.GetProperties("")
		if err != nil {
			return err
		}

		if err := p.validator.ValidateSet(ctx, props); err != nil {
			p.record(ctx, p.rejectedCounter(), "restore")
			return err
		}

		previous := p.csn.Get()
		if err := p.snapshots.Restore(ctx, p.store); err != nil {
			return err
		}
		if err := p.csn.Reload(ctx); err != nil {
			return err
		}
		if err := p.csn.Rebase(ctx, previous); err != nil {
			return err
		}
		p.record(ctx, p.mutationsCounter(), "restore")

		if !p.AutomaticActivationEnabled() {
			return nil
		}
		changeID, err = p.enqueueChange(ctx, activation.NewSetWork(p.csn.Get(), props))
		return err
	})
	return changeID, err
}

// ListSnapshots returns the metadata of every stored snapshot
func (p *Processor) ListSnapshots(ctx context.Context) (snapshots []snapshot.Metadata, err error) {
	err = p.write(ctx, func() error {
		snapshots, err = p.snapshots.List(ctx)
		return err
	})
	return snapshots, err
}

// DeleteSnapshot removes the named snapshot
func (p *Processor) DeleteSnapshot(ctx context.Context, name string) error {
	p.logger.Debugf("delete snapshot called, snapshot name is %s", name)
	return p.write(ctx, func() error {
		return p.snapshots.Delete(ctx, name)
	})
}

// Activate runs a full activation of node, or of every node when node is
// empty, and waits for its outcome. A startup activation only re-drives the
// plugins that failed the last full activation. A failed activation returns
// the change id together with an *errors.ActivationFailure.
func (p *Processor) Activate(ctx context.Context, node string, startup bool) (string, error) {
	p.logger.Debugf("activate called, node is %q", node)
	p.cancelActivationAlarm(node)

	var work *activation.Work
	err := p.read(ctx, func() error {
		work = activation.NewFullWork(p.csn.Get(), node, startup)
		_, err := p.enqueueChange(ctx, work)
		return err
	})
	if err != nil {
		return NoChange, err
	}

	p.logger.Debug("activation work added, going to wait for result")
	failures, err := work.Result(ctx)
	if err != nil {
		return work.ChangeID, err
	}

	p.raiseRebootAlarms()

	if node == "" {
		if err := p.activationState.ClearFullFailed(ctx); err != nil {
			p.logger.Errorf("failed to clear the full activation failures: %v", err)
		}
	}

	if failures.IsEmpty() {
		return work.ChangeID, nil
	}

	p.logger.Warnf("activation failed: %v", failures)
	failed := failures.Plugins()
	supplementary := map[string]any{failedActivatorsInfo: failed}
	if node != "" {
		p.raiseActivationAlarm(node, supplementary)
	} else {
		if err := p.activationState.SetFullFailed(ctx, failed); err != nil {
			p.logger.Errorf("failed to record the full activation failures: %v", err)
		}
		p.raiseActivationAlarm("", supplementary)
	}
	return work.ChangeID, gerrors.NewActivationFailure(failures.Flatten())
}

// ActivateNode brings node up to the global CSN. It does nothing when the node
// is already up to date or automatic activation is disabled. The returned
// flag tells whether a plugin requested the node to reboot.
func (p *Processor) ActivateNode(ctx context.Context, node string) (bool, error) {
	p.logger.Debugf("activate node called, node name is %s", node)
	if node == "" {
		return false, gerrors.ErrNodeNameRequired
	}

	if !p.AutomaticActivationEnabled() {
		return false, nil
	}

	var work *activation.Work
	err := p.read(ctx, func() error {
		global := p.csn.Get()
		if p.csn.NodeCSN(node) == global {
			p.logger.Infof("no change in data since last translation, last csn %d", global)
			return nil
		}

		p.rebootRequests.Remove(node)
		work = activation.NewNodeWork(global, node)
		return p.activator.AddWork(ctx, work)
	})
	if err != nil || work == nil {
		return false, err
	}

	p.cancelActivationAlarm(node)

	failures, err := work.Result(ctx)
	if err != nil {
		return false, err
	}

	if !failures.IsEmpty() {
		p.logger.Warnf("activation of node %s failed: %v", node, failures)
		p.raiseActivationAlarm(node, map[string]any{failedActivatorsInfo: failures.Plugins()})
		return p.rebootRequests.Contains(node), gerrors.NewActivationFailure(failures.Flatten())
	}

	if err := p.write(ctx, func() error { return p.csn.SyncNode(ctx, node) }); err != nil {
		return false, err
	}
	return p.rebootRequests.Contains(node), nil
}

// SetAutomaticActivationState enables or disables automatic activation
func (p *Processor) SetAutomaticActivationState(ctx context.Context, enabled bool) error {
	p.logger.Debugf("set automatic activation state called, state is %t", enabled)
	return p.write(ctx, func() error {
		if enabled {
			return p.flags.Unset(AutomaticActivationDisabledFlag)
		}
		return p.flags.Set(AutomaticActivationDisabledFlag)
	})
}

// AutomaticActivationEnabled reports whether mutations start an activation
func (p *Processor) AutomaticActivationEnabled() bool {
	return !p.flags.IsSet(AutomaticActivationDisabledFlag)
}

// RebootRequest records that node must be rebooted for the ongoing activation
// to take effect. Activator plugins reach it through plugin.RebootRequester.
func (p *Processor) RebootRequest(_ context.Context, node string) error {
	p.logger.Debugf("reboot request called for %s", node)
	if node == "" {
		return gerrors.ErrNodeNameRequired
	}
	p.rebootRequests.Add(node)
	return nil
}

// ChangeState returns the outcome of a change
func (p *Processor) ChangeState(ctx context.Context, id string) (changemonitor.Record, error) {
	return p.changes.Get(ctx, id)
}

// Changes returns every tracked change
func (p *Processor) Changes(ctx context.Context) (map[string]changemonitor.Record, error) {
	return p.changes.GetAll(ctx)
}

// Revision returns the current CSN record
func (p *Processor) Revision() csn.Revision {
	return p.csn.Snapshot()
}

// enqueueChange starts a change for work and queues it. The caller holds the lock.
func (p *Processor) enqueueChange(ctx context.Context, work *activation.Work) (string, error) {
	changeID, err := p.changes.StartChange(ctx)
	if err != nil {
		return NoChange, err
	}

	work.ChangeID = changeID
	if err := p.activator.AddWork(ctx, work); err != nil {
		if nokErr := p.changes.ChangeNOK(ctx, changeID, map[string]string{"activator": err.Error()}); nokErr != nil {
			p.logger.Warn(nokErr)
		}
		return changeID, err
	}
	return changeID, nil
}

func (p *Processor) read(ctx context.Context, fn func() error) error {
	if err := p.lock.RLock(ctx); err != nil {
		return err
	}
	defer p.lock.RUnlock()
	return fn()
}

func (p *Processor) write(ctx context.Context, fn func() error) error {
	if err := p.lock.Lock(ctx); err != nil {
		return err
	}
	defer p.lock.Unlock()
	return fn()
}

func (p *Processor) raiseRebootAlarms() {
	if p.alarms == nil {
		return
	}
	nodes := p.rebootRequests.ToSlice()
	sort.Strings(nodes)
	for _, node := range nodes {
		p.alarms.RaiseForNode(alarm.NodeRebootRequest, node, nil)
	}
}

func (p *Processor) cancelActivationAlarm(node string) {
	if p.alarms == nil {
		return
	}
	if node != "" {
		p.alarms.CancelForNode(alarm.ActivationFailed, node, nil)
		return
	}
	p.alarms.CancelForServiceGroup(alarm.ActivationFailed, ServiceGroupName, nil)
}

func (p *Processor) raiseActivationAlarm(node string, supplementary map[string]any) {
	if p.alarms == nil {
		return
	}
	if node != "" {
		p.alarms.RaiseForNode(alarm.ActivationFailed, node, supplementary)
		return
	}
	p.alarms.RaiseForServiceGroup(alarm.ActivationFailed, ServiceGroupName, supplementary)
}

func (p *Processor) mutationsCounter() otelmetric.Int64Counter {
	if p.metric == nil {
		return nil
	}
	return p.metric.Mutations()
}

func (p *Processor) rejectedCounter() otelmetric.Int64Counter {
	if p.metric == nil {
		return nil
	}
	return p.metric.Rejected()
}

func (p *Processor) record(ctx context.Context, counter otelmetric.Int64Counter, operation string) {
	if counter == nil {
		return
	}
	counter.Add(ctx, 1, otelmetric.WithAttributes(attribute.String("operation", operation)))
}

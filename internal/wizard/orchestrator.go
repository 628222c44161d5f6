// internal/wizard/orchestrator.go
//
// The stage orchestrator drives the questionnaire state machine:
// Stage(1) .. Stage(K) then Complete. It owns the project record, persists
// every accepted stage payload and restores them on the next session.
// Storage failures never block the user; they are logged and surfaced as
// notices while the in-memory record keeps working.

package wizard

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kingrea/brief/internal/brief"
	"github.com/kingrea/brief/internal/document"
	"github.com/kingrea/brief/internal/store"
)

// ErrStageMismatch is returned when a submission targets a stage other than
// the active one.
var ErrStageMismatch = errors.New("wizard: stage is not active")

// Severity grades a notice.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Notice is a non-blocking message for the host UI.
type Notice struct {
	Severity Severity
	Stage    brief.StageID
	Message  string
	Err      error
}

// Option customizes the orchestrator instance.
type Option func(*Orchestrator)

// WithLogger sets the diagnostic logger.
func WithLogger(logger *zap.Logger) Option {
	return func(o *Orchestrator) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithNotifier receives notices about storage failures and advisory checks.
func WithNotifier(fn func(Notice)) Option {
	return func(o *Orchestrator) {
		o.notify = fn
	}
}

// WithClock injects a deterministic clock (primarily for tests).
func WithClock(clock func() time.Time) Option {
	return func(o *Orchestrator) {
		if clock != nil {
			o.clock = clock
		}
	}
}

// WithAutosaver routes drafts through a debounced autosaver. Without one,
// drafts are written straight to the store.
func WithAutosaver(a *store.Autosaver) Option {
	return func(o *Orchestrator) {
		o.autosave = a
	}
}

// WithRegistry replaces the default stage registry.
func WithRegistry(r *Registry) Option {
	return func(o *Orchestrator) {
		if r != nil {
			o.registry = r
		}
	}
}

// Orchestrator coordinates stages, the record and persistence. It is driven
// from a single goroutine.
type Orchestrator struct {
	registry *Registry
	store    store.Store
	autosave *store.Autosaver
	logger   *zap.Logger
	notify   func(Notice)
	clock    func() time.Time

	stages   []brief.StageID
	record   *brief.Record
	position Position
}

// New wires an orchestrator to a store. It starts at Stage(1) with an empty
// record; call Resume to restore a previous session.
func New(st store.Store, opts ...Option) (*Orchestrator, error) {
	if st == nil {
		return nil, fmt.Errorf("wizard: store is required")
	}
	o := &Orchestrator{
		registry: DefaultRegistry(),
		store:    st,
		logger:   zap.NewNop(),
		clock:    time.Now,
		record:   brief.NewRecord(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}
	o.stages = o.registry.IDs()
	if len(o.stages) == 0 {
		return nil, fmt.Errorf("wizard: registry has no stages")
	}
	return o, nil
}

// Stages returns the stage order.
func (o *Orchestrator) Stages() []brief.StageID {
	return append([]brief.StageID(nil), o.stages...)
}

// Position returns the current state.
func (o *Orchestrator) Position() Position {
	return o.position
}

// Current returns the active stage, or false when complete.
func (o *Orchestrator) Current() (brief.StageID, bool) {
	if o.position.IsComplete() {
		return "", false
	}
	return o.stages[o.position], true
}

// Definition returns the registered definition of a stage.
func (o *Orchestrator) Definition(stage brief.StageID) (Definition, error) {
	return o.registry.Resolve(stage)
}

// Record exposes the project record for reading.
func (o *Orchestrator) Record() *brief.Record {
	return o.record
}

// IsComplete reports whether every stage has been submitted.
func (o *Orchestrator) IsComplete() bool {
	return o.position.IsComplete()
}

// Progress returns the number of submitted stages and the stage count.
func (o *Orchestrator) Progress() (int, int) {
	return len(o.stages) - len(o.record.Missing(o.stages)), len(o.stages)
}

// Resume loads every persisted stage snapshot, keeps the ones that still
// validate, and positions at the first stage without one.
func (o *Orchestrator) Resume(ctx context.Context) error {
	o.record.Clear()
	for _, stage := range o.stages {
		if err := ctx.Err(); err != nil {
			return err
		}
		def, err := o.registry.Resolve(stage)
		if err != nil {
			return err
		}
		data, ok, err := o.store.Load(ctx, stage.StorageKey())
		if err != nil {
			o.storageFailed(stage, "could not load saved answers", err)
			continue
		}
		if !ok {
			continue
		}
		payload, err := o.restore(def, data)
		if err != nil {
			o.logger.Warn("discarding saved stage",
				zap.String("stage", stage.String()), zap.Error(err))
			o.emit(Notice{Severity: SeverityWarning, Stage: stage, Message: "saved answers are no longer valid and were skipped", Err: err})
			continue
		}
		if err := def.Apply(o.record, payload); err != nil {
			return err
		}
	}
	o.position = o.firstMissing()
	o.logger.Info("session resumed", zap.String("position", o.position.String()))
	return nil
}

func (o *Orchestrator) restore(def Definition, data []byte) (any, error) {
	payload, err := def.Load(data)
	if err != nil {
		return nil, &store.StorageError{Op: store.OpDecode, Key: def.ID.StorageKey(), Err: err}
	}
	payload, err = def.Normalize(payload)
	if err != nil {
		return nil, err
	}
	if err := def.Validate(payload); err != nil {
		return nil, err
	}
	return payload, nil
}

func (o *Orchestrator) firstMissing() Position {
	for i, stage := range o.stages {
		if !o.record.Has(stage) {
			return Position(i)
		}
	}
	return Complete
}

// Initial returns the payload a stage should open with: its unsubmitted
// draft, else the submitted payload, else the stage default.
func (o *Orchestrator) Initial(ctx context.Context, stage brief.StageID) (any, error) {
	def, err := o.registry.Resolve(stage)
	if err != nil {
		return nil, err
	}
	payload, ok := o.loadDraft(ctx, def)
	if !ok {
		payload, ok = o.record.Get(stage)
	}
	if !ok {
		return def.Initial(o.record), nil
	}
	if def.Prepare != nil {
		payload = def.Prepare(o.record, payload)
	}
	return payload, nil
}

func (o *Orchestrator) loadDraft(ctx context.Context, def Definition) (any, bool) {
	key := def.ID.DraftKey()
	var (
		data []byte
		ok   bool
		err  error
	)
	if o.autosave != nil {
		data, ok, err = o.autosave.Load(ctx, key)
	} else {
		data, ok, err = o.store.Load(ctx, key)
	}
	if err != nil {
		o.storageFailed(def.ID, "could not load draft", err)
		return nil, false
	}
	if !ok {
		return nil, false
	}
	payload, err := def.Load(data)
	if err != nil {
		o.logger.Warn("ignoring unreadable draft", zap.String("stage", def.ID.String()), zap.Error(err))
		return nil, false
	}
	return payload, true
}

// SaveDraft records unsubmitted edits of a stage without validating them.
// Drafts live under their own key so they never replace a valid snapshot.
func (o *Orchestrator) SaveDraft(ctx context.Context, stage brief.StageID, payload any) error {
	if _, err := o.registry.Resolve(stage); err != nil {
		return err
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return &store.StorageError{Op: store.OpEncode, Key: stage.DraftKey(), Err: err}
	}
	if o.autosave != nil {
		err = o.autosave.Queue(stage.DraftKey(), data)
	} else {
		err = o.store.Save(ctx, stage.DraftKey(), data)
	}
	if err != nil {
		o.storageFailed(stage, "could not save draft", err)
		return err
	}
	return nil
}

// Submit normalizes and validates payload for the active stage, persists
// it, merges it into the record and advances. A *brief.ValidationError
// leaves everything untouched. Storage failures are reported as notices and
// do not fail the submission.
func (o *Orchestrator) Submit(ctx context.Context, stage brief.StageID, payload any) (any, error) {
	current, ok := o.Current()
	if !ok || current != stage {
		return nil, fmt.Errorf("%w: submitted %s while at %s", ErrStageMismatch, stage, o.position)
	}
	def, err := o.registry.Resolve(stage)
	if err != nil {
		return nil, err
	}
	normalized, err := def.Normalize(payload)
	if err != nil {
		return nil, err
	}
	if err := def.Validate(normalized); err != nil {
		o.logger.Debug("stage rejected", zap.String("stage", stage.String()), zap.Error(err))
		return nil, err
	}

	o.checkRoomRefs(stage, normalized)

	if err := store.SaveJSON(ctx, o.store, stage.StorageKey(), normalized); err != nil {
		o.storageFailed(stage, "answers were accepted but could not be saved", err)
	}
	if err := def.Apply(o.record, normalized); err != nil {
		return nil, err
	}
	o.dropDraft(ctx, stage)
	o.advance()
	o.logger.Info("stage submitted",
		zap.String("stage", stage.String()),
		zap.String("position", o.position.String()))
	return normalized, nil
}

// SubmitRaw decodes YAML or JSON for the active stage and submits it.
// Malformed input is reported as a validation error on the whole payload.
func (o *Orchestrator) SubmitRaw(ctx context.Context, stage brief.StageID, data []byte) (any, error) {
	def, err := o.registry.Resolve(stage)
	if err != nil {
		return nil, err
	}
	payload, err := def.Decode(data)
	if err != nil {
		return nil, &brief.ValidationError{
			Stage:  stage,
			Fields: []brief.FieldError{{Message: err.Error(), Code: "validation_decode"}},
		}
	}
	return o.Submit(ctx, stage, payload)
}

// checkRoomRefs reports room ids that do not resolve against the current
// premises. Unresolved references are excluded from the document later, so
// this is advisory only.
func (o *Orchestrator) checkRoomRefs(stage brief.StageID, payload any) {
	if stage != brief.StageConstruction && stage != brief.StageEquipment {
		return
	}
	probe := *o.record
	if err := probe.Set(stage, payload); err != nil {
		return
	}
	stale := probe.StaleRoomRefs()
	if len(stale) == 0 {
		return
	}
	o.logger.Warn("unresolved room references",
		zap.String("stage", stage.String()), zap.Strings("rooms", stale))
	o.emit(Notice{
		Severity: SeverityWarning,
		Stage:    stage,
		Message:  fmt.Sprintf("%d room reference(s) do not match the premises list and will be left out of the document", len(stale)),
	})
}

func (o *Orchestrator) dropDraft(ctx context.Context, stage brief.StageID) {
	if o.autosave != nil {
		o.autosave.Discard(stage.DraftKey())
	}
	if err := o.store.Clear(ctx, stage.DraftKey()); err != nil {
		o.storageFailed(stage, "could not clear draft", err)
	}
}

func (o *Orchestrator) advance() {
	next := int(o.position) + 1
	if next >= len(o.stages) {
		o.position = Complete
		return
	}
	o.position = Position(next)
}

// Back moves to the previous stage without validation. It is a no-op at
// Stage(1); from Complete it returns to the last stage.
func (o *Orchestrator) Back() Position {
	switch {
	case o.position.IsComplete():
		o.position = Position(len(o.stages) - 1)
	case o.position > 0:
		o.position--
	}
	return o.position
}

// Restart clears the record and every persisted key and returns to
// Stage(1). The in-memory reset happens even when some keys could not be
// cleared; the returned *store.StorageError lists them.
func (o *Orchestrator) Restart(ctx context.Context) error {
	if o.autosave != nil {
		o.autosave.DiscardAll()
	}
	o.record.Clear()
	o.position = 0
	if err := o.store.ClearAll(ctx, brief.StorageKeys()); err != nil {
		o.storageFailed("", "some saved answers could not be removed", err)
		return err
	}
	o.logger.Info("session restarted")
	return nil
}

// Assemble builds the document from the current record.
func (o *Orchestrator) Assemble(opts ...document.Option) (document.Document, error) {
	opts = append([]document.Option{document.WithClock(o.clock)}, opts...)
	return document.Assemble(o.record, opts...)
}

// StageStatus summarises one stage for status displays.
type StageStatus struct {
	Stage     brief.StageID
	Title     string
	Submitted bool
	Draft     bool
	Active    bool
}

// Status reports submission and draft state per stage.
func (o *Orchestrator) Status(ctx context.Context) []StageStatus {
	current, _ := o.Current()
	out := make([]StageStatus, 0, len(o.stages))
	for _, stage := range o.stages {
		status := StageStatus{
			Stage:     stage,
			Title:     stage.Title(),
			Submitted: o.record.Has(stage),
			Active:    stage == current,
		}
		if o.autosave != nil && o.autosave.Pending(stage.DraftKey()) {
			status.Draft = true
		} else if _, ok, err := o.store.Load(ctx, stage.DraftKey()); err == nil && ok {
			status.Draft = true
		}
		out = append(out, status)
	}
	return out
}

func (o *Orchestrator) storageFailed(stage brief.StageID, message string, err error) {
	o.logger.Error(message, zap.String("stage", stage.String()), zap.Error(err))
	o.emit(Notice{Severity: SeverityError, Stage: stage, Message: message, Err: err})
}

func (o *Orchestrator) emit(n Notice) {
	if o.notify != nil {
		o.notify(n)
	}
}

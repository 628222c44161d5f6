package wizard

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/kingrea/brief/internal/brief"
)

var (
	// ErrUnknownStage is returned for stage ids the registry does not know.
	ErrUnknownStage = errors.New("wizard: unknown stage")
	// ErrPayloadType is returned when a payload does not belong to the stage.
	ErrPayloadType = errors.New("wizard: payload type does not match stage")
)

// Definition wires one stage into the orchestrator.
type Definition struct {
	ID    brief.StageID
	Title string
	// Initial builds the payload shown when the stage has no saved data.
	Initial func(rec *brief.Record) any
	// Prepare adjusts a loaded payload to the current record. Optional.
	Prepare func(rec *brief.Record, payload any) any
	// Decode parses user-edited YAML (or JSON) into the stage payload.
	Decode func(data []byte) (any, error)
	// Load parses a persisted JSON snapshot.
	Load func(data []byte) (any, error)
	// Normalize coerces the payload into canonical form.
	Normalize func(payload any) (any, error)
	// Validate checks the normalized payload against the stage schema.
	Validate func(payload any) error
	// Apply merges a validated payload into the record.
	Apply func(rec *brief.Record, payload any) error
}

func (d Definition) validate() error {
	if !d.ID.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownStage, d.ID)
	}
	if d.Initial == nil || d.Decode == nil || d.Load == nil || d.Normalize == nil || d.Validate == nil || d.Apply == nil {
		return fmt.Errorf("wizard: definition %s is incomplete", d.ID)
	}
	return nil
}

// Registry holds stage definitions in submission order. Stages are registered
// before the registry is handed to an orchestrator; after that it is only read.
type Registry struct {
	mu    sync.RWMutex
	defs  map[brief.StageID]Definition
	order []brief.StageID
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{defs: map[brief.StageID]Definition{}}
}

// Register appends a stage. Returns an error if the stage already exists.
func (r *Registry) Register(def Definition) error {
	if err := def.validate(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.defs[def.ID]; exists {
		return fmt.Errorf("wizard: stage %s already registered", def.ID)
	}
	r.defs[def.ID] = def
	r.order = append(r.order, def.ID)
	return nil
}

// MustRegister panics if registration fails.
func (r *Registry) MustRegister(def Definition) {
	if err := r.Register(def); err != nil {
		panic(err)
	}
}

// Resolve returns the definition of a stage.
func (r *Registry) Resolve(id brief.StageID) (Definition, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	def, ok := r.defs[id]
	if !ok {
		return Definition{}, fmt.Errorf("%w: %s", ErrUnknownStage, id)
	}
	return def, nil
}

// IDs returns the registered stages in submission order.
func (r *Registry) IDs() []brief.StageID {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]brief.StageID(nil), r.order...)
}

// Define builds a definition for payload type T. normalize and prepare may
// be nil.
func Define[T any](id brief.StageID, initial func(*brief.Record) T, normalize func(T) T, prepare func(*brief.Record, T) T) Definition {
	coerce := func(payload any) (T, error) {
		switch v := payload.(type) {
		case T:
			return v, nil
		case *T:
			if v != nil {
				return *v, nil
			}
		}
		var zero T
		return zero, fmt.Errorf("%w: %T for %s", ErrPayloadType, payload, id)
	}
	def := Definition{
		ID:      id,
		Title:   id.Title(),
		Initial: func(rec *brief.Record) any { return initial(rec) },
		Decode: func(data []byte) (any, error) {
			var v T
			dec := yaml.NewDecoder(bytes.NewReader(data))
			dec.KnownFields(true)
			if err := dec.Decode(&v); err != nil && !errors.Is(err, io.EOF) {
				return nil, err
			}
			return v, nil
		},
		Load: func(data []byte) (any, error) {
			var v T
			if err := json.Unmarshal(data, &v); err != nil {
				return nil, err
			}
			return v, nil
		},
		Normalize: func(payload any) (any, error) {
			v, err := coerce(payload)
			if err != nil {
				return nil, err
			}
			if normalize != nil {
				v = normalize(v)
			}
			return v, nil
		},
		Validate: func(payload any) error {
			return brief.Validate(id, payload)
		},
		Apply: func(rec *brief.Record, payload any) error {
			return rec.Set(id, payload)
		},
	}
	if prepare != nil {
		def.Prepare = func(rec *brief.Record, payload any) any {
			v, err := coerce(payload)
			if err != nil {
				return payload
			}
			return prepare(rec, v)
		}
	}
	return def
}

// DefaultRegistry registers the six questionnaire stages in order.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.MustRegister(Define(brief.StageCommonInfo,
		func(*brief.Record) brief.CommonInfo { return brief.CommonInfo{} },
		brief.CommonInfo.Normalize, nil))
	r.MustRegister(Define(brief.StageResidents,
		func(*brief.Record) brief.Residents {
			return brief.Residents{Adults: []brief.Adult{{}}, Children: []brief.Child{}}
		},
		brief.Residents.Normalize, nil))
	r.MustRegister(Define(brief.StagePremises,
		func(*brief.Record) brief.Premises { return brief.Premises{Rooms: []brief.Room{}} },
		brief.Premises.Normalize, nil))
	r.MustRegister(Define(brief.StageDemolition,
		func(*brief.Record) brief.Demolition { return brief.Demolition{} },
		nil, nil))
	r.MustRegister(Define(brief.StageConstruction,
		func(*brief.Record) brief.Construction {
			return brief.Construction{Walls: []brief.Finish{}, Ceiling: []brief.Finish{}, Floor: []brief.Finish{}}
		},
		brief.Construction.Normalize, nil))
	r.MustRegister(Define(brief.StageEquipment,
		func(rec *brief.Record) brief.Equipment {
			premises, _ := rec.Premises()
			if existing, ok := rec.Equipment(); ok {
				return brief.AlignEquipment(premises, &existing)
			}
			return brief.AlignEquipment(premises, nil)
		},
		brief.Equipment.Normalize,
		func(rec *brief.Record, e brief.Equipment) brief.Equipment {
			premises, ok := rec.Premises()
			if !ok {
				return e
			}
			return brief.AlignEquipment(premises, &e)
		}))
	return r
}

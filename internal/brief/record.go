package brief

import "fmt"

// Record is the in-memory aggregate of submitted stage payloads. A nil field
// means the stage has not been submitted in this session. Setters are the only
// mutation surface; getters hand out copies.
type Record struct {
	commonInfo   *CommonInfo
	residents    *Residents
	premises     *Premises
	demolition   *Demolition
	construction *Construction
	equipment    *Equipment
}

// NewRecord returns an empty record.
func NewRecord() *Record {
	return &Record{}
}

func ptr[T any](v T) *T {
	return &v
}

func (r *Record) SetCommonInfo(v CommonInfo)     { r.commonInfo = ptr(v) }
func (r *Record) SetResidents(v Residents)       { r.residents = ptr(v) }
func (r *Record) SetPremises(v Premises)         { r.premises = ptr(v) }
func (r *Record) SetDemolition(v Demolition)     { r.demolition = ptr(v) }
func (r *Record) SetConstruction(v Construction) { r.construction = ptr(v) }
func (r *Record) SetEquipment(v Equipment)       { r.equipment = ptr(v) }

// CommonInfo returns the stage payload and whether it is present.
func (r *Record) CommonInfo() (CommonInfo, bool) { return get(r.commonInfo) }

// Residents returns the stage payload and whether it is present.
func (r *Record) Residents() (Residents, bool) { return get(r.residents) }

// Premises returns the stage payload and whether it is present.
func (r *Record) Premises() (Premises, bool) { return get(r.premises) }

// Demolition returns the stage payload and whether it is present.
func (r *Record) Demolition() (Demolition, bool) { return get(r.demolition) }

// Construction returns the stage payload and whether it is present.
func (r *Record) Construction() (Construction, bool) { return get(r.construction) }

// Equipment returns the stage payload and whether it is present.
func (r *Record) Equipment() (Equipment, bool) { return get(r.equipment) }

func get[T any](p *T) (T, bool) {
	if p == nil {
		var zero T
		return zero, false
	}
	return *p, true
}

// Set stores payload for stage. The payload type must match the stage.
func (r *Record) Set(stage StageID, payload any) error {
	switch v := payload.(type) {
	case CommonInfo:
		if stage == StageCommonInfo {
			r.SetCommonInfo(v)
			return nil
		}
	case Residents:
		if stage == StageResidents {
			r.SetResidents(v)
			return nil
		}
	case Premises:
		if stage == StagePremises {
			r.SetPremises(v)
			return nil
		}
	case Demolition:
		if stage == StageDemolition {
			r.SetDemolition(v)
			return nil
		}
	case Construction:
		if stage == StageConstruction {
			r.SetConstruction(v)
			return nil
		}
	case Equipment:
		if stage == StageEquipment {
			r.SetEquipment(v)
			return nil
		}
	}
	return fmt.Errorf("brief: payload %T does not belong to stage %s", payload, stage)
}

// Get returns the payload for stage as an untyped value.
func (r *Record) Get(stage StageID) (any, bool) {
	switch stage {
	case StageCommonInfo:
		return unwrap(r.CommonInfo())
	case StageResidents:
		return unwrap(r.Residents())
	case StagePremises:
		return unwrap(r.Premises())
	case StageDemolition:
		return unwrap(r.Demolition())
	case StageConstruction:
		return unwrap(r.Construction())
	case StageEquipment:
		return unwrap(r.Equipment())
	}
	return nil, false
}

func unwrap[T any](v T, ok bool) (any, bool) {
	if !ok {
		return nil, false
	}
	return v, true
}

// Has reports whether stage has a submitted payload.
func (r *Record) Has(stage StageID) bool {
	_, ok := r.Get(stage)
	return ok
}

// Unset drops the payload of stage.
func (r *Record) Unset(stage StageID) {
	switch stage {
	case StageCommonInfo:
		r.commonInfo = nil
	case StageResidents:
		r.residents = nil
	case StagePremises:
		r.premises = nil
	case StageDemolition:
		r.demolition = nil
	case StageConstruction:
		r.construction = nil
	case StageEquipment:
		r.equipment = nil
	}
}

// Clear drops every payload.
func (r *Record) Clear() {
	*r = Record{}
}

// Missing returns the stages from required that have no payload.
func (r *Record) Missing(required []StageID) []StageID {
	var missing []StageID
	for _, stage := range required {
		if !r.Has(stage) {
			missing = append(missing, stage)
		}
	}
	return missing
}

// IsComplete reports whether every required stage has a payload.
func (r *Record) IsComplete(required []StageID) bool {
	return len(r.Missing(required)) == 0
}

// RoomIndex maps room ids of the current premises to rooms. It is empty when
// premises were not submitted.
func (r *Record) RoomIndex() map[string]Room {
	index := map[string]Room{}
	premises, ok := r.Premises()
	if !ok {
		return index
	}
	for _, room := range premises.Rooms {
		index[room.ID] = room
	}
	return index
}

// StaleRoomRefs lists room ids referenced by construction or equipment that
// do not resolve against the current premises.
func (r *Record) StaleRoomRefs() []string {
	index := r.RoomIndex()
	seen := map[string]struct{}{}
	var stale []string
	add := func(id string) {
		if _, ok := index[id]; ok {
			return
		}
		if _, dup := seen[id]; dup {
			return
		}
		seen[id] = struct{}{}
		stale = append(stale, id)
	}
	if c, ok := r.Construction(); ok {
		for _, surface := range Surfaces {
			for _, entry := range c.Entries(surface) {
				for _, id := range entry.Rooms {
					add(id)
				}
			}
		}
	}
	if e, ok := r.Equipment(); ok {
		for _, room := range e.Rooms {
			add(room.RoomID)
		}
	}
	return stale
}

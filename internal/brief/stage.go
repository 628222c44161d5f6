// internal/brief/stage.go
//
// Stage identifiers and the fixed persistence key set.
// Every stage owns exactly one snapshot key and one draft key.

package brief

import "fmt"

// StageID names one questionnaire stage.
type StageID string

const (
	StageCommonInfo   StageID = "common-info"
	StageResidents    StageID = "residents"
	StagePremises     StageID = "premises"
	StageDemolition   StageID = "demolition"
	StageConstruction StageID = "construction"
	StageEquipment    StageID = "equipment"
)

// draftSuffix marks the key holding unsubmitted edits for a stage.
const draftSuffix = ".draft"

// Stages lists the stages in questionnaire order.
var Stages = []StageID{
	StageCommonInfo,
	StageResidents,
	StagePremises,
	StageDemolition,
	StageConstruction,
	StageEquipment,
}

// String returns the raw identifier.
func (s StageID) String() string {
	return string(s)
}

// Title returns the heading shown for the stage.
func (s StageID) Title() string {
	switch s {
	case StageCommonInfo:
		return "Общая информация"
	case StageResidents:
		return "Информация о проживающих"
	case StagePremises:
		return "Состав помещений"
	case StageDemolition:
		return "Информация по демонтажу"
	case StageConstruction:
		return "Информация по монтажу"
	case StageEquipment:
		return "Наполнение помещений"
	default:
		return string(s)
	}
}

// StorageKey is the persistence key of the submitted snapshot.
func (s StageID) StorageKey() string {
	return string(s)
}

// DraftKey is the persistence key of in-progress edits.
func (s StageID) DraftKey() string {
	return string(s) + draftSuffix
}

// Valid reports whether s is one of the known stages.
func (s StageID) Valid() bool {
	for _, id := range Stages {
		if id == s {
			return true
		}
	}
	return false
}

// ParseStage converts a raw identifier into a StageID.
func ParseStage(raw string) (StageID, error) {
	id := StageID(raw)
	if !id.Valid() {
		return "", fmt.Errorf("brief: unknown stage %q", raw)
	}
	return id, nil
}

// StorageKeys returns every key the questionnaire may write, snapshots first.
func StorageKeys() []string {
	keys := make([]string, 0, len(Stages)*2)
	for _, id := range Stages {
		keys = append(keys, id.StorageKey())
	}
	for _, id := range Stages {
		keys = append(keys, id.DraftKey())
	}
	return keys
}

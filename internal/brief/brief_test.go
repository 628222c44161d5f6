package brief

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validCommonInfo() CommonInfo {
	return CommonInfo{
		ClientName:    "Иван",
		ClientSurname: "Петров",
		Email:         "a@b.com",
		Address:       "Ленина 5",
		Area:          45,
	}
}

func requireFieldError(t *testing.T, err error, field, code string) {
	t.Helper()
	var verr *ValidationError
	require.True(t, errors.As(err, &verr), "expected ValidationError, got %v", err)
	fe, ok := verr.Field(field)
	require.True(t, ok, "missing error for %s in %v", field, verr.Fields)
	assert.Equal(t, code, fe.Code)
}

func TestValidateCommonInfo(t *testing.T) {
	require.NoError(t, Validate(StageCommonInfo, validCommonInfo()))

	tests := []struct {
		name  string
		edit  func(*CommonInfo)
		field string
		code  string
	}{
		{"zero area", func(c *CommonInfo) { c.Area = 0 }, "area", "validation_gt"},
		{"negative area", func(c *CommonInfo) { c.Area = -3 }, "area", "validation_gt"},
		{"bad email", func(c *CommonInfo) { c.Email = "nope" }, "email", "validation_email"},
		{"blank name", func(c *CommonInfo) { c.ClientName = "   " }, "clientName", "validation_notblank"},
		{"missing address", func(c *CommonInfo) { c.Address = "" }, "address", "validation_notblank"},
		{"bad start date", func(c *CommonInfo) { c.StartDate = "15.10.2026" }, "startDate", "validation_datetime"},
		{"final before start", func(c *CommonInfo) {
			c.StartDate = "2026-10-15"
			c.FinalDate = "2026-10-01"
		}, "finalDate", "validation_afterstart"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info := validCommonInfo()
			tt.edit(&info)
			requireFieldError(t, Validate(StageCommonInfo, info), tt.field, tt.code)
		})
	}
}

func TestValidateResidents(t *testing.T) {
	valid := Residents{Adults: []Adult{{Height: 180, Gender: GenderMale}}}
	require.NoError(t, Validate(StageResidents, valid))

	requireFieldError(t, Validate(StageResidents, Residents{}), "adults", "validation_min")
	requireFieldError(t, Validate(StageResidents, Residents{Adults: []Adult{{Height: 251}}}), "adults[0].height", "validation_lte")
	requireFieldError(t, Validate(StageResidents, Residents{Adults: []Adult{{Height: 0}}}), "adults[0].height", "validation_gte")
	requireFieldError(t, Validate(StageResidents, Residents{
		Adults:   []Adult{{Height: 170}},
		Children: []Child{{Age: 19}},
	}), "children[0].age", "validation_lte")
	requireFieldError(t, Validate(StageResidents, Residents{
		Adults:   []Adult{{Height: 170}},
		Children: []Child{{Age: 0}},
	}), "children[0].age", "validation_gt")
	requireFieldError(t, Validate(StageResidents, Residents{
		Adults:  []Adult{{Height: 170}},
		HasPets: true,
	}), "petDetails", "validation_required_with_pets")
	requireFieldError(t, Validate(StageResidents, Residents{
		Adults: []Adult{{Height: 170, Gender: "other"}},
	}), "adults[0].gender", "validation_oneof")
}

func TestResidentsNormalizeMapsLegacyGender(t *testing.T) {
	r := Residents{
		Adults:     []Adult{{Height: 180, Gender: "man"}, {Height: 165, Gender: "woman"}},
		PetDetails: "кот",
	}.Normalize()
	assert.Equal(t, GenderMale, r.Adults[0].Gender)
	assert.Equal(t, GenderFemale, r.Adults[1].Gender)
	assert.Empty(t, r.PetDetails, "pet details are dropped without pets")
	assert.Equal(t, 2, r.Total())
}

func TestPremisesKeepsIDsAcrossEdits(t *testing.T) {
	var p Premises
	kitchen := p.AddRoom("Кухня", RoomTypeWet)
	bedroom := p.AddRoom("Спальня", RoomTypeLiving)
	hall := p.InsertRoom(0, "Прихожая", RoomTypeNone)

	require.Len(t, p.Rooms, 3)
	assert.Equal(t, []int{1, 2, 3}, []int{p.Rooms[0].Order, p.Rooms[1].Order, p.Rooms[2].Order})
	assert.Equal(t, hall, p.Rooms[0].ID)
	assert.Equal(t, kitchen, p.Rooms[1].ID)

	require.True(t, p.RemoveRoom(kitchen))
	assert.Equal(t, 2, p.Rooms[1].Order)
	assert.Equal(t, bedroom, p.Rooms[1].ID)

	require.True(t, p.RenameRoom(bedroom, "Спальня гостевая"))
	room, ok := p.Room(bedroom)
	require.True(t, ok)
	assert.Equal(t, "Спальня гостевая", room.Name)

	added := p.AddRoom("Кабинет", RoomTypeLiving)
	assert.NotEqual(t, kitchen, added, "room ids are never reused")
	require.NoError(t, Validate(StagePremises, p))
}

func TestPremisesNormalizeRenumbersAndFillsIDs(t *testing.T) {
	p := Premises{Rooms: []Room{
		{Name: " Кухня ", Order: 7},
		{ID: "room-4", Name: "Спальня", Order: 2},
		{ID: "room-4", Name: "Детская"},
	}}.Normalize()
	assert.Equal(t, "Кухня", p.Rooms[0].Name)
	assert.Equal(t, "room-5", p.Rooms[0].ID)
	assert.Equal(t, "room-4", p.Rooms[1].ID)
	assert.Equal(t, "room-6", p.Rooms[2].ID)
	for i, room := range p.Rooms {
		assert.Equal(t, i+1, room.Order)
	}
}

func TestValidatePremises(t *testing.T) {
	requireFieldError(t, Validate(StagePremises, Premises{}), "rooms", "validation_min")
	requireFieldError(t, Validate(StagePremises, Premises{Rooms: []Room{{ID: "room-0", Order: 2, Name: "Кухня"}}}), "rooms[0].order", "validation_dense")
	requireFieldError(t, Validate(StagePremises, Premises{Rooms: []Room{{ID: "room-0", Order: 1, Name: " "}}}), "rooms[0].name", "validation_notblank")
	requireFieldError(t, Validate(StagePremises, Premises{Rooms: []Room{{ID: "room-0", Order: 1, Name: "X", Type: "garage"}}}), "rooms[0].type", "validation_oneof")
}

func TestConstructionNormalizeDropsEmptyEntries(t *testing.T) {
	c := Construction{
		Walls: []Finish{
			{Type: "Покраска", Rooms: []string{"room-0", "room-0", ""}},
			{Type: "Обои"},
			{Type: "", Rooms: []string{"room-1"}},
		},
		Floor: []Finish{{Type: "Ламинат", Material: "ignored", Rooms: []string{"room-1"}}},
	}.Normalize()
	require.Len(t, c.Walls, 1)
	assert.Equal(t, []string{"room-0"}, c.Walls[0].Rooms)
	require.Len(t, c.Floor, 1)
	assert.Empty(t, c.Floor[0].Material, "material is kept only for the other tag")
	assert.NotNil(t, c.Ceiling)
	require.NoError(t, Validate(StageConstruction, c))
}

func TestValidateConstruction(t *testing.T) {
	requireFieldError(t, Validate(StageConstruction, Construction{
		Walls: []Finish{{Type: OtherFinish, Rooms: []string{"room-0"}}},
	}), "walls[0].material", "validation_required_for_other")
	requireFieldError(t, Validate(StageConstruction, Construction{
		Ceiling: []Finish{{Type: "Ламинат", Rooms: []string{"room-0"}}},
	}), "ceiling[0].type", "validation_oneof")
	require.NoError(t, Validate(StageConstruction, Construction{
		Floor: []Finish{{Type: OtherFinish, Material: "Микроцемент", Rooms: []string{"room-0"}}},
	}))
}

func TestValidateEquipment(t *testing.T) {
	e := Equipment{Rooms: []RoomEquipment{{
		RoomID: "room-0",
		Items:  []EquipmentItem{{Name: "Холодильник"}},
	}}}.Normalize()
	require.NotEmpty(t, e.Rooms[0].Items[0].ID)
	assert.Equal(t, SourceCustom, e.Rooms[0].Items[0].Source)
	assert.Equal(t, 1, e.Rooms[0].Items[0].Count())
	require.NoError(t, Validate(StageEquipment, e))

	e.Rooms[0].Items[0].Quantity = -2
	requireFieldError(t, Validate(StageEquipment, e), "rooms[0].items[0].quantity", "validation_gte")

	e.Rooms[0].Items[0].Quantity = 2
	e.Rooms[0].Items[0].URL = "not a url"
	requireFieldError(t, Validate(StageEquipment, e), "rooms[0].items[0].url", "validation_url")
}

func TestAlignEquipmentFollowsPremises(t *testing.T) {
	var p Premises
	kitchen := p.AddRoom("Кухня", RoomTypeWet)
	bath := p.AddRoom("Ванная", RoomTypeWet)
	existing := AlignEquipment(p, nil)
	require.NoError(t, existing.AddItem(kitchen, NewEquipmentItem("Холодильник", "Кухня", SourceSuggested)))
	require.Error(t, existing.AddItem("room-99", NewEquipmentItem("X", "", SourceCustom)))

	p.RemoveRoom(bath)
	p.AddRoom("Спальня", RoomTypeLiving)
	aligned := AlignEquipment(p, &existing)
	require.Len(t, aligned.Rooms, 2)
	assert.Equal(t, kitchen, aligned.Rooms[0].RoomID)
	assert.Equal(t, []string{"Холодильник"}, aligned.Rooms[0].SelectedNames())
	assert.Empty(t, aligned.Rooms[1].Items)

	itemID := aligned.Rooms[0].Items[0].ID
	assert.True(t, aligned.RemoveItem(kitchen, itemID))
	assert.False(t, aligned.HasItems())
}

func TestDetectRoomType(t *testing.T) {
	tests := map[string]RoomType{
		"Спальня":        RoomTypeLiving,
		"Кухня-столовая": RoomTypeWet,
		"Санузел":        RoomTypeWet,
		"Гардеробная":    RoomTypeUtility,
		"Котельная":      RoomTypeTechnical,
		"Балкон":         RoomTypeNone,
		"   ":            RoomTypeNone,
	}
	for name, want := range tests {
		assert.Equal(t, want, DetectRoomType(name), name)
	}
}

func TestRecordSettersAndStaleRefs(t *testing.T) {
	rec := NewRecord()
	assert.False(t, rec.IsComplete(Stages))
	require.Error(t, rec.Set(StageResidents, validCommonInfo()))
	require.NoError(t, rec.Set(StageCommonInfo, validCommonInfo()))
	assert.True(t, rec.Has(StageCommonInfo))

	var p Premises
	kitchen := p.AddRoom("Кухня", RoomTypeWet)
	rec.SetPremises(p)
	rec.SetConstruction(Construction{Walls: []Finish{{Type: "Покраска", Rooms: []string{kitchen, "room-42"}}}})
	rec.SetEquipment(Equipment{Rooms: []RoomEquipment{{RoomID: "room-43"}}})
	assert.Equal(t, []string{"room-42", "room-43"}, rec.StaleRoomRefs())

	assert.Equal(t, []StageID{StageResidents, StageDemolition}, rec.Missing(Stages))
	rec.Unset(StagePremises)
	assert.Empty(t, rec.RoomIndex())
	rec.Clear()
	assert.Equal(t, Stages, rec.Missing(Stages))
}

func TestStorageKeysAreFixed(t *testing.T) {
	keys := StorageKeys()
	require.Len(t, keys, 12)
	assert.Equal(t, "common-info", keys[0])
	assert.Equal(t, "equipment.draft", keys[11])
	_, err := ParseStage("unknown")
	require.Error(t, err)
	stage, err := ParseStage("premises")
	require.NoError(t, err)
	assert.Equal(t, StagePremises, stage)
}

func TestPremisesDoesNotReuseLastRoomID(t *testing.T) {
	var p Premises
	p.AddRoom("Кухня", RoomTypeWet)
	last := p.AddRoom("Спальня", RoomTypeLiving)
	require.True(t, p.RemoveRoom(last))

	next := p.AddRoom("Детская", RoomTypeLiving)
	assert.NotEqual(t, last, next)
	assert.Equal(t, "room-2", next)
}

package suggest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kingrea/brief/internal/brief"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		room string
		kind brief.RoomType
		want Group
	}{
		{"kitchen by name", "Кухня-столовая", brief.RoomTypeNone, GroupKitchen},
		{"wet kitchen", "Кухня", brief.RoomTypeWet, GroupKitchen},
		{"wet without kitchen keyword", "Постирочная", brief.RoomTypeWet, GroupBathroom},
		{"bathroom by name", "Санузел гостевой", brief.RoomTypeNone, GroupBathroom},
		{"living bedroom", "Спальня", brief.RoomTypeLiving, GroupBedroom},
		{"living default", "Кабинет", brief.RoomTypeLiving, GroupLiving},
		{"living by name", "Гостиная", brief.RoomTypeNone, GroupLiving},
		{"bedroom by name", "Master bedroom", brief.RoomTypeNone, GroupBedroom},
		{"utility ignores name", "Кухня", brief.RoomTypeUtility, GroupDefault},
		{"technical", "Котельная", brief.RoomTypeTechnical, GroupDefault},
		{"unknown name", "Балкон", brief.RoomTypeNone, GroupDefault},
		{"blank name", "   ", brief.RoomTypeWet, GroupDefault},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.room, tt.kind))
		})
	}
}

func TestSuggestReturnsCopies(t *testing.T) {
	idx := New()
	first := idx.Suggest("Кухня", brief.RoomTypeWet)
	require.NotEmpty(t, first)
	assert.Equal(t, "Холодильник", first[0].Name)
	assert.Equal(t, "Кухня", first[0].Category)

	first[0].Name = "mutated"
	second := idx.Suggest("Кухня", brief.RoomTypeWet)
	assert.Equal(t, "Холодильник", second[0].Name)
}

func TestCacheIsKeyedByNameAndType(t *testing.T) {
	idx := New()
	idx.Suggest("Кухня", brief.RoomTypeWet)
	idx.Suggest(" кухня ", brief.RoomTypeWet)
	assert.Equal(t, 1, idx.Cached())

	idx.Suggest("Кухня", brief.RoomTypeNone)
	assert.Equal(t, 2, idx.Cached())

	idx.Clear()
	assert.Zero(t, idx.Cached())
}

func TestAvailableExcludesSelected(t *testing.T) {
	idx := New()
	all := idx.Suggest("Ванная", brief.RoomTypeWet)
	available := idx.Available("Ванная", brief.RoomTypeWet, []string{"Унитаз", "Ванна"})
	assert.Len(t, available, len(all)-2)
	for _, tpl := range available {
		assert.NotContains(t, []string{"Унитаз", "Ванна"}, tpl.Name)
	}
	// the cached list is untouched by filtering
	assert.Len(t, idx.Suggest("Ванная", brief.RoomTypeWet), len(all))
}

func TestWithTemplatesOverridesGroup(t *testing.T) {
	idx := New(WithTemplates(map[Group][]Template{
		GroupDefault: {{Name: "Сейф"}},
		GroupKitchen: nil,
	}))
	assert.Equal(t, []Template{{Name: "Сейф"}}, idx.Suggest("Балкон", brief.RoomTypeNone))
	assert.Equal(t, "Холодильник", idx.Suggest("Кухня", brief.RoomTypeWet)[0].Name)
}

func TestParseGroup(t *testing.T) {
	group, ok := ParseGroup(" Bedroom ")
	require.True(t, ok)
	assert.Equal(t, GroupBedroom, group)
	_, ok = ParseGroup("garage")
	assert.False(t, ok)
	assert.Equal(t, []string{"bathroom", "bedroom", "default", "kitchen", "living"}, GroupNames())
}

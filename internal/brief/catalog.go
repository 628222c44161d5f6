package brief

import "strings"

// OtherFinish is the sentinel type tag that requires a free-text material.
const OtherFinish = "Другое"

// Surface names one construction list.
type Surface string

const (
	SurfaceWalls   Surface = "walls"
	SurfaceCeiling Surface = "ceiling"
	SurfaceFloor   Surface = "floor"
)

// Surfaces lists construction surfaces in document order.
var Surfaces = []Surface{SurfaceWalls, SurfaceCeiling, SurfaceFloor}

// Title returns the heading of the surface.
func (s Surface) Title() string {
	switch s {
	case SurfaceWalls:
		return "Стены"
	case SurfaceCeiling:
		return "Потолок"
	case SurfaceFloor:
		return "Пол"
	default:
		return string(s)
	}
}

// FinishTypes returns the allowed type tags for a surface.
func FinishTypes(s Surface) []string {
	switch s {
	case SurfaceWalls:
		return []string{"Покраска", "Обои", "Декоративная штукатурка", "Плитка", OtherFinish}
	case SurfaceCeiling:
		return []string{"Натяжной потолок", "Покраска", "Гипсокартонный потолок", OtherFinish}
	case SurfaceFloor:
		return []string{"Керамогранит", "Ламинат", "Паркет", "Инженерная доска", "Линолеум", OtherFinish}
	default:
		return nil
	}
}

func isFinishType(s Surface, tag string) bool {
	for _, candidate := range FinishTypes(s) {
		if candidate == tag {
			return true
		}
	}
	return false
}

// Entries returns the list for a surface.
func (c Construction) Entries(s Surface) []Finish {
	switch s {
	case SurfaceWalls:
		return c.Walls
	case SurfaceCeiling:
		return c.Ceiling
	case SurfaceFloor:
		return c.Floor
	default:
		return nil
	}
}

// RoomTypes lists the closed set of room classifications.
var RoomTypes = []RoomType{RoomTypeLiving, RoomTypeUtility, RoomTypeWet, RoomTypeTechnical}

// RoomNames are the stock room names offered when adding a room.
var RoomNames = []string{
	"Прихожая",
	"Гостиная",
	"Кухня",
	"Столовая",
	"Спальня",
	"Детская",
	"Гардеробная",
	"Ванная комната",
	"Санузел",
	"Постирочная",
}

var roomTypeKeywords = []struct {
	kind     RoomType
	keywords []string
}{
	{RoomTypeLiving, []string{"спальн", "гостин", "кабинет", "детск", "зал"}},
	{RoomTypeWet, []string{"кухн", "ванн", "санузел", "с/у", "сан", "туалет", "душ"}},
	{RoomTypeUtility, []string{"гард", "клад", "постир", "прачеч"}},
	{RoomTypeTechnical, []string{"котельн", "электрощит", "венткамер"}},
}

// DetectRoomType guesses a room classification from its name. Living rooms
// are checked first, so "Гостиная-кухня" is living.
func DetectRoomType(name string) RoomType {
	normalized := strings.ToLower(strings.TrimSpace(name))
	if normalized == "" {
		return RoomTypeNone
	}
	for _, group := range roomTypeKeywords {
		for _, keyword := range group.keywords {
			if strings.Contains(normalized, keyword) {
				return group.kind
			}
		}
	}
	return RoomTypeNone
}

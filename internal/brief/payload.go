// internal/brief/payload.go
//
// Stage payloads. Field names mirror the persisted snapshot format so a
// snapshot written by one session can be read back by the next.

package brief

// DateLayout is the wire format of optional date fields.
const DateLayout = "2006-01-02"

// CommonInfo captures client identity and object basics.
type CommonInfo struct {
	ClientName     string  `json:"clientName" yaml:"clientName" validate:"notblank"`
	ClientSurname  string  `json:"clientSurname" yaml:"clientSurname" validate:"notblank"`
	Email          string  `json:"email" yaml:"email" validate:"required,email"`
	Phone          string  `json:"phone,omitempty" yaml:"phone,omitempty"`
	Address        string  `json:"address" yaml:"address" validate:"notblank"`
	Area           float64 `json:"area" yaml:"area" validate:"gt=0"`
	ContractNumber string  `json:"contractNumber,omitempty" yaml:"contractNumber,omitempty"`
	StartDate      string  `json:"startDate,omitempty" yaml:"startDate,omitempty" validate:"omitempty,datetime=2006-01-02"`
	FinalDate      string  `json:"finalDate,omitempty" yaml:"finalDate,omitempty" validate:"omitempty,datetime=2006-01-02"`
}

// Gender of an adult resident.
type Gender string

const (
	GenderUnspecified Gender = ""
	GenderMale        Gender = "male"
	GenderFemale      Gender = "female"
)

// normalize maps legacy select values onto the canonical enum.
func (g Gender) normalize() Gender {
	switch g {
	case "man":
		return GenderMale
	case "woman":
		return GenderFemale
	default:
		return g
	}
}

// Adult resident.
type Adult struct {
	Height float64 `json:"height" yaml:"height" validate:"gte=1,lte=250"`
	Gender Gender  `json:"gender" yaml:"gender" validate:"omitempty,oneof=male female"`
}

// Child resident.
type Child struct {
	Age float64 `json:"age" yaml:"age" validate:"gt=0,lte=18"`
}

// Residents describes who will live in the object.
type Residents struct {
	Adults       []Adult `json:"adults" yaml:"adults" validate:"min=1,dive"`
	Children     []Child `json:"children" yaml:"children" validate:"dive"`
	Hobbies      string  `json:"hobbies,omitempty" yaml:"hobbies,omitempty"`
	HealthIssues string  `json:"healthIssues,omitempty" yaml:"healthIssues,omitempty"`
	HasPets      bool    `json:"hasPets" yaml:"hasPets"`
	PetDetails   string  `json:"petDetails,omitempty" yaml:"petDetails,omitempty"`
}

// Total returns the number of residents.
func (r Residents) Total() int {
	return len(r.Adults) + len(r.Children)
}

// RoomType classifies a room.
type RoomType string

const (
	RoomTypeNone      RoomType = ""
	RoomTypeLiving    RoomType = "living"
	RoomTypeUtility   RoomType = "utility"
	RoomTypeWet       RoomType = "wet"
	RoomTypeTechnical RoomType = "technical"
)

// Label returns the display label of the room type.
func (t RoomType) Label() string {
	switch t {
	case RoomTypeLiving:
		return "Жилая"
	case RoomTypeUtility:
		return "Хозяйственная"
	case RoomTypeWet:
		return "Мокрая зона"
	case RoomTypeTechnical:
		return "Техническая"
	default:
		return ""
	}
}

// Room is one entry of the premises list.
type Room struct {
	ID    string   `json:"id" yaml:"id"`
	Order int      `json:"order" yaml:"order" validate:"gte=1"`
	Name  string   `json:"name" yaml:"name" validate:"notblank"`
	Type  RoomType `json:"type,omitempty" yaml:"type,omitempty" validate:"omitempty,oneof=living utility wet technical"`
	Area  float64  `json:"area,omitempty" yaml:"area,omitempty" validate:"omitempty,gt=0"`
}

// Premises is the ordered room list. NextRoomSeq is the high-water mark of
// issued room ids, so an id freed by a deleted room is not handed out again.
type Premises struct {
	Rooms       []Room `json:"rooms" yaml:"rooms" validate:"min=1,dive"`
	NextRoomSeq int    `json:"nextRoomSeq,omitempty" yaml:"nextRoomSeq,omitempty"`
}

// Finish is one construction entry applied to a set of rooms.
type Finish struct {
	Type     string   `json:"type" yaml:"type"`
	Material string   `json:"material,omitempty" yaml:"material,omitempty"`
	Rooms    []string `json:"rooms" yaml:"rooms" validate:"min=1"`
}

// Construction groups finishing entries per surface.
type Construction struct {
	Walls   []Finish `json:"walls" yaml:"walls" validate:"dive"`
	Ceiling []Finish `json:"ceiling" yaml:"ceiling" validate:"dive"`
	Floor   []Finish `json:"floor" yaml:"floor" validate:"dive"`
}

// Demolition flags with optional elaborations.
type Demolition struct {
	PlanChange          bool   `json:"planChange" yaml:"planChange"`
	PlanChangeInfo      string `json:"planChangeInfo,omitempty" yaml:"planChangeInfo,omitempty"`
	EntranceDoorChange  bool   `json:"entranceDoorChange" yaml:"entranceDoorChange"`
	EntranceDoorType    string `json:"entranceDoorType,omitempty" yaml:"entranceDoorType,omitempty"`
	WindowsChange       bool   `json:"windowsChange" yaml:"windowsChange"`
	WindowsType         string `json:"windowsType,omitempty" yaml:"windowsType,omitempty"`
	FurnitureDemolition bool   `json:"furnitureDemolition" yaml:"furnitureDemolition"`
	FurnitureToDemolish string `json:"furnitureToDemolish,omitempty" yaml:"furnitureToDemolish,omitempty"`
}

// Source records where an equipment item came from.
type Source string

const (
	SourceSuggested Source = "suggested"
	SourceCustom    Source = "custom"
)

// EquipmentItem is one piece of equipment in a room.
type EquipmentItem struct {
	ID           string `json:"id" yaml:"id" validate:"required"`
	Name         string `json:"name" yaml:"name" validate:"notblank"`
	Quantity     int    `json:"quantity,omitempty" yaml:"quantity,omitempty" validate:"omitempty,gte=1"`
	Manufacturer string `json:"manufacturer,omitempty" yaml:"manufacturer,omitempty"`
	URL          string `json:"url,omitempty" yaml:"url,omitempty" validate:"omitempty,url"`
	Description  string `json:"description,omitempty" yaml:"description,omitempty"`
	Category     string `json:"category,omitempty" yaml:"category,omitempty"`
	Source       Source `json:"source" yaml:"source" validate:"oneof=suggested custom"`
}

// Count returns the quantity, defaulting to one.
func (e EquipmentItem) Count() int {
	if e.Quantity < 1 {
		return 1
	}
	return e.Quantity
}

// RoomEquipment is the item list of one room.
type RoomEquipment struct {
	RoomID   string          `json:"roomId" yaml:"roomId" validate:"required"`
	RoomName string          `json:"roomName,omitempty" yaml:"roomName,omitempty"`
	Items    []EquipmentItem `json:"items" yaml:"items" validate:"dive"`
}

// Equipment holds one list per room.
type Equipment struct {
	Rooms []RoomEquipment `json:"rooms" yaml:"rooms" validate:"dive"`
}

// HasItems reports whether any room lists at least one item.
func (e Equipment) HasItems() bool {
	for _, room := range e.Rooms {
		if len(room.Items) > 0 {
			return true
		}
	}
	return false
}

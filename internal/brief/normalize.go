package brief

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

const roomIDPrefix = "room-"

// Normalize trims text fields.
func (c CommonInfo) Normalize() CommonInfo {
	c.ClientName = strings.TrimSpace(c.ClientName)
	c.ClientSurname = strings.TrimSpace(c.ClientSurname)
	c.Email = strings.TrimSpace(c.Email)
	c.Phone = strings.TrimSpace(c.Phone)
	c.Address = strings.TrimSpace(c.Address)
	c.ContractNumber = strings.TrimSpace(c.ContractNumber)
	c.StartDate = strings.TrimSpace(c.StartDate)
	c.FinalDate = strings.TrimSpace(c.FinalDate)
	return c
}

// Normalize maps legacy gender values and drops pet details when there are
// no pets.
func (r Residents) Normalize() Residents {
	adults := make([]Adult, len(r.Adults))
	for i, adult := range r.Adults {
		adult.Gender = adult.Gender.normalize()
		adults[i] = adult
	}
	r.Adults = adults
	r.Children = append([]Child{}, r.Children...)
	r.PetDetails = strings.TrimSpace(r.PetDetails)
	if !r.HasPets {
		r.PetDetails = ""
	}
	return r
}

// Normalize renumbers rooms by position and assigns ids to rooms that lack
// one. Existing ids are kept, so references survive rename and reorder.
func (p Premises) Normalize() Premises {
	rooms := make([]Room, len(p.Rooms))
	copy(rooms, p.Rooms)
	next := p.nextRoomSeq()
	seen := map[string]struct{}{}
	for i := range rooms {
		rooms[i].Name = strings.TrimSpace(rooms[i].Name)
		rooms[i].Order = i + 1
		id := strings.TrimSpace(rooms[i].ID)
		if _, dup := seen[id]; id == "" || dup {
			id = roomIDPrefix + strconv.Itoa(next)
			next++
		}
		seen[id] = struct{}{}
		rooms[i].ID = id
	}
	p.Rooms = rooms
	p.NextRoomSeq = next
	return p
}

func (p Premises) nextRoomSeq() int {
	next := p.NextRoomSeq
	for _, room := range p.Rooms {
		raw, ok := strings.CutPrefix(room.ID, roomIDPrefix)
		if !ok {
			continue
		}
		if n, err := strconv.Atoi(raw); err == nil && n >= next {
			next = n + 1
		}
	}
	return next
}

// AddRoom appends a room and returns its id.
func (p *Premises) AddRoom(name string, kind RoomType) string {
	return p.InsertRoom(len(p.Rooms), name, kind)
}

// InsertRoom inserts a room at position (clamped to the list bounds) and
// renumbers the list.
func (p *Premises) InsertRoom(position int, name string, kind RoomType) string {
	if position < 0 {
		position = 0
	}
	if position > len(p.Rooms) {
		position = len(p.Rooms)
	}
	seq := p.nextRoomSeq()
	id := roomIDPrefix + strconv.Itoa(seq)
	room := Room{ID: id, Name: strings.TrimSpace(name), Type: kind}
	rooms := make([]Room, 0, len(p.Rooms)+1)
	rooms = append(rooms, p.Rooms[:position]...)
	rooms = append(rooms, room)
	rooms = append(rooms, p.Rooms[position:]...)
	p.Rooms = rooms
	p.NextRoomSeq = seq + 1
	*p = p.Normalize()
	return id
}

// RemoveRoom deletes the room with id and renumbers the list.
func (p *Premises) RemoveRoom(id string) bool {
	for i, room := range p.Rooms {
		if room.ID != id {
			continue
		}
		rooms := make([]Room, 0, len(p.Rooms)-1)
		rooms = append(rooms, p.Rooms[:i]...)
		rooms = append(rooms, p.Rooms[i+1:]...)
		p.Rooms = rooms
		*p = p.Normalize()
		return true
	}
	return false
}

// RenameRoom changes the display name of a room; its id is unchanged.
func (p *Premises) RenameRoom(id, name string) bool {
	for i := range p.Rooms {
		if p.Rooms[i].ID == id {
			p.Rooms[i].Name = strings.TrimSpace(name)
			return true
		}
	}
	return false
}

// Room returns the room with id.
func (p Premises) Room(id string) (Room, bool) {
	for _, room := range p.Rooms {
		if room.ID == id {
			return room, true
		}
	}
	return Room{}, false
}

// Normalize drops entries that have no type or no rooms and removes
// duplicate room references.
func (c Construction) Normalize() Construction {
	return Construction{
		Walls:   cleanFinishes(c.Walls),
		Ceiling: cleanFinishes(c.Ceiling),
		Floor:   cleanFinishes(c.Floor),
	}
}

func cleanFinishes(entries []Finish) []Finish {
	out := []Finish{}
	for _, entry := range entries {
		entry.Type = strings.TrimSpace(entry.Type)
		entry.Material = strings.TrimSpace(entry.Material)
		entry.Rooms = dedupe(entry.Rooms)
		if entry.Type == "" || len(entry.Rooms) == 0 {
			continue
		}
		if entry.Type != OtherFinish {
			entry.Material = ""
		}
		out = append(out, entry)
	}
	return out
}

func dedupe(values []string) []string {
	seen := map[string]struct{}{}
	out := make([]string, 0, len(values))
	for _, value := range values {
		value = strings.TrimSpace(value)
		if value == "" {
			continue
		}
		if _, ok := seen[value]; ok {
			continue
		}
		seen[value] = struct{}{}
		out = append(out, value)
	}
	return out
}

// Normalize assigns ids to new items and trims names.
func (e Equipment) Normalize() Equipment {
	rooms := make([]RoomEquipment, len(e.Rooms))
	for i, room := range e.Rooms {
		items := make([]EquipmentItem, 0, len(room.Items))
		for _, item := range room.Items {
			item.Name = strings.TrimSpace(item.Name)
			if strings.TrimSpace(item.ID) == "" {
				item.ID = uuid.NewString()
			}
			if item.Source == "" {
				item.Source = SourceCustom
			}
			items = append(items, item)
		}
		room.Items = items
		rooms[i] = room
	}
	e.Rooms = rooms
	return e
}

// NewEquipmentItem creates an item with a fresh id.
func NewEquipmentItem(name, category string, source Source) EquipmentItem {
	return EquipmentItem{
		ID:       uuid.NewString(),
		Name:     strings.TrimSpace(name),
		Category: category,
		Source:   source,
	}
}

// AlignEquipment returns one list per current room in premises order,
// carrying over items of rooms that still exist.
func AlignEquipment(premises Premises, existing *Equipment) Equipment {
	byRoom := map[string][]EquipmentItem{}
	if existing != nil {
		for _, room := range existing.Rooms {
			byRoom[room.RoomID] = room.Items
		}
	}
	out := Equipment{Rooms: make([]RoomEquipment, 0, len(premises.Rooms))}
	for _, room := range premises.Rooms {
		items := append([]EquipmentItem{}, byRoom[room.ID]...)
		out.Rooms = append(out.Rooms, RoomEquipment{
			RoomID:   room.ID,
			RoomName: room.Name,
			Items:    items,
		})
	}
	return out
}

// AddItem appends item to the list of roomID.
func (e *Equipment) AddItem(roomID string, item EquipmentItem) error {
	for i := range e.Rooms {
		if e.Rooms[i].RoomID == roomID {
			e.Rooms[i].Items = append(e.Rooms[i].Items, item)
			return nil
		}
	}
	return fmt.Errorf("brief: unknown room %s", roomID)
}

// RemoveItem deletes the item with itemID from roomID.
func (e *Equipment) RemoveItem(roomID, itemID string) bool {
	for i := range e.Rooms {
		if e.Rooms[i].RoomID != roomID {
			continue
		}
		for j, item := range e.Rooms[i].Items {
			if item.ID == itemID {
				e.Rooms[i].Items = append(e.Rooms[i].Items[:j:j], e.Rooms[i].Items[j+1:]...)
				return true
			}
		}
	}
	return false
}

// SelectedNames returns the item names already chosen for a room.
func (r RoomEquipment) SelectedNames() []string {
	names := make([]string, 0, len(r.Items))
	for _, item := range r.Items {
		names = append(names, item.Name)
	}
	return names
}

// internal/document/document.go
//
// Turns a project record into a paginated document. Assembly is pure: the
// same record and clock always produce the same document. Sections appear
// only when their source stage is present and yields rows; pages without
// sections are dropped and the rest renumbered.

package document

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/kingrea/brief/internal/brief"
)

// DefaultTitle heads every document.
const DefaultTitle = "Техническое задание"

// ErrMissingCommonInfo is wrapped by AssemblyError when the record has no
// client information.
var ErrMissingCommonInfo = errors.New("document: common info is required")

// AssemblyError reports that a document cannot be produced.
type AssemblyError struct {
	Err error
}

func (e *AssemblyError) Error() string {
	return fmt.Sprintf("document: assemble: %v", e.Err)
}

func (e *AssemblyError) Unwrap() error { return e.Err }

// RowKind distinguishes plain rows from headings and placeholders.
type RowKind string

const (
	RowValue       RowKind = "value"
	RowHeading     RowKind = "heading"
	RowPlaceholder RowKind = "placeholder"
)

// Row is one labelled line of a section.
type Row struct {
	Label string   `json:"label"`
	Cells []string `json:"cells,omitempty"`
	Kind  RowKind  `json:"kind"`
}

// SectionID names a document section.
type SectionID string

const (
	SectionClient       SectionID = "client"
	SectionResidents    SectionID = "residents"
	SectionPremises     SectionID = "premises"
	SectionConstruction SectionID = "construction"
	SectionDemolition   SectionID = "demolition"
	SectionEquipment    SectionID = "equipment"
)

// Title returns the heading of the section.
func (s SectionID) Title() string {
	switch s {
	case SectionClient:
		return "Общая информация"
	case SectionResidents:
		return "Информация о проживающих"
	case SectionPremises:
		return "Состав помещений"
	case SectionConstruction:
		return "Отделочные работы"
	case SectionDemolition:
		return "Демонтажные работы"
	case SectionEquipment:
		return "Оборудование и мебель"
	default:
		return string(s)
	}
}

// Section groups rows under a heading.
type Section struct {
	ID    SectionID `json:"id"`
	Title string    `json:"title"`
	Rows  []Row     `json:"rows"`
}

// Page holds sections in layout order.
type Page struct {
	Number   int       `json:"number"`
	Sections []Section `json:"sections"`
}

// Document is the assembled brief.
type Document struct {
	Title       string    `json:"title"`
	FileBase    string    `json:"fileBase"`
	GeneratedAt time.Time `json:"generatedAt"`
	Pages       []Page    `json:"pages"`
}

// Section returns the section with id, if present.
func (d Document) Section(id SectionID) (Section, bool) {
	for _, page := range d.Pages {
		for _, section := range page.Sections {
			if section.ID == id {
				return section, true
			}
		}
	}
	return Section{}, false
}

// Layout assigns sections to pages.
var Layout = [][]SectionID{
	{SectionClient, SectionResidents},
	{SectionPremises, SectionConstruction, SectionDemolition},
	{SectionEquipment},
}

// Option customises assembly.
type Option func(*assembler)

// WithClock injects the clock used for the generation time and the default
// start date.
func WithClock(clock func() time.Time) Option {
	return func(a *assembler) {
		if clock != nil {
			a.clock = clock
		}
	}
}

// WithTitle overrides the document title.
func WithTitle(title string) Option {
	return func(a *assembler) {
		if strings.TrimSpace(title) != "" {
			a.title = title
		}
	}
}

type assembler struct {
	clock func() time.Time
	title string
	now   time.Time
	rec   *brief.Record
	rooms map[string]brief.Room
}

// Assemble builds the document for rec. It fails only when the record has
// no common info.
func Assemble(rec *brief.Record, opts ...Option) (Document, error) {
	a := &assembler{clock: time.Now, title: DefaultTitle}
	for _, opt := range opts {
		if opt != nil {
			opt(a)
		}
	}
	if rec == nil {
		return Document{}, &AssemblyError{Err: ErrMissingCommonInfo}
	}
	info, ok := rec.CommonInfo()
	if !ok {
		return Document{}, &AssemblyError{Err: ErrMissingCommonInfo}
	}
	a.now = a.clock()
	a.rec = rec
	a.rooms = rec.RoomIndex()

	builders := map[SectionID]func() []Row{
		SectionClient:       a.clientRows,
		SectionResidents:    a.residentRows,
		SectionPremises:     a.premisesRows,
		SectionConstruction: a.constructionRows,
		SectionDemolition:   a.demolitionRows,
		SectionEquipment:    a.equipmentRows,
	}

	doc := Document{
		Title:       a.title,
		FileBase:    FileBase(info.ClientSurname, a.now),
		GeneratedAt: a.now,
	}
	for _, ids := range Layout {
		var sections []Section
		for _, id := range ids {
			rows := builders[id]()
			if len(rows) == 0 {
				continue
			}
			sections = append(sections, Section{ID: id, Title: id.Title(), Rows: rows})
		}
		if len(sections) == 0 {
			continue
		}
		doc.Pages = append(doc.Pages, Page{Number: len(doc.Pages) + 1, Sections: sections})
	}
	return doc, nil
}

// FileBase returns the export file name without extension.
func FileBase(surname string, at time.Time) string {
	surname = strings.Join(strings.Fields(surname), "_")
	if surname == "" {
		surname = "client"
	}
	return fmt.Sprintf("brief_%s_%s", surname, at.Format(brief.DateLayout))
}

func value(label string, cells ...string) Row {
	return Row{Label: label, Cells: cells, Kind: RowValue}
}

func heading(label string) Row {
	return Row{Label: label, Kind: RowHeading}
}

func placeholder(label string) Row {
	return Row{Label: label, Kind: RowPlaceholder}
}

func number(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func area(v float64) string {
	return number(v) + " м²"
}

// displayDate renders YYYY-MM-DD as DD.MM.YYYY, leaving other input as is.
func displayDate(raw string) string {
	t, err := time.Parse(brief.DateLayout, raw)
	if err != nil {
		return raw
	}
	return t.Format("02.01.2006")
}

func (a *assembler) clientRows() []Row {
	info, _ := a.rec.CommonInfo()
	rows := []Row{
		value("Клиент", strings.TrimSpace(info.ClientName+" "+info.ClientSurname)),
		value("Email", info.Email),
	}
	if info.Phone != "" {
		rows = append(rows, value("Телефон", info.Phone))
	}
	rows = append(rows,
		value("Адрес", info.Address),
		value("Площадь объекта", area(info.Area)),
	)
	if info.ContractNumber != "" {
		rows = append(rows, value("Номер договора", info.ContractNumber))
	}
	if residents, ok := a.rec.Residents(); ok {
		rows = append(rows, value("Количество проживающих", fmt.Sprintf("%d чел.", residents.Total())))
	}
	start := a.now.Format("02.01.2006")
	if info.StartDate != "" {
		start = displayDate(info.StartDate)
	}
	rows = append(rows, value("Дата начала проекта", start))
	if info.FinalDate != "" {
		rows = append(rows, value("Дата завершения проекта", displayDate(info.FinalDate)))
	}
	return rows
}

func genderLabel(g brief.Gender) string {
	switch g {
	case brief.GenderMale:
		return "Мужской"
	case brief.GenderFemale:
		return "Женский"
	default:
		return ""
	}
}

func (a *assembler) residentRows() []Row {
	residents, ok := a.rec.Residents()
	if !ok {
		return nil
	}
	var rows []Row
	for i, adult := range residents.Adults {
		rows = append(rows, value(fmt.Sprintf("Взрослый %d", i+1), number(adult.Height), genderLabel(adult.Gender)))
	}
	for i, child := range residents.Children {
		rows = append(rows, value(fmt.Sprintf("Ребёнок %d", i+1), number(child.Age)))
	}
	if s := strings.TrimSpace(residents.Hobbies); s != "" {
		rows = append(rows, value("Хобби", s))
	}
	if s := strings.TrimSpace(residents.HealthIssues); s != "" {
		rows = append(rows, value("Особенности здоровья", s))
	}
	if residents.HasPets {
		rows = append(rows, value("Домашние животные", orYes(residents.PetDetails)))
	}
	return rows
}

func orYes(s string) string {
	if s = strings.TrimSpace(s); s != "" {
		return s
	}
	return "Да"
}

func (a *assembler) premisesRows() []Row {
	premises, ok := a.rec.Premises()
	if !ok {
		return nil
	}
	rooms := sortedRooms(premises)
	rows := make([]Row, 0, len(rooms))
	for _, room := range rooms {
		cells := []string{room.Type.Label()}
		if room.Area > 0 {
			cells = append(cells, area(room.Area))
		}
		rows = append(rows, value(roomLabel(room), cells...))
	}
	return rows
}

func roomLabel(room brief.Room) string {
	return fmt.Sprintf("%d. %s", room.Order, room.Name)
}

func sortedRooms(p brief.Premises) []brief.Room {
	rooms := append([]brief.Room(nil), p.Rooms...)
	sort.SliceStable(rooms, func(i, j int) bool { return rooms[i].Order < rooms[j].Order })
	return rooms
}

// resolveRooms maps ids onto current room names, dropping stale ids.
func (a *assembler) resolveRooms(ids []string) []string {
	names := make([]string, 0, len(ids))
	for _, id := range ids {
		if room, ok := a.rooms[id]; ok {
			names = append(names, room.Name)
		}
	}
	return names
}

func (a *assembler) constructionRows() []Row {
	construction, ok := a.rec.Construction()
	if !ok {
		return nil
	}
	var rows []Row
	for _, surface := range brief.Surfaces {
		var entries []Row
		for _, entry := range construction.Entries(surface) {
			names := a.resolveRooms(entry.Rooms)
			if len(names) == 0 {
				continue
			}
			material := ""
			if entry.Type == brief.OtherFinish {
				material = entry.Material
			}
			entries = append(entries, value(entry.Type, material, strconv.Itoa(len(names)), strings.Join(names, ", ")))
		}
		if len(entries) == 0 {
			continue
		}
		rows = append(rows, heading(surface.Title()))
		rows = append(rows, entries...)
	}
	return rows
}

func (a *assembler) demolitionRows() []Row {
	d, ok := a.rec.Demolition()
	if !ok {
		return nil
	}
	flags := []struct {
		on    bool
		label string
		info  string
	}{
		{d.PlanChange, "Демонтаж перегородок", d.PlanChangeInfo},
		{d.EntranceDoorChange, "Замена входной двери", d.EntranceDoorType},
		{d.WindowsChange, "Замена окон", d.WindowsType},
		{d.FurnitureDemolition, "Демонтаж встроенной мебели", d.FurnitureToDemolish},
	}
	var rows []Row
	for _, flag := range flags {
		if flag.on {
			rows = append(rows, value(flag.label, orYes(flag.info)))
		}
	}
	return rows
}

// NoEquipment is the placeholder shown for rooms without items.
const NoEquipment = "Оборудование не выбрано"

func (a *assembler) equipmentRows() []Row {
	equipment, ok := a.rec.Equipment()
	if !ok || !equipment.HasItems() {
		return nil
	}
	premises, ok := a.rec.Premises()
	if !ok {
		return nil
	}
	byRoom := map[string][]brief.EquipmentItem{}
	for _, room := range equipment.Rooms {
		byRoom[room.RoomID] = append(byRoom[room.RoomID], room.Items...)
	}
	rooms := sortedRooms(premises)
	// items under deleted rooms do not count towards inclusion
	live := false
	for _, room := range rooms {
		if len(byRoom[room.ID]) > 0 {
			live = true
			break
		}
	}
	if !live {
		return nil
	}
	var rows []Row
	for _, room := range rooms {
		rows = append(rows, heading(roomLabel(room)))
		items := byRoom[room.ID]
		if len(items) == 0 {
			rows = append(rows, placeholder(NoEquipment))
			continue
		}
		for _, item := range items {
			rows = append(rows, value(item.Name,
				fmt.Sprintf("%d шт.", item.Count()),
				item.Manufacturer,
				item.URL,
				item.Description,
			))
		}
	}
	return rows
}

// internal/suggest/index.go
//
// Equipment suggestions per room. A room is classified into a template group
// from its type and name; results are cached per (name, type) until Clear.

package suggest

import (
	"sort"
	"strings"
	"sync"

	"github.com/kingrea/brief/internal/brief"
)

// Group names a suggestion template list.
type Group string

const (
	GroupKitchen  Group = "kitchen"
	GroupBathroom Group = "bathroom"
	GroupLiving   Group = "living"
	GroupBedroom  Group = "bedroom"
	GroupDefault  Group = "default"
)

// Groups lists every template group.
var Groups = []Group{GroupKitchen, GroupBathroom, GroupLiving, GroupBedroom, GroupDefault}

// Template is one suggested piece of equipment.
type Template struct {
	Name     string `yaml:"name" json:"name"`
	Category string `yaml:"category,omitempty" json:"category,omitempty"`
}

var keywords = map[Group][]string{
	GroupKitchen:  {"кухн", "kitchen"},
	GroupBathroom: {"ванн", "санузел", "с/у", "туалет", "душ", "bathroom", "wc"},
	GroupLiving:   {"гостин", "зал", "living"},
	GroupBedroom:  {"спальн", "bedroom"},
}

// untypedOrder is the keyword check order for rooms without a type.
var untypedOrder = []Group{GroupKitchen, GroupBathroom, GroupLiving, GroupBedroom}

func list(category string, names ...string) []Template {
	out := make([]Template, 0, len(names))
	for _, name := range names {
		out = append(out, Template{Name: name, Category: category})
	}
	return out
}

// DefaultTemplates returns the built-in template table.
func DefaultTemplates() map[Group][]Template {
	return map[Group][]Template{
		GroupKitchen: list("Кухня",
			"Холодильник", "Духовой шкаф", "Варочная панель", "Посудомоечная машина",
			"Вытяжка", "Винный шкаф", "Морозильник", "Микроволновая печь", "Измельчитель отходов"),
		GroupBathroom: append(list("Сантехника",
			"Унитаз", "Биде", "Гигиенический душ", "Душ", "Ванна", "Умывальник", "Полотенцесушитель"),
			Template{Name: "Стиральная машина", Category: "Техника"}),
		GroupLiving: append(list("Техника", "Телевизор", "Аудиосистема"),
			append(list("Мебель", "Диван", "Кресло", "Журнальный стол"),
				Template{Name: "Кондиционер", Category: "Климат"})...),
		GroupBedroom: append(list("Мебель", "Кровать", "Шкаф", "Комод", "Тумба"),
			Template{Name: "Кондиционер", Category: "Климат"},
			Template{Name: "Телевизор", Category: "Техника"}),
		GroupDefault: append(list("Мебель", "Шкаф", "Стеллаж"),
			Template{Name: "Светильник", Category: "Освещение"}),
	}
}

// Classify picks the template group for a room. The room type decides first;
// the name refines it. Blank names always fall back to the default group.
func Classify(name string, kind brief.RoomType) Group {
	normalized := normalizeName(name)
	if normalized == "" {
		return GroupDefault
	}
	switch kind {
	case brief.RoomTypeWet:
		if matches(normalized, GroupKitchen) {
			return GroupKitchen
		}
		return GroupBathroom
	case brief.RoomTypeLiving:
		if matches(normalized, GroupBedroom) {
			return GroupBedroom
		}
		return GroupLiving
	case brief.RoomTypeUtility, brief.RoomTypeTechnical:
		return GroupDefault
	}
	for _, group := range untypedOrder {
		if matches(normalized, group) {
			return group
		}
	}
	return GroupDefault
}

func matches(name string, group Group) bool {
	for _, keyword := range keywords[group] {
		if strings.Contains(name, keyword) {
			return true
		}
	}
	return false
}

func normalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Option customises an Index.
type Option func(*Index)

// WithTemplates replaces the template lists of the given groups. Groups not
// present in templates keep their built-in lists.
func WithTemplates(templates map[Group][]Template) Option {
	return func(i *Index) {
		for group, items := range templates {
			if len(items) == 0 {
				continue
			}
			i.templates[group] = append([]Template(nil), items...)
		}
	}
}

type cacheKey struct {
	name string
	kind brief.RoomType
}

// Index answers suggestion lookups. It is safe for concurrent use.
type Index struct {
	mu        sync.RWMutex
	templates map[Group][]Template
	cache     map[cacheKey][]Template
}

// New returns an index over the built-in templates.
func New(opts ...Option) *Index {
	idx := &Index{
		templates: DefaultTemplates(),
		cache:     map[cacheKey][]Template{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(idx)
		}
	}
	return idx
}

// Suggest returns the templates for a room. The returned slice is a copy.
func (i *Index) Suggest(name string, kind brief.RoomType) []Template {
	key := cacheKey{name: normalizeName(name), kind: kind}
	i.mu.RLock()
	cached, ok := i.cache[key]
	i.mu.RUnlock()
	if !ok {
		cached = i.templates[Classify(name, kind)]
		i.mu.Lock()
		i.cache[key] = cached
		i.mu.Unlock()
	}
	return append([]Template(nil), cached...)
}

// Available returns the suggestions for a room minus names already selected.
func (i *Index) Available(name string, kind brief.RoomType, selected []string) []Template {
	taken := make(map[string]struct{}, len(selected))
	for _, s := range selected {
		taken[strings.TrimSpace(s)] = struct{}{}
	}
	all := i.Suggest(name, kind)
	out := all[:0]
	for _, tpl := range all {
		if _, ok := taken[tpl.Name]; ok {
			continue
		}
		out = append(out, tpl)
	}
	return out
}

// Clear drops every cached lookup.
func (i *Index) Clear() {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.cache = map[cacheKey][]Template{}
}

// Cached returns the number of cached lookups.
func (i *Index) Cached() int {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return len(i.cache)
}

// ParseGroup maps a config key onto a group.
func ParseGroup(raw string) (Group, bool) {
	group := Group(strings.ToLower(strings.TrimSpace(raw)))
	for _, candidate := range Groups {
		if candidate == group {
			return group, true
		}
	}
	return "", false
}

// GroupNames returns the sorted group identifiers.
func GroupNames() []string {
	names := make([]string, 0, len(Groups))
	for _, g := range Groups {
		names = append(names, string(g))
	}
	sort.Strings(names)
	return names
}

// Package colors assigns each course a stable set of colours.
//
// Inside a course list the colour is a function of the course's position,
// so the first len(Palette) courses never collide and later ones repeat the
// palette in order. The hash of the id is only used for a lone lookup with
// no list to position it in.
package colors

import (
	"unicode/utf16"

	"github.com/charmbracelet/lipgloss"
	"github.com/tgienger/syllacal/internal/models"
)

// Gradient is a two-stop colour ramp
type Gradient struct {
	From lipgloss.Color
	To   lipgloss.Color
}

// Token holds every colour facet used to draw one course
type Token struct {
	Fill     lipgloss.Color // solid badge fill
	Text     lipgloss.Color // foreground matching the fill
	Light    lipgloss.Color // light background for day cards
	Border   lipgloss.Color // outline for dashed Class entries
	Gradient Gradient
}

// Palette is the fixed set of course colours, in assignment order.
var Palette = []Token{
	{Fill: "#5B8DEF", Text: "#5B8DEF", Light: "#E0EAFF", Border: "#5B8DEF", Gradient: Gradient{"#E0EAFF", "#F5F7FF"}},
	{Fill: "#A78BFA", Text: "#A78BFA", Light: "#F3E8FF", Border: "#A78BFA", Gradient: Gradient{"#F5E9FF", "#FDF2F8"}},
	{Fill: "#FB7185", Text: "#FB7185", Light: "#FEE2E2", Border: "#FB7185", Gradient: Gradient{"#FEE2E2", "#FFF1F2"}},
	{Fill: "#4ADE80", Text: "#4ADE80", Light: "#DCFCE7", Border: "#4ADE80", Gradient: Gradient{"#ECFDF5", "#DCFCE7"}},
	{Fill: "#FB923C", Text: "#FB923C", Light: "#FFEDD5", Border: "#FB923C", Gradient: Gradient{"#FFF7ED", "#FEF3C7"}},
	{Fill: "#38BDF8", Text: "#38BDF8", Light: "#E0F2FE", Border: "#38BDF8", Gradient: Gradient{"#E6FFFB", "#ECFEFF"}},
}

// Default is the slate token used for ids with no assigned colour.
var Default = Token{
	Fill:     "#94A3B8",
	Text:     "#475569",
	Light:    "#F1F5F9",
	Border:   "#CBD5E1",
	Gradient: Gradient{"#F8FAFC", "#F1F5F9"},
}

// Map is the per-render course id to colour mapping
type Map map[string]Token

// Lookup returns the token for id, or Default when id is unknown
func (m Map) Lookup(id string) Token {
	if t, ok := m[id]; ok {
		return t
	}
	return Default
}

// Assign maps courses[i].ID to Palette[i % len(Palette)].
func Assign(courses []models.Course) Map {
	m := make(Map, len(courses))
	for i, c := range courses {
		if _, seen := m[c.ID]; seen {
			continue
		}
		m[c.ID] = Palette[i%len(Palette)]
	}
	return m
}

// ForID picks a palette slot from a hash of id. Use only when there is no
// ordered course list to assign from.
func ForID(id string) Token {
	return Palette[Slot(id)]
}

// Slot returns the palette index ForID would use
func Slot(id string) int {
	return int(hashString(id) % int64(len(Palette)))
}

// hashString is h = h*31 + unit over UTF-16 code units with 32-bit wraparound,
// made non-negative. The web client uses the same function, so both agree.
func hashString(s string) int64 {
	var h int32
	for _, unit := range utf16.Encode([]rune(s)) {
		h = (h << 5) - h + int32(unit)
	}
	v := int64(h)
	if v < 0 {
		v = -v
	}
	return v
}

package tui

import (
	"strings"
	"sync/atomic"
)

// glyphTable holds every symbol the tree view draws.
type glyphTable struct {
	name      string
	collapsed string
	expanded  string
	section   string
	lifted    string
	dropHere  string
	ellipsis  string
}

var (
	unicodeGlyphs = glyphTable{
		name:      "unicode",
		collapsed: "▸",
		expanded:  "▾",
		section:   "§",
		lifted:    "⇕",
		dropHere:  "──▶",
		ellipsis:  "…",
	}
	// Terminals whose fonts lack box drawing or the section sign.
	asciiGlyphs = glyphTable{
		name:      "ascii",
		collapsed: ">",
		expanded:  "v",
		section:   "S",
		lifted:    "*",
		dropHere:  "-->",
		ellipsis:  "...",
	}
)

var activeGlyphs atomic.Pointer[glyphTable]

func init() {
	activeGlyphs.Store(&unicodeGlyphs)
}

// applyGlyphPreference takes the tui.glyphs config value. Unknown values keep the current table.
func applyGlyphPreference(v string) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "", "unicode", "utf8":
		activeGlyphs.Store(&unicodeGlyphs)
	case "ascii":
		activeGlyphs.Store(&asciiGlyphs)
	}
}

func glyphs() *glyphTable { return activeGlyphs.Load() }

func asciiMode() bool { return glyphs().name == asciiGlyphs.name }

func glyphCollapsed() string { return glyphs().collapsed }
func glyphExpanded() string  { return glyphs().expanded }
func glyphSection() string   { return glyphs().section }
func glyphLifted() string    { return glyphs().lifted }
func glyphDropHere() string  { return glyphs().dropHere }
func glyphEllipsis() string  { return glyphs().ellipsis }

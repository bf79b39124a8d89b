// SPDX-License-Identifier: GPL-2.0-or-later

package bsp

import (
	"maps"
	"regexp"
	"slices"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/unicode"
)

// The entity lump looks like:
//
//	{
//	"classname" "worldspawn"
//	"skyname" "sky_day01_01"
//	}
//	{
//	"origin" "0 0 0"
//	"classname" "light"
//	}
//
// A block ends at the first closing brace and only lines of the exact form
// "key" "value" are kept.
var (
	entityBlock = regexp.MustCompile(`(?s)\{.+?\}`)
	entityPair  = regexp.MustCompile(`"(.+?)" "(.+?)"\n`)
)

type Entity struct {
	properties map[string]string
}

// NewEntity parses the key value lines of one brace delimited block. A key
// given twice keeps its last value.
func NewEntity(block string) *Entity {
	e := &Entity{properties: make(map[string]string)}
	for _, m := range entityPair.FindAllStringSubmatch(block, -1) {
		e.properties[m[1]] = m[2]
	}
	return e
}

func (e *Entity) Property(name string) (string, bool) {
	v, ok := e.properties[name]
	return v, ok
}

func (e *Entity) Name() (string, bool) {
	v, ok := e.properties["classname"]
	return v, ok
}

// PropertyNames returns the keys in sorted order.
func (e *Entity) PropertyNames() []string {
	return slices.Sorted(maps.Keys(e.properties))
}

// Properties returns a copy of all key value pairs.
func (e *Entity) Properties() map[string]string {
	return maps.Clone(e.properties)
}

func (e *Entity) Len() int {
	return len(e.properties)
}

// ParseEntities extracts one Entity per block in order of appearance.
// Invalid UTF-8 is replaced with U+FFFD; replaced reports whether that
// happened.
func ParseEntities(data []byte) (es []*Entity, replaced bool) {
	text := string(data)
	if !utf8.Valid(data) {
		replaced = true
		b, err := unicode.UTF8.NewDecoder().Bytes(data)
		if err != nil {
			text = strings.ToValidUTF8(text, string(utf8.RuneError))
		} else {
			text = string(b)
		}
	}
	es = []*Entity{}
	for _, block := range entityBlock.FindAllString(text, -1) {
		es = append(es, NewEntity(block))
	}
	return es, replaced
}

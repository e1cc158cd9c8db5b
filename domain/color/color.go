// Package color provides the named color record and its validation rules.
package color

import "time"

// MaxNameLength is the exclusive upper bound on a color name, in runes.
const MaxNameLength = 100

// Row is a raw source tuple before validation.
type Row struct {
	Name   string
	Hex    string
	Marker string
}

// Color is a validated named color.
// Values are only produced by Validate or reconstructed from persistence.
type Color struct {
	id        int64
	name      string
	hex       string
	curated   bool
	createdAt time.Time
}

// ReconstructColor rebuilds a Color from persisted fields.
func ReconstructColor(id int64, name, hex string, curated bool, createdAt time.Time) Color {
	return Color{
		id:        id,
		name:      name,
		hex:       hex,
		curated:   curated,
		createdAt: createdAt,
	}
}

// ID returns the store identifier, zero until persisted.
func (c Color) ID() int64 { return c.id }

// Name returns the color name.
func (c Color) Name() string { return c.name }

// Hex returns the six lowercase hex digits without a leading '#'.
func (c Color) Hex() string { return c.hex }

// Curated reports whether the name has been human reviewed.
func (c Color) Curated() bool { return c.curated }

// CreatedAt returns when the record was first stored.
func (c Color) CreatedAt() time.Time { return c.createdAt }

// HexWithMarker returns the hex value prefixed with '#'.
func (c Color) HexWithMarker() string { return "#" + c.hex }

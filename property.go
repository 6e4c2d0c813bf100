package xcf

import (
	"fmt"
	"image/color"
	"math"
)

// PropertyType is a property record id. The set is closed: ids at or above
// numProperties are rejected.
type PropertyType uint32

// Property ids.
const (
	PropEnd PropertyType = iota
	PropColormap
	PropActiveLayer
	PropActiveChannel
	PropSelection
	PropFloatingSelection
	PropOpacity
	PropMode
	PropVisible
	PropLinked
	PropLockAlpha
	PropApplyMask
	PropEditMask
	PropShowMask
	PropShowMasked
	PropOffsets
	PropColor
	PropCompression
	PropGuides
	PropResolution
	PropTattoo
	PropParasites
	PropUnit
	PropPaths
	PropUserUnit
	PropVectors
	PropTextLayerFlags
	PropOldSamplePoints
	PropLockContent
	PropGroupItem
	PropItemPath
	PropGroupItemFlags
	PropLockPosition
	PropFloatOpacity
	PropColorTag
	PropCompositeMode
	PropCompositeSpace
	PropBlendSpace
	PropFloatColor
	PropSamplePoints

	numProperties
)

var propertyNames = [numProperties]string{
	"end", "colormap", "active-layer", "active-channel", "selection",
	"floating-selection", "opacity", "mode", "visible", "linked",
	"lock-alpha", "apply-mask", "edit-mask", "show-mask", "show-masked",
	"offsets", "color", "compression", "guides", "resolution",
	"tattoo", "parasites", "unit", "paths", "user-unit",
	"vectors", "text-layer-flags", "old-sample-points", "lock-content", "group-item",
	"item-path", "group-item-flags", "lock-position", "float-opacity", "color-tag",
	"composite-mode", "composite-space", "blend-space", "float-color", "sample-points",
}

func (t PropertyType) String() string {
	if t < numProperties {
		return propertyNames[t]
	}
	return fmt.Sprintf("property(%d)", uint32(t))
}

// ColorTag is the color label of a layer or channel in the layers dialog.
type ColorTag uint32

// Color tags.
const (
	TagNone ColorTag = iota
	TagBlue
	TagGreen
	TagYellow
	TagOrange
	TagBrown
	TagRed
	TagViolet
	TagGray
)

// Unit ids of PROP_UNIT.
const (
	UnitInches      = 0
	UnitMillimeters = 1
	UnitPoints      = 2
	UnitPicas       = 3
)

// Guide orientations.
const (
	GuideHorizontal = 1
	GuideVertical   = 2
)

// Guide is a ruler guide of a document.
type Guide struct {
	Position    int32
	Orientation uint8
}

// Resolution is the document resolution in pixels per inch.
type Resolution struct {
	X, Y float32
}

// UserUnit is a custom measurement unit stored with a document.
type UserUnit struct {
	Factor   float32
	Digits   uint32
	ID       string
	Symbol   string
	Abbrev   string
	Singular string
	Plural   string
}

// SamplePoint is a color sample point of a document.
type SamplePoint struct {
	X, Y     int32
	PickMode int32
}

// Properties holds the decoded property table of a document, layer or channel.
type Properties struct {
	ColorMap          []color.RGBA
	ActiveLayer       bool
	ActiveChannel     bool
	Selection         bool
	FloatingSelection uint64
	Opacity           float64
	Mode              BlendMode
	Visible           bool
	Linked            bool
	LockAlpha         bool
	ApplyMask         bool
	EditMask          bool
	ShowMask          bool
	ShowMasked        bool
	XOffset           int32
	YOffset           int32
	Color             *[3]uint8
	Compression       Compression
	Guides            []Guide
	Resolution        *Resolution
	Tattoo            uint32
	Parasites         []Parasite
	Unit              uint32
	LegacyPaths       []byte
	UserUnit          *UserUnit
	Vectors           *Vectors
	TextLayerFlags    uint32
	LockContent       bool
	IsGroup           bool
	ItemPath          []uint32
	GroupItemFlags    uint32
	LockPosition      bool
	ColorTag          ColorTag
	CompositeMode     int32
	CompositeSpace    int32
	BlendSpace        int32
	FloatColor        *[3]float32
	SamplePoints      []SamplePoint
}

func defaultProperties() Properties {
	return Properties{Opacity: 1}
}

// Selected reports whether the item is the active layer or channel.
func (p *Properties) Selected() bool { return p.ActiveLayer || p.ActiveChannel }

// Expanded reports whether a group is expanded in the layers dialog.
func (p *Properties) Expanded() bool { return p.GroupItemFlags&1 != 0 }

// Parasite returns the first parasite with the given name.
func (p *Properties) Parasite(name string) (Parasite, bool) {
	for _, par := range p.Parasites {
		if par.Name == name {
			return par, true
		}
	}
	return Parasite{}, false
}

// decodeProperties reads records until PROP_END. Each record is decoded from
// exactly its declared length.
func decodeProperties(r *reader, p *Properties) error {
	for {
		id, err := r.u32()
		if err != nil {
			return err
		}
		length, err := r.u32()
		if err != nil {
			return err
		}
		t := PropertyType(id)
		if t == PropEnd {
			return nil
		}
		if t >= numProperties {
			return fmt.Errorf("%w: id %d", ErrUnknownProperty, id)
		}
		if t == PropColormap {
			// some writers store a wrong length; the color count is authoritative
			if err := p.decodeColormap(r); err != nil {
				return fmt.Errorf("property %s: %w", t, err)
			}
			continue
		}
		payload, err := r.take(int(length))
		if err != nil {
			return fmt.Errorf("property %s: %w", t, err)
		}
		if err := p.decodeProperty(t, newReader(payload, r.bits)); err != nil {
			return fmt.Errorf("property %s: %w", t, err)
		}
	}
}

func (p *Properties) decodeColormap(r *reader) error {
	n, err := r.u32()
	if err != nil {
		return err
	}
	raw, err := r.take(int(n) * 3)
	if err != nil {
		return err
	}
	p.ColorMap = make([]color.RGBA, n)
	for i := range p.ColorMap {
		p.ColorMap[i] = color.RGBA{R: raw[i*3], G: raw[i*3+1], B: raw[i*3+2], A: 0xff}
	}
	return nil
}

func (p *Properties) decodeProperty(t PropertyType, r *reader) error {
	var err error
	switch t {
	case PropColormap:
		return p.decodeColormap(r)
	case PropActiveLayer:
		p.ActiveLayer = true
	case PropActiveChannel:
		p.ActiveChannel = true
	case PropSelection:
		p.Selection = true
	case PropFloatingSelection:
		if r.remaining() >= 8 {
			p.FloatingSelection, err = r.u64()
		} else {
			var v uint32
			v, err = r.u32()
			p.FloatingSelection = uint64(v)
		}
	case PropOpacity:
		var v uint32
		v, err = r.u32()
		p.Opacity = math.Min(float64(v), 255) / 255
	case PropMode:
		var v uint32
		v, err = r.u32()
		p.Mode = BlendMode(v)
	case PropVisible:
		p.Visible, err = r.boolean()
	case PropLinked:
		p.Linked, err = r.boolean()
	case PropLockAlpha:
		p.LockAlpha, err = r.boolean()
	case PropApplyMask:
		p.ApplyMask, err = r.boolean()
	case PropEditMask:
		p.EditMask, err = r.boolean()
	case PropShowMask:
		p.ShowMask, err = r.boolean()
	case PropShowMasked:
		p.ShowMasked, err = r.boolean()
	case PropOffsets:
		if p.XOffset, err = r.i32(); err != nil {
			return err
		}
		p.YOffset, err = r.i32()
	case PropColor:
		var b []byte
		if b, err = r.take(3); err == nil {
			p.Color = &[3]uint8{b[0], b[1], b[2]}
		}
	case PropCompression:
		var v uint8
		v, err = r.u8()
		p.Compression = Compression(v)
	case PropGuides:
		p.Guides = nil
		for r.remaining() > 0 {
			var g Guide
			if g.Position, err = r.i32(); err != nil {
				return err
			}
			if g.Orientation, err = r.u8(); err != nil {
				return err
			}
			p.Guides = append(p.Guides, g)
		}
	case PropResolution:
		res := &Resolution{}
		if res.X, err = r.f32(); err != nil {
			return err
		}
		if res.Y, err = r.f32(); err != nil {
			return err
		}
		p.Resolution = res
	case PropTattoo:
		p.Tattoo, err = r.u32()
	case PropParasites:
		p.Parasites, err = decodeParasites(r)
	case PropUnit:
		p.Unit, err = r.u32()
	case PropPaths:
		p.LegacyPaths = append([]byte(nil), r.data[r.pos:]...)
	case PropUserUnit:
		p.UserUnit, err = decodeUserUnit(r)
	case PropVectors:
		p.Vectors, err = decodeVectors(r)
	case PropTextLayerFlags:
		p.TextLayerFlags, err = r.u32()
	case PropOldSamplePoints:
		p.SamplePoints = nil
		for r.remaining() > 0 {
			var sp SamplePoint
			if sp.X, err = r.i32(); err != nil {
				return err
			}
			if sp.Y, err = r.i32(); err != nil {
				return err
			}
			p.SamplePoints = append(p.SamplePoints, sp)
		}
	case PropLockContent:
		p.LockContent, err = r.boolean()
	case PropGroupItem:
		p.IsGroup = true
	case PropItemPath:
		p.ItemPath = []uint32{}
		for r.remaining() > 0 {
			var v uint32
			if v, err = r.u32(); err != nil {
				return err
			}
			p.ItemPath = append(p.ItemPath, v)
		}
	case PropGroupItemFlags:
		p.GroupItemFlags, err = r.u32()
	case PropLockPosition:
		p.LockPosition, err = r.boolean()
	case PropFloatOpacity:
		var v float32
		v, err = r.f32()
		p.Opacity = clamp01(float64(v))
	case PropColorTag:
		var v uint32
		v, err = r.u32()
		p.ColorTag = ColorTag(v)
	case PropCompositeMode:
		p.CompositeMode, err = r.i32()
	case PropCompositeSpace:
		p.CompositeSpace, err = r.i32()
	case PropBlendSpace:
		p.BlendSpace, err = r.i32()
	case PropFloatColor:
		var c [3]float32
		for i := range c {
			if c[i], err = r.f32(); err != nil {
				return err
			}
		}
		p.FloatColor = &c
	case PropSamplePoints:
		p.SamplePoints = nil
		for r.remaining() > 0 {
			var sp SamplePoint
			if sp.X, err = r.i32(); err != nil {
				return err
			}
			if sp.Y, err = r.i32(); err != nil {
				return err
			}
			if sp.PickMode, err = r.i32(); err != nil {
				return err
			}
			p.SamplePoints = append(p.SamplePoints, sp)
		}
	default:
		return fmt.Errorf("%w: id %d", ErrUnknownProperty, uint32(t))
	}
	return err
}

func decodeUserUnit(r *reader) (*UserUnit, error) {
	u := &UserUnit{}
	var err error
	if u.Factor, err = r.f32(); err != nil {
		return nil, err
	}
	if u.Digits, err = r.u32(); err != nil {
		return nil, err
	}
	for _, s := range []*string{&u.ID, &u.Symbol, &u.Abbrev, &u.Singular, &u.Plural} {
		if *s, err = r.str(); err != nil {
			return nil, err
		}
	}
	return u, nil
}

// encodeProperties writes every present property in id order followed by PROP_END.
func encodeProperties(w *writer, p *Properties) {
	for t := PropColormap; t < numProperties; t++ {
		body := newWriter(w.bits)
		if p.encodeProperty(t, body) {
			w.record(uint32(t), body.Bytes())
		}
	}
	w.record(uint32(PropEnd), nil)
}

// encodeProperty writes the payload of t and reports whether t is present.
func (p *Properties) encodeProperty(t PropertyType, w *writer) bool {
	switch t {
	case PropColormap:
		if len(p.ColorMap) == 0 {
			return false
		}
		w.u32(u32FromInt(len(p.ColorMap)))
		for _, c := range p.ColorMap {
			w.raw([]byte{c.R, c.G, c.B})
		}
	case PropActiveLayer:
		return p.ActiveLayer
	case PropActiveChannel:
		return p.ActiveChannel
	case PropSelection:
		return p.Selection
	case PropFloatingSelection:
		if p.FloatingSelection == 0 {
			return false
		}
		w.pointer(p.FloatingSelection)
	case PropOpacity:
		if p.Opacity == 1 {
			return false
		}
		w.u32(uint32(math.Round(clamp01(p.Opacity) * 255)))
	case PropMode:
		if p.Mode == 0 {
			return false
		}
		w.u32(uint32(p.Mode))
	case PropVisible:
		return encodeFlag(w, p.Visible)
	case PropLinked:
		return encodeFlag(w, p.Linked)
	case PropLockAlpha:
		return encodeFlag(w, p.LockAlpha)
	case PropApplyMask:
		return encodeFlag(w, p.ApplyMask)
	case PropEditMask:
		return encodeFlag(w, p.EditMask)
	case PropShowMask:
		return encodeFlag(w, p.ShowMask)
	case PropShowMasked:
		return encodeFlag(w, p.ShowMasked)
	case PropOffsets:
		if p.XOffset == 0 && p.YOffset == 0 {
			return false
		}
		w.i32(p.XOffset)
		w.i32(p.YOffset)
	case PropColor:
		if p.Color == nil {
			return false
		}
		w.raw(p.Color[:])
	case PropCompression:
		if p.Compression == CompressionNone {
			return false
		}
		w.u8(uint8(p.Compression))
	case PropGuides:
		if len(p.Guides) == 0 {
			return false
		}
		for _, g := range p.Guides {
			w.i32(g.Position)
			w.u8(g.Orientation)
		}
	case PropResolution:
		if p.Resolution == nil {
			return false
		}
		w.f32(p.Resolution.X)
		w.f32(p.Resolution.Y)
	case PropTattoo:
		if p.Tattoo == 0 {
			return false
		}
		w.u32(p.Tattoo)
	case PropParasites:
		if len(p.Parasites) == 0 {
			return false
		}
		for _, par := range p.Parasites {
			encodeParasite(w, par)
		}
	case PropUnit:
		if p.Unit == 0 {
			return false
		}
		w.u32(p.Unit)
	case PropPaths:
		if len(p.LegacyPaths) == 0 {
			return false
		}
		w.raw(p.LegacyPaths)
	case PropUserUnit:
		if p.UserUnit == nil {
			return false
		}
		u := p.UserUnit
		w.f32(u.Factor)
		w.u32(u.Digits)
		for _, s := range []string{u.ID, u.Symbol, u.Abbrev, u.Singular, u.Plural} {
			w.str(s)
		}
	case PropVectors:
		if p.Vectors == nil {
			return false
		}
		encodeVectors(w, p.Vectors)
	case PropTextLayerFlags:
		if p.TextLayerFlags == 0 {
			return false
		}
		w.u32(p.TextLayerFlags)
	case PropOldSamplePoints:
		// superseded by PropSamplePoints on encode
		return false
	case PropLockContent:
		return encodeFlag(w, p.LockContent)
	case PropGroupItem:
		return p.IsGroup
	case PropItemPath:
		if p.ItemPath == nil {
			return false
		}
		for _, v := range p.ItemPath {
			w.u32(v)
		}
	case PropGroupItemFlags:
		if p.GroupItemFlags == 0 {
			return false
		}
		w.u32(p.GroupItemFlags)
	case PropLockPosition:
		return encodeFlag(w, p.LockPosition)
	case PropFloatOpacity:
		if p.Opacity == 1 {
			return false
		}
		w.f32(float32(clamp01(p.Opacity)))
	case PropColorTag:
		if p.ColorTag == TagNone {
			return false
		}
		w.u32(uint32(p.ColorTag))
	case PropCompositeMode:
		if p.CompositeMode == 0 {
			return false
		}
		w.i32(p.CompositeMode)
	case PropCompositeSpace:
		if p.CompositeSpace == 0 {
			return false
		}
		w.i32(p.CompositeSpace)
	case PropBlendSpace:
		if p.BlendSpace == 0 {
			return false
		}
		w.i32(p.BlendSpace)
	case PropFloatColor:
		if p.FloatColor == nil {
			return false
		}
		for _, c := range p.FloatColor {
			w.f32(c)
		}
	case PropSamplePoints:
		if len(p.SamplePoints) == 0 {
			return false
		}
		for _, sp := range p.SamplePoints {
			w.i32(sp.X)
			w.i32(sp.Y)
			w.i32(sp.PickMode)
		}
	default:
		return false
	}
	return true
}

func encodeFlag(w *writer, v bool) bool {
	if !v {
		return false
	}
	w.boolean(true)
	return true
}

func clamp01(v float64) float64 {
	switch {
	case math.IsNaN(v) || v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}

package xcf

import "fmt"

// Vectors is the decoded PROP_VECTORS payload of a document.
type Vectors struct {
	Version uint32
	Active  uint32
	Paths   []Path
}

// Path is a named vector path made of strokes.
type Path struct {
	Name      string
	Tattoo    uint32
	Visible   bool
	Linked    bool
	Parasites []Parasite
	Strokes   []Stroke
}

// Stroke is an ordered run of points. FloatsPerPoint counts the position and
// dynamics floats stored for each point (2 to 6).
type Stroke struct {
	Type           uint32
	Closed         bool
	FloatsPerPoint int
	Points         []Point
}

// Point is a stroke control point. Dynamics not stored in the file keep
// their neutral defaults.
type Point struct {
	Type     uint32
	X, Y     float32
	Pressure float32
	XTilt    float32
	YTilt    float32
	Wheel    float32
}

// Stroke and point type ids.
const (
	StrokeBezier = 1

	PointAnchor  = 0
	PointControl = 1
)

const maxFloatsPerPoint = 6

func decodeVectors(r *reader) (*Vectors, error) {
	v := &Vectors{}
	var err error
	if v.Version, err = r.u32(); err != nil {
		return nil, err
	}
	if v.Active, err = r.u32(); err != nil {
		return nil, err
	}
	n, err := r.u32()
	if err != nil {
		return nil, err
	}
	for i := uint32(0); i < n; i++ {
		p, err := decodePath(r)
		if err != nil {
			return nil, fmt.Errorf("path %d: %w", i, err)
		}
		v.Paths = append(v.Paths, p)
	}
	return v, nil
}

func decodePath(r *reader) (Path, error) {
	var p Path
	var err error
	if p.Name, err = r.str(); err != nil {
		return p, err
	}
	if p.Tattoo, err = r.u32(); err != nil {
		return p, err
	}
	if p.Visible, err = r.boolean(); err != nil {
		return p, err
	}
	if p.Linked, err = r.boolean(); err != nil {
		return p, err
	}
	numParasites, err := r.u32()
	if err != nil {
		return p, err
	}
	numStrokes, err := r.u32()
	if err != nil {
		return p, err
	}
	for i := uint32(0); i < numParasites; i++ {
		par, err := decodeParasite(r)
		if err != nil {
			return p, err
		}
		p.Parasites = append(p.Parasites, par)
	}
	for i := uint32(0); i < numStrokes; i++ {
		s, err := decodeStroke(r)
		if err != nil {
			return p, err
		}
		p.Strokes = append(p.Strokes, s)
	}
	return p, nil
}

func decodeStroke(r *reader) (Stroke, error) {
	var s Stroke
	var err error
	if s.Type, err = r.u32(); err != nil {
		return s, err
	}
	if s.Closed, err = r.boolean(); err != nil {
		return s, err
	}
	floats, err := r.u32()
	if err != nil {
		return s, err
	}
	if floats < 2 || floats > maxFloatsPerPoint {
		return s, corruptf("%d floats per stroke point", floats)
	}
	s.FloatsPerPoint = int(floats)
	n, err := r.u32()
	if err != nil {
		return s, err
	}
	// each point is at least a type and two floats
	if uint64(n)*12 > uint64(r.remaining()) {
		return s, fmt.Errorf("%w: %d stroke points", ErrTruncatedData, n)
	}
	s.Points = make([]Point, 0, n)
	for i := uint32(0); i < n; i++ {
		pt, err := decodePoint(r, s.FloatsPerPoint)
		if err != nil {
			return s, err
		}
		s.Points = append(s.Points, pt)
	}
	return s, nil
}

func decodePoint(r *reader, floats int) (Point, error) {
	pt := Point{Pressure: 1, XTilt: 0.5, YTilt: 0.5, Wheel: 0.5}
	var err error
	if pt.Type, err = r.u32(); err != nil {
		return pt, err
	}
	fields := []*float32{&pt.X, &pt.Y, &pt.Pressure, &pt.XTilt, &pt.YTilt, &pt.Wheel}
	for _, f := range fields[:floats] {
		if *f, err = r.f32(); err != nil {
			return pt, err
		}
	}
	return pt, nil
}

func encodeVectors(w *writer, v *Vectors) {
	w.u32(v.Version)
	w.u32(v.Active)
	w.u32(u32FromInt(len(v.Paths)))
	for _, p := range v.Paths {
		w.str(p.Name)
		w.u32(p.Tattoo)
		w.boolean(p.Visible)
		w.boolean(p.Linked)
		w.u32(u32FromInt(len(p.Parasites)))
		w.u32(u32FromInt(len(p.Strokes)))
		for _, par := range p.Parasites {
			encodeParasite(w, par)
		}
		for _, s := range p.Strokes {
			encodeStroke(w, s)
		}
	}
}

func encodeStroke(w *writer, s Stroke) {
	floats := s.FloatsPerPoint
	if floats < 2 || floats > maxFloatsPerPoint {
		floats = 2
	}
	w.u32(s.Type)
	w.boolean(s.Closed)
	w.u32(uint32(floats))
	w.u32(u32FromInt(len(s.Points)))
	for _, pt := range s.Points {
		w.u32(pt.Type)
		for _, f := range []float32{pt.X, pt.Y, pt.Pressure, pt.XTilt, pt.YTilt, pt.Wheel}[:floats] {
			w.f32(f)
		}
	}
}

package xcf

// Parasite is named opaque metadata attached to a document, layer or channel.
type Parasite struct {
	Name  string
	Flags uint32
	Data  []byte
}

// Well-known parasite names.
const (
	ParasiteComment    = "gimp-comment"
	ParasiteICCProfile = "icc-profile"
	ParasiteTextLayer  = "gimp-text-layer"
	ParasiteImageGrid  = "gimp-image-grid"
	ParasiteExifData   = "exif-data"
	ParasiteMetadata   = "gimp-metadata"
)

func decodeParasite(r *reader) (Parasite, error) {
	var p Parasite
	var err error
	if p.Name, err = r.str(); err != nil {
		return p, err
	}
	if p.Flags, err = r.u32(); err != nil {
		return p, err
	}
	n, err := r.u32()
	if err != nil {
		return p, err
	}
	data, err := r.take(int(n))
	if err != nil {
		return p, err
	}
	p.Data = append([]byte(nil), data...)
	return p, nil
}

func encodeParasite(w *writer, p Parasite) {
	w.str(p.Name)
	w.u32(p.Flags)
	w.u32(u32FromInt(len(p.Data)))
	w.raw(p.Data)
}

// decodeParasites reads parasites until r is exhausted.
func decodeParasites(r *reader) ([]Parasite, error) {
	var out []Parasite
	for r.remaining() > 0 {
		p, err := decodeParasite(r)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

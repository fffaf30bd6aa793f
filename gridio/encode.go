package gridio

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"math/bits"

	xxhash "github.com/cespare/xxhash/v2"
	"github.com/chewxy/math32"
	"github.com/klauspost/compress/zlib"
	"github.com/klauspost/compress/zstd"
	"github.com/soypat/levelset"
	"gonum.org/v1/gonum/spatial/r3"
)

const (
	magic      = "LSVG"
	version    = 1
	headerSize = 24
	maxName    = math.MaxUint16

	leafDense  = 0
	leafMasked = 1
)

// Encode writes grids as a container to w.
//
// Layout: magic, version byte, compression byte, two reserved bytes,
// uncompressed payload length and its xxhash (both uint64 little endian),
// followed by the possibly compressed payload.
func Encode(w io.Writer, grids []*levelset.Grid, comp Compression) error {
	if err := comp.validate(); err != nil {
		return err
	}
	payload := binary.LittleEndian.AppendUint32(nil, uint32(len(grids)))
	for i, g := range grids {
		if g == nil {
			return &levelset.ConfigurationError{Msg: fmt.Sprintf("nil grid at position %d", i)}
		}
		if len(g.Name()) > maxName {
			return &levelset.ConfigurationError{Msg: "grid name too long"}
		}
		payload = appendGrid(payload, g, comp&CompressActiveMask != 0)
	}

	var hdr [headerSize]byte
	copy(hdr[:], magic)
	hdr[4] = version
	hdr[5] = byte(comp)
	binary.LittleEndian.PutUint64(hdr[8:], uint64(len(payload)))
	binary.LittleEndian.PutUint64(hdr[16:], xxhash.Sum64(payload))
	if _, err := w.Write(hdr[:]); err != nil {
		return err
	}

	switch {
	case comp&CompressZip != 0:
		zw := zlib.NewWriter(w)
		if _, err := zw.Write(payload); err != nil {
			return err
		}
		return zw.Close()
	case comp&CompressZstd != 0:
		enc, err := zstd.NewWriter(nil)
		if err != nil {
			return err
		}
		defer enc.Close()
		_, err = w.Write(enc.EncodeAll(payload, nil))
		return err
	}
	_, err := w.Write(payload)
	return err
}

func appendGrid(b []byte, g *levelset.Grid, activeMask bool) []byte {
	le := binary.LittleEndian
	b = le.AppendUint16(b, uint16(len(g.Name())))
	b = append(b, g.Name()...)
	b = append(b, byte(g.Class()))
	if xf := g.Transform(); xf != nil {
		o := xf.Origin()
		b = append(b, 1)
		b = appendFloat64s(b, xf.VoxelSize(), o.X, o.Y, o.Z)
	} else {
		b = append(b, 0)
	}
	bg := g.Background()
	b = le.AppendUint32(b, math.Float32bits(bg))

	b = le.AppendUint32(b, uint32(g.TileCount()))
	for origin := range g.InsideTiles() {
		b = appendCoord(b, origin)
	}
	b = le.AppendUint32(b, uint32(g.LeafCount()))
	for l := range g.Leaves() {
		b = appendCoord(b, l.Origin())
		mask := l.Mask()
		for _, w := range mask {
			b = le.AppendUint64(b, w)
		}
		if !activeMask {
			b = appendLeafValues(b, l, false)
			continue
		}
		var signs [levelset.LeafVoxels / 64]uint64
		masked := true
		for i := 0; i < levelset.LeafVoxels && masked; i++ {
			if l.IsOn(i) {
				continue
			}
			v := l.Value(i)
			masked = math32.Abs(v) == bg
			if math32.Signbit(v) {
				signs[i>>6] |= 1 << (i & 63)
			}
		}
		if !masked {
			b = append(b, leafDense)
			b = appendLeafValues(b, l, false)
			continue
		}
		b = append(b, leafMasked)
		b = appendLeafValues(b, l, true)
		for _, w := range signs {
			b = le.AppendUint64(b, w)
		}
	}
	return b
}

func appendLeafValues(b []byte, l *levelset.Leaf, activeOnly bool) []byte {
	for i := 0; i < levelset.LeafVoxels; i++ {
		if !activeOnly || l.IsOn(i) {
			b = binary.LittleEndian.AppendUint32(b, math.Float32bits(l.Value(i)))
		}
	}
	return b
}

func appendCoord(b []byte, c levelset.Coord) []byte {
	for _, v := range c {
		b = binary.LittleEndian.AppendUint32(b, uint32(int32(v)))
	}
	return b
}

func appendFloat64s(b []byte, fs ...float64) []byte {
	for _, f := range fs {
		b = binary.LittleEndian.AppendUint64(b, math.Float64bits(f))
	}
	return b
}

// Decode reads every grid of a container from r.
func Decode(r io.Reader) ([]*levelset.Grid, error) {
	var hdr [headerSize]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return nil, fmt.Errorf("%w: short header: %v", ErrFormat, err)
	}
	if string(hdr[:4]) != magic {
		return nil, fmt.Errorf("%w: bad magic %q", ErrFormat, hdr[:4])
	}
	if hdr[4] != version {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrFormat, hdr[4])
	}
	comp := Compression(hdr[5])
	if err := comp.validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFormat, err)
	}
	rawLen := binary.LittleEndian.Uint64(hdr[8:])
	sum := binary.LittleEndian.Uint64(hdr[16:])

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	switch {
	case comp&CompressZip != 0:
		zr, err := zlib.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrFormat, err)
		}
		data, err = io.ReadAll(zr)
		zr.Close()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrFormat, err)
		}
	case comp&CompressZstd != 0:
		dec, err := zstd.NewReader(nil)
		if err != nil {
			return nil, err
		}
		data, err = dec.DecodeAll(data, nil)
		dec.Close()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrFormat, err)
		}
	}
	if uint64(len(data)) != rawLen {
		return nil, fmt.Errorf("%w: payload length %d, header says %d", ErrFormat, len(data), rawLen)
	}
	if xxhash.Sum64(data) != sum {
		return nil, fmt.Errorf("%w: checksum mismatch", ErrFormat)
	}

	d := decoder{b: data, activeMask: comp&CompressActiveMask != 0}
	n := d.uint32()
	var grids []*levelset.Grid
	for i := uint32(0); i < n && d.err == nil; i++ {
		g := d.grid()
		if d.err == nil {
			grids = append(grids, g)
		}
	}
	if d.err == nil && len(d.b) != 0 {
		d.fail("%d trailing bytes", len(d.b))
	}
	if d.err != nil {
		return nil, d.err
	}
	return grids, nil
}

// decoder consumes a payload. The first error sticks and zero values are
// returned from then on.
type decoder struct {
	b          []byte
	activeMask bool
	err        error
}

func (d *decoder) fail(format string, args ...any) {
	if d.err == nil {
		d.err = fmt.Errorf("%w: "+format, append([]any{ErrFormat}, args...)...)
	}
	d.b = nil
}

func (d *decoder) next(n int) []byte {
	if d.err != nil {
		return nil
	}
	if len(d.b) < n {
		d.fail("unexpected end of payload")
		return nil
	}
	p := d.b[:n]
	d.b = d.b[n:]
	return p
}

func (d *decoder) byte() byte {
	if p := d.next(1); p != nil {
		return p[0]
	}
	return 0
}

func (d *decoder) uint16() uint16 {
	if p := d.next(2); p != nil {
		return binary.LittleEndian.Uint16(p)
	}
	return 0
}

func (d *decoder) uint32() uint32 {
	if p := d.next(4); p != nil {
		return binary.LittleEndian.Uint32(p)
	}
	return 0
}

func (d *decoder) uint64() uint64 {
	if p := d.next(8); p != nil {
		return binary.LittleEndian.Uint64(p)
	}
	return 0
}

func (d *decoder) float32() float32 { return math.Float32frombits(d.uint32()) }
func (d *decoder) float64() float64 { return math.Float64frombits(d.uint64()) }

func (d *decoder) coord() levelset.Coord {
	var c levelset.Coord
	for i := range c {
		c[i] = int(int32(d.uint32()))
	}
	return c
}

func (d *decoder) grid() *levelset.Grid {
	name := string(d.next(int(d.uint16())))
	class := levelset.GridClass(d.byte())
	if class > levelset.ClassFogVolume {
		d.fail("unknown grid class %d", class)
	}
	var xf *levelset.Transform
	if d.byte() == 1 {
		voxel := d.float64()
		origin := r3.Vec{X: d.float64(), Y: d.float64(), Z: d.float64()}
		if d.err != nil {
			return nil
		}
		var err error
		xf, err = levelset.NewTransform(voxel, origin)
		if err != nil {
			d.fail("grid %q: %v", name, err)
		}
	}
	bg := d.float32()
	if d.err != nil {
		return nil
	}
	g := levelset.NewGrid(bg)
	g.SetName(name)
	g.SetClass(class)
	if err := g.SetTransform(xf); err != nil {
		d.fail("grid %q: %v", name, err)
		return nil
	}

	ntiles := d.uint32()
	for i := uint32(0); i < ntiles && d.err == nil; i++ {
		origin := d.coord()
		if origin != origin.LeafOrigin() {
			d.fail("misaligned tile %v", origin)
		}
		g.SetTileInside(origin)
	}
	nleaves := d.uint32()
	for i := uint32(0); i < nleaves && d.err == nil; i++ {
		d.leaf(g)
	}
	return g
}

func (d *decoder) leaf(g *levelset.Grid) {
	origin := d.coord()
	switch {
	case d.err != nil:
		return
	case origin != origin.LeafOrigin():
		d.fail("misaligned leaf %v", origin)
		return
	case g.Leaf(origin) != nil:
		d.fail("duplicate leaf %v", origin)
		return
	}
	var mask [levelset.LeafVoxels / 64]uint64
	active := 0
	for i := range mask {
		mask[i] = d.uint64()
		active += bits.OnesCount64(mask[i])
	}
	mode := byte(leafDense)
	if d.activeMask {
		mode = d.byte()
	}
	if d.err != nil {
		return
	}
	l := g.TouchLeaf(origin)
	on := func(i int) bool { return mask[i>>6]&(1<<(i&63)) != 0 }
	switch mode {
	case leafDense:
		for i := 0; i < levelset.LeafVoxels; i++ {
			if on(i) {
				l.SetValueOn(i, d.float32())
			} else {
				l.SetValueOff(i, d.float32())
			}
		}
	case leafMasked:
		values := d.next(4 * active)
		var signs [levelset.LeafVoxels / 64]uint64
		for i := range signs {
			signs[i] = d.uint64()
		}
		if d.err != nil {
			return
		}
		bg := g.Background()
		for i := 0; i < levelset.LeafVoxels; i++ {
			switch {
			case on(i):
				l.SetValueOn(i, math.Float32frombits(binary.LittleEndian.Uint32(values)))
				values = values[4:]
			case signs[i>>6]&(1<<(i&63)) != 0:
				l.SetValueOff(i, -bg)
			default:
				l.SetValueOff(i, bg)
			}
		}
	default:
		d.fail("leaf %v: unknown value mode %d", origin, mode)
	}
}

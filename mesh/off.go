package mesh

import (
	"bufio"
	"io"
	"strconv"
	"strings"

	"github.com/soypat/levelset"
	"gonum.org/v1/gonum/spatial/r3"
)

// ReadOFF reads an Object File Format stream. Faces with other than three
// vertices are rejected.
func ReadOFF(r io.Reader) (*Mesh, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	var tokens []string
	next := func() (string, bool) {
		for len(tokens) == 0 {
			if !sc.Scan() {
				return "", false
			}
			line := sc.Text()
			if i := strings.IndexByte(line, '#'); i >= 0 {
				line = line[:i]
			}
			tokens = strings.Fields(line)
		}
		tok := tokens[0]
		tokens = tokens[1:]
		return tok, true
	}
	nextInt := func(what string) (int, error) {
		tok, ok := next()
		if !ok {
			return 0, readErrorf("off: unexpected end of file reading %s", what)
		}
		n, err := strconv.Atoi(tok)
		if err != nil {
			return 0, readErrorf("off: %s: %w", what, err)
		}
		return n, nil
	}

	header, ok := next()
	if !ok || header != "OFF" {
		return nil, readErrorf("off: missing OFF header")
	}
	nv, err := nextInt("vertex count")
	if err != nil {
		return nil, err
	}
	nf, err := nextInt("face count")
	if err != nil {
		return nil, err
	}
	if _, err := nextInt("edge count"); err != nil {
		return nil, err
	}
	if nv < 0 || nf < 0 {
		return nil, readErrorf("off: negative element count")
	}
	m := &Mesh{
		Vertices:  make([]r3.Vec, 0, nv),
		Triangles: make([][3]int, 0, nf),
	}
	for i := 0; i < nv; i++ {
		var xyz [3]float64
		for k := range xyz {
			tok, ok := next()
			if !ok {
				return nil, readErrorf("off: unexpected end of file in vertex %d", i)
			}
			if xyz[k], err = strconv.ParseFloat(tok, 64); err != nil {
				return nil, readErrorf("off: vertex %d: %w", i, err)
			}
		}
		m.Vertices = append(m.Vertices, r3.Vec{X: xyz[0], Y: xyz[1], Z: xyz[2]})
	}
	for i := 0; i < nf; i++ {
		n, err := nextInt("face size")
		if err != nil {
			return nil, err
		}
		if n != 3 {
			return nil, &levelset.TopologyError{Face: i, Count: n}
		}
		var t [3]int
		for k := range t {
			if t[k], err = nextInt("face index"); err != nil {
				return nil, err
			}
			if t[k] < 0 || t[k] >= nv {
				return nil, &levelset.TopologyError{Face: i, Msg: "vertex " + strconv.Itoa(t[k]) + " not defined"}
			}
		}
		// Remaining tokens on the line are colour values.
		tokens = tokens[:0]
		m.Triangles = append(m.Triangles, t)
	}
	return m, nil
}

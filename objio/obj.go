package objio

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/tvmseq/tvmdecode/mesh"
	"gonum.org/v1/gonum/spatial/r3"
)

// ReadOBJ parses a subset of the Wavefront OBJ grammar from r: "v x y z"
// lines emit a vertex, "f i j k" lines emit a triangle (the first
// whitespace-separated token of each face vertex, so "i/vt/vn" suffixes
// are stripped), 1-based file indices become 0-based. All other lines
// are ignored.
func ReadOBJ(r io.Reader) (*mesh.Mesh, error) {
	m := mesh.NewMesh()
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	line := 0
	for sc.Scan() {
		line++
		text := sc.Text()
		switch {
		case strings.HasPrefix(text, "v "):
			v, err := parseVertexLine(text)
			if err != nil {
				return nil, fmt.Errorf("objio: line %d: %w", line, err)
			}
			m.Vertices = append(m.Vertices, v)
		case strings.HasPrefix(text, "f "):
			tri, err := parseFaceLine(text)
			if err != nil {
				return nil, fmt.Errorf("objio: line %d: %w", line, err)
			}
			m.Triangles = append(m.Triangles, tri)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("objio: scanning OBJ: %w", err)
	}
	return m, nil
}

func parseVertexLine(text string) (r3.Vec, error) {
	fields := strings.Fields(text)
	if len(fields) < 4 {
		return r3.Vec{}, fmt.Errorf("malformed vertex line %q", text)
	}
	x, err := strconv.ParseFloat(fields[1], 64)
	if err != nil {
		return r3.Vec{}, fmt.Errorf("bad x coordinate: %w", err)
	}
	y, err := strconv.ParseFloat(fields[2], 64)
	if err != nil {
		return r3.Vec{}, fmt.Errorf("bad y coordinate: %w", err)
	}
	z, err := strconv.ParseFloat(fields[3], 64)
	if err != nil {
		return r3.Vec{}, fmt.Errorf("bad z coordinate: %w", err)
	}
	return r3.Vec{X: x, Y: y, Z: z}, nil
}

func parseFaceLine(text string) ([3]int, error) {
	fields := strings.Fields(text)
	if len(fields) < 4 {
		return [3]int{}, fmt.Errorf("malformed face line %q", text)
	}
	var tri [3]int
	for k := 0; k < 3; k++ {
		idx, err := parseFaceIndex(fields[k+1])
		if err != nil {
			return [3]int{}, err
		}
		tri[k] = idx
	}
	return tri, nil
}

// parseFaceIndex parses one OBJ face vertex token, keeping only the
// leading vertex-position index and discarding any "/vt/vn" suffix, then
// converts the 1-based OBJ index to a 0-based one.
func parseFaceIndex(token string) (int, error) {
	if slash := strings.IndexByte(token, '/'); slash >= 0 {
		token = token[:slash]
	}
	idx, err := strconv.Atoi(token)
	if err != nil {
		return 0, fmt.Errorf("bad face index %q: %w", token, err)
	}
	return idx - 1, nil
}

// WriteOBJ writes m to w: all vertices, then all triangles, one entity
// per line, space-separated, 1-based indices.
func WriteOBJ(w io.Writer, m *mesh.Mesh) error {
	bw := bufio.NewWriter(w)
	for _, v := range m.Vertices {
		if _, err := fmt.Fprintf(bw, "v %v %v %v\n", v.X, v.Y, v.Z); err != nil {
			return fmt.Errorf("objio: writing vertex: %w", err)
		}
	}
	for _, tri := range m.Triangles {
		if _, err := fmt.Fprintf(bw, "f %d %d %d\n", tri[0]+1, tri[1]+1, tri[2]+1); err != nil {
			return fmt.Errorf("objio: writing face: %w", err)
		}
	}
	return bw.Flush()
}

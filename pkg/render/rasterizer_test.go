package render

import (
	"math"
	"testing"

	"github.com/taigrr/softrender/pkg/math3d"
	"github.com/taigrr/softrender/pkg/models"
	"github.com/taigrr/softrender/pkg/texture"
)

// newTestRasterizer returns a 100x100 rasterizer looking at the origin from
// (0, 0, 3).
func newTestRasterizer(mode RenderMode) *Rasterizer {
	r := NewRasterizer(100, 100)
	r.SetCameraPosition(math3d.V3(0, 0, 3))
	r.SetMode(mode)
	return r
}

// frontTriangle lies in the z plane, wound counter-clockwise seen from +Z,
// and covers the centre of the view.
func frontTriangle(z float64) [3]math3d.Vec3 {
	return [3]math3d.Vec3{
		math3d.V3(-1, -1, z),
		math3d.V3(1, -1, z),
		math3d.V3(0, 1, z),
	}
}

// triangleMesh builds a mesh with one face per triangle, each face using its
// own three positions and the normal given for it.
func triangleMesh(tris [][3]math3d.Vec3, normals []math3d.Vec3) *models.Mesh {
	m := models.NewMesh("test")
	for i, tri := range tris {
		base := len(m.Positions)
		m.Positions = append(m.Positions, tri[0], tri[1], tri[2])
		f := models.Face{VertexIndices: []int{base, base + 1, base + 2}}
		if normals != nil {
			m.Normals = append(m.Normals, normals[i])
			f.NormalIndices = []int{i, i, i}
		}
		m.Faces = append(m.Faces, f)
	}
	m.CalculateBounds()
	return m
}

func withUVs(m *models.Mesh) *models.Mesh {
	m.TexCoords = []math3d.Vec2{math3d.V2(0, 0), math3d.V2(1, 0), math3d.V2(0.5, 1)}
	for i := range m.Faces {
		m.Faces[i].TextureIndices = []int{0, 1, 2}
	}
	return m
}

func countLit(tex *texture.Texture) int {
	n := 0
	for _, p := range tex.Pixels {
		if p != 0 {
			n++
		}
	}
	return n
}

func TestSolidShading(t *testing.T) {
	tests := []struct {
		name    string
		normals []math3d.Vec3
	}{
		{"vertex normals", []math3d.Vec3{math3d.V3(0, 0, 1)}},
		{"face normal", nil},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r := newTestRasterizer(Solid)
			mesh := triangleMesh([][3]math3d.Vec3{frontTriangle(0)}, tc.normals)

			stats := r.Render(mesh)
			if stats.Drawn != 1 {
				t.Fatalf("drawn = %d, want 1", stats.Drawn)
			}

			want := texture.Pack(147, 147, 147, 255)
			if got := r.Pixel(50, 50); got != want {
				t.Errorf("centre pixel = %#08x, want %#08x", got, want)
			}
		})
	}
}

func TestSolidAmbientFloor(t *testing.T) {
	r := newTestRasterizer(Solid)
	r.SetLightDirection(math3d.V3(0, 0, -1))
	r.Render(triangleMesh([][3]math3d.Vec3{frontTriangle(0)}, nil))

	want := texture.Gray(Ambient)
	if got := r.Pixel(50, 50); got != want {
		t.Errorf("centre pixel = %#08x, want ambient %#08x", got, want)
	}
}

func TestDepthOrderIndependence(t *testing.T) {
	near := frontTriangle(0.5)
	far := frontTriangle(-0.5)
	nearNormal := math3d.V3(0, 0, 1)
	farNormal := math3d.V3(1, 1, 1).Normalize()

	for _, mode := range []RenderMode{Solid, Colorful} {
		t.Run(mode.String(), func(t *testing.T) {
			a := newTestRasterizer(mode)
			a.SetSeed(1)
			a.Render(triangleMesh([][3]math3d.Vec3{near, far}, []math3d.Vec3{nearNormal, farNormal}))

			b := newTestRasterizer(mode)
			b.SetSeed(1)
			b.Render(triangleMesh([][3]math3d.Vec3{far, near}, []math3d.Vec3{farNormal, nearNormal}))

			if mode == Solid {
				want := texture.Gray(nearNormal.Dot(a.LightDirection()))
				if got := a.Pixel(50, 50); got != want {
					t.Errorf("centre pixel = %#08x, want nearer triangle %#08x", got, want)
				}
			}
			for y := range 100 {
				for x := range 100 {
					if a.DepthAt(x, y) != b.DepthAt(x, y) {
						t.Fatalf("depth differs at (%d, %d)", x, y)
					}
					if mode == Solid && a.Pixel(x, y) != b.Pixel(x, y) {
						t.Fatalf("color differs at (%d, %d)", x, y)
					}
				}
			}
		})
	}
}

func TestDepthTieKeepsExistingPixel(t *testing.T) {
	fb := NewFramebuffer(1, 1)
	if !fb.testDepth(0, 0, 0.5) {
		t.Fatal("first fragment should pass against +Inf")
	}
	if fb.testDepth(0, 0, 0.5) {
		t.Error("equal depth should keep the existing pixel")
	}
	if fb.testDepth(0, 0, 0.5-DepthEpsilon/2) {
		t.Error("depth within epsilon should keep the existing pixel")
	}
	if !fb.testDepth(0, 0, 0.4) {
		t.Error("clearly closer fragment should pass")
	}
}

func TestWireframeBresenham(t *testing.T) {
	r := NewRasterizer(100, 100)
	c := uint32(0xFFFFFFFF)
	pts := []math3d.Vec2{math3d.V2(10, 10), math3d.V2(50, 10), math3d.V2(30, 40)}

	if n := r.drawPolygon(pts, c); n != 3 {
		t.Fatalf("edges drawn = %d, want 3", n)
	}

	want := map[[2]int]bool{}
	for x := 10; x <= 50; x++ {
		want[[2]int{x, 10}] = true
	}
	for y := 10; y <= 40; y++ {
		offset := int(math.Round(2 * float64(y-10) / 3))
		want[[2]int{10 + offset, y}] = true
		want[[2]int{50 - offset, y}] = true
	}

	for y := range 100 {
		for x := range 100 {
			set := r.Pixel(x, y) == c
			if set != want[[2]int{x, y}] {
				t.Errorf("pixel (%d, %d) set = %v, want %v", x, y, set, !set)
			}
		}
	}
	if r.Pixel(30, 20) != 0 {
		t.Error("interior pixel should be untouched")
	}
}

func TestWireframeSkipsNonFiniteEdges(t *testing.T) {
	r := NewRasterizer(50, 50)
	pts := []math3d.Vec2{
		math3d.V2(5, 5),
		math3d.V2(40, 5),
		math3d.V2(math.NaN(), 20),
	}
	if n := r.drawPolygon(pts, DefaultLineColor); n != 1 {
		t.Errorf("edges drawn = %d, want 1", n)
	}

	far := []math3d.Vec2{math3d.V2(5, 5), math3d.V2(1e12, 5)}
	if n := r.drawPolygon(far, DefaultLineColor); n != 0 {
		t.Errorf("edges drawn outside guard band = %d, want 0", n)
	}
}

func TestWireframeDrawsPolygons(t *testing.T) {
	r := newTestRasterizer(Wireframe)
	mesh := models.NewMesh("quad")
	mesh.Positions = []math3d.Vec3{
		math3d.V3(-1, -1, 0), math3d.V3(1, -1, 0), math3d.V3(1, 1, 0), math3d.V3(-1, 1, 0),
	}
	mesh.Faces = []models.Face{{VertexIndices: []int{0, 1, 2, 3}}}
	mesh.CalculateBounds()

	stats := r.Render(mesh)
	if stats.Drawn != 1 {
		t.Errorf("drawn = %d, want 1", stats.Drawn)
	}
	if countLit(r.Frame()) == 0 {
		t.Error("wireframe drew nothing")
	}
	if r.Pixel(50, 50) != 0 {
		t.Error("wireframe must not fill the interior")
	}
}

func TestDegenerateTriangle(t *testing.T) {
	// Collinear along one screen row, so the signed area is exactly zero.
	line := [3]math3d.Vec3{math3d.V3(-1, -1, 0), math3d.V3(0, -1, 0), math3d.V3(1, -1, 0)}

	for _, mode := range []RenderMode{Solid, Textured, Colorful} {
		t.Run(mode.String(), func(t *testing.T) {
			r := newTestRasterizer(mode)
			r.SetSeed(3)
			stats := r.Render(triangleMesh([][3]math3d.Vec3{line}, nil))
			if stats.Skipped != 1 || stats.Drawn != 0 {
				t.Errorf("stats = %+v, want one skipped face", stats)
			}
			if n := countLit(r.Frame()); n != 0 {
				t.Errorf("%d pixels written, want 0", n)
			}
		})
	}

	t.Run("wireframe", func(t *testing.T) {
		r := newTestRasterizer(Wireframe)
		r.Render(triangleMesh([][3]math3d.Vec3{line}, nil))
		if countLit(r.Frame()) == 0 {
			t.Error("wireframe should still draw the edges of a degenerate triangle")
		}
	})
}

func TestClear(t *testing.T) {
	r := newTestRasterizer(Solid)
	r.Render(triangleMesh([][3]math3d.Vec3{frontTriangle(0)}, nil))

	const c = 0xFF102030
	r.Clear(c)
	for y := range r.Height() {
		for x := range r.Width() {
			if r.Pixel(x, y) != c {
				t.Fatalf("pixel (%d, %d) = %#08x, want %#08x", x, y, r.Pixel(x, y), uint32(c))
			}
			if !math.IsInf(r.DepthAt(x, y), 1) {
				t.Fatalf("depth (%d, %d) = %v, want +Inf", x, y, r.DepthAt(x, y))
			}
		}
	}
}

func TestRenderKeepsColorResetsDepth(t *testing.T) {
	r := newTestRasterizer(Solid)
	r.Clear(0xFF0000FF)
	r.Render(models.NewMesh("empty"))

	if r.Pixel(0, 0) != 0xFF0000FF {
		t.Error("Render must not clear the color buffer")
	}
	if !math.IsInf(r.DepthAt(0, 0), 1) {
		t.Error("Render must start from cleared depth")
	}
}

func TestColorfulSeeded(t *testing.T) {
	tris := [][3]math3d.Vec3{frontTriangle(0), frontTriangle(-1)}

	render := func(seed uint64) *texture.Texture {
		r := newTestRasterizer(Colorful)
		r.SetSeed(seed)
		r.Render(triangleMesh(tris, nil))
		return r.Frame()
	}

	a, b := render(42), render(42)
	for i := range a.Pixels {
		if a.Pixels[i] != b.Pixels[i] {
			t.Fatalf("pixel %d differs between runs with the same seed", i)
		}
	}

	centre := a.At(50, 50)
	if centre == 0 {
		t.Fatal("centre pixel not drawn")
	}
	if _, _, _, alpha := texture.Unpack(centre); alpha != 255 {
		t.Errorf("alpha = %d, want 255", alpha)
	}
}

func TestTexturedFallsBackToSolid(t *testing.T) {
	mesh := triangleMesh([][3]math3d.Vec3{frontTriangle(0)}, nil)

	solid := newTestRasterizer(Solid)
	solid.Render(mesh)

	for _, mode := range []RenderMode{Textured, TexturedShaded} {
		t.Run(mode.String(), func(t *testing.T) {
			r := newTestRasterizer(mode)
			stats := r.Render(mesh)
			if stats.Fallbacks != 1 {
				t.Errorf("fallbacks = %d, want 1", stats.Fallbacks)
			}
			if r.Pixel(50, 50) != solid.Pixel(50, 50) {
				t.Errorf("pixel = %#08x, want solid %#08x", r.Pixel(50, 50), solid.Pixel(50, 50))
			}
		})
	}
}

func uniformTexture(c uint32) *texture.Texture {
	tex := texture.New(4, 4)
	tex.Fill(c)
	return tex
}

func TestTextured(t *testing.T) {
	base := texture.Pack(200, 100, 50, 255)
	mesh := withUVs(triangleMesh([][3]math3d.Vec3{frontTriangle(0)}, nil))
	mesh.Texture = uniformTexture(base)

	r := newTestRasterizer(Textured)
	r.Render(mesh)

	intensity := math3d.V3(0, 0, 1).Dot(r.LightDirection())
	want := texture.Shade(base, intensity)
	if got := r.Pixel(50, 50); got != want {
		t.Errorf("centre pixel = %#08x, want %#08x", got, want)
	}
}

func TestTextureOverride(t *testing.T) {
	mesh := withUVs(triangleMesh([][3]math3d.Vec3{frontTriangle(0)}, nil))
	mesh.Texture = uniformTexture(texture.Pack(255, 0, 0, 255))

	r := newTestRasterizer(Textured)
	r.SetLightDirection(math3d.V3(0, 0, 1))
	r.SetTexture(uniformTexture(texture.Pack(0, 255, 0, 255)))
	r.Render(mesh)

	if got := r.Pixel(50, 50); got != texture.Pack(0, 255, 0, 255) {
		t.Errorf("centre pixel = %#08x, want override texture", got)
	}
}

func TestTexturedShaded(t *testing.T) {
	gray := texture.Pack(100, 100, 100, 255)

	t.Run("face normal has no highlight", func(t *testing.T) {
		mesh := withUVs(triangleMesh([][3]math3d.Vec3{frontTriangle(0)}, nil))
		mesh.Texture = uniformTexture(gray)

		r := newTestRasterizer(TexturedShaded)
		r.SetLightDirection(math3d.V3(0, 0, 1))
		r.Render(mesh)

		// ambient 0.2 + diffuse 1.0
		want := texture.Pack(120, 120, 120, 255)
		if got := r.Pixel(50, 50); got != want {
			t.Errorf("centre pixel = %#08x, want %#08x", got, want)
		}
	})

	t.Run("vertex normals add a highlight", func(t *testing.T) {
		mesh := withUVs(triangleMesh([][3]math3d.Vec3{frontTriangle(0)}, []math3d.Vec3{math3d.V3(0, 0, 1)}))
		mesh.Texture = uniformTexture(gray)

		r := newTestRasterizer(TexturedShaded)
		r.SetLightDirection(math3d.V3(0, 0, 1))
		r.Render(mesh)

		got, _, _, _ := texture.Unpack(r.Pixel(50, 50))
		if got <= 120 {
			t.Errorf("red = %d, want above the diffuse-only 120", got)
		}
	})
}

func TestBackfaceCulling(t *testing.T) {
	front := frontTriangle(0)
	back := [3]math3d.Vec3{front[0], front[2], front[1]}

	tests := []struct {
		name   string
		tri    [3]math3d.Vec3
		cull   bool
		culled int
	}{
		{"back face drawn by default", back, false, 0},
		{"back face culled", back, true, 1},
		{"front face kept", front, true, 0},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r := newTestRasterizer(Solid)
			r.CullBackfaces(tc.cull)
			stats := r.Render(triangleMesh([][3]math3d.Vec3{tc.tri}, nil))
			if stats.Culled != tc.culled {
				t.Errorf("culled = %d, want %d", stats.Culled, tc.culled)
			}
			if lit := countLit(r.Frame()) > 0; lit == (tc.culled == 1) {
				t.Errorf("lit = %v with %d culled", lit, tc.culled)
			}
		})
	}
}

func TestFillSkipsNonTriangles(t *testing.T) {
	r := newTestRasterizer(Solid)
	mesh := models.NewMesh("quad")
	mesh.Positions = []math3d.Vec3{
		math3d.V3(-1, -1, 0), math3d.V3(1, -1, 0), math3d.V3(1, 1, 0), math3d.V3(-1, 1, 0),
	}
	mesh.Faces = []models.Face{{VertexIndices: []int{0, 1, 2, 3}}}

	stats := r.Render(mesh)
	if stats.Skipped != 1 || countLit(r.Frame()) != 0 {
		t.Errorf("stats = %+v, want the quad skipped", stats)
	}
}

func TestVertexBehindCameraIsSkipped(t *testing.T) {
	r := newTestRasterizer(Solid)
	// The third vertex sits exactly in the eye plane, so clip w is zero.
	tri := [3]math3d.Vec3{math3d.V3(-1, -1, 0), math3d.V3(1, -1, 0), math3d.V3(0, 1, 3)}
	stats := r.Render(triangleMesh([][3]math3d.Vec3{tri}, nil))
	if stats.Drawn != 0 {
		t.Errorf("stats = %+v, want nothing drawn", stats)
	}
}

func TestParseRenderMode(t *testing.T) {
	tests := []struct {
		in      string
		want    RenderMode
		wantErr bool
	}{
		{"wireframe", Wireframe, false},
		{"SOLID", Solid, false},
		{"textured", Textured, false},
		{"shaded", TexturedShaded, false},
		{"textured_shaded", TexturedShaded, false},
		{" colorful ", Colorful, false},
		{"phong", Wireframe, true},
	}

	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			got, err := ParseRenderMode(tc.in)
			if (err != nil) != tc.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tc.wantErr)
			}
			if got != tc.want {
				t.Errorf("got %v, want %v", got, tc.want)
			}
		})
	}

	for m := Wireframe; m <= Colorful; m++ {
		back, err := ParseRenderMode(m.String())
		if err != nil || back != m {
			t.Errorf("round trip of %v gave %v, %v", m, back, err)
		}
	}
}

func BenchmarkRenderSolid(b *testing.B) {
	r := newTestRasterizer(Solid)
	mesh := triangleMesh([][3]math3d.Vec3{frontTriangle(0), frontTriangle(-0.5)}, nil)

	for b.Loop() {
		r.Render(mesh)
	}
}

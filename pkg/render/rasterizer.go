package render

import (
	"math"
	"math/rand/v2"

	"github.com/taigrr/softrender/pkg/logging"
	"github.com/taigrr/softrender/pkg/math3d"
	"github.com/taigrr/softrender/pkg/models"
	"github.com/taigrr/softrender/pkg/texture"
)

// Lighting constants.
const (
	Ambient          = 0.2
	SpecularWeight   = 0.3
	SpecularExponent = 32
)

// DefaultLineColor is the wireframe color, opaque red.
const DefaultLineColor uint32 = 0xFFFF0000

// Stats counts what a Render call did with the faces of a mesh.
type Stats struct {
	Faces     int // faces visited
	Drawn     int // faces that reached the fill or line stage
	Skipped   int // non-triangles in fill modes, degenerate or non-finite faces
	Culled    int // back faces dropped while culling is enabled
	Fallbacks int // textured faces drawn as Solid for lack of texture or UVs
}

// Rasterizer owns a framebuffer and a camera and draws meshes into it.
// It is not safe for concurrent use.
type Rasterizer struct {
	fb     *Framebuffer
	camera *Camera
	model  math3d.Mat4

	mode      RenderMode
	light     math3d.Vec3
	lineColor uint32
	cull      bool
	texture   *texture.Texture
	rng       *rand.Rand
}

// NewRasterizer creates a rasterizer with a width x height framebuffer, the
// default camera, an identity model matrix and Wireframe mode.
func NewRasterizer(width, height int) *Rasterizer {
	aspect := 1.0
	if height > 0 {
		aspect = float64(width) / float64(height)
	}
	return &Rasterizer{
		fb:        NewFramebuffer(width, height),
		camera:    NewCamera(aspect),
		model:     math3d.Identity(),
		mode:      Wireframe,
		light:     math3d.V3(1, 1, 1).Normalize(),
		lineColor: DefaultLineColor,
	}
}

// Width returns the framebuffer width.
func (r *Rasterizer) Width() int { return r.fb.Width }

// Height returns the framebuffer height.
func (r *Rasterizer) Height() int { return r.fb.Height }

// Camera returns the rasterizer's camera.
func (r *Rasterizer) Camera() *Camera { return r.camera }

// Framebuffer returns the live color and depth buffers.
func (r *Rasterizer) Framebuffer() *Framebuffer { return r.fb }

// Mode returns the current render mode.
func (r *Rasterizer) Mode() RenderMode { return r.mode }

// SetMode selects the mode used by the next Render.
func (r *Rasterizer) SetMode(m RenderMode) { r.mode = m }

// SetCameraPosition moves the camera eye.
func (r *Rasterizer) SetCameraPosition(p math3d.Vec3) { r.camera.SetPosition(p) }

// SetCameraTarget changes the camera look-at point.
func (r *Rasterizer) SetCameraTarget(t math3d.Vec3) { r.camera.SetTarget(t) }

// SetModelMatrix sets the model-to-world transform.
func (r *Rasterizer) SetModelMatrix(m math3d.Mat4) { r.model = m }

// SetLightDirection sets the direction towards the light. Zero vectors are
// ignored.
func (r *Rasterizer) SetLightDirection(d math3d.Vec3) {
	if d.Len() == 0 {
		return
	}
	r.light = d.Normalize()
}

// LightDirection returns the normalized direction towards the light.
func (r *Rasterizer) LightDirection() math3d.Vec3 { return r.light }

// SetLineColor sets the wireframe color.
func (r *Rasterizer) SetLineColor(c uint32) { r.lineColor = c }

// SetTexture overrides the mesh texture for textured modes. nil restores the
// mesh's own texture.
func (r *Rasterizer) SetTexture(t *texture.Texture) { r.texture = t }

// SetSeed makes Colorful output reproducible.
func (r *Rasterizer) SetSeed(seed uint64) {
	r.rng = rand.New(rand.NewPCG(seed, seed))
}

// CullBackfaces enables or disables dropping triangles that face away from
// the camera. Culling is off by default.
func (r *Rasterizer) CullBackfaces(enabled bool) { r.cull = enabled }

// Clear fills the color buffer with c and resets depth.
func (r *Rasterizer) Clear(c uint32) { r.fb.Clear(c) }

// ClearDepth resets depth only.
func (r *Rasterizer) ClearDepth() { r.fb.ClearDepth() }

// Frame returns a copy of the color buffer.
func (r *Rasterizer) Frame() *texture.Texture { return r.fb.Color.Clone() }

// Pixel returns the color at (x, y).
func (r *Rasterizer) Pixel(x, y int) uint32 { return r.fb.GetPixel(x, y) }

// DepthAt returns the depth at (x, y).
func (r *Rasterizer) DepthAt(x, y int) float64 { return r.fb.DepthAt(x, y) }

// MVP returns projection * view * model.
func (r *Rasterizer) MVP() math3d.Mat4 {
	return r.camera.ViewProjection().Mul(r.model)
}

// Visibility classifies the mesh bounds against the view volume. It never
// affects rasterization.
func (r *Rasterizer) Visibility(mesh *models.Mesh) Visibility {
	box := AABB{Min: mesh.BoundsMin, Max: mesh.BoundsMax}
	return NewFrustumFromMatrix(r.MVP()).Classify(box)
}

// Visible reports whether any part of the mesh bounds may fall inside the
// view volume.
func (r *Rasterizer) Visible(mesh *models.Mesh) bool {
	return r.Visibility(mesh) != Outside
}

// ModelMatrix returns the model-to-world transform.
func (r *Rasterizer) ModelMatrix() math3d.Mat4 { return r.model }

// project maps a model-space point to pixel x, pixel y and NDC depth.
// No clipping is done; points behind the eye produce extreme or non-finite
// values which the fill and line stages reject.
func (r *Rasterizer) project(mvp math3d.Mat4, p math3d.Vec3) math3d.Vec3 {
	ndc := mvp.MulVec4(math3d.Point(p)).PerspectiveDivide()
	return math3d.V3(
		(ndc.X+1)*0.5*float64(r.fb.Width),
		(1-ndc.Y)*0.5*float64(r.fb.Height),
		ndc.Z,
	)
}

// frame is the per-Render state shared by the face loops.
type frame struct {
	screen []math3d.Vec3
	world  []math3d.Vec3
	tex    *texture.Texture
	eye    math3d.Vec3
}

// Render draws mesh with the current mode. Depth is reset first, color is
// not. The mesh is never modified.
func (r *Rasterizer) Render(mesh *models.Mesh) Stats {
	r.fb.ClearDepth()
	var stats Stats
	if mesh == nil {
		return stats
	}

	mvp := r.MVP()
	if len(mesh.Positions) > 0 && !r.Visible(mesh) {
		logging.Logger().Warn("mesh bounds outside view volume", "mesh", mesh.Name, "camera", r.camera.Position())
	}

	fr := frame{
		screen: make([]math3d.Vec3, len(mesh.Positions)),
		tex:    r.texture,
		eye:    r.camera.Position(),
	}
	if fr.tex == nil {
		fr.tex = mesh.Texture
	}
	for i, p := range mesh.Positions {
		fr.screen[i] = r.project(mvp, p)
	}
	if r.mode != Wireframe && r.mode != Colorful {
		fr.world = make([]math3d.Vec3, len(mesh.Positions))
		for i, p := range mesh.Positions {
			fr.world[i] = r.model.MulPoint(p)
		}
	}

	for i := range mesh.Faces {
		f := &mesh.Faces[i]
		stats.Faces++
		switch r.mode {
		case Wireframe:
			r.renderWireframe(f, &fr, &stats)
		case Colorful:
			r.renderColorful(f, &fr, &stats)
		case Solid, Textured, TexturedShaded:
			r.renderFilled(mesh, f, &fr, &stats)
		}
	}

	logging.Logger().Debug("render",
		"mesh", mesh.Name,
		"mode", r.mode,
		"faces", stats.Faces,
		"drawn", stats.Drawn,
		"skipped", stats.Skipped,
		"culled", stats.Culled,
		"fallbacks", stats.Fallbacks,
	)
	return stats
}

func (r *Rasterizer) renderWireframe(f *models.Face, fr *frame, stats *Stats) {
	pts := make([]math3d.Vec2, len(f.VertexIndices))
	for i, idx := range f.VertexIndices {
		s := fr.screen[idx]
		pts[i] = math3d.V2(s.X, s.Y)
	}
	if r.drawPolygon(pts, r.lineColor) > 0 {
		stats.Drawn++
	} else {
		stats.Skipped++
	}
}

// screenTriangle builds the fill vertices of a triangle with depth set and
// the other attributes zeroed.
func (fr *frame) screenTriangle(f *models.Face) [3]fillVertex {
	var tri [3]fillVertex
	for i, idx := range f.VertexIndices {
		s := fr.screen[idx]
		tri[i] = fillVertex{x: s.X, y: s.Y}
		tri[i].a[attrZ] = s.Z
	}
	return tri
}

// culled reports whether a triangle faces away from the camera while culling
// is on. Front faces wind counter-clockwise in world space, which is a
// negative signed area once screen Y points down.
func (r *Rasterizer) culled(tri [3]fillVertex) bool {
	return r.cull && signedArea(tri[0], tri[1], tri[2]) > 0
}

func (r *Rasterizer) renderColorful(f *models.Face, fr *frame, stats *Stats) {
	if !f.IsTriangle() {
		stats.Skipped++
		return
	}
	tri := fr.screenTriangle(f)
	if r.culled(tri) {
		stats.Culled++
		return
	}
	if fillBarycentric(r.fb, tri, r.randomColor()) {
		stats.Drawn++
	} else {
		stats.Skipped++
	}
}

func (r *Rasterizer) renderFilled(mesh *models.Mesh, f *models.Face, fr *frame, stats *Stats) {
	if !f.IsTriangle() {
		stats.Skipped++
		return
	}
	tri := fr.screenTriangle(f)
	if r.culled(tri) {
		stats.Culled++
		return
	}

	mode := r.mode
	if mode != Solid && (fr.tex.Empty() || !f.HasUVs()) {
		mode = Solid
		stats.Fallbacks++
	}

	var shade shadeFunc
	switch mode {
	case Solid:
		c := texture.Gray(r.faceIntensity(mesh, f, fr))
		shade = func(attrs) uint32 { return c }

	case Textured:
		intensity := r.faceIntensity(mesh, f, fr)
		setUVs(&tri, mesh, f)
		tex := fr.tex
		shade = func(a attrs) uint32 {
			return texture.Shade(tex.Sample(a[attrU], 1-a[attrV]), intensity)
		}

	case TexturedShaded:
		setUVs(&tri, mesh, f)
		r.setVertexLight(&tri, mesh, f, fr)
		tex := fr.tex
		shade = func(a attrs) uint32 {
			return texture.Shade(tex.Sample(a[attrU], 1-a[attrV]), a[attrLight])
		}
	}

	if fillTriangle(r.fb, tri, shade) {
		stats.Drawn++
	} else {
		stats.Skipped++
	}
}

func setUVs(tri *[3]fillVertex, mesh *models.Mesh, f *models.Face) {
	for i, idx := range f.TextureIndices {
		uv := mesh.TexCoords[idx]
		tri[i].a[attrU] = uv.X
		tri[i].a[attrV] = uv.Y
	}
}

// faceNormal is the world-space geometric normal of a triangle.
func faceNormal(fr *frame, f *models.Face) math3d.Vec3 {
	p0 := fr.world[f.VertexIndices[0]]
	p1 := fr.world[f.VertexIndices[1]]
	p2 := fr.world[f.VertexIndices[2]]
	return p1.Sub(p0).Cross(p2.Sub(p0)).Normalize()
}

func (r *Rasterizer) vertexNormal(mesh *models.Mesh, idx int) math3d.Vec3 {
	return r.model.MulDir(mesh.Normals[idx]).Normalize()
}

// faceIntensity is the flat light of a triangle: the averaged vertex normals
// when the face has them, the geometric normal otherwise.
func (r *Rasterizer) faceIntensity(mesh *models.Mesh, f *models.Face, fr *frame) float64 {
	var n math3d.Vec3
	if f.HasNormals() {
		for _, idx := range f.NormalIndices {
			n = n.Add(r.vertexNormal(mesh, idx))
		}
		n = n.Normalize()
	} else {
		n = faceNormal(fr, f)
	}
	return math.Max(Ambient, n.Dot(r.light))
}

// setVertexLight stores ambient + diffuse light per vertex, plus a
// Blinn-Phong highlight when the face carries vertex normals.
func (r *Rasterizer) setVertexLight(tri *[3]fillVertex, mesh *models.Mesh, f *models.Face, fr *frame) {
	if !f.HasNormals() {
		light := Ambient + math.Max(0, faceNormal(fr, f).Dot(r.light))
		for i := range tri {
			tri[i].a[attrLight] = light
		}
		return
	}

	for i, idx := range f.NormalIndices {
		n := r.vertexNormal(mesh, idx)
		light := Ambient + math.Max(0, n.Dot(r.light))

		view := fr.eye.Sub(fr.world[f.VertexIndices[i]]).Normalize()
		half := r.light.Add(view).Normalize()
		light += SpecularWeight * math.Pow(math.Max(0, n.Dot(half)), SpecularExponent)

		tri[i].a[attrLight] = light
	}
}

package render

import (
	"fmt"
	"image"
	"image/png"
	"os"
	"unsafe"

	"github.com/go-gl/gl/v4.1-core/gl"

	"github.com/Simone-Scheuer/spiralizer-v2/internal/spiral"
)

// maxBatchSegments bounds one SubmitFrame upload. The animator never
// produces more than MaxStepsPerFrame steps, each fanning out into at
// most lines×symmetry segments.
const maxBatchSegments = 8192

func glOffset(n int) unsafe.Pointer { return unsafe.Pointer(uintptr(n)) }

// Renderer owns the accumulation target and the line program. Strokes
// are drawn into the accumulation texture once and persist there; the
// texture is only cleared on an explicit Clear.
type Renderer struct {
	lineProg    uint32
	lineVAO     uint32
	lineVBO     uint32
	uCamera     int32
	uZoom       int32
	uResolution int32
	uAlpha      int32

	accum target
	post  *postStack

	w, h      int
	vertBuf   []float32
	grainTick uint32
}

// NewRenderer builds all GPU state for a framebuffer of w×h pixels.
// Must be called with a current GL context; any failure is fatal to
// rendering and returned as an error.
func NewRenderer(w, h int) (*Renderer, error) {
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("renderer: bad framebuffer size %dx%d", w, h)
	}
	lineProg, err := linkProgram(lineVertSrc, lineFragSrc)
	if err != nil {
		return nil, fmt.Errorf("line program: %w", err)
	}
	post, err := newPostStack(w, h)
	if err != nil {
		gl.DeleteProgram(lineProg)
		return nil, err
	}

	r := &Renderer{lineProg: lineProg, post: post, w: w, h: h}

	var vao, vbo uint32
	gl.GenVertexArrays(1, &vao)
	gl.GenBuffers(1, &vbo)
	gl.BindVertexArray(vao)
	gl.BindBuffer(gl.ARRAY_BUFFER, vbo)
	stride := int32(5 * 4)
	gl.BufferData(gl.ARRAY_BUFFER, maxBatchSegments*segFloats*4, nil, gl.STREAM_DRAW)
	gl.EnableVertexAttribArray(0)
	gl.VertexAttribPointer(0, 2, gl.FLOAT, false, stride, glOffset(0))
	gl.EnableVertexAttribArray(1)
	gl.VertexAttribPointer(1, 3, gl.FLOAT, false, stride, glOffset(2*4))
	r.lineVAO = vao
	r.lineVBO = vbo

	gl.UseProgram(lineProg)
	r.uCamera = uloc(lineProg, "uCamera")
	r.uZoom = uloc(lineProg, "uZoom")
	r.uResolution = uloc(lineProg, "uResolution")
	r.uAlpha = uloc(lineProg, "uAlpha")

	r.accum = newTarget(w, h)
	gl.BindFramebuffer(gl.FRAMEBUFFER, r.accum.fbo)
	gl.ClearColor(0, 0, 0, 1)
	gl.Clear(gl.COLOR_BUFFER_BIT)
	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)

	gl.Enable(gl.BLEND)
	gl.BlendFunc(gl.SRC_ALPHA, gl.ONE)
	gl.BindVertexArray(0)
	return r, nil
}

// SubmitFrame draws newly drained segments into the accumulation
// texture. Older strokes stay as pixels, so evicted segments remain
// visible.
func (r *Renderer) SubmitFrame(buf *spiral.SegmentBuffer, alpha, zoom float64) {
	segs := buf.Drain()
	for len(segs) > 0 {
		n := len(segs)
		if n > maxBatchSegments {
			n = maxBatchSegments
		}
		r.drawBatch(segs[:n], alpha, zoom)
		segs = segs[n:]
	}
}

func (r *Renderer) drawBatch(segs []spiral.Segment, alpha, zoom float64) {
	r.vertBuf = r.vertBuf[:0]
	for _, s := range segs {
		r.vertBuf = appendSegmentVerts(r.vertBuf, s)
	}
	gl.BindFramebuffer(gl.FRAMEBUFFER, r.accum.fbo)
	gl.Viewport(0, 0, int32(r.w), int32(r.h))
	gl.UseProgram(r.lineProg)
	gl.BindVertexArray(r.lineVAO)
	gl.BindBuffer(gl.ARRAY_BUFFER, r.lineVBO)
	gl.BufferSubData(gl.ARRAY_BUFFER, 0, len(r.vertBuf)*4, gl.Ptr(&r.vertBuf[0]))
	gl.Uniform2f(r.uCamera, 0, 0)
	gl.Uniform1f(r.uZoom, float32(zoom))
	gl.Uniform2f(r.uResolution, float32(r.w), float32(r.h))
	gl.Uniform1f(r.uAlpha, float32(alpha))
	gl.DrawArrays(gl.LINES, 0, int32(len(segs)*2))
	gl.BindVertexArray(0)
	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
}

// Present runs the post chain from the accumulation texture to the
// default framebuffer.
func (r *Renderer) Present(cfg PostConfig) {
	r.grainTick++
	seed := float32(r.grainTick%1024) / 1024
	r.post.run(r.accum.tex, cfg, seed, 0)
}

// Clear wipes the accumulation texture and both trail buffers.
func (r *Renderer) Clear() {
	gl.BindFramebuffer(gl.FRAMEBUFFER, r.accum.fbo)
	gl.ClearColor(0, 0, 0, 1)
	gl.Clear(gl.COLOR_BUFFER_BIT)
	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
	r.post.clearTrail()
}

// Resize reallocates all targets for a new logical size and DPR.
// Zero or negative sizes are ignored. The canvas content is lost,
// matching a fresh accumulation surface.
func (r *Renderer) Resize(logicalW, logicalH int, dpr float64) {
	w, h := physicalSize(logicalW, logicalH, dpr)
	if w == 0 || h == 0 || (w == r.w && h == r.h) {
		return
	}
	r.w, r.h = w, h
	r.accum.destroy()
	r.accum = newTarget(w, h)
	gl.BindFramebuffer(gl.FRAMEBUFFER, r.accum.fbo)
	gl.ClearColor(0, 0, 0, 1)
	gl.Clear(gl.COLOR_BUFFER_BIT)
	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
	r.post.resize(w, h)
}

// Snapshot reads back the accumulation texture. GL rows are
// bottom-up, so the image is flipped while copying.
func (r *Renderer) Snapshot() *image.RGBA {
	raw := make([]uint8, r.w*r.h*4)
	gl.BindFramebuffer(gl.FRAMEBUFFER, r.accum.fbo)
	gl.ReadPixels(0, 0, int32(r.w), int32(r.h), gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(&raw[0]))
	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)

	img := image.NewRGBA(image.Rect(0, 0, r.w, r.h))
	rowLen := r.w * 4
	for y := 0; y < r.h; y++ {
		src := raw[(r.h-1-y)*rowLen : (r.h-y)*rowLen]
		copy(img.Pix[y*img.Stride:], src)
	}
	return img
}

// SavePNG writes the current canvas to disk.
func (r *Renderer) SavePNG(path string) error {
	img := r.Snapshot()
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("snapshot %s: %w", path, err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return nil
}

func (r *Renderer) Destroy() {
	if r.lineVBO != 0 {
		gl.DeleteBuffers(1, &r.lineVBO)
	}
	if r.lineVAO != 0 {
		gl.DeleteVertexArrays(1, &r.lineVAO)
	}
	if r.lineProg != 0 {
		gl.DeleteProgram(r.lineProg)
	}
	r.accum.destroy()
	if r.post != nil {
		r.post.destroy()
	}
}

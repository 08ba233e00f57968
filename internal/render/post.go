package render

import (
	"fmt"

	"github.com/go-gl/gl/v4.1-core/gl"
)

// target pairs an offscreen texture with its framebuffer.
type target struct {
	tex uint32
	fbo uint32
}

func newTarget(w, h int) target {
	var t target
	gl.GenTextures(1, &t.tex)
	gl.BindTexture(gl.TEXTURE_2D, t.tex)
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGBA8, int32(w), int32(h), 0, gl.RGBA, gl.UNSIGNED_BYTE, nil)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_EDGE)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_EDGE)
	gl.GenFramebuffers(1, &t.fbo)
	gl.BindFramebuffer(gl.FRAMEBUFFER, t.fbo)
	gl.FramebufferTexture2D(gl.FRAMEBUFFER, gl.COLOR_ATTACHMENT0, gl.TEXTURE_2D, t.tex, 0)
	return t
}

func (t *target) destroy() {
	if t.fbo != 0 {
		gl.DeleteFramebuffers(1, &t.fbo)
	}
	if t.tex != 0 {
		gl.DeleteTextures(1, &t.tex)
	}
	t.fbo, t.tex = 0, 0
}

// postStack runs the post chain. The trail pair ping-pongs between
// frames; the scratch pair ping-pongs between passes of one frame.
type postStack struct {
	copyProg     uint32
	copyUTex     int32
	trailProg    uint32
	trailUTex    int32
	trailUPrev   int32
	trailUAmount int32
	bloomProg    uint32
	bloomUTex    int32
	bloomUTexel  int32
	bloomUAmount int32
	chromaProg   uint32
	chromaUTex   int32
	chromaUShift int32
	vigProg      uint32
	vigUTex      int32
	vigUAmount   int32
	grainProg    uint32
	grainUTex    int32
	grainUAmount int32
	grainUSeed   int32

	quadVAO uint32

	trail       [2]target
	trailActive int
	scratch     [2]target
	w, h        int
}

func uloc(prog uint32, name string) int32 {
	return gl.GetUniformLocation(prog, gl.Str(name+"\x00"))
}

func newPostStack(w, h int) (*postStack, error) {
	ps := &postStack{w: w, h: h}
	var err error
	if ps.copyProg, err = linkProgram(blitVertSrc, copyFragSrc); err != nil {
		return nil, fmt.Errorf("copy program: %w", err)
	}
	if ps.trailProg, err = linkProgram(blitVertSrc, trailFragSrc); err != nil {
		ps.destroy()
		return nil, fmt.Errorf("trail program: %w", err)
	}
	if ps.bloomProg, err = linkProgram(blitVertSrc, bloomFragSrc); err != nil {
		ps.destroy()
		return nil, fmt.Errorf("bloom program: %w", err)
	}
	if ps.chromaProg, err = linkProgram(blitVertSrc, chromaFragSrc); err != nil {
		ps.destroy()
		return nil, fmt.Errorf("chroma program: %w", err)
	}
	if ps.vigProg, err = linkProgram(blitVertSrc, vignetteFragSrc); err != nil {
		ps.destroy()
		return nil, fmt.Errorf("vignette program: %w", err)
	}
	if ps.grainProg, err = linkProgram(blitVertSrc, grainFragSrc); err != nil {
		ps.destroy()
		return nil, fmt.Errorf("grain program: %w", err)
	}

	ps.copyUTex = uloc(ps.copyProg, "uTex")
	ps.trailUTex = uloc(ps.trailProg, "uTex")
	ps.trailUPrev = uloc(ps.trailProg, "uPrev")
	ps.trailUAmount = uloc(ps.trailProg, "uAmount")
	ps.bloomUTex = uloc(ps.bloomProg, "uTex")
	ps.bloomUTexel = uloc(ps.bloomProg, "uTexel")
	ps.bloomUAmount = uloc(ps.bloomProg, "uAmount")
	ps.chromaUTex = uloc(ps.chromaProg, "uTex")
	ps.chromaUShift = uloc(ps.chromaProg, "uShift")
	ps.vigUTex = uloc(ps.vigProg, "uTex")
	ps.vigUAmount = uloc(ps.vigProg, "uAmount")
	ps.grainUTex = uloc(ps.grainProg, "uTex")
	ps.grainUAmount = uloc(ps.grainProg, "uAmount")
	ps.grainUSeed = uloc(ps.grainProg, "uSeed")

	gl.GenVertexArrays(1, &ps.quadVAO)
	ps.allocTargets(w, h)
	return ps, nil
}

func (ps *postStack) allocTargets(w, h int) {
	ps.trail[0] = newTarget(w, h)
	ps.trail[1] = newTarget(w, h)
	ps.scratch[0] = newTarget(w, h)
	ps.scratch[1] = newTarget(w, h)
	ps.clearTrail()
}

func (ps *postStack) resize(w, h int) {
	for i := range ps.trail {
		ps.trail[i].destroy()
		ps.scratch[i].destroy()
	}
	ps.w, ps.h = w, h
	ps.allocTargets(w, h)
}

func (ps *postStack) clearTrail() {
	for i := range ps.trail {
		gl.BindFramebuffer(gl.FRAMEBUFFER, ps.trail[i].fbo)
		gl.ClearColor(0, 0, 0, 0)
		gl.Clear(gl.COLOR_BUFFER_BIT)
	}
	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
}

// drawQuad issues the fullscreen triangle into the bound framebuffer.
func (ps *postStack) drawQuad() {
	gl.BindVertexArray(ps.quadVAO)
	gl.DrawArrays(gl.TRIANGLES, 0, 3)
}

// blit copies tex into dstFBO with the plain copy program.
func (ps *postStack) blit(tex, dstFBO uint32) {
	gl.BindFramebuffer(gl.FRAMEBUFFER, dstFBO)
	gl.Viewport(0, 0, int32(ps.w), int32(ps.h))
	gl.UseProgram(ps.copyProg)
	gl.ActiveTexture(gl.TEXTURE0)
	gl.BindTexture(gl.TEXTURE_2D, tex)
	gl.Uniform1i(ps.copyUTex, 0)
	ps.drawQuad()
}

// run executes the enabled passes from src into dstFBO. With no pass
// enabled the source is blitted straight through.
func (ps *postStack) run(src uint32, cfg PostConfig, grainSeed float32, dstFBO uint32) {
	plan := PlanPasses(cfg)
	if len(plan) == 0 {
		ps.blit(src, dstFBO)
		return
	}

	gl.Disable(gl.BLEND)
	cur := src
	scratchIdx := 0
	for i, pass := range plan {
		last := i == len(plan)-1
		if pass == PassTrail {
			// Trail writes its own ping-pong slot, then a copy pass
			// seeds the chain so later passes never touch the slot
			// the next frame reads back.
			dst := &ps.trail[ps.trailActive]
			prev := &ps.trail[1-ps.trailActive]
			gl.BindFramebuffer(gl.FRAMEBUFFER, dst.fbo)
			gl.Viewport(0, 0, int32(ps.w), int32(ps.h))
			gl.UseProgram(ps.trailProg)
			gl.ActiveTexture(gl.TEXTURE0)
			gl.BindTexture(gl.TEXTURE_2D, cur)
			gl.Uniform1i(ps.trailUTex, 0)
			gl.ActiveTexture(gl.TEXTURE1)
			gl.BindTexture(gl.TEXTURE_2D, prev.tex)
			gl.Uniform1i(ps.trailUPrev, 1)
			gl.Uniform1f(ps.trailUAmount, float32(cfg.Trail))
			ps.drawQuad()
			ps.trailActive = 1 - ps.trailActive
			if last {
				ps.blit(dst.tex, dstFBO)
				gl.Enable(gl.BLEND)
				return
			}
			ps.blit(dst.tex, ps.scratch[scratchIdx].fbo)
			cur = ps.scratch[scratchIdx].tex
			scratchIdx = 1 - scratchIdx
			continue
		}

		dstFB := ps.scratch[scratchIdx].fbo
		dstTex := ps.scratch[scratchIdx].tex
		if last {
			dstFB = dstFBO
		}
		gl.BindFramebuffer(gl.FRAMEBUFFER, dstFB)
		gl.Viewport(0, 0, int32(ps.w), int32(ps.h))
		gl.ActiveTexture(gl.TEXTURE0)
		gl.BindTexture(gl.TEXTURE_2D, cur)
		switch pass {
		case PassBloom:
			gl.UseProgram(ps.bloomProg)
			gl.Uniform1i(ps.bloomUTex, 0)
			gl.Uniform2f(ps.bloomUTexel, 1/float32(ps.w), 1/float32(ps.h))
			gl.Uniform1f(ps.bloomUAmount, float32(cfg.Bloom))
		case PassChroma:
			gl.UseProgram(ps.chromaProg)
			gl.Uniform1i(ps.chromaUTex, 0)
			gl.Uniform1f(ps.chromaUShift, float32(cfg.Chroma))
		case PassVignette:
			gl.UseProgram(ps.vigProg)
			gl.Uniform1i(ps.vigUTex, 0)
			gl.Uniform1f(ps.vigUAmount, float32(cfg.Vignette))
		case PassGrain:
			gl.UseProgram(ps.grainProg)
			gl.Uniform1i(ps.grainUTex, 0)
			gl.Uniform1f(ps.grainUAmount, float32(cfg.Grain))
			gl.Uniform1f(ps.grainUSeed, grainSeed)
		}
		ps.drawQuad()
		if !last {
			cur = dstTex
			scratchIdx = 1 - scratchIdx
		}
	}
	gl.Enable(gl.BLEND)
}

func (ps *postStack) destroy() {
	for i := range ps.trail {
		ps.trail[i].destroy()
		ps.scratch[i].destroy()
	}
	if ps.quadVAO != 0 {
		gl.DeleteVertexArrays(1, &ps.quadVAO)
	}
	for _, p := range []uint32{ps.copyProg, ps.trailProg, ps.bloomProg, ps.chromaProg, ps.vigProg, ps.grainProg} {
		if p != 0 {
			gl.DeleteProgram(p)
		}
	}
}

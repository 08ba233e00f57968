package render

import (
	"fmt"
	"strings"

	"github.com/go-gl/gl/v4.1-core/gl"
)

// Line vertex shader: world-space endpoints with per-vertex color.
const lineVertSrc = `#version 410 core

layout(location = 0) in vec2 aPos;
layout(location = 1) in vec3 aColor;

uniform vec2 uCamera;
uniform float uZoom;
uniform vec2 uResolution;

out vec3 vColor;

void main() {
    vec2 screenPos = (aPos - uCamera) * uZoom + uResolution * 0.5;
    vec2 ndc = (screenPos / uResolution) * 2.0 - 1.0;
    ndc.y = -ndc.y;
    gl_Position = vec4(ndc, 0.0, 1.0);
    vColor = aColor;
}
` + "\x00"

// Line fragment shader: additive strokes faded by a global alpha.
const lineFragSrc = `#version 410 core

uniform float uAlpha;

in vec3 vColor;
out vec4 FragColor;

void main() {
    FragColor = vec4(vColor * uAlpha, uAlpha);
}
` + "\x00"

// Fullscreen triangle for every post pass; no VBO needed.
const blitVertSrc = `#version 410 core

out vec2 vUV;

void main() {
    vec2 pos = vec2(float((gl_VertexID << 1) & 2), float(gl_VertexID & 2));
    vUV = pos;
    gl_Position = vec4(pos * 2.0 - 1.0, 0.0, 1.0);
}
` + "\x00"

const copyFragSrc = `#version 410 core

uniform sampler2D uTex;

in vec2 vUV;
out vec4 FragColor;

void main() {
    FragColor = texture(uTex, vUV);
}
` + "\x00"

// Trail mix: current frame over the decayed previous trail buffer.
const trailFragSrc = `#version 410 core

uniform sampler2D uTex;
uniform sampler2D uPrev;
uniform float uAmount;

in vec2 vUV;
out vec4 FragColor;

void main() {
    vec4 cur = texture(uTex, vUV);
    vec4 prev = texture(uPrev, vUV);
    FragColor = max(cur, prev * uAmount);
}
` + "\x00"

// Single-pass bloom: 9-tap box blur added on top of the source,
// weighted by brightness.
const bloomFragSrc = `#version 410 core

uniform sampler2D uTex;
uniform vec2 uTexel;
uniform float uAmount;

in vec2 vUV;
out vec4 FragColor;

void main() {
    vec4 src = texture(uTex, vUV);
    vec3 blur = vec3(0.0);
    for (int dx = -1; dx <= 1; dx++) {
        for (int dy = -1; dy <= 1; dy++) {
            blur += texture(uTex, vUV + vec2(float(dx), float(dy)) * uTexel * 2.0).rgb;
        }
    }
    blur /= 9.0;
    float lum = dot(blur, vec3(0.299, 0.587, 0.114));
    FragColor = vec4(src.rgb + blur * lum * uAmount, src.a);
}
` + "\x00"

// Chromatic aberration: R and B sampled at opposed offsets along the
// radius from center. uShift is the 0..1 amount; 0.02 is the max UV
// displacement.
const chromaFragSrc = `#version 410 core

uniform sampler2D uTex;
uniform float uShift;

in vec2 vUV;
out vec4 FragColor;

void main() {
    vec2 dir = vUV - vec2(0.5);
    vec2 off = dir * uShift * 0.02;
    float r = texture(uTex, vUV + off).r;
    float g = texture(uTex, vUV).g;
    float b = texture(uTex, vUV - off).b;
    float a = texture(uTex, vUV).a;
    FragColor = vec4(r, g, b, a);
}
` + "\x00"

const vignetteFragSrc = `#version 410 core

uniform sampler2D uTex;
uniform float uAmount;

in vec2 vUV;
out vec4 FragColor;

void main() {
    vec4 src = texture(uTex, vUV);
    float d = length(vUV - vec2(0.5)) * 1.41421356;
    float vig = 1.0 - uAmount * d * d;
    FragColor = vec4(src.rgb * vig, src.a);
}
` + "\x00"

// Film grain: hash noise seeded per frame so it animates.
const grainFragSrc = `#version 410 core

uniform sampler2D uTex;
uniform float uAmount;
uniform float uSeed;

in vec2 vUV;
out vec4 FragColor;

void main() {
    vec4 src = texture(uTex, vUV);
    float n = fract(sin(dot(vUV + uSeed, vec2(12.9898, 78.233))) * 43758.5453);
    FragColor = vec4(src.rgb + (n - 0.5) * uAmount * 0.15, src.a);
}
` + "\x00"

func compileShader(source string, shaderType uint32) (uint32, error) {
	shader := gl.CreateShader(shaderType)
	csources, free := gl.Strs(source)
	gl.ShaderSource(shader, 1, csources, nil)
	free()
	gl.CompileShader(shader)

	var status int32
	gl.GetShaderiv(shader, gl.COMPILE_STATUS, &status)
	if status == gl.FALSE {
		var logLen int32
		gl.GetShaderiv(shader, gl.INFO_LOG_LENGTH, &logLen)
		buf := strings.Repeat("\x00", int(logLen+1))
		gl.GetShaderInfoLog(shader, logLen, nil, gl.Str(buf))
		gl.DeleteShader(shader)
		return 0, fmt.Errorf("compile shader: %s", strings.TrimRight(buf, "\x00"))
	}
	return shader, nil
}

func linkProgram(vertSrc, fragSrc string) (uint32, error) {
	vs, err := compileShader(vertSrc, gl.VERTEX_SHADER)
	if err != nil {
		return 0, err
	}
	fs, err := compileShader(fragSrc, gl.FRAGMENT_SHADER)
	if err != nil {
		gl.DeleteShader(vs)
		return 0, err
	}

	program := gl.CreateProgram()
	gl.AttachShader(program, vs)
	gl.AttachShader(program, fs)
	gl.LinkProgram(program)

	gl.DetachShader(program, vs)
	gl.DetachShader(program, fs)
	gl.DeleteShader(vs)
	gl.DeleteShader(fs)

	var status int32
	gl.GetProgramiv(program, gl.LINK_STATUS, &status)
	if status == gl.FALSE {
		var logLen int32
		gl.GetProgramiv(program, gl.INFO_LOG_LENGTH, &logLen)
		buf := strings.Repeat("\x00", int(logLen+1))
		gl.GetProgramInfoLog(program, logLen, nil, gl.Str(buf))
		gl.DeleteProgram(program)
		return 0, fmt.Errorf("link program: %s", strings.TrimRight(buf, "\x00"))
	}
	return program, nil
}

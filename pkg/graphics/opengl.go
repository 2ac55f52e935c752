package graphics

import (
	"fmt"
	"strings"

	"github.com/go-gl/gl/v2.1/gl"
	"github.com/rtedge/rtedge/pkg/logger"
	"github.com/rtedge/rtedge/pkg/render"
	"github.com/veandco/go-sdl2/sdl"
)

type locations struct {
	position, texCoord uint32
	matrix, texture    int32
}

// OpenGL is the render.Backend of a GL 2.1 context.
type OpenGL struct {
	vbo  uint32
	locs map[render.Program]locations
	log  *logger.Logger
}

// NewOpenGL loads the GL functions of the current context.
func NewOpenGL(log *logger.Logger) (*OpenGL, error) {
	if err := gl.InitWithProcAddrFunc(sdl.GLGetProcAddress); err != nil {
		return nil, fmt.Errorf("gl init: %w", err)
	}
	o := &OpenGL{locs: make(map[render.Program]locations), log: log.Module("gl")}
	o.PrintDriverInfo()
	gl.ClearColor(0, 0, 0, 1)
	return o, nil
}

func (o *OpenGL) CompileProgram(vs, fs string) (render.Program, error) {
	v, err := compileShader(vs, gl.VERTEX_SHADER)
	if err != nil {
		return 0, fmt.Errorf("vertex shader: %w", err)
	}
	defer gl.DeleteShader(v)
	f, err := compileShader(fs, gl.FRAGMENT_SHADER)
	if err != nil {
		return 0, fmt.Errorf("fragment shader: %w", err)
	}
	defer gl.DeleteShader(f)

	p := gl.CreateProgram()
	gl.AttachShader(p, v)
	gl.AttachShader(p, f)
	gl.LinkProgram(p)
	var status int32
	gl.GetProgramiv(p, gl.LINK_STATUS, &status)
	if status == gl.FALSE {
		var n int32
		gl.GetProgramiv(p, gl.INFO_LOG_LENGTH, &n)
		msg := strings.Repeat("\x00", int(n+1))
		gl.GetProgramInfoLog(p, n, nil, gl.Str(msg))
		gl.DeleteProgram(p)
		return 0, fmt.Errorf("link: %v", strings.TrimRight(msg, "\x00"))
	}
	gl.DetachShader(p, v)
	gl.DetachShader(p, f)

	o.locs[render.Program(p)] = locations{
		position: uint32(gl.GetAttribLocation(p, gl.Str(render.AttrPosition+"\x00"))),
		texCoord: uint32(gl.GetAttribLocation(p, gl.Str(render.AttrTexCoord+"\x00"))),
		matrix:   gl.GetUniformLocation(p, gl.Str(render.UniformMatrix+"\x00")),
		texture:  gl.GetUniformLocation(p, gl.Str(render.UniformTexture+"\x00")),
	}
	return render.Program(p), nil
}

func compileShader(src string, kind uint32) (uint32, error) {
	s := gl.CreateShader(kind)
	csrc, free := gl.Strs(src)
	gl.ShaderSource(s, 1, csrc, nil)
	free()
	gl.CompileShader(s)

	var status int32
	gl.GetShaderiv(s, gl.COMPILE_STATUS, &status)
	if status == gl.FALSE {
		var n int32
		gl.GetShaderiv(s, gl.INFO_LOG_LENGTH, &n)
		msg := strings.Repeat("\x00", int(n+1))
		gl.GetShaderInfoLog(s, n, nil, gl.Str(msg))
		gl.DeleteShader(s)
		return 0, fmt.Errorf("compile: %v", strings.TrimRight(msg, "\x00"))
	}
	return s, nil
}

func (o *OpenGL) NewTexture() render.Texture {
	var t uint32
	gl.GenTextures(1, &t)
	gl.BindTexture(gl.TEXTURE_2D, t)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_EDGE)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_EDGE)
	gl.BindTexture(gl.TEXTURE_2D, 0)
	return render.Texture(t)
}

func (o *OpenGL) Upload(t render.Texture, w, h int, pix []byte) {
	if len(pix) == 0 || len(pix) < w*h*4 {
		return
	}
	gl.BindTexture(gl.TEXTURE_2D, uint32(t))
	gl.PixelStorei(gl.UNPACK_ALIGNMENT, 1)
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGBA, int32(w), int32(h), 0, gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(pix))
}

func (o *OpenGL) Viewport(w, h int) { gl.Viewport(0, 0, int32(w), int32(h)) }

func (o *OpenGL) Clear() { gl.Clear(gl.COLOR_BUFFER_BIT) }

func (o *OpenGL) Draw(p render.Program, t render.Texture, quad []float32, mvp [16]float32) {
	loc, ok := o.locs[p]
	if !ok {
		return
	}
	if o.vbo == 0 {
		gl.GenBuffers(1, &o.vbo)
		gl.BindBuffer(gl.ARRAY_BUFFER, o.vbo)
		gl.BufferData(gl.ARRAY_BUFFER, len(quad)*4, gl.Ptr(quad), gl.STATIC_DRAW)
	}
	gl.UseProgram(uint32(p))
	gl.ActiveTexture(gl.TEXTURE0)
	gl.BindTexture(gl.TEXTURE_2D, uint32(t))
	gl.Uniform1i(loc.texture, 0)
	gl.UniformMatrix4fv(loc.matrix, 1, false, &mvp[0])

	stride := int32(render.QuadStride * 4)
	gl.BindBuffer(gl.ARRAY_BUFFER, o.vbo)
	gl.EnableVertexAttribArray(loc.position)
	gl.VertexAttribPointer(loc.position, 2, gl.FLOAT, false, stride, gl.PtrOffset(0))
	gl.EnableVertexAttribArray(loc.texCoord)
	gl.VertexAttribPointer(loc.texCoord, 2, gl.FLOAT, false, stride, gl.PtrOffset(8))

	gl.DrawArrays(gl.TRIANGLE_STRIP, 0, render.QuadVertices)

	gl.DisableVertexAttribArray(loc.position)
	gl.DisableVertexAttribArray(loc.texCoord)
	gl.BindBuffer(gl.ARRAY_BUFFER, 0)

	if e := gl.GetError(); e != gl.NO_ERROR {
		o.log.Error().Msgf("GL error: 0x%X", e)
	}
}

func (o *OpenGL) DeleteProgram(p render.Program) {
	delete(o.locs, p)
	gl.DeleteProgram(uint32(p))
	if len(o.locs) == 0 && o.vbo != 0 {
		gl.DeleteBuffers(1, &o.vbo)
		o.vbo = 0
	}
}

func (o *OpenGL) DeleteTexture(t render.Texture) {
	tex := uint32(t)
	gl.DeleteTextures(1, &tex)
}

// PrintDriverInfo logs the OpenGL driver information.
func (o *OpenGL) PrintDriverInfo() {
	o.log.Info().
		Str("version", get(gl.VERSION)).
		Str("vendor", get(gl.VENDOR)).
		// often the name of the GPU
		Str("renderer", get(gl.RENDERER)).
		Str("glsl", get(gl.SHADING_LANGUAGE_VERSION)).
		Msg("OpenGL")
}

func get(name uint32) string { return gl.GoStr(gl.GetString(name)) }

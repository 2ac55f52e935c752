package render

// Quad is the full-screen triangle strip, each vertex is x, y, u, v.
// The texture is flipped vertically so that the first row of the frame
// ends up at the top.
var Quad = [16]float32{
	-1, -1, 0, 1,
	1, -1, 1, 1,
	-1, 1, 0, 0,
	1, 1, 1, 0,
}

const (
	QuadVertices = 4
	QuadStride   = 4
)

// Attribute and uniform names used by the shaders.
const (
	AttrPosition   = "aPosition"
	AttrTexCoord   = "aTexCoord"
	UniformMatrix  = "uMatrix"
	UniformTexture = "uTexture"
)

const VertexShader = `
attribute vec4 aPosition;
attribute vec2 aTexCoord;
varying vec2 vTexCoord;
uniform mat4 uMatrix;
void main() {
    gl_Position = uMatrix * aPosition;
    vTexCoord = aTexCoord;
}
` + "\x00"

const FragmentShader = `
#ifdef GL_ES
precision mediump float;
#endif
varying vec2 vTexCoord;
uniform sampler2D uTexture;
void main() {
    gl_FragColor = texture2D(uTexture, vTexCoord);
}
` + "\x00"

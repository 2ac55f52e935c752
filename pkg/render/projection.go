package render

// Identity is the 4x4 identity matrix.
var Identity = [16]float32{
	1, 0, 0, 0,
	0, 1, 0, 0,
	0, 0, 1, 0,
	0, 0, 0, 1,
}

// Projection returns the column-major matrix that scales the unit quad so
// that a frame of fw x fh covers a surface of sw x sh keeping its aspect
// ratio. The axis that overflows the surface gets cropped.
func Projection(sw, sh, fw, fh int) [16]float32 {
	if sw == 0 || sh == 0 || fw == 0 || fh == 0 {
		return Identity
	}
	sa := float32(sw) / float32(sh)
	fa := float32(fw) / float32(fh)
	sx, sy := float32(1), float32(1)
	if fa > sa {
		sy = fa / sa
	} else {
		sx = sa / fa
	}
	m := Identity
	m[0], m[5] = sx, sy
	return m
}

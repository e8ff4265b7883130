package texture

// Checkerboard returns a pattern of white and black squares of the given size.
// The top-left square is white.
func Checkerboard(width, height, size int) *Texture {
	tex := New(width, height)
	if size <= 0 {
		size = 1
	}
	for y := range height {
		for x := range width {
			evenX := (x/size)%2 == 0
			evenY := (y/size)%2 == 0
			c := Black
			if evenX == evenY {
				c = 0xFFFFFFFF
			}
			tex.Pixels[y*width+x] = c
		}
	}
	return tex
}

// Gradient returns a texture where red grows left to right, green grows top
// to bottom and blue fades left to right.
func Gradient(width, height int) *Texture {
	tex := New(width, height)
	for y := range height {
		for x := range width {
			fx := float64(x) / float64(width)
			fy := float64(y) / float64(height)
			tex.Pixels[y*width+x] = Pack(
				uint8(255*fx),
				uint8(255*fy),
				uint8(255*(1-fx)),
				255,
			)
		}
	}
	return tex
}

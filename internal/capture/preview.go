package capture

import (
	"errors"
	"image"
	"image/color"

	"gocv.io/x/gocv"
)

// Preview depth window in millimetres.
const (
	PreviewMinDepth = 500
	PreviewMaxDepth = 5000
)

// Gray maps depth readings to 8-bit intensities: near is bright, far is
// dark, and readings outside the preview window are black.
func Gray(depth []uint16) []byte {
	out := make([]byte, len(depth))
	for i, d := range depth {
		if d < PreviewMinDepth || d > PreviewMaxDepth {
			continue
		}
		out[i] = byte(255 - (int(d)-PreviewMinDepth)*255/(PreviewMaxDepth-PreviewMinDepth))
	}
	return out
}

// Preview renders a frame's depth buffer as a JPEG with the centre row marked.
func Preview(f *Frame) ([]byte, error) {
	if f == nil || f.Depth == nil {
		return nil, errors.New("frame has no depth buffer")
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}

	gray, err := gocv.NewMatFromBytes(f.Height, f.Width, gocv.MatTypeCV8UC1, Gray(f.Depth))
	if err != nil {
		return nil, err
	}
	defer gray.Close()

	img := gocv.NewMat()
	defer img.Close()
	gocv.CvtColor(gray, &img, gocv.ColorGrayToBGR)

	mid := f.Height / 2
	gocv.Line(&img, image.Pt(0, mid), image.Pt(f.Width-1, mid), color.RGBA{0, 0, 255, 0}, 1)

	buf, err := gocv.IMEncode(".jpg", img)
	if err != nil {
		return nil, err
	}
	defer buf.Close()

	data := buf.GetBytes()
	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}

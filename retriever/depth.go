package retriever

// DepthImage is a per-pixel depth map (meters) registered with the detector image.
// Data is stored row by row.
type DepthImage struct {
	Width  int
	Height int
	Data   []float32
}

// NewDepthImage allocates zero-filled depth image
func NewDepthImage(width, height int) *DepthImage {
	return &DepthImage{
		Width:  width,
		Height: height,
		Data:   make([]float32, width*height),
	}
}

// Empty returns true when image has no pixels
func (img *DepthImage) Empty() bool {
	return img == nil || img.Width <= 0 || img.Height <= 0 || len(img.Data) < img.Width*img.Height
}

// At returns depth sample at (u, v). Second value is false for out of bounds pixels
func (img *DepthImage) At(u, v int) (float64, bool) {
	if img.Empty() || u < 0 || v < 0 || u >= img.Width || v >= img.Height {
		return 0, false
	}
	return float64(img.Data[v*img.Width+u]), true
}

// Set sets depth sample at (u, v). Out of bounds pixels are ignored
func (img *DepthImage) Set(u, v int, d float32) {
	if img.Empty() || u < 0 || v < 0 || u >= img.Width || v >= img.Height {
		return
	}
	img.Data[v*img.Width+u] = d
}

// Fill sets every sample to d
func (img *DepthImage) Fill(d float32) {
	for i := range img.Data {
		img.Data[i] = d
	}
}

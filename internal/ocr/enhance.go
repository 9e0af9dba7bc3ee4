package ocr

import (
	"image"
	"math"

	"github.com/disintegration/imaging"
	"github.com/infinity-9427/IntelliDoc-AI/pkg/logging"
)

// Enhancer prepares page images for recognition. Every step targets a
// distinct OCR failure mode; the order is fixed so binarization sees
// denoised, contrast-normalized input.
type Enhancer struct{}

// NewEnhancer returns an image enhancer
func NewEnhancer() *Enhancer {
	return &Enhancer{}
}

// Enhance runs the preprocessing pipeline. It never fails the caller:
// any internal fault degrades to returning the input unchanged.
// Aggressive mode combines three binarization methods; non-aggressive
// mode uses adaptive-Gaussian alone.
func (e *Enhancer) Enhance(img image.Image, aggressive bool) (out image.Image) {
	out = img
	defer func() {
		if r := recover(); r != nil {
			logger := logging.GetLogger("ocr")
			logger.Warn().Interface("panic", r).Msg("Image enhancement failed, returning original")
			out = img
		}
	}()
	if img == nil || img.Bounds().Dx() == 0 || img.Bounds().Dy() == 0 {
		return img
	}

	gray := toGray(img)

	// Edge-preserving denoise, then local contrast normalization.
	gray = bilateralFilter(gray, 9, 75, 75)
	gray = equalizeLocalContrast(gray, 2.0, 8)

	// 1x1 close to drop isolated noise pixels.
	gray = morphClose(gray, 1, 1)

	if aggressive {
		otsu := binarize(gray, otsuThreshold(gray))
		gaussian := adaptiveThresholdGaussian(gray, 11, 2)
		mean := adaptiveThresholdMean(gray, 11, 2)
		gray = bitwiseOr(bitwiseAnd(otsu, gaussian), mean)
	} else {
		gray = adaptiveThresholdGaussian(gray, 11, 2)
	}

	// Reconnect broken glyph strokes, then drop sub-glyph specks.
	gray = dilateRect(gray, 2, 1)
	gray = removeSmallComponents(gray, 10)

	enhanced := imaging.Sharpen(grayToNRGBA(gray), 1.0)
	enhanced = imaging.AdjustContrast(enhanced, 50) // 1.5x contrast

	w, h := enhanced.Bounds().Dx(), enhanced.Bounds().Dy()
	if w < 1000 || h < 1000 {
		longest := w
		if h > longest {
			longest = h
		}
		factor := 1500 / longest
		if factor < 2 {
			factor = 2
		}
		return imaging.Resize(enhanced, w*factor, h*factor, imaging.Lanczos)
	}
	return enhanced
}

func toGray(img image.Image) *image.Gray {
	if g, ok := img.(*image.Gray); ok {
		return g
	}
	b := img.Bounds()
	out := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r, g, bl, _ := img.At(x, y).RGBA()
			v := (299*r + 587*g + 114*bl) / 1000
			out.Pix[(y-b.Min.Y)*out.Stride+(x-b.Min.X)] = uint8(v >> 8)
		}
	}
	return out
}

func grayToNRGBA(g *image.Gray) *image.NRGBA {
	w, h := g.Bounds().Dx(), g.Bounds().Dy()
	out := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := g.Pix[y*g.Stride+x]
			i := y*out.Stride + x*4
			out.Pix[i], out.Pix[i+1], out.Pix[i+2], out.Pix[i+3] = v, v, v, 255
		}
	}
	return out
}

// bilateralFilter smooths noise while keeping glyph edges. Spatial
// weights are precomputed for the window; range weights depend on the
// intensity difference to the center pixel.
func bilateralFilter(g *image.Gray, diameter int, sigmaColor, sigmaSpace float64) *image.Gray {
	w, h := g.Bounds().Dx(), g.Bounds().Dy()
	radius := diameter / 2
	out := image.NewGray(image.Rect(0, 0, w, h))

	spatial := make([]float64, diameter*diameter)
	for dy := -radius; dy <= radius; dy++ {
		for dx := -radius; dx <= radius; dx++ {
			d2 := float64(dx*dx + dy*dy)
			spatial[(dy+radius)*diameter+(dx+radius)] = math.Exp(-d2 / (2 * sigmaSpace * sigmaSpace))
		}
	}
	var rangeW [256]float64
	for d := 0; d < 256; d++ {
		rangeW[d] = math.Exp(-float64(d*d) / (2 * sigmaColor * sigmaColor))
	}

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			center := g.Pix[y*g.Stride+x]
			var sum, norm float64
			for dy := -radius; dy <= radius; dy++ {
				yy := y + dy
				if yy < 0 || yy >= h {
					continue
				}
				for dx := -radius; dx <= radius; dx++ {
					xx := x + dx
					if xx < 0 || xx >= w {
						continue
					}
					v := g.Pix[yy*g.Stride+xx]
					diff := int(v) - int(center)
					if diff < 0 {
						diff = -diff
					}
					weight := spatial[(dy+radius)*diameter+(dx+radius)] * rangeW[diff]
					sum += weight * float64(v)
					norm += weight
				}
			}
			if norm > 0 {
				out.Pix[y*out.Stride+x] = uint8(sum/norm + 0.5)
			} else {
				out.Pix[y*out.Stride+x] = center
			}
		}
	}
	return out
}

// equalizeLocalContrast applies tile-based histogram equalization with a
// clip limit, normalizing contrast separately per region of the page.
func equalizeLocalContrast(g *image.Gray, clipLimit float64, tiles int) *image.Gray {
	w, h := g.Bounds().Dx(), g.Bounds().Dy()
	if tiles < 1 {
		tiles = 1
	}
	tileW := (w + tiles - 1) / tiles
	tileH := (h + tiles - 1) / tiles
	if tileW == 0 || tileH == 0 {
		return g
	}
	out := image.NewGray(image.Rect(0, 0, w, h))

	for ty := 0; ty < tiles; ty++ {
		for tx := 0; tx < tiles; tx++ {
			x0, y0 := tx*tileW, ty*tileH
			x1, y1 := x0+tileW, y0+tileH
			if x1 > w {
				x1 = w
			}
			if y1 > h {
				y1 = h
			}
			if x0 >= x1 || y0 >= y1 {
				continue
			}

			var hist [256]int
			for y := y0; y < y1; y++ {
				for x := x0; x < x1; x++ {
					hist[g.Pix[y*g.Stride+x]]++
				}
			}

			area := (x1 - x0) * (y1 - y0)
			limit := int(clipLimit * float64(area) / 256)
			if limit < 1 {
				limit = 1
			}
			clipped := 0
			for i := 0; i < 256; i++ {
				if hist[i] > limit {
					clipped += hist[i] - limit
					hist[i] = limit
				}
			}
			// Redistribute clipped mass uniformly.
			share := clipped / 256
			for i := 0; i < 256; i++ {
				hist[i] += share
			}

			var lut [256]uint8
			cum := 0
			for i := 0; i < 256; i++ {
				cum += hist[i]
				lut[i] = uint8(255 * cum / area)
			}
			for y := y0; y < y1; y++ {
				for x := x0; x < x1; x++ {
					out.Pix[y*out.Stride+x] = lut[g.Pix[y*g.Stride+x]]
				}
			}
		}
	}
	return out
}

// otsuThreshold computes the global threshold maximizing between-class variance
func otsuThreshold(g *image.Gray) uint8 {
	var hist [256]int
	w, h := g.Bounds().Dx(), g.Bounds().Dy()
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			hist[g.Pix[y*g.Stride+x]]++
		}
	}
	total := w * h
	var sum float64
	for i := 0; i < 256; i++ {
		sum += float64(i) * float64(hist[i])
	}
	var sumB, wB float64
	var best float64
	var threshold uint8
	for t := 0; t < 256; t++ {
		wB += float64(hist[t])
		if wB == 0 {
			continue
		}
		wF := float64(total) - wB
		if wF == 0 {
			break
		}
		sumB += float64(t) * float64(hist[t])
		mB := sumB / wB
		mF := (sum - sumB) / wF
		between := wB * wF * (mB - mF) * (mB - mF)
		if between > best {
			best = between
			threshold = uint8(t)
		}
	}
	return threshold
}

// binarize applies a global threshold: above stays white, below black
func binarize(g *image.Gray, threshold uint8) *image.Gray {
	w, h := g.Bounds().Dx(), g.Bounds().Dy()
	out := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if g.Pix[y*g.Stride+x] > threshold {
				out.Pix[y*out.Stride+x] = 255
			}
		}
	}
	return out
}

// adaptiveThresholdMean thresholds each pixel against the mean of its
// window minus a bias, using an integral image for the window sums.
func adaptiveThresholdMean(g *image.Gray, window, bias int) *image.Gray {
	if window < 3 {
		window = 3
	}
	if window%2 == 0 {
		window++
	}
	w, h := g.Bounds().Dx(), g.Bounds().Dy()
	half := window / 2
	out := image.NewGray(image.Rect(0, 0, w, h))

	ints := make([]int, w*h)
	for y := 0; y < h; y++ {
		rowSum := 0
		for x := 0; x < w; x++ {
			rowSum += int(g.Pix[y*g.Stride+x])
			idx := y*w + x
			if y == 0 {
				ints[idx] = rowSum
			} else {
				ints[idx] = ints[(y-1)*w+x] + rowSum
			}
		}
	}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			x0, y0 := x-half, y-half
			x1, y1 := x+half, y+half
			if x0 < 0 {
				x0 = 0
			}
			if y0 < 0 {
				y0 = 0
			}
			if x1 >= w {
				x1 = w - 1
			}
			if y1 >= h {
				y1 = h - 1
			}
			sum := ints[y1*w+x1]
			if x0 > 0 {
				sum -= ints[y1*w+x0-1]
			}
			if y0 > 0 {
				sum -= ints[(y0-1)*w+x1]
			}
			if x0 > 0 && y0 > 0 {
				sum += ints[(y0-1)*w+x0-1]
			}
			mean := sum / ((x1 - x0 + 1) * (y1 - y0 + 1))
			if int(g.Pix[y*g.Stride+x]) > mean-bias {
				out.Pix[y*out.Stride+x] = 255
			}
		}
	}
	return out
}

// adaptiveThresholdGaussian thresholds each pixel against a
// Gaussian-weighted window mean minus a bias.
func adaptiveThresholdGaussian(g *image.Gray, window, bias int) *image.Gray {
	if window < 3 {
		window = 3
	}
	if window%2 == 0 {
		window++
	}
	w, h := g.Bounds().Dx(), g.Bounds().Dy()
	half := window / 2
	out := image.NewGray(image.Rect(0, 0, w, h))

	sigma := 0.3*(float64(window-1)*0.5-1) + 0.8
	kernel := make([]float64, window)
	var ksum float64
	for i := 0; i < window; i++ {
		d := float64(i - half)
		kernel[i] = math.Exp(-d * d / (2 * sigma * sigma))
		ksum += kernel[i]
	}
	for i := range kernel {
		kernel[i] /= ksum
	}

	// Separable pass: horizontal then vertical.
	tmp := make([]float64, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			var acc, norm float64
			for k := -half; k <= half; k++ {
				xx := x + k
				if xx < 0 || xx >= w {
					continue
				}
				acc += kernel[k+half] * float64(g.Pix[y*g.Stride+xx])
				norm += kernel[k+half]
			}
			tmp[y*w+x] = acc / norm
		}
	}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			var acc, norm float64
			for k := -half; k <= half; k++ {
				yy := y + k
				if yy < 0 || yy >= h {
					continue
				}
				acc += kernel[k+half] * tmp[yy*w+x]
				norm += kernel[k+half]
			}
			if float64(g.Pix[y*g.Stride+x]) > acc/norm-float64(bias) {
				out.Pix[y*out.Stride+x] = 255
			}
		}
	}
	return out
}

func bitwiseAnd(a, b *image.Gray) *image.Gray {
	w, h := a.Bounds().Dx(), a.Bounds().Dy()
	out := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			out.Pix[y*out.Stride+x] = a.Pix[y*a.Stride+x] & b.Pix[y*b.Stride+x]
		}
	}
	return out
}

func bitwiseOr(a, b *image.Gray) *image.Gray {
	w, h := a.Bounds().Dx(), a.Bounds().Dy()
	out := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			out.Pix[y*out.Stride+x] = a.Pix[y*a.Stride+x] | b.Pix[y*b.Stride+x]
		}
	}
	return out
}

// dilateRect grows bright regions by a kernelW x kernelH rectangle
func dilateRect(g *image.Gray, kernelW, kernelH int) *image.Gray {
	w, h := g.Bounds().Dx(), g.Bounds().Dy()
	out := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			var max uint8
			for dy := 0; dy < kernelH; dy++ {
				for dx := 0; dx < kernelW; dx++ {
					yy := y + dy - kernelH/2
					xx := x + dx - kernelW/2
					if yy < 0 || yy >= h || xx < 0 || xx >= w {
						continue
					}
					if v := g.Pix[yy*g.Stride+xx]; v > max {
						max = v
					}
				}
			}
			out.Pix[y*out.Stride+x] = max
		}
	}
	return out
}

func erodeRect(g *image.Gray, kernelW, kernelH int) *image.Gray {
	w, h := g.Bounds().Dx(), g.Bounds().Dy()
	out := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			min := uint8(255)
			for dy := 0; dy < kernelH; dy++ {
				for dx := 0; dx < kernelW; dx++ {
					yy := y + dy - kernelH/2
					xx := x + dx - kernelW/2
					if yy < 0 || yy >= h || xx < 0 || xx >= w {
						continue
					}
					if v := g.Pix[yy*g.Stride+xx]; v < min {
						min = v
					}
				}
			}
			out.Pix[y*out.Stride+x] = min
		}
	}
	return out
}

// morphClose is dilation followed by erosion with the same kernel
func morphClose(g *image.Gray, kernelW, kernelH int) *image.Gray {
	return erodeRect(dilateRect(g, kernelW, kernelH), kernelW, kernelH)
}

// removeSmallComponents clears bright connected components (8-connected)
// whose pixel area is below minArea; these are noise, not glyphs.
func removeSmallComponents(g *image.Gray, minArea int) *image.Gray {
	w, h := g.Bounds().Dx(), g.Bounds().Dy()
	out := image.NewGray(image.Rect(0, 0, w, h))
	copy(out.Pix, g.Pix)

	visited := make([]bool, w*h)
	var stack []int
	var component []int

	for start := 0; start < w*h; start++ {
		if visited[start] || out.Pix[(start/w)*out.Stride+start%w] == 0 {
			continue
		}
		stack = stack[:0]
		component = component[:0]
		stack = append(stack, start)
		visited[start] = true

		for len(stack) > 0 {
			idx := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			component = append(component, idx)
			cx, cy := idx%w, idx/w
			for dy := -1; dy <= 1; dy++ {
				for dx := -1; dx <= 1; dx++ {
					nx, ny := cx+dx, cy+dy
					if nx < 0 || ny < 0 || nx >= w || ny >= h {
						continue
					}
					nidx := ny*w + nx
					if !visited[nidx] && out.Pix[ny*out.Stride+nx] != 0 {
						visited[nidx] = true
						stack = append(stack, nidx)
					}
				}
			}
		}

		if len(component) < minArea {
			for _, idx := range component {
				out.Pix[(idx/w)*out.Stride+idx%w] = 0
			}
		}
	}
	return out
}

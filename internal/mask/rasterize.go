package mask

import (
	"image"
	"image/color"
	"math"

	"gocv.io/x/gocv"

	"pbody-enrich/pkg/geometry"
)

// Rasterize fills the polygon into a mask of the given size using an
// even-odd scan-line fill. An empty vertex list yields an all-zero mask;
// out-of-bounds vertices are clipped by the fill itself.
func Rasterize(poly []geometry.Point2D, width, height int) *Mask {
	if len(poly) == 0 {
		return New(width, height)
	}

	mat := gocv.NewMatWithSize(height, width, gocv.MatTypeCV8U)
	defer mat.Close()

	pts := gocv.NewPointsVectorFromPoints([][]image.Point{toImagePoints(poly)})
	defer pts.Close()
	gocv.FillPoly(&mat, pts, color.RGBA{R: 255, G: 255, B: 255, A: 255})

	return fromMat(mat)
}

// EnlargePolygon grows (amount > 0) or shrinks (amount < 0) a polygon by
// |amount| pixels: the polygon is rasterized, dilated or eroded that many
// times with a 4-connected cross kernel, and the largest external contour
// of the result becomes the new boundary. Amount 0 is a passthrough. A
// region consumed entirely by erosion yields nil.
func EnlargePolygon(poly []geometry.Point2D, width, height, amount int) []geometry.Point2D {
	if amount == 0 || len(poly) == 0 {
		return poly
	}

	mat := gocv.NewMatWithSize(height, width, gocv.MatTypeCV8U)
	defer mat.Close()

	pts := gocv.NewPointsVectorFromPoints([][]image.Point{toImagePoints(poly)})
	defer pts.Close()
	gocv.FillPoly(&mat, pts, color.RGBA{R: 255, G: 255, B: 255, A: 255})

	kernel := gocv.GetStructuringElement(gocv.MorphCross, image.Pt(3, 3))
	defer kernel.Close()

	iterations := amount
	if iterations < 0 {
		iterations = -iterations
	}
	for i := 0; i < iterations; i++ {
		if amount > 0 {
			gocv.Dilate(mat, &mat, kernel)
		} else {
			gocv.Erode(mat, &mat, kernel)
		}
	}

	contours := gocv.FindContours(mat, gocv.RetrievalExternal, gocv.ChainApproxNone)
	defer contours.Close()

	best := -1
	bestArea := 0.0
	for i := 0; i < contours.Size(); i++ {
		area := gocv.ContourArea(contours.At(i))
		if best < 0 || area > bestArea {
			best = i
			bestArea = area
		}
	}
	if best < 0 {
		return nil
	}

	contour := contours.At(best).ToPoints()
	out := make([]geometry.Point2D, len(contour))
	for i, p := range contour {
		out[i] = geometry.Point2D{X: float64(p.X), Y: float64(p.Y)}
	}
	return out
}

func toImagePoints(poly []geometry.Point2D) []image.Point {
	pts := make([]image.Point, len(poly))
	for i, p := range poly {
		pts[i] = image.Pt(int(math.Round(p.X)), int(math.Round(p.Y)))
	}
	return pts
}

func fromMat(mat gocv.Mat) *Mask {
	m := New(mat.Cols(), mat.Rows())
	for y := 0; y < m.Height; y++ {
		for x := 0; x < m.Width; x++ {
			if mat.GetUCharAt(y, x) != 0 {
				m.Pix[y*m.Width+x] = 1
			}
		}
	}
	return m
}

package detector

import (
	"image"
	"math"
	"runtime"
	"sort"

	"gocv.io/x/gocv"
)

const (
	maxClusters     = 5
	pointsPerTarget = 10
	kmeansAttempts  = 10
)

// ClusterCount picks k for n marker pixels: one cluster per ten pixels, at
// least one and at most five.
func ClusterCount(n int) int {
	return min(maxClusters, max(1, n/pointsPerTarget))
}

// Cluster groups points with k-means and returns the rounded centroids,
// ordered left to right. The RNG is reseeded so equal input gives equal output.
func Cluster(points []image.Point, k int) []image.Point {
	if len(points) == 0 || k <= 0 {
		return nil
	}
	k = min(k, len(points))

	data := gocv.NewMatWithSize(len(points), 2, gocv.MatTypeCV32F)
	defer data.Close()
	for i, p := range points {
		data.SetFloatAt(i, 0, float32(p.X))
		data.SetFloatAt(i, 1, float32(p.Y))
	}

	labels := gocv.NewMat()
	defer labels.Close()
	centers := gocv.NewMat()
	defer centers.Close()

	criteria := gocv.NewTermCriteria(gocv.Count|gocv.EPS, 100, 0.2)

	// OpenCV's RNG is per thread.
	runtime.LockOSThread()
	gocv.SetRNGSeed(0)
	gocv.KMeans(data, k, &labels, criteria, kmeansAttempts, gocv.KMeansPPCenters, &centers)
	runtime.UnlockOSThread()

	out := make([]image.Point, 0, centers.Rows())
	for i := 0; i < centers.Rows(); i++ {
		x := math.Round(float64(centers.GetFloatAt(i, 0)))
		y := math.Round(float64(centers.GetFloatAt(i, 1)))
		out = append(out, image.Pt(int(x), int(y)))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].X != out[j].X {
			return out[i].X < out[j].X
		}
		return out[i].Y < out[j].Y
	})
	return out
}

package detector

import (
	"fmt"
	"image"
	"sync"

	"gocv.io/x/gocv"
)

// VisibleConfidence is the keypoint confidence at which a keypoint counts as seen.
const VisibleConfidence = 0.5

type Keypoint struct {
	Pos     image.Point
	Conf    float32
	Visible bool
}

// Detection is one object found by a pose model, in the coordinates of the
// image handed to Detect.
type Detection struct {
	Label     string
	ClassID   int
	Score     float32
	Box       image.Rectangle
	Center    image.Point
	Keypoints []Keypoint
}

// VisibleKeypoints counts the keypoints at or above VisibleConfidence.
func (d Detection) VisibleKeypoints() int {
	n := 0
	for _, kp := range d.Keypoints {
		if kp.Visible {
			n++
		}
	}
	return n
}

type KeypointDetectParam struct {
	Img            *gocv.Mat
	ScoreThreshold float32
	NMSThreshold   float32
}

type KeypointDetector interface {
	Detect(param *KeypointDetectParam) ([]Detection, bool)
}

// KeypointDetectorImpl runs a YOLO pose model exported to ONNX. The network is
// loaded once and guarded by a mutex since gocv.Net is not safe for concurrent use.
type KeypointDetectorImpl struct {
	mu        sync.Mutex
	net       gocv.Net
	inputSize int
	labels    []string
	keypoints int
}

func NewKeypointDetector(modelPath string, inputSize int, labels []string, keypoints int) (*KeypointDetectorImpl, error) {
	net := gocv.ReadNetFromONNX(modelPath)
	if net.Empty() {
		return nil, fmt.Errorf("error loading ONNX model %s", modelPath)
	}
	net.SetPreferableBackend(gocv.NetBackendDefault)
	net.SetPreferableTarget(gocv.NetTargetCPU)

	return &KeypointDetectorImpl{
		net:       net,
		inputSize: inputSize,
		labels:    labels,
		keypoints: keypoints,
	}, nil
}

func NewKeypointDetectParam(img *gocv.Mat, scoreThreshold float32, nmsThreshold float32) *KeypointDetectParam {
	return &KeypointDetectParam{
		Img:            img,
		ScoreThreshold: scoreThreshold,
		NMSThreshold:   nmsThreshold,
	}
}

func (d *KeypointDetectorImpl) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.net.Close()
}

func (d *KeypointDetectorImpl) Detect(param *KeypointDetectParam) ([]Detection, bool) {
	img := param.Img
	if img == nil || img.Empty() {
		return nil, false
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	// blob in the layout the model expects
	size := image.Pt(d.inputSize, d.inputSize)
	blob := gocv.BlobFromImage(*img, 1.0/255.0, size, gocv.NewScalar(0, 0, 0, 0), true, false)
	defer blob.Close()
	d.net.SetInput(blob, "")

	outputNames := getOutputNames(&d.net)
	if len(outputNames) == 0 {
		return nil, false
	}
	outs := d.net.ForwardLayers(outputNames)
	defer func() {
		for _, out := range outs {
			out.Close()
		}
	}()

	// decode every output layer, then one NMS pass over all of them
	var candidates []Detection
	for _, out := range outs {
		candidates = append(candidates, d.decode(out, img.Cols(), img.Rows(), param.ScoreThreshold)...)
	}
	if len(candidates) == 0 {
		return nil, false
	}

	boxes := make([]image.Rectangle, len(candidates))
	scores := make([]float32, len(candidates))
	for i, c := range candidates {
		boxes[i] = c.Box
		scores[i] = c.Score
	}
	indices := gocv.NMSBoxes(boxes, scores, param.ScoreThreshold, param.NMSThreshold)

	detections := make([]Detection, 0, len(indices))
	for _, idx := range indices {
		detections = append(detections, candidates[idx])
	}
	return detections, len(detections) > 0
}

// decode reads one output tensor shaped [1, 4+classes+3*keypoints, anchors].
// Rows become anchors after the transpose: cx, cy, w, h, class scores, then
// (x, y, conf) per keypoint.
func (d *KeypointDetectorImpl) decode(out gocv.Mat, imgW, imgH int, scoreThreshold float32) []Detection {
	transposed := gocv.NewMat()
	defer transposed.Close()
	// [1, C, N] -> [1, N, C], one anchor per row
	gocv.TransposeND(out, []int{0, 2, 1}, &transposed)

	sizes := transposed.Size()
	if len(sizes) < 3 {
		return nil
	}
	rows := transposed.Reshape(1, sizes[1])
	defer rows.Close()

	nc := len(d.labels)
	if nc == 0 || rows.Cols() < 4+nc+3*d.keypoints {
		return nil
	}

	// model coordinates back to the input image
	scaleX := float32(imgW) / float32(d.inputSize)
	scaleY := float32(imgH) / float32(d.inputSize)

	var detections []Detection
	for i := 0; i < rows.Rows(); i++ {
		score, classID := bestClass(&rows, i, nc)
		if score < scoreThreshold {
			continue
		}

		cx := rows.GetFloatAt(i, 0)
		cy := rows.GetFloatAt(i, 1)
		w := rows.GetFloatAt(i, 2)
		h := rows.GetFloatAt(i, 3)
		box := image.Rect(
			int((cx-w/2)*scaleX),
			int((cy-h/2)*scaleY),
			int((cx+w/2)*scaleX),
			int((cy+h/2)*scaleY),
		)

		// keypoints follow the class scores as (x, y, conf)
		kps := make([]Keypoint, d.keypoints)
		for j := range kps {
			col := 4 + nc + 3*j
			conf := rows.GetFloatAt(i, col+2)
			kps[j] = Keypoint{
				Pos:     image.Pt(int(rows.GetFloatAt(i, col)*scaleX), int(rows.GetFloatAt(i, col+1)*scaleY)),
				Conf:    conf,
				Visible: conf >= VisibleConfidence,
			}
		}

		detections = append(detections, Detection{
			Label:     d.label(classID),
			ClassID:   classID,
			Score:     score,
			Box:       box,
			Center:    image.Pt(int(cx*scaleX), int(cy*scaleY)),
			Keypoints: kps,
		})
	}
	return detections
}

func (d *KeypointDetectorImpl) label(classID int) string {
	if classID >= 0 && classID < len(d.labels) {
		return d.labels[classID]
	}
	return fmt.Sprintf("class_%d", classID)
}

func getOutputNames(net *gocv.Net) []string {
	var outputLayers []string
	for _, i := range net.GetUnconnectedOutLayers() {
		layer := net.GetLayer(i)
		layerName := layer.GetName()
		if layerName != "_input" {
			outputLayers = append(outputLayers, layerName)
		}
	}
	return outputLayers
}

func bestClass(out *gocv.Mat, row, nc int) (float32, int) {
	classID := 0
	maxScore := out.GetFloatAt(row, 4)
	for i := 1; i < nc; i++ {
		score := out.GetFloatAt(row, 4+i)
		if score > maxScore {
			maxScore = score
			classID = i
		}
	}
	return maxScore, classID
}

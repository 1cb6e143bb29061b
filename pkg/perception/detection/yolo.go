package detection

import (
	"fmt"
	"image"
	"os"
	"sync"

	"github.com/teslashibe/go-forager/pkg/perception"
	"gocv.io/x/gocv"
)

// YOLO runs a YOLOv8 ONNX model trained on the catalog's classes
type YOLO struct {
	net       gocv.Net
	config    Config
	known     func(classID int) bool
	mu        sync.Mutex
	inputSize image.Point
}

// Option configures a YOLO detector
type Option func(*YOLO)

// WithKnownClasses drops detections whose class id fails known, for
// models trained on more classes than the catalog lists.
func WithKnownClasses(known func(classID int) bool) Option {
	return func(y *YOLO) { y.known = known }
}

// NewYOLO loads the model at cfg.ModelPath
func NewYOLO(cfg Config, opts ...Option) (*YOLO, error) {
	if _, err := os.Stat(cfg.ModelPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("model file not found: %s", cfg.ModelPath)
	}

	net := gocv.ReadNetFromONNX(cfg.ModelPath)
	if net.Empty() {
		return nil, fmt.Errorf("failed to load YOLO model from %s", cfg.ModelPath)
	}
	net.SetPreferableBackend(gocv.NetBackendDefault)
	net.SetPreferableTarget(gocv.NetTargetCPU)

	y := &YOLO{
		net:       net,
		config:    cfg,
		inputSize: image.Pt(cfg.InputWidth, cfg.InputHeight),
	}
	for _, opt := range opts {
		opt(y)
	}
	return y, nil
}

// Detect finds objects in the JPEG image. Boxes are in image pixels.
func (y *YOLO) Detect(jpeg []byte) ([]perception.Detection, error) {
	y.mu.Lock()
	defer y.mu.Unlock()

	img, err := gocv.IMDecode(jpeg, gocv.IMReadColor)
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	defer img.Close()

	if img.Empty() {
		return nil, fmt.Errorf("empty image")
	}

	blob := gocv.BlobFromImage(img, 1.0/255.0, y.inputSize, gocv.NewScalar(0, 0, 0, 0), true, false)
	defer blob.Close()

	y.net.SetInput(blob, "")
	output := y.net.Forward("")
	defer output.Close()

	// YOLOv8 output is [1, 4+classes, anchors]
	dims := output.Size()
	if len(dims) != 3 {
		return nil, fmt.Errorf("unexpected output shape %v", dims)
	}
	data, err := output.DataPtrFloat32()
	if err != nil {
		return nil, fmt.Errorf("read output: %w", err)
	}

	scaleX := float32(img.Cols()) / float32(y.config.InputWidth)
	scaleY := float32(img.Rows()) / float32(y.config.InputHeight)
	cand := decode(data, dims[1], dims[2], scaleX, scaleY, y.config.ConfidenceThresh)
	if len(cand.boxes) == 0 {
		return nil, nil
	}

	indices := gocv.NMSBoxes(cand.boxes, cand.scores, y.config.ConfidenceThresh, y.config.NMSThresh)

	dets := make([]perception.Detection, 0, len(indices))
	for _, idx := range indices {
		box := cand.boxes[idx]
		dets = append(dets, perception.Detection{
			ClassID:    cand.classes[idx],
			Confidence: float64(cand.scores[idx]),
			Box: perception.Box{
				X: float64(box.Min.X),
				Y: float64(box.Min.Y),
				W: float64(box.Dx()),
				H: float64(box.Dy()),
			},
		})
	}
	return Filter(dets, y.known), nil
}

// Close releases the detector resources
func (y *YOLO) Close() error {
	y.mu.Lock()
	defer y.mu.Unlock()
	return y.net.Close()
}

type candidates struct {
	boxes   []image.Rectangle
	scores  []float32
	classes []int
}

// decode reads a channel-major YOLOv8 tensor: for anchor i, channel c
// lives at data[c*anchors+i]. Channels 0-3 are the box centre and size
// in model input pixels, the rest are class scores.
func decode(data []float32, channels, anchors int, scaleX, scaleY, thresh float32) candidates {
	var out candidates
	if channels <= 4 || len(data) < channels*anchors {
		return out
	}

	for i := 0; i < anchors; i++ {
		best, bestClass := float32(0), -1
		for c := 4; c < channels; c++ {
			if s := data[c*anchors+i]; s > best {
				best, bestClass = s, c-4
			}
		}
		if bestClass < 0 || best < thresh {
			continue
		}

		cx := data[0*anchors+i]
		cy := data[1*anchors+i]
		w := data[2*anchors+i]
		h := data[3*anchors+i]

		out.boxes = append(out.boxes, image.Rect(
			int((cx-w/2)*scaleX),
			int((cy-h/2)*scaleY),
			int((cx+w/2)*scaleX),
			int((cy+h/2)*scaleY),
		))
		out.scores = append(out.scores, best)
		out.classes = append(out.classes, bestClass)
	}
	return out
}

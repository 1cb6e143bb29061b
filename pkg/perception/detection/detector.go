// Package detection runs the game-object detector locally through
// OpenCV's DNN module. Class ids are the catalog's ids, so the model's
// output index is the class id.
package detection

import "github.com/teslashibe/go-forager/pkg/perception"

// Config holds detector configuration
type Config struct {
	ModelPath        string  `yaml:"model_path"`
	ConfidenceThresh float32 `yaml:"confidence"`
	NMSThresh        float32 `yaml:"nms"`
	InputWidth       int     `yaml:"input_width"`
	InputHeight      int     `yaml:"input_height"`
}

// DefaultConfig returns production defaults for the YOLOv8 game model
func DefaultConfig() Config {
	return Config{
		ModelPath:        "models/forager-yolov8s.onnx",
		ConfidenceThresh: 0.4,
		NMSThresh:        0.45,
		InputWidth:       640,
		InputHeight:      640,
	}
}

// Detector is the interface for detection backends
type Detector interface {
	perception.Detector
	Close() error
}

// Filter keeps only detections whose class id passes keep
func Filter(dets []perception.Detection, keep func(classID int) bool) []perception.Detection {
	if keep == nil {
		return dets
	}
	out := dets[:0]
	for _, d := range dets {
		if keep(d.ClassID) {
			out = append(out, d)
		}
	}
	return out
}

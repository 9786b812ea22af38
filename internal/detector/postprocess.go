package detector

import (
	"fmt"
	"image"
	"math"
	"sort"

	"gocv.io/x/gocv"
)

// maxBoxWH offsets boxes of different classes so NMS never compares them.
const maxBoxWH = 7680

// letterbox describes how a frame was scaled and padded into the square
// network input, so boxes can be mapped back.
type letterbox struct {
	size        int
	srcW, srcH  int
	scale       float64
	newW, newH  int
	top, bottom int
	left, right int
}

func newLetterbox(srcW, srcH, size int) letterbox {
	scale := math.Min(float64(size)/float64(srcW), float64(size)/float64(srcH))
	newW := int(math.Round(float64(srcW) * scale))
	newH := int(math.Round(float64(srcH) * scale))

	dw := float64(size-newW) / 2
	dh := float64(size-newH) / 2

	return letterbox{
		size:   size,
		srcW:   srcW,
		srcH:   srcH,
		scale:  scale,
		newW:   newW,
		newH:   newH,
		top:    int(math.Round(dh - 0.1)),
		bottom: int(math.Round(dh + 0.1)),
		left:   int(math.Round(dw - 0.1)),
		right:  int(math.Round(dw + 0.1)),
	}
}

// toFrame converts a center-format box in network input pixels to a
// rectangle in source frame pixels, clipped to the frame.
func (l letterbox) toFrame(cx, cy, w, h float32) image.Rectangle {
	x1 := (float64(cx-w/2) - float64(l.left)) / l.scale
	y1 := (float64(cy-h/2) - float64(l.top)) / l.scale
	x2 := (float64(cx+w/2) - float64(l.left)) / l.scale
	y2 := (float64(cy+h/2) - float64(l.top)) / l.scale

	return image.Rect(
		clampInt(int(math.Round(x1)), 0, l.srcW),
		clampInt(int(math.Round(y1)), 0, l.srcH),
		clampInt(int(math.Round(x2)), 0, l.srcW),
		clampInt(int(math.Round(y2)), 0, l.srcH),
	)
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// outputShape checks a YOLOv8 detection head is [1, 4+nc, anchors] and
// returns its attribute and anchor counts.
func outputShape(dims []int) (attrs, anchors int, err error) {
	if len(dims) != 3 || dims[0] != 1 || dims[1] <= 4 || dims[2] <= 0 {
		return 0, 0, fmt.Errorf("%w: %v", ErrUnexpectedOutput, dims)
	}
	return dims[1], dims[2], nil
}

type candidate struct {
	box     image.Rectangle
	classID int
	score   float32
}

// decodeOutput reads a YOLOv8 detection head laid out as [4+nc, anchors]
// (row-major, batch dimension dropped). Rows 0-3 hold cx, cy, w, h in
// network input pixels and the remaining rows hold per-class scores.
func decodeOutput(data []float32, attrs, anchors int, lb letterbox, thresh float32) []candidate {
	if attrs <= 4 || anchors <= 0 || len(data) < attrs*anchors {
		return nil
	}

	var out []candidate
	for i := 0; i < anchors; i++ {
		best := float32(0)
		bestClass := -1
		for c := 4; c < attrs; c++ {
			score := data[c*anchors+i]
			if score > best {
				best = score
				bestClass = c - 4
			}
		}

		if bestClass < 0 || best < thresh {
			continue
		}

		box := lb.toFrame(
			data[0*anchors+i],
			data[1*anchors+i],
			data[2*anchors+i],
			data[3*anchors+i],
		)
		if box.Empty() {
			continue
		}

		out = append(out, candidate{box: box, classID: bestClass, score: best})
	}

	return out
}

// nonMaxSuppression keeps the strongest box of each overlapping group within
// a class and returns the survivors sorted by score, capped at maxDet.
func nonMaxSuppression(cands []candidate, scoreThresh, iouThresh float32, maxDet int) []candidate {
	if len(cands) == 0 {
		return nil
	}

	boxes := make([]image.Rectangle, len(cands))
	scores := make([]float32, len(cands))
	for i, c := range cands {
		offset := image.Pt(c.classID*maxBoxWH, c.classID*maxBoxWH)
		boxes[i] = c.box.Add(offset)
		scores[i] = c.score
	}

	indices := gocv.NMSBoxes(boxes, scores, scoreThresh, iouThresh)

	kept := make([]candidate, 0, len(indices))
	for _, idx := range indices {
		kept = append(kept, cands[idx])
	}

	sortByScore(kept)
	if maxDet > 0 && len(kept) > maxDet {
		kept = kept[:maxDet]
	}
	return kept
}

func sortByScore(cands []candidate) {
	sort.SliceStable(cands, func(i, j int) bool {
		return cands[i].score > cands[j].score
	})
}

// toDetections names the surviving candidates.
func toDetections(kept []candidate, labels Labels) []Detection {
	detections := make([]Detection, len(kept))
	for i, c := range kept {
		detections[i] = Detection{
			Box:        c.box,
			ClassID:    c.classID,
			Label:      labels.Name(c.classID),
			Confidence: c.score,
		}
	}
	return detections
}

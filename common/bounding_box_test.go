package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBoundingBox(t *testing.T) {
	box := BoundingBox{Label: "person", Confidence: 0.95, X1: 100, Y1: 100, X2: 199, Y2: 299}

	assert.Equal(t, float32(100), box.Width())
	assert.Equal(t, float32(200), box.Height())
	assert.Equal(t, "Object person (confidence 0.950000): (100.00, 100.00), (199.00, 299.00)", box.String())
}

func TestBoundingBoxIoU(t *testing.T) {
	box1 := BoundingBox{X1: 0, Y1: 0, X2: 99, Y2: 99}
	box2 := BoundingBox{X1: 50, Y1: 50, X2: 149, Y2: 149}
	far := BoundingBox{X1: 500, Y1: 500, X2: 599, Y2: 599}

	assert.InDelta(t, 2500.0/17500.0, box1.IoU(&box2), 1e-5)
	assert.Equal(t, box1.IoU(&box2), box2.IoU(&box1))
	assert.Equal(t, float32(1), box1.IoU(&box1))
	assert.Equal(t, float32(0), box1.IoU(&far))
}

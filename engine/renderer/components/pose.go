package components

import (
	"github.com/spaghettifunk/kosmos/engine/math"
	"github.com/yohamta/donburi"
)

// PoseData is where an entity is drawn, relative to the world origin.
type PoseData struct {
	Transform math.Transform
	// Frame is the origin frame the pose was computed in.
	Frame uint64
}

var Pose = donburi.NewComponentType[PoseData]()

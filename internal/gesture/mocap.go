package gesture

import "github.com/banshee-data/wallinput/internal/omicron"

// JointNames lists skeleton joints in wire order. A mocap record carrying
// exactly this many vectors is a full skeleton.
var JointNames = [...]string{
	"head", "neck", "torso", "waist",
	"leftCollar", "leftShoulder", "leftElbow", "leftWrist", "leftHand", "leftFingertip",
	"leftHip", "leftKnee", "leftAnkle", "leftFoot",
	"rightCollar", "rightShoulder", "rightElbow", "rightWrist", "rightHand", "rightFingertip",
	"rightHip", "rightKnee", "rightAnkle", "rightFoot",
	"spineShoulder", "leftThumb", "rightThumb", "leftHandTip", "rightHandTip",
}

// JointCount is the number of joints in a full skeleton.
const JointCount = len(JointNames)

func (e *Engine) handleMocap(ev omicron.TrackingEvent) {
	in := MocapInput{Position: ev.Position}
	if v := ev.Vectors(); len(v) == JointCount {
		in.Skeleton = make(Skeleton, JointCount)
		for i, name := range JointNames {
			in.Skeleton[name] = v[i]
		}
	}
	e.emitter.MocapInput(mocapAddress(ev.SourceID), in)
}

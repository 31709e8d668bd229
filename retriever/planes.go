package retriever

import "gonum.org/v1/gonum/spatial/r3"

// UpdatePlanes recomputes anatomical planes from key points updated in the last assembly.
// Sagittal and transverse planes keep their previous values when defining key points are
// not both fresh or coincide. Coronal plane is always recomputed.
func UpdatePlanes(sk Skeleton) {
	shoulderLeft, shoulderRight := sk.KeyPoint(ShoulderLeft), sk.KeyPoint(ShoulderRight)
	if shoulderLeft.IsUpdated() && shoulderRight.IsUpdated() {
		if sagittal, ok := normalize(r3.Sub(shoulderLeft.GetPoint(), shoulderRight.GetPoint())); ok {
			sk.SetSagittal(sagittal)
		}
	}

	shoulderCenter, hipCenter := sk.KeyPoint(ShoulderCenter), sk.KeyPoint(HipCenter)
	if shoulderCenter.IsUpdated() && hipCenter.IsUpdated() {
		if transverse, ok := normalize(r3.Sub(shoulderCenter.GetPoint(), hipCenter.GetPoint())); ok {
			sk.SetTransverse(transverse)
		}
	}

	sk.SetCoronal(r3.Cross(sk.GetSagittal(), sk.GetTransverse()))
}

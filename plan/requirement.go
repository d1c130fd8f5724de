package plan

// PodInstance names one instance of a pod type (e.g. "index-3" of pod type
// "index").
type PodInstance struct {
	Type  string
	Index int
}

// PodInstanceRequirement names a PodInstance and the set of task names to
// launch for it. Two requirements conflict iff they name the same
// PodInstance, regardless of task set overlap.
type PodInstanceRequirement struct {
	Pod   PodInstance
	Tasks []string
}

// ConflictsWith reports whether r and other refer to the same pod instance.
func (r PodInstanceRequirement) ConflictsWith(other PodInstanceRequirement) bool {
	return r.Pod == other.Pod
}

// AssetConflicts reports whether asset conflicts with any element of
// dirtyAssets. Grounded on Java PlanUtils.assetConflicts.
func AssetConflicts(asset PodInstanceRequirement, dirtyAssets []PodInstanceRequirement) bool {
	for _, dirty := range dirtyAssets {
		if asset.ConflictsWith(dirty) {
			return true
		}
	}
	return false
}

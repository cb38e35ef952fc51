package api

// ResourceList holds quantities for the three resource dimensions a cluster
// provides. Quantities are whole units (cores, MB, devices).
type ResourceList struct {
	Cpu int64 `json:"cpu"`
	Ram int64 `json:"ram"`
	Gpu int64 `json:"gpu"`
}

func (a ResourceList) Add(b ResourceList) ResourceList {
	return ResourceList{
		Cpu: a.Cpu + b.Cpu,
		Ram: a.Ram + b.Ram,
		Gpu: a.Gpu + b.Gpu,
	}
}

// Sub may produce negative quantities, e.g. when a cluster is over-subscribed.
func (a ResourceList) Sub(b ResourceList) ResourceList {
	return ResourceList{
		Cpu: a.Cpu - b.Cpu,
		Ram: a.Ram - b.Ram,
		Gpu: a.Gpu - b.Gpu,
	}
}

// FitsWithin reports whether a is satisfied by b on all three dimensions.
func (a ResourceList) FitsWithin(b ResourceList) bool {
	return a.Cpu <= b.Cpu && a.Ram <= b.Ram && a.Gpu <= b.Gpu
}

func (a ResourceList) IsValid() bool {
	return a.Cpu >= 0 && a.Ram >= 0 && a.Gpu >= 0
}

// FloorZero clamps negative quantities to zero, used when reporting
// availability externally.
func (a ResourceList) FloorZero() ResourceList {
	return ResourceList{
		Cpu: max64(a.Cpu, 0),
		Ram: max64(a.Ram, 0),
		Gpu: max64(a.Gpu, 0),
	}
}

func max64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}

package scheduler

import (
	"offercube/offer"
)

// DefaultStages is the evaluation pipeline used when none is configured:
// placement first, then each scalar resource, ports, volumes and finally
// the launch itself.
func DefaultStages() []Stage {
	return []Stage{
		&PlacementStage{},
		&ResourceStage{Name: offer.CPUs},
		&ResourceStage{Name: offer.Mem},
		&ResourceStage{Name: offer.Disk},
		&PortStage{},
		&VolumeStage{},
		&LaunchStage{},
	}
}

package scheduler

import (
	"github.com/google/uuid"

	"offercube/offer"
	"offercube/outcome"
	"offercube/task"
)

const (
	SourceVolumes outcome.Source = "VolumeStage"
	SourceVolume  outcome.Source = "VolumeRequest"
)

// VolumeStage places the task's persistent volumes on the offer's disk.
// Volumes share the disk left over after the task's own disk request, and
// are placed in the order they were requested. A volume sits on a single
// role's disk: the task role's reservation when it fits, unreserved disk
// otherwise.
type VolumeStage struct{}

func (s *VolumeStage) Evaluate(o *offer.Offer, t *task.Task) (*outcome.Outcome, error) {
	if len(t.Volumes) == 0 {
		b, err := outcome.Pass(SourceVolumes, "no volumes requested")
		if err != nil {
			return nil, err
		}
		return b.Build(), nil
	}

	left := diskLeft(o, t)
	children := make([]*outcome.Outcome, 0, len(t.Volumes))
	failed := 0
	for _, v := range t.Volumes {
		var (
			b   *outcome.Builder
			err error
		)
		if role, ok := placeVolume(left, t.Role, v.Size); ok {
			left[role] -= v.Size
			res := offer.Resource{Name: offer.Disk, Role: role, Scalar: v.Size}
			create := &offer.CreateVolumeRecommendation{
				Offer:         o.ID,
				VolumeID:      uuid.NewSHA1(o.ID, []byte(t.ID.String()+"/"+v.ContainerPath)).String(),
				ContainerPath: v.ContainerPath,
				Resource:      res,
			}
			b, err = outcome.PassWith(SourceVolume, []offer.Recommendation{create},
				"volume %s of %s fits", v.ContainerPath, amount(offer.Disk, v.Size))
			if err == nil {
				b.WithResource(res)
			}
		} else {
			failed++
			b, err = outcome.Fail(SourceVolume, "volume %s needs %s, %s left",
				v.ContainerPath, amount(offer.Disk, v.Size), amount(offer.Disk, max(left[t.Role], left[offer.AnyRole], 0)))
		}
		if err != nil {
			return nil, err
		}
		children = append(children, b.Build())
	}

	var (
		b   *outcome.Builder
		err error
	)
	if failed == 0 {
		b, err = outcome.Pass(SourceVolumes, "all %d volumes fit", len(children))
	} else {
		b, err = outcome.Fail(SourceVolumes, "%d of %d volumes do not fit", failed, len(children))
	}
	if err != nil {
		return nil, err
	}
	return b.AddChildren(children).Build(), nil
}

// diskLeft is the disk per role after the task's own disk request, which
// ResourceStage takes from the role's reservation first.
func diskLeft(o *offer.Offer, t *task.Task) map[string]float64 {
	left := map[string]float64{offer.AnyRole: o.Scalar(offer.Disk, offer.AnyRole)}
	need := t.Disk
	if t.Role != offer.AnyRole {
		own := o.Scalar(offer.Disk, t.Role)
		taken := min(own, need)
		left[t.Role] = own - taken
		need -= taken
	}
	left[offer.AnyRole] -= need
	return left
}

func placeVolume(left map[string]float64, role string, size float64) (string, bool) {
	if role != offer.AnyRole && size <= left[role] {
		return role, true
	}
	if size <= left[offer.AnyRole] {
		return offer.AnyRole, true
	}
	return "", false
}

package offer

import (
	"fmt"
	"sort"
	"strings"

	"github.com/docker/go-connections/nat"
	"github.com/google/uuid"
)

// Operation is the kind of allocation action a recommendation asks for.
type Operation string

const (
	OperationReserve Operation = "RESERVE"
	OperationCreate  Operation = "CREATE"
	OperationLaunch  Operation = "LAUNCH"
)

// Recommendation is one allocation action against an offer. Evaluation
// only stores and concatenates recommendations; the operations are carried
// out by whoever accepts the offer.
type Recommendation interface {
	Operation() Operation
	OfferID() uuid.UUID
	String() string
}

// ReserveRecommendation reserves a resource from the offer.
type ReserveRecommendation struct {
	Offer    uuid.UUID
	Resource Resource
}

// NewReserve returns a reservation of r on the offer for the task. The
// reservation ID is derived from all three, so evaluating the same offer
// and task again yields the same reservation.
func NewReserve(offerID, taskID uuid.UUID, r Resource) *ReserveRecommendation {
	r.ID = uuid.NewSHA1(offerID, []byte(taskID.String()+"/"+r.String())).String()
	return &ReserveRecommendation{Offer: offerID, Resource: r}
}

func (r *ReserveRecommendation) Operation() Operation { return OperationReserve }
func (r *ReserveRecommendation) OfferID() uuid.UUID   { return r.Offer }

func (r *ReserveRecommendation) String() string {
	return fmt.Sprintf("%s %s", OperationReserve, r.Resource)
}

// CreateVolumeRecommendation creates a persistent volume on a disk resource.
type CreateVolumeRecommendation struct {
	Offer         uuid.UUID
	VolumeID      string
	ContainerPath string
	Resource      Resource
}

func (r *CreateVolumeRecommendation) Operation() Operation { return OperationCreate }
func (r *CreateVolumeRecommendation) OfferID() uuid.UUID   { return r.Offer }

func (r *CreateVolumeRecommendation) String() string {
	return fmt.Sprintf("%s volume %s at %s on %s", OperationCreate, r.VolumeID, r.ContainerPath, r.Resource)
}

// LaunchRecommendation launches a task on the offer with the given
// resources and host port bindings.
type LaunchRecommendation struct {
	Offer     uuid.UUID
	TaskID    uuid.UUID
	TaskName  string
	Image     string
	Env       []string
	Resources []Resource
	Ports     nat.PortMap
}

func (r *LaunchRecommendation) Operation() Operation { return OperationLaunch }
func (r *LaunchRecommendation) OfferID() uuid.UUID   { return r.Offer }

// Resource returns the scalar amount of the named launch resource.
func (r *LaunchRecommendation) Resource(name string) float64 {
	var total float64
	for _, res := range r.Resources {
		if res.Name == name {
			total += res.Scalar
		}
	}
	return total
}

func (r *LaunchRecommendation) String() string {
	res := make([]string, 0, len(r.Resources))
	for _, x := range r.Resources {
		res = append(res, x.String())
	}
	ports := make([]string, 0, len(r.Ports))
	for p, bindings := range r.Ports {
		for _, b := range bindings {
			ports = append(ports, fmt.Sprintf("%s->%s", b.HostPort, p))
		}
	}
	sort.Strings(ports)
	s := fmt.Sprintf("%s %s (%s) [%s]", OperationLaunch, r.TaskName, r.Image, strings.Join(res, " "))
	if len(ports) > 0 {
		s += " ports " + strings.Join(ports, ",")
	}
	return s
}

// Strings renders a list of recommendations.
func Strings(recs []Recommendation) []string {
	out := make([]string, 0, len(recs))
	for _, r := range recs {
		out = append(out, r.String())
	}
	return out
}

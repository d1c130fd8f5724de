package mesosdriver

import (
	"time"

	mesos "github.com/mesos/mesos-go/api/v1/lib"

	"github.com/dcos/scheduler-core/mesosapi"
)

func toOfferID(id mesosapi.OfferID) mesos.OfferID {
	return mesos.OfferID{Value: string(id)}
}

func toTaskID(id mesosapi.TaskID) mesos.TaskID {
	return mesos.TaskID{Value: string(id)}
}

func fromOffer(o mesos.Offer) mesosapi.Offer {
	offer := mesosapi.Offer{
		ID:       mesosapi.OfferID(o.ID.Value),
		AgentID:  mesosapi.AgentID(o.AgentID.Value),
		Hostname: o.Hostname,
	}
	for _, r := range o.Resources {
		offer.Resources = append(offer.Resources, fromResource(r))
	}
	return offer
}

func fromResource(r mesos.Resource) mesosapi.Resource {
	out := mesosapi.Resource{Name: r.Name, Kind: resourceKindFromName(r.Name)}
	if r.Scalar != nil {
		out.Scalar = r.Scalar.Value
	}
	if r.Role != nil {
		out.Role = *r.Role
	}
	if r.Reservation != nil {
		res := &mesosapi.Reservation{Labels: map[string]string{}}
		if r.Reservation.Principal != nil {
			res.Labels["principal"] = *r.Reservation.Principal
		}
		if r.Reservation.Labels != nil {
			for _, l := range r.Reservation.Labels.Labels {
				if l.Value != nil {
					res.Labels[l.Key] = *l.Value
					if l.Key == "resource_id" {
						res.ResourceID = *l.Value
					}
				}
			}
		}
		out.Reservation = res
	}
	if r.Disk != nil && r.Disk.Persistence != nil {
		out.Persistence = &mesosapi.Persistence{ID: r.Disk.Persistence.ID}
	}
	return out
}

func resourceKindFromName(name string) mesosapi.ResourceKind {
	switch name {
	case "cpus":
		return mesosapi.ResourceCPU
	case "mem":
		return mesosapi.ResourceMem
	case "disk":
		return mesosapi.ResourceDisk
	case "ports":
		return mesosapi.ResourcePorts
	default:
		return mesosapi.ResourceCPU
	}
}

func resourceName(k mesosapi.ResourceKind) string {
	switch k {
	case mesosapi.ResourceCPU:
		return "cpus"
	case mesosapi.ResourceMem:
		return "mem"
	case mesosapi.ResourceDisk:
		return "disk"
	case mesosapi.ResourcePorts:
		return "ports"
	default:
		return "cpus"
	}
}

func toResource(r mesosapi.Resource) mesos.Resource {
	scalarType := mesos.SCALAR
	out := mesos.Resource{
		Name:   resourceName(r.Kind),
		Type:   &scalarType,
		Scalar: &mesos.Value_Scalar{Value: r.Scalar},
	}
	if r.Role != "" {
		role := r.Role
		out.Role = &role
	}
	if r.Persistence != nil {
		out.Disk = &mesos.Resource_DiskInfo{
			Persistence: &mesos.Resource_DiskInfo_Persistence{ID: r.Persistence.ID},
		}
	}
	return out
}

// toOperation maps one OfferRecommendation onto its Offer_Operation. A
// LAUNCH recommendation's TaskSpec.Opaque must already be a mesos.TaskInfo
// — the CORE never constructs it, it only passes through whatever the
// caller that built the plan Step attached (mesosapi.TaskSpec doc
// comment).
func toOperation(r mesosapi.OfferRecommendation) (mesos.Offer_Operation, bool) {
	switch r.Kind {
	case mesosapi.KindLaunch:
		if r.TaskSpec == nil {
			return mesos.Offer_Operation{}, false
		}
		ti, ok := r.TaskSpec.Opaque.(mesos.TaskInfo)
		if !ok {
			return mesos.Offer_Operation{}, false
		}
		t := mesos.Offer_Operation_LAUNCH
		return mesos.Offer_Operation{Type: &t, Launch: &mesos.Offer_Operation_Launch{TaskInfos: []mesos.TaskInfo{ti}}}, true
	case mesosapi.KindReserve:
		if r.Resource == nil {
			return mesos.Offer_Operation{}, false
		}
		t := mesos.Offer_Operation_RESERVE
		return mesos.Offer_Operation{Type: &t, Reserve: &mesos.Offer_Operation_Reserve{Resources: []mesos.Resource{toResource(*r.Resource)}}}, true
	case mesosapi.KindCreate:
		if r.Resource == nil {
			return mesos.Offer_Operation{}, false
		}
		t := mesos.Offer_Operation_CREATE
		return mesos.Offer_Operation{Type: &t, Create: &mesos.Offer_Operation_Create{Volumes: []mesos.Resource{toResource(*r.Resource)}}}, true
	case mesosapi.KindDestroy:
		if r.Resource == nil {
			return mesos.Offer_Operation{}, false
		}
		t := mesos.Offer_Operation_DESTROY
		return mesos.Offer_Operation{Type: &t, Destroy: &mesos.Offer_Operation_Destroy{Volumes: []mesos.Resource{toResource(*r.Resource)}}}, true
	case mesosapi.KindUnreserve:
		if r.Resource == nil {
			return mesos.Offer_Operation{}, false
		}
		t := mesos.Offer_Operation_UNRESERVE
		return mesos.Offer_Operation{Type: &t, Unreserve: &mesos.Offer_Operation_Unreserve{Resources: []mesos.Resource{toResource(*r.Resource)}}}, true
	default:
		return mesos.Offer_Operation{}, false
	}
}

func fromTaskState(s mesos.TaskState) mesosapi.TaskState {
	switch s {
	case mesos.TASK_STAGING:
		return mesosapi.TaskStaging
	case mesos.TASK_STARTING:
		return mesosapi.TaskStarting
	case mesos.TASK_RUNNING:
		return mesosapi.TaskRunning
	case mesos.TASK_FINISHED:
		return mesosapi.TaskFinished
	case mesos.TASK_FAILED:
		return mesosapi.TaskFailed
	case mesos.TASK_KILLED:
		return mesosapi.TaskKilled
	case mesos.TASK_LOST:
		return mesosapi.TaskLost
	default:
		return mesosapi.TaskError
	}
}

func fromTaskStatus(s mesos.TaskStatus) mesosapi.TaskStatus {
	out := mesosapi.TaskStatus{TaskID: mesosapi.TaskID(s.TaskID.Value)}
	if s.State != nil {
		out.State = fromTaskState(*s.State)
	}
	if s.AgentID != nil {
		out.AgentID = mesosapi.AgentID(s.AgentID.Value)
	}
	if s.Message != nil {
		out.Message = *s.Message
	}
	if s.Timestamp != nil {
		out.Timestamp = time.Unix(0, int64(*s.Timestamp*float64(time.Second)))
	}
	return out
}

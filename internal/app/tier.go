package app

import "github.com/ghostline/relay/internal/domain"

// TierResolver is the narrow contract to the external billing collaborator:
// given a device identity, what room cap does it get. Implementations must
// be fast and non-blocking; the relay calls this inline on first join.
type TierResolver interface {
	Resolve(device domain.DeviceID) domain.Tier
}

// StaticResolver resolves tiers from a config-supplied allowlist of pro
// devices, defaulting everyone else to free. Stands in for the billing
// backend in development and tests.
type StaticResolver struct {
	Free domain.Tier
	Pro  domain.Tier
	// ProDevices is the allowlisted set of pro device ids.
	ProDevices map[domain.DeviceID]struct{}
}

func NewStaticResolver(free, pro domain.Tier, proDevices []string) *StaticResolver {
	set := make(map[domain.DeviceID]struct{}, len(proDevices))
	for _, d := range proDevices {
		set[domain.DeviceID(d)] = struct{}{}
	}
	return &StaticResolver{Free: free, Pro: pro, ProDevices: set}
}

func (r *StaticResolver) Resolve(device domain.DeviceID) domain.Tier {
	if _, ok := r.ProDevices[device]; ok {
		return r.Pro
	}
	return r.Free
}

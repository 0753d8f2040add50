package device

import "sort"

// networkIDPrefix is prepended to the smallest device id of a component.
const networkIDPrefix = "net_"

// Networks groups the stored devices into power networks, one per connected
// component of the connection graph (direction ignored). Isolated devices
// form single-device networks. Networks are ordered by id.
func (s *Store) Networks() []PowerNetwork {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.devices))
	for id := range s.devices {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	seen := make(map[string]bool, len(ids))
	networks := make([]PowerNetwork, 0)
	for _, id := range ids {
		if seen[id] {
			continue
		}
		members := s.componentLocked(id, seen)
		networks = append(networks, s.aggregateLocked(members))
	}
	return networks
}

// NetworkOf returns the network containing the given device.
func (s *Store) NetworkOf(id string) (PowerNetwork, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.devices[id]; !ok {
		return PowerNetwork{}, false
	}
	members := s.componentLocked(id, make(map[string]bool))
	return s.aggregateLocked(members), true
}

// componentLocked walks the graph from start and returns the sorted ids of
// every reachable device, marking each one in seen.
func (s *Store) componentLocked(start string, seen map[string]bool) []string {
	var members []string
	stack := []string{start}
	seen[start] = true

	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		members = append(members, id)

		d, ok := s.devices[id]
		if !ok {
			continue
		}
		for _, neighbours := range [][]string{d.InputConnections, d.OutputConnections} {
			for _, n := range neighbours {
				if seen[n] {
					continue
				}
				if _, ok := s.devices[n]; !ok {
					continue
				}
				seen[n] = true
				stack = append(stack, n)
			}
		}
	}
	return normaliseSet(members)
}

func (s *Store) aggregateLocked(members []string) PowerNetwork {
	net := PowerNetwork{
		ID:               networkIDPrefix + members[0],
		ConnectedDevices: members,
		PowerFlow:        []PowerFlow{},
	}

	var efficiencySum float64
	for _, id := range members {
		d := s.devices[id]
		if d.Type.IsSource() {
			net.TotalPowerGeneration += d.PowerOutput
		}
		if d.Type == TypeConsumer {
			net.TotalPowerConsumption += d.PowerInput
		}
		efficiencySum += d.Efficiency

		if n := len(d.OutputConnections); n > 0 {
			share := d.PowerOutput * d.Efficiency / float64(n)
			for _, to := range d.OutputConnections {
				net.PowerFlow = append(net.PowerFlow, PowerFlow{From: id, To: to, Amount: share})
			}
		}
	}

	net.NetworkEfficiency = efficiencySum / float64(len(members))
	net.IsStable = net.TotalPowerGeneration >= net.TotalPowerConsumption
	return net
}

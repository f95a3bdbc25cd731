package systems

// SystemInfo describes one phase of the simulation tick.
type SystemInfo struct {
	ID          string // perf and log key
	Name        string // display name
	Description string
}

// tickSystems lists the phases in the order the simulation runs them.
var tickSystems = []SystemInfo{
	{ID: "drift", Name: "Drift", Description: "Moves organisms between regions"},
	{ID: "snapshot", Name: "Snapshot", Description: "Resolves each organism's environment and groups by region"},
	{ID: "respiration", Name: "Respiration", Description: "Inhale, need evaluation, exhale and metabolism"},
	{ID: "cleanup", Name: "Cleanup", Description: "Removes dead organisms and releases their gas"},
	{ID: "telemetry", Name: "Telemetry", Description: "Flushes stats windows"},
}

// SystemRegistry maps tick phase ids to their descriptions, so perf
// reports and logs use one set of names.
type SystemRegistry struct {
	systems []SystemInfo
	byID    map[string]int
}

// NewSystemRegistry creates a registry of the tick phases.
func NewSystemRegistry() *SystemRegistry {
	r := &SystemRegistry{
		systems: append([]SystemInfo(nil), tickSystems...),
		byID:    make(map[string]int, len(tickSystems)),
	}
	for i, info := range r.systems {
		r.byID[info.ID] = i
	}
	return r
}

// Describe returns the phase with the given id.
func (r *SystemRegistry) Describe(id string) (SystemInfo, bool) {
	i, ok := r.byID[id]
	if !ok {
		return SystemInfo{}, false
	}
	return r.systems[i], true
}

// Name returns the display name of a phase, or the id itself if unknown.
func (r *SystemRegistry) Name(id string) string {
	if info, ok := r.Describe(id); ok {
		return info.Name
	}
	return id
}

// IDs returns the phase ids in tick order.
func (r *SystemRegistry) IDs() []string {
	ids := make([]string, len(r.systems))
	for i, info := range r.systems {
		ids[i] = info.ID
	}
	return ids
}

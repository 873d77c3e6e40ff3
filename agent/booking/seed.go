package booking

// Seed is the external availability input: date -> "HH:MM" -> party size ->
// available. The store copies it at construction and never reads it again.
type Seed map[string]map[string]map[int]bool

// DefaultSeed ships demo availability for running the agent without a real
// restaurant backend.
func DefaultSeed() Seed {
	return Seed{
		"2024-08-01": {
			"18:00": {2: true, 4: true, 6: false},
			"19:00": {2: true, 4: true},
			"19:30": {2: false, 4: true},
			"20:00": {2: true, 4: false},
			"21:00": {2: false, 4: false},
		},
		"2024-08-02": {
			"18:30": {2: true, 4: true},
			"19:00": {2: false, 4: false},
			"20:30": {2: true, 4: true, 6: true},
		},
		"2024-08-03": {
			"17:00": {2: true},
			"22:00": {2: true, 4: true},
		},
	}
}

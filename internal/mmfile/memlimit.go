package mmfile

import "fmt"

// DefaultMemoryFraction is the share of physical RAM that mapped buffers may
// cover before a run is considered out-of-core.
const DefaultMemoryFraction = 0.75

// MemoryBudget returns fraction of total system RAM in bytes.
func MemoryBudget(fraction float64) (int64, error) {
	if fraction <= 0 || fraction > 1 {
		return 0, fmt.Errorf("memory fraction %v not in (0, 1]", fraction)
	}
	total, err := TotalSystemRAM()
	if err != nil {
		return 0, err
	}
	return int64(float64(total) * fraction), nil
}

// OutOfCore reports whether the combined size of the buffers exceeds the
// memory budget, in which case pages will be faulted in and evicted during
// the run. It returns false when RAM cannot be detected.
func OutOfCore(fraction float64, bufs ...*Buffer) (bool, int64) {
	var total int64
	for _, b := range bufs {
		if b != nil {
			total += int64(b.Len())
		}
	}
	budget, err := MemoryBudget(fraction)
	if err != nil || budget == 0 {
		return false, total
	}
	return total > budget, total
}

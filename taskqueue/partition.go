package taskqueue

import "fmt"

// partition describes the process-group split for one run: the coordinator's
// singleton group first, then jobs contiguous worker groups, plus the index
// of the group the calling rank belongs to.
type partition struct {
	groups [][]int
	index  int
}

// jobs returns the number of worker subgroups.
func (p *partition) jobs() int {
	return len(p.groups) - 1
}

// partitionGroups splits ranks 1..size-1 into jobs contiguous groups of
// near-equal size (the first size%jobs groups are one larger), preserving
// rank order, and prepends the coordinator group [0]. jobs <= 0 defaults to
// one worker group per non-coordinator process.
func partitionGroups(size, rank, jobs int) (*partition, error) {
	if size < 2 {
		return nil, ErrNotParallel
	}
	if jobs <= 0 {
		jobs = size - 1
	}
	if jobs >= size {
		return nil, fmt.Errorf("%w: %d jobs requested, only %d worker processes available", ErrConfiguration, jobs, size-1)
	}

	groups := make([][]int, 0, jobs+1)
	groups = append(groups, []int{0})

	workers := size - 1
	quotient, remainder := workers/jobs, workers%jobs
	next := 1
	for i := 0; i < jobs; i++ {
		length := quotient
		if i < remainder {
			length++
		}
		group := make([]int, length)
		for j := range group {
			group[j] = next
			next++
		}
		groups = append(groups, group)
	}

	p := &partition{groups: groups, index: -1}
	for i, group := range groups {
		for _, member := range group {
			if member == rank {
				p.index = i
			}
		}
	}
	if p.index < 0 {
		return nil, fmt.Errorf("%w: rank %d not covered by %d groups", ErrConfiguration, rank, len(groups))
	}
	return p, nil
}

package placement

// allocate splits total picks across the regions in order (the canonical,
// priority-ordered region list), giving each region floor(total/n) first,
// then distributing the remainder to regions earlier in order (spec.md
// section 4.4). A region that has no slack left for its share of the
// remainder is skipped in favor of the next one, rather than handing it a
// slot it cannot fill (SPEC_FULL.md section 4, "weight-aware region
// allocation remainder tie-break"). Any shortfall created by a region
// having less availability than its base share is redistributed to regions
// with spare capacity, in order, until either the shortfall is absorbed or
// no region has any slack left.
func allocate(total int, order []string, availability map[string]int) (map[string]int, bool) {
	n := len(order)
	if n == 0 {
		return nil, total == 0
	}

	alloc := make(map[string]int, n)
	base := total / n
	remainder := total % n
	for _, r := range order {
		alloc[r] = base
	}

	given := 0
	for pass := 0; given < remainder && pass < 2*n; pass++ {
		r := order[pass%n]
		if alloc[r] < availability[r] {
			alloc[r]++
			given++
		}
	}

	shortfall := 0
	for _, r := range order {
		if alloc[r] > availability[r] {
			shortfall += alloc[r] - availability[r]
			alloc[r] = availability[r]
		}
	}

	for shortfall > 0 {
		progressed := false
		for _, r := range order {
			if shortfall == 0 {
				break
			}
			if alloc[r] < availability[r] {
				alloc[r]++
				shortfall--
				progressed = true
			}
		}
		if !progressed {
			break
		}
	}

	sum := 0
	for _, r := range order {
		sum += alloc[r]
	}
	return alloc, sum >= total
}

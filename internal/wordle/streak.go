package wordle

// Streaks computes the longest and current runs of consecutive puzzle ids.
// ids must be ascending. The current streak is the run ending at the highest
// id played; a single result counts as a streak of 1.
func Streaks(ids []int) (current, longest int) {
	if len(ids) == 0 {
		return 0, 0
	}

	longest = 1
	run := 1
	for i := 1; i < len(ids); i++ {
		if ids[i]-ids[i-1] == 1 {
			run++
		} else {
			if run > longest {
				longest = run
			}
			run = 1
		}
	}
	if run > longest {
		longest = run
	}

	current = 1
	for i := len(ids) - 1; i > 0; i-- {
		if ids[i]-ids[i-1] != 1 {
			break
		}
		current++
	}
	return current, longest
}

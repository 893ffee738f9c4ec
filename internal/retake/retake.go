// Package retake evaluates retake eligibility. maxRetakes of -1 means
// unlimited; 0 means a single attempt with no retakes.
package retake

import "fmt"

const Unlimited = -1

// CanRetake reports whether another attempt is permitted after
// attemptCount completed attempts.
func CanRetake(maxRetakes, attemptCount int) bool {
	if maxRetakes == Unlimited {
		return true
	}
	if maxRetakes == 0 {
		return false
	}
	return attemptCount < maxRetakes+1
}

// RemainingRetakes returns how many retakes remain after the attempt
// currently being reviewed. Negative results are floored at zero;
// unlimited reports -1.
func RemainingRetakes(maxRetakes, attemptCount int) int {
	if maxRetakes == Unlimited {
		return Unlimited
	}
	remaining := (maxRetakes + 1 - attemptCount) - 1
	if remaining < 0 {
		return 0
	}
	return remaining
}

// RemainingMessage renders the learner-facing retake summary.
func RemainingMessage(maxRetakes, attemptCount int) string {
	switch {
	case maxRetakes == Unlimited:
		return "You can retake this quiz as many times as you like."
	case maxRetakes == 0:
		return "This quiz does not allow retakes."
	}

	remaining := RemainingRetakes(maxRetakes, attemptCount)
	switch remaining {
	case 0:
		return "No retakes remaining."
	case 1:
		return "You have 1 retake remaining."
	default:
		return fmt.Sprintf("You have %d retakes remaining.", remaining)
	}
}

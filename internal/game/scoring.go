package game

import "time"

const (
	basePoints    = 1000
	maxSpeedBonus = 500
)

// scoreAnswer returns the points for one submission. Correct answers earn
// 1000 base points plus a speed bonus that decays linearly from 500 to 0
// over the question's time limit. Response time is not clamped: an answer
// slower than the limit earns base points with a zero bonus, never a
// negative one. Incorrect answers earn nothing.
func scoreAnswer(correct bool, responseTime, timeLimit time.Duration) int {
	if !correct {
		return 0
	}
	if timeLimit <= 0 {
		return basePoints
	}
	bonus := maxSpeedBonus - int(float64(responseTime.Milliseconds())/float64(timeLimit.Milliseconds())*maxSpeedBonus)
	if bonus < 0 {
		bonus = 0
	}
	return basePoints + bonus
}

package statuses

// Статусы партии в порядке жизненного цикла.
const (
	StatusWaitOpponent = "waiting"
	StatusPlaying      = "playing"
	StatusScoring      = "scoring"
	StatusCompleted    = "finished"
)

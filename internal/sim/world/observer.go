package world

// RoundObserver is notified on the world goroutine after each commit.
// positions is a copy the observer may keep.
type RoundObserver interface {
	ObserveRound(worldID string, rep RoundReport, positions []Vec2i)
}

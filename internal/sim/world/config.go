package world

type WorldConfig struct {
	ID string

	// RoundsPerSecond paces Run with a ticker so observers can follow a
	// run live. 0 runs rounds back to back.
	RoundsPerSecond int
}

func (c *WorldConfig) applyDefaults() {
	if c.ID == "" {
		c.ID = "run"
	}
	if c.RoundsPerSecond < 0 {
		c.RoundsPerSecond = 0
	}
}

package game

// Player is the craft controlled by the user.
// Position changes only through MovePlayer, life only through ResolvePlayerHits.
type Player struct {
	X, Y          float64
	Width, Height float64
	Life          int
}

// Projectile travels straight up from the player's nose.
type Projectile struct {
	ID    uint64 // creation order, lower is older
	X, Y  float64
	Speed float64
}

// Adversary descends from the top edge.
// Variant selects a sprite and has no gameplay effect.
type Adversary struct {
	ID      uint64 // creation order, lower is older
	X, Y    float64
	Speed   float64
	Variant int
}

// NewPlayer creates a player at the start position with full life.
// The start position is clamped so a custom tuning cannot break the bounds.
func (t Tuning) NewPlayer() Player {
	return Player{
		X:      clamp(t.PlayerStartX, 0, t.PlayAreaWidth-t.PlayerWidth),
		Y:      clamp(t.PlayerStartY, 0, t.PlayAreaHeight-t.PlayerHeight),
		Width:  t.PlayerWidth,
		Height: t.PlayerHeight,
		Life:   t.MaxLife,
	}
}

// ProjectileSnapshot is the wire form of a projectile for API clients.
type ProjectileSnapshot struct {
	ID uint64  `json:"id"`
	X  float64 `json:"x"`
	Y  float64 `json:"y"`
}

// AdversarySnapshot is the wire form of an adversary for API clients.
type AdversarySnapshot struct {
	ID      uint64  `json:"id"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Variant int     `json:"variant"`
}

// PlayerSnapshot is the wire form of the player for API clients.
type PlayerSnapshot struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Life   int     `json:"life"`
}

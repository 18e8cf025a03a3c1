package game

// State is one immutable simulation snapshot taken at a tick boundary.
//
// A State is passed by value. Step never writes into the slices of the
// State it receives; it allocates new ones, so an old snapshot handed to a
// renderer or broadcaster stays valid while the next tick runs.
type State struct {
	Tick        uint64
	Player      Player
	Projectiles []Projectile // ascending ID
	Adversaries []Adversary  // ascending ID
	Score       int
	NextID      uint64 // next entity ID to hand out
}

// NewState returns the initial state of a session.
func (t Tuning) NewState() State {
	return State{
		Player: t.NewPlayer(),
		NextID: 1,
	}
}

// NewState returns the initial state using the reference tuning.
func NewState() State {
	return DefaultTuning().NewState()
}

// IsGameOver reports the terminal condition: life depleted.
func (s State) IsGameOver() bool {
	return s.Player.Life <= 0
}

// Clone returns a deep copy whose slices share nothing with s.
func (s State) Clone() State {
	out := s
	out.Projectiles = append([]Projectile(nil), s.Projectiles...)
	out.Adversaries = append([]Adversary(nil), s.Adversaries...)
	return out
}

// GameSnapshot is the JSON view of a State served to API and WebSocket clients.
type GameSnapshot struct {
	Tick        uint64               `json:"tick"`
	Score       int                  `json:"score"`
	Life        int                  `json:"life"`
	IsGameOver  bool                 `json:"isGameOver"`
	Player      PlayerSnapshot       `json:"player"`
	Projectiles []ProjectileSnapshot `json:"projectiles"`
	Adversaries []AdversarySnapshot  `json:"adversaries"`
}

// ToSnapshot converts a State into its wire form.
func (s State) ToSnapshot() GameSnapshot {
	snap := GameSnapshot{
		Tick:       s.Tick,
		Score:      s.Score,
		Life:       s.Player.Life,
		IsGameOver: s.IsGameOver(),
		Player: PlayerSnapshot{
			X:      s.Player.X,
			Y:      s.Player.Y,
			Width:  s.Player.Width,
			Height: s.Player.Height,
			Life:   s.Player.Life,
		},
		Projectiles: make([]ProjectileSnapshot, 0, len(s.Projectiles)),
		Adversaries: make([]AdversarySnapshot, 0, len(s.Adversaries)),
	}
	for _, p := range s.Projectiles {
		snap.Projectiles = append(snap.Projectiles, ProjectileSnapshot{ID: p.ID, X: p.X, Y: p.Y})
	}
	for _, a := range s.Adversaries {
		snap.Adversaries = append(snap.Adversaries, AdversarySnapshot{ID: a.ID, X: a.X, Y: a.Y, Variant: a.Variant})
	}
	return snap
}

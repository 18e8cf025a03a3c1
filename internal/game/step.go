package game

// TickReport describes what happened during one Advance call.
// The engine turns it into event log entries and metrics.
type TickReport struct {
	Fired          bool
	FireSuppressed bool // fire held but MaxProjectiles reached
	Spawned        *Adversary
	Hits           []Hit
	PlayerHits     int
	LifeLost       int
	ScoreGained    int
	ExpiredShots   int // projectiles that left the top edge
	EscapedFoes    int // adversaries that left the bottom edge
	GameOver       bool
}

// Step advances s by one tick with the reference tuning.
func Step(s State, in Intent, rng Rand) (State, error) {
	next, _, err := DefaultTuning().Advance(s, in, rng)
	return next, err
}

// Step advances s by one tick.
func (t Tuning) Step(s State, in Intent, rng Rand) (State, error) {
	next, _, err := t.Advance(s, in, rng)
	return next, err
}

// Advance computes the next snapshot from s and the tick's intent.
//
// Order of operations is fixed:
//
//	validate intent
//	(a) move player
//	(b) fire one projectile if the fire intent is held
//	(c) advance projectiles and adversaries, dropping expired ones
//	(d) roll the spawner
//	(e) projectile/adversary pass, then player/adversary pass
//
// An adversary spawned in (d) takes part in (e) of the same tick.
// On invalid input s is returned unchanged with *InvalidInputError.
// A state that is already over is returned unchanged with no error.
func (t Tuning) Advance(s State, in Intent, rng Rand) (State, TickReport, error) {
	var report TickReport
	if err := in.Validate(); err != nil {
		return s, report, err
	}
	if s.IsGameOver() {
		report.GameOver = true
		return s, report, nil
	}

	next := State{
		Tick:   s.Tick + 1,
		Score:  s.Score,
		NextID: s.NextID,
	}

	// (a)
	next.Player = t.MovePlayer(s.Player, in)

	// (b) appended to a copy so s.Projectiles keeps its backing array intact
	projectiles := s.Projectiles
	if in.Firing() {
		if len(projectiles) < t.MaxProjectiles {
			projectiles = append(append(make([]Projectile, 0, len(s.Projectiles)+1), s.Projectiles...),
				t.FireProjectile(next.Player, next.NextID))
			next.NextID++
			report.Fired = true
		} else {
			report.FireSuppressed = true
		}
	}

	// (c)
	inFlight := len(projectiles)
	projectiles = t.AdvanceProjectiles(projectiles)
	adversaries := t.AdvanceAdversaries(s.Adversaries)
	report.ExpiredShots = inFlight - len(projectiles)
	report.EscapedFoes = len(s.Adversaries) - len(adversaries)

	// (d) AdvanceAdversaries returned a fresh slice, so appending is safe
	if len(adversaries) < t.MaxAdversaries {
		if a, ok := t.MaybeSpawnAdversary(rng, next.NextID); ok {
			next.NextID++
			adversaries = append(adversaries, a)
			report.Spawned = &a
		}
	}

	// (e)
	projectiles, adversaries, hits := t.ResolveProjectileHits(projectiles, adversaries)
	report.Hits = hits
	report.ScoreGained = len(hits) * t.HitReward
	next.Score += report.ScoreGained

	lifeBefore := next.Player.Life
	next.Player, adversaries, report.PlayerHits = t.ResolvePlayerHits(next.Player, adversaries)
	report.LifeLost = lifeBefore - next.Player.Life

	next.Projectiles = projectiles
	next.Adversaries = adversaries
	report.GameOver = next.IsGameOver()
	return next, report, nil
}

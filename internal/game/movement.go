package game

// MovePlayer applies one tick of movement for every held direction and
// clamps the result to the play area. Opposite directions cancel out.
func (t Tuning) MovePlayer(p Player, in Intent) Player {
	if in.Left() {
		p.X -= t.PlayerSpeed
	}
	if in.Right() {
		p.X += t.PlayerSpeed
	}
	if in.Up() {
		p.Y -= t.PlayerSpeed
	}
	if in.Down() {
		p.Y += t.PlayerSpeed
	}

	p.X = clamp(p.X, 0, t.PlayAreaWidth-p.Width)
	p.Y = clamp(p.Y, 0, t.PlayAreaHeight-p.Height)
	return p
}

// FireProjectile creates a projectile centered on the player's top edge.
func (t Tuning) FireProjectile(p Player, id uint64) Projectile {
	return Projectile{
		ID:    id,
		X:     p.X + p.Width/2 - t.ProjectileWidth/2,
		Y:     p.Y,
		Speed: t.ProjectileSpeed,
	}
}

// AdvanceProjectiles moves every projectile up by its speed and drops the
// ones that left the play area (y <= ProjectileExpiryY).
// The input slice is not modified.
func (t Tuning) AdvanceProjectiles(ps []Projectile) []Projectile {
	out := make([]Projectile, 0, len(ps))
	for _, p := range ps {
		p.Y -= p.Speed
		if p.Y > t.ProjectileExpiryY {
			out = append(out, p)
		}
	}
	return out
}

// AdvanceAdversaries moves every adversary down by its speed and drops the
// ones that reached the bottom edge (y >= PlayAreaHeight).
// The input slice is not modified.
func (t Tuning) AdvanceAdversaries(as []Adversary) []Adversary {
	out := make([]Adversary, 0, len(as))
	for _, a := range as {
		a.Y += a.Speed
		if a.Y < t.PlayAreaHeight {
			out = append(out, a)
		}
	}
	return out
}

package game

// Box is an axis-aligned bounding box anchored at its top-left corner.
// Y grows downward, matching screen coordinates.
type Box struct {
	X, Y float64
	W, H float64
}

// Right returns the x-coordinate of the right edge.
func (b Box) Right() float64 { return b.X + b.W }

// Bottom returns the y-coordinate of the bottom edge.
func (b Box) Bottom() float64 { return b.Y + b.H }

// Overlaps reports whether two boxes intersect.
// All four edges use strict inequality, so boxes that only touch do not overlap.
// Every collision check in the simulation goes through here.
func Overlaps(a, b Box) bool {
	return a.X < b.Right() &&
		a.Right() > b.X &&
		a.Y < b.Bottom() &&
		a.Bottom() > b.Y
}

// PlayerBox returns the player's collision box.
func PlayerBox(p Player) Box {
	return Box{X: p.X, Y: p.Y, W: p.Width, H: p.Height}
}

// ProjectileBox returns a projectile's collision box.
func (t Tuning) ProjectileBox(p Projectile) Box {
	return Box{X: p.X, Y: p.Y, W: t.ProjectileWidth, H: t.ProjectileHeight}
}

// AdversaryBox returns an adversary's collision box.
func (t Tuning) AdversaryBox(a Adversary) Box {
	return Box{X: a.X, Y: a.Y, W: t.AdversarySize, H: t.AdversarySize}
}

// clamp restricts v to [lo, hi].
func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

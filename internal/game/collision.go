package game

// Hit records one adversary destroyed by one projectile.
type Hit struct {
	ProjectileID uint64
	AdversaryID  uint64
	X, Y         float64 // adversary position at impact
}

// ResolveProjectileHits runs the projectile/adversary pass.
//
// Adversaries are visited in creation order and, for each, projectiles in
// creation order. The first overlapping projectile that has not already been
// spent claims the adversary: both are removed and one Hit is recorded.
// A spent projectile is never tested again, so no projectile destroys two
// adversaries and no adversary scores twice.
//
// The input slices are not modified.
func (t Tuning) ResolveProjectileHits(projectiles []Projectile, adversaries []Adversary) ([]Projectile, []Adversary, []Hit) {
	spent := make([]bool, len(projectiles))
	keptA := make([]Adversary, 0, len(adversaries))
	var hits []Hit

	for _, a := range adversaries {
		ab := t.AdversaryBox(a)
		claimed := false
		for i, p := range projectiles {
			if spent[i] {
				continue
			}
			if Overlaps(t.ProjectileBox(p), ab) {
				spent[i] = true
				claimed = true
				hits = append(hits, Hit{ProjectileID: p.ID, AdversaryID: a.ID, X: a.X, Y: a.Y})
				break
			}
		}
		if !claimed {
			keptA = append(keptA, a)
		}
	}

	keptP := make([]Projectile, 0, len(projectiles)-len(hits))
	for i, p := range projectiles {
		if !spent[i] {
			keptP = append(keptP, p)
		}
	}
	return keptP, keptA, hits
}

// ResolvePlayerHits runs the player/adversary pass.
//
// Every adversary overlapping the player is removed and costs
// CollisionPenalty life, each one independently. Life is floored at 0.
// Returns the updated player, the surviving adversaries and the number of
// collisions. The input slice is not modified.
func (t Tuning) ResolvePlayerHits(p Player, adversaries []Adversary) (Player, []Adversary, int) {
	pb := PlayerBox(p)
	kept := make([]Adversary, 0, len(adversaries))
	collisions := 0

	for _, a := range adversaries {
		if Overlaps(pb, t.AdversaryBox(a)) {
			collisions++
			continue
		}
		kept = append(kept, a)
	}

	p.Life -= collisions * t.CollisionPenalty
	if p.Life < 0 {
		p.Life = 0
	}
	return p, kept, collisions
}

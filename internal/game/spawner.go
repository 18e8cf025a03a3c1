package game

// Rand is the randomness the simulation draws from.
// *math/rand.Rand satisfies it; tests substitute scripted sources.
type Rand interface {
	Float64() float64
	Intn(n int) int
}

// MaybeSpawnAdversary rolls the per-tick spawn chance and, on success,
// returns a new adversary at the top edge with a uniformly random x in
// [0, W - AdversarySize - SpawnMargin]. Inserting it is the caller's job.
//
// Draw order is fixed (chance, x, variant) so a seeded source replays exactly.
func (t Tuning) MaybeSpawnAdversary(rng Rand, id uint64) (Adversary, bool) {
	if rng.Float64() >= t.SpawnChance {
		return Adversary{}, false
	}

	span := t.PlayAreaWidth - t.AdversarySize - t.SpawnMargin
	return Adversary{
		ID:      id,
		X:       rng.Float64() * span,
		Y:       0,
		Speed:   t.AdversarySpeed,
		Variant: rng.Intn(t.AdversaryVariants),
	}, true
}

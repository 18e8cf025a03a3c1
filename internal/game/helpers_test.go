package game

// scriptedRand replays fixed draws. Once a script runs out Float64 returns
// 0.999 (never spawns) and Intn returns 0.
type scriptedRand struct {
	floats []float64
	ints   []int
}

func (r *scriptedRand) Float64() float64 {
	if len(r.floats) == 0 {
		return 0.999
	}
	f := r.floats[0]
	r.floats = r.floats[1:]
	return f
}

func (r *scriptedRand) Intn(n int) int {
	if len(r.ints) == 0 {
		return 0
	}
	i := r.ints[0]
	r.ints = r.ints[1:]
	return i % n
}

// noSpawn never spawns an adversary.
func noSpawn() Rand { return &scriptedRand{} }

// spawnAt spawns one adversary at x = frac * spawn span with the given variant.
func spawnAt(frac float64, variant int) Rand {
	return &scriptedRand{floats: []float64{0, frac}, ints: []int{variant}}
}

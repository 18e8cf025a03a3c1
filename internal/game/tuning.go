package game

import "fmt"

// Tuning holds every gameplay constant of the simulation.
// Step functions take it by value so a session can never observe a change mid-tick.
type Tuning struct {
	// Play area. The player is clamped to [0, W-PlayerWidth] x [0, H-PlayerHeight].
	PlayAreaWidth  float64
	PlayAreaHeight float64

	PlayerWidth  float64
	PlayerHeight float64
	PlayerStartX float64
	PlayerStartY float64
	PlayerSpeed  float64 // pixels per tick per held direction
	MaxLife      int

	ProjectileWidth   float64
	ProjectileHeight  float64
	ProjectileSpeed   float64 // pixels per tick, upward
	ProjectileExpiryY float64 // projectiles at or above this y survive (y > ExpiryY)

	AdversarySize     float64 // adversaries are square
	AdversarySpeed    float64 // pixels per tick, downward
	AdversaryVariants int     // number of cosmetic sprite variants
	SpawnChance       float64 // probability of a spawn per tick
	SpawnMargin       float64 // keeps spawns away from the right edge

	HitReward        int // score per adversary destroyed by a projectile
	CollisionPenalty int // life lost per adversary touching the player

	MaxProjectiles int // DoS guard, fire is ignored beyond this
	MaxAdversaries int // DoS guard, spawns are skipped beyond this
}

// DefaultTuning returns the reference tuning at a 30ms tick.
func DefaultTuning() Tuning {
	return Tuning{
		PlayAreaWidth:  450,
		PlayAreaHeight: 500,

		PlayerWidth:  50,
		PlayerHeight: 50,
		PlayerStartX: 225,
		PlayerStartY: 450,
		PlayerSpeed:  5,
		MaxLife:      100,

		ProjectileWidth:   5,
		ProjectileHeight:  10,
		ProjectileSpeed:   7,
		ProjectileExpiryY: -10,

		AdversarySize:     50,
		AdversarySpeed:    2,
		AdversaryVariants: 6,
		SpawnChance:       0.02, // ~0.67 adversaries/second at 30ms
		SpawnMargin:       0,

		HitReward:        10,
		CollisionPenalty: 10,

		// Reference geometry keeps at most ~66 projectiles alive.
		MaxProjectiles: 256,
		MaxAdversaries: 256,
	}
}

// LifeCeiling is the highest life a session may start with.
const LifeCeiling = 100

// Validate rejects tunings that would break the bounds invariants.
func (t Tuning) Validate() error {
	switch {
	case t.PlayAreaWidth <= 0 || t.PlayAreaHeight <= 0:
		return fmt.Errorf("play area must be positive, got %vx%v", t.PlayAreaWidth, t.PlayAreaHeight)
	case t.PlayerWidth <= 0 || t.PlayerHeight <= 0:
		return fmt.Errorf("player size must be positive, got %vx%v", t.PlayerWidth, t.PlayerHeight)
	case t.PlayerWidth > t.PlayAreaWidth || t.PlayerHeight > t.PlayAreaHeight:
		return fmt.Errorf("player %vx%v does not fit play area %vx%v",
			t.PlayerWidth, t.PlayerHeight, t.PlayAreaWidth, t.PlayAreaHeight)
	case t.AdversarySize <= 0 || t.AdversarySize+t.SpawnMargin > t.PlayAreaWidth:
		return fmt.Errorf("adversary size %v with margin %v does not fit width %v",
			t.AdversarySize, t.SpawnMargin, t.PlayAreaWidth)
	case t.ProjectileWidth <= 0 || t.ProjectileHeight <= 0:
		return fmt.Errorf("projectile size must be positive")
	case t.SpawnChance < 0 || t.SpawnChance > 1:
		return fmt.Errorf("spawn chance %v outside [0,1]", t.SpawnChance)
	case t.MaxLife <= 0 || t.MaxLife > LifeCeiling:
		return fmt.Errorf("max life must be in [1,%d], got %d", LifeCeiling, t.MaxLife)
	case t.AdversaryVariants <= 0:
		return fmt.Errorf("adversary variants must be positive, got %d", t.AdversaryVariants)
	case t.HitReward < 0 || t.CollisionPenalty < 0:
		return fmt.Errorf("reward and penalty must be non-negative")
	case t.MaxProjectiles <= 0 || t.MaxAdversaries <= 0:
		return fmt.Errorf("entity limits must be positive")
	}
	return nil
}

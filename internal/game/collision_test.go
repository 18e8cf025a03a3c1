package game

import "testing"

func TestResolveProjectileHitsSingle(t *testing.T) {
	tu := DefaultTuning()
	projectiles := []Projectile{{ID: 1, X: 100, Y: 100, Speed: 7}}
	adversaries := []Adversary{{ID: 2, X: 100, Y: 100, Speed: 2}}

	keptP, keptA, hits := tu.ResolveProjectileHits(projectiles, adversaries)

	if len(keptP) != 0 || len(keptA) != 0 {
		t.Errorf("expected both removed, kept %d projectiles and %d adversaries", len(keptP), len(keptA))
	}
	if len(hits) != 1 || hits[0].ProjectileID != 1 || hits[0].AdversaryID != 2 {
		t.Errorf("hits = %+v, want one hit 1->2", hits)
	}
}

func TestResolveProjectileHitsFirstHitWins(t *testing.T) {
	tu := DefaultTuning()

	t.Run("two projectiles one adversary", func(t *testing.T) {
		projectiles := []Projectile{
			{ID: 1, X: 100, Y: 100},
			{ID: 2, X: 110, Y: 100},
		}
		adversaries := []Adversary{{ID: 3, X: 100, Y: 100}}

		keptP, keptA, hits := tu.ResolveProjectileHits(projectiles, adversaries)

		if len(hits) != 1 {
			t.Fatalf("got %d hits, want 1", len(hits))
		}
		if hits[0].ProjectileID != 1 {
			t.Errorf("older projectile should claim the hit, got %d", hits[0].ProjectileID)
		}
		if len(keptA) != 0 {
			t.Error("adversary should be removed")
		}
		if len(keptP) != 1 || keptP[0].ID != 2 {
			t.Errorf("projectile 2 should survive, kept %+v", keptP)
		}
	})

	t.Run("one projectile two adversaries", func(t *testing.T) {
		projectiles := []Projectile{{ID: 5, X: 120, Y: 120}}
		adversaries := []Adversary{
			{ID: 1, X: 100, Y: 100},
			{ID: 2, X: 110, Y: 110},
		}

		keptP, keptA, hits := tu.ResolveProjectileHits(projectiles, adversaries)

		if len(hits) != 1 || hits[0].AdversaryID != 1 {
			t.Fatalf("hits = %+v, want older adversary 1 destroyed", hits)
		}
		if len(keptP) != 0 {
			t.Error("projectile should be spent")
		}
		if len(keptA) != 1 || keptA[0].ID != 2 {
			t.Errorf("adversary 2 should survive, kept %+v", keptA)
		}
	})

	t.Run("two projectiles two adversaries", func(t *testing.T) {
		// Both projectiles overlap both adversaries. Each adversary takes one.
		projectiles := []Projectile{
			{ID: 1, X: 120, Y: 120},
			{ID: 2, X: 125, Y: 120},
		}
		adversaries := []Adversary{
			{ID: 3, X: 100, Y: 100},
			{ID: 4, X: 110, Y: 110},
		}

		keptP, keptA, hits := tu.ResolveProjectileHits(projectiles, adversaries)

		if len(hits) != 2 {
			t.Fatalf("got %d hits, want 2", len(hits))
		}
		if hits[0].AdversaryID != 3 || hits[0].ProjectileID != 1 ||
			hits[1].AdversaryID != 4 || hits[1].ProjectileID != 2 {
			t.Errorf("hits = %+v, want 1->3 then 2->4", hits)
		}
		if len(keptP) != 0 || len(keptA) != 0 {
			t.Error("everything should be consumed")
		}
	})
}

func TestResolveProjectileHitsMiss(t *testing.T) {
	tu := DefaultTuning()
	projectiles := []Projectile{{ID: 1, X: 10, Y: 10}}
	adversaries := []Adversary{{ID: 2, X: 300, Y: 300}}

	keptP, keptA, hits := tu.ResolveProjectileHits(projectiles, adversaries)

	if len(hits) != 0 || len(keptP) != 1 || len(keptA) != 1 {
		t.Errorf("miss should keep everything: hits=%d p=%d a=%d", len(hits), len(keptP), len(keptA))
	}
}

func TestResolvePlayerHits(t *testing.T) {
	tu := DefaultTuning()
	player := tu.NewPlayer() // (225, 450)

	t.Run("single collision", func(t *testing.T) {
		adversaries := []Adversary{
			{ID: 1, X: 225, Y: 440},
			{ID: 2, X: 0, Y: 0},
		}
		p, kept, n := tu.ResolvePlayerHits(player, adversaries)
		if n != 1 || p.Life != 90 {
			t.Errorf("collisions=%d life=%d, want 1 and 90", n, p.Life)
		}
		if len(kept) != 1 || kept[0].ID != 2 {
			t.Errorf("kept %+v, want only adversary 2", kept)
		}
	})

	t.Run("penalty per adversary", func(t *testing.T) {
		adversaries := []Adversary{
			{ID: 1, X: 200, Y: 420},
			{ID: 2, X: 250, Y: 420},
			{ID: 3, X: 225, Y: 460},
		}
		p, kept, n := tu.ResolvePlayerHits(player, adversaries)
		if n != 3 || p.Life != 70 || len(kept) != 0 {
			t.Errorf("collisions=%d life=%d kept=%d, want 3, 70, 0", n, p.Life, len(kept))
		}
	})

	t.Run("life floors at zero", func(t *testing.T) {
		weak := player
		weak.Life = 5
		p, _, _ := tu.ResolvePlayerHits(weak, []Adversary{{ID: 1, X: 225, Y: 440}})
		if p.Life != 0 {
			t.Errorf("life = %d, want 0", p.Life)
		}
	})
}

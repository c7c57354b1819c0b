package greeting

import "testing"

func TestPick_MembershipByDirection(t *testing.T) {
	tests := []struct {
		name      string
		direction string
		pool      []string
	}{
		{"inbound", DirectionInbound, Pool(DirectionInbound)},
		{"outbound", DirectionOutbound, Pool(DirectionOutbound)},
		{"unknown direction falls back to outbound", "queued", Pool(DirectionOutbound)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for range 50 {
				got := Pick(tt.direction)
				found := false
				for _, line := range tt.pool {
					if line == got {
						found = true
						break
					}
				}
				if !found {
					t.Fatalf("Pick(%q) = %q, not in pool", tt.direction, got)
				}
			}
		})
	}
}

func TestPick_Varies(t *testing.T) {
	seen := make(map[string]bool)
	for range 200 {
		seen[Pick(DirectionInbound)] = true
	}
	if len(seen) < 2 {
		t.Errorf("Pick() returned %d distinct greetings over 200 picks, want variety", len(seen))
	}
}

func TestPools_Disjoint(t *testing.T) {
	inbound := Pool(DirectionInbound)
	outbound := Pool(DirectionOutbound)
	if len(inbound) == 0 || len(outbound) == 0 {
		t.Fatal("empty greeting pool")
	}
	for _, in := range inbound {
		for _, out := range outbound {
			if in == out {
				t.Errorf("greeting %q appears in both pools", in)
			}
		}
	}
}

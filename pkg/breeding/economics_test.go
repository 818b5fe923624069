package breeding

import "testing"

func TestCost(t *testing.T) {
	cases := []struct {
		g1, g2 int
		want   int
	}{
		{0, 0, 100},
		{0, 1, 93},
		{1, 1, 85},
		{2, 3, 63},
		{5, 5, 25},
		{6, 6, 10},
		{50, 50, 10},
	}
	for _, tc := range cases {
		if got := Cost(tc.g1, tc.g2); got != tc.want {
			t.Fatalf("Cost(%d, %d) = %d, want %d", tc.g1, tc.g2, got, tc.want)
		}
	}
	prev := Cost(0, 0)
	for g := 1; g < 20; g++ {
		c := Cost(g, g)
		if c > prev {
			t.Fatalf("cost increased at generation %d: %d > %d", g, c, prev)
		}
		if c < 10 {
			t.Fatalf("cost below floor at generation %d: %d", g, c)
		}
		prev = c
	}
}

func TestStudFee(t *testing.T) {
	cases := []struct {
		score, gen int
		want       int
	}{
		{100, 1, 50},
		{100, 0, 100},
		{10, 1, 10},
		{10, 0, 10},
		{0, 3, 10},
		{500, 0, 500},
		{151, 2, 76},
	}
	for _, tc := range cases {
		if got := StudFee(tc.score, tc.gen); got != tc.want {
			t.Fatalf("StudFee(%d, %d) = %d, want %d", tc.score, tc.gen, got, tc.want)
		}
	}
	for score := 20; score <= 500; score += 40 {
		if StudFee(score, 0) != 2*StudFee(score, 1) {
			t.Fatalf("gen 0 fee should double at score %d", score)
		}
	}
}

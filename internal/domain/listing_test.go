package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMinPrice(t *testing.T) {
	cases := []struct {
		name  string
		tiers []PriceTier
		want  int
	}{
		{"empty", nil, 0},
		{"single tier", []PriceTier{{SharingType: "single", Price: 12000}}, 12000},
		{
			"picks lowest",
			[]PriceTier{
				{SharingType: "single", Price: 12000},
				{SharingType: "triple", Price: 4500},
				{SharingType: "double", Price: 7000},
			},
			4500,
		},
		{
			"lowest first",
			[]PriceTier{
				{SharingType: "triple", Price: 4500},
				{SharingType: "single", Price: 12000},
			},
			4500,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, MinPrice(tc.tiers))
		})
	}
}

package dedup

import (
	"testing"

	"go-actuarylist-scraper/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestAccumulator_Add(t *testing.T) {
	acc := NewAccumulator()

	a := models.Listing{Title: "Pricing Actuary", Company: "Acme Re", Location: "London"}
	b := models.Listing{Title: "Pricing Actuary", Company: "Acme Re", Location: "Remote"}
	c := models.Listing{Title: "Pricing Actuary", Company: "Beta Life"}

	assert.True(t, acc.Add(a))
	assert.False(t, acc.Add(b), "same title and company must be rejected")
	assert.True(t, acc.Add(c))

	assert.Equal(t, 2, acc.Len())
	assert.Equal(t, 1, acc.Duplicates())

	//first one wins
	got := acc.Listings()
	assert.Equal(t, "London", got[0].Location)
	assert.Equal(t, "Beta Life", got[1].Company)
}

func TestAccumulator_OrderIndependent(t *testing.T) {
	x := models.Listing{Title: "Actuarial Analyst", Company: "Acme"}
	y := models.Listing{Title: "Actuarial Analyst", Company: "Acme", PostingDate: "1 day ago"}

	for _, order := range [][]models.Listing{{x, y}, {y, x}} {
		acc := NewAccumulator()
		for _, l := range order {
			acc.Add(l)
		}
		assert.Equal(t, 1, acc.Len())
	}
}

func TestAccumulator_ListingsIsCopy(t *testing.T) {
	acc := NewAccumulator()
	acc.Add(models.Listing{Title: "A", Company: "B"})

	got := acc.Listings()
	got[0].Title = "changed"

	assert.Equal(t, "A", acc.Listings()[0].Title)
}

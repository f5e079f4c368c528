package pricing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/merchant-ops/internal/model"
)

func costPtr(v float64) *float64 { return &v }

func TestProposeOne(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name          string
		product       model.Product
		competitor    float64
		hasCompetitor bool
		sentiment     float64
		wantPrice     float64
		wantStatus    model.ProposalStatus
		wantReasoning string
		wantSignals   []string
	}{
		{
			name:          "margin without competitor",
			product:       model.Product{ID: "p1", Name: "Mug", Price: 100, Cost: costPtr(60)},
			sentiment:     0.2,
			wantPrice:     110,
			wantStatus:    model.ProposalIncrease,
			wantReasoning: "Standard margin adjustment (+10%)",
			wantSignals:   []string{"sentiment: 0.20"},
		},
		{
			name:          "competitor undercut then cost floor",
			product:       model.Product{ID: "p1", Name: "Mug", Price: 100, Cost: costPtr(60)},
			competitor:    50,
			hasCompetitor: true,
			sentiment:     0.2,
			wantPrice:     63,
			wantStatus:    model.ProposalDecrease,
			wantReasoning: "Adjusted to match competitor pricing | Price raised to cost floor ($63.00)",
			wantSignals:   []string{"competitor_price: $50.00", "sentiment: 0.20", "cost_floor: $63.00"},
		},
		{
			name:          "competitor undercut above floor",
			product:       model.Product{ID: "p1", Price: 100, Cost: costPtr(20)},
			competitor:    80,
			hasCompetitor: true,
			sentiment:     0.1,
			wantPrice:     85,
			wantStatus:    model.ProposalDecrease,
			wantReasoning: "Adjusted to match competitor pricing",
			wantSignals:   []string{"competitor_price: $80.00", "sentiment: 0.10"},
		},
		{
			name:          "competitor above current allows margin",
			product:       model.Product{ID: "p1", Price: 100, Cost: costPtr(20)},
			competitor:    120,
			hasCompetitor: true,
			sentiment:     0.1,
			wantPrice:     110,
			wantStatus:    model.ProposalIncrease,
			wantReasoning: "Standard margin adjustment (+10%)",
			wantSignals:   []string{"competitor_price: $120.00", "sentiment: 0.10"},
		},
		{
			name:          "competitor within band holds",
			product:       model.Product{ID: "p1", Price: 100},
			competitor:    97,
			hasCompetitor: true,
			sentiment:     0.5,
			wantPrice:     100,
			wantStatus:    model.ProposalHold,
			wantReasoning: "No changes recommended",
			wantSignals:   []string{"competitor_price: $97.00", "sentiment: 0.50"},
		},
		{
			name:          "negative sentiment holds",
			product:       model.Product{ID: "p1", Price: 100, Cost: costPtr(40)},
			sentiment:     -0.5,
			wantPrice:     100,
			wantStatus:    model.ProposalHold,
			wantReasoning: "No changes recommended",
			wantSignals:   []string{"sentiment: -0.50"},
		},
		{
			name:          "cost floor overrides negative sentiment",
			product:       model.Product{ID: "p1", Price: 100, Cost: costPtr(98)},
			sentiment:     -0.5,
			wantPrice:     102.9,
			wantStatus:    model.ProposalIncrease,
			wantReasoning: "Price raised to cost floor ($102.90)",
			wantSignals:   []string{"sentiment: -0.50", "cost_floor: $102.90"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := ProposeOne(tt.product, tt.competitor, tt.hasCompetitor, tt.sentiment)
			assert.InDelta(t, tt.wantPrice, got.ProposedPrice, 1e-9)
			assert.Equal(t, tt.wantStatus, got.Status)
			assert.Equal(t, tt.wantReasoning, got.Reasoning)
			assert.Equal(t, tt.wantSignals, got.SignalsUsed)
			assert.Equal(t, tt.product.Price, got.CurrentPrice)
		})
	}
}

func TestProposeOne_DefaultsCostAndName(t *testing.T) {
	t.Parallel()

	got := ProposeOne(model.Product{ID: "p9", Price: 40}, 0, false, 0)
	assert.Equal(t, 20.0, got.Cost)
	assert.Equal(t, "Unknown", got.ProductName)
	assert.Equal(t, 44.0, got.ProposedPrice)
}

func TestProposeOne_NeverBelowCostFloor(t *testing.T) {
	t.Parallel()

	for _, competitor := range []float64{1, 10, 30, 55, 90} {
		for _, sentiment := range []float64{-1, -0.31, 0, 0.7} {
			got := ProposeOne(model.Product{ID: "p", Price: 100, Cost: costPtr(60)}, competitor, true, sentiment)
			assert.GreaterOrEqual(t, got.ProposedPrice, 63.0-0.005, "competitor=%v sentiment=%v", competitor, sentiment)
		}
	}
}

func TestPropose(t *testing.T) {
	t.Parallel()

	products := []model.Product{
		{ID: "p1", Name: "A", Price: 100, Cost: costPtr(20)},
		{ID: "p2", Name: "B", Price: 50, Cost: costPtr(10)},
		{ID: "p3", Name: "C", Price: 30, Cost: costPtr(10)},
	}
	ctx := []model.PricingContext{
		{ProductID: "p1", CompetitorPrice: 80},
		{ProductID: "p1", CompetitorPrice: 200},
		{ProductID: "p3", CompetitorPrice: 0},
		{ProductID: "ghost", CompetitorPrice: 10},
	}

	got := Propose(products, ctx, 0.1)
	require.Len(t, got, 3)

	// first matching context entry wins
	assert.Equal(t, "competitor_price: $80.00", got[0].SignalsUsed[0])
	assert.Equal(t, 85.0, got[0].ProposedPrice)

	assert.Equal(t, []string{"sentiment: 0.10"}, got[1].SignalsUsed)
	assert.Equal(t, 55.0, got[1].ProposedPrice)

	// zero competitor price is treated as absent
	assert.Equal(t, []string{"sentiment: 0.10"}, got[2].SignalsUsed)
	assert.Equal(t, 33.0, got[2].ProposedPrice)

	for _, p := range got {
		assert.NotEqual(t, "ghost", p.ProductID)
	}
}

func TestPropose_Empty(t *testing.T) {
	t.Parallel()

	assert.Empty(t, Propose(nil, []model.PricingContext{{ProductID: "p1", CompetitorPrice: 10}}, 0))
}

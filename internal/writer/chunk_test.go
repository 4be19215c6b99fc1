package writer

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pthm/openhelper/pkg/schema"
)

func identity(n int) int { return n }

func TestPartitionBySizeBudget(t *testing.T) {
	tests := []struct {
		name   string
		items  []int
		budget int
		want   [][]int
	}{
		{name: "empty", items: nil, budget: 1000, want: nil},
		{name: "single small", items: []int{10}, budget: 1000, want: [][]int{{10}}},
		{name: "three of 400", items: []int{400, 400, 400}, budget: 1000, want: [][]int{{400, 400}, {400}}},
		{name: "oversized alone", items: []int{1500}, budget: 1000, want: [][]int{{1500}}},
		{name: "oversized first", items: []int{1500, 10}, budget: 1000, want: [][]int{{1500}, {10}}},
		{name: "oversized last", items: []int{10, 1500}, budget: 1000, want: [][]int{{10}, {1500}}},
		{name: "exactly budget", items: []int{500, 500, 1}, budget: 1000, want: [][]int{{500, 500}, {1}}},
		{name: "zero weights", items: []int{0, 0, 1000, 0}, budget: 1000, want: [][]int{{0, 0, 1000, 0}}},
		{name: "no backfill", items: []int{600, 600, 300}, budget: 1000, want: [][]int{{600}, {600, 300}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, PartitionBySizeBudget(tt.items, identity, tt.budget))
		})
	}
}

func TestPartitionBySizeBudget_Properties(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for round := 0; round < 200; round++ {
		n := rng.Intn(60)
		items := make([]int, n)
		for i := range items {
			items[i] = rng.Intn(1200)
		}

		groups := PartitionBySizeBudget(items, identity, ValidateChunkSize)

		var flat []int
		for _, g := range groups {
			require.NotEmpty(t, g)
			sum := 0
			for _, w := range g {
				sum += w
			}
			if len(g) > 1 {
				assert.LessOrEqual(t, sum, ValidateChunkSize, "group %v", g)
			}
			flat = append(flat, g...)
		}
		if n == 0 {
			assert.Empty(t, flat)
		} else {
			assert.Equal(t, items, flat, "partition must keep every item in order")
		}

		// Greedy: the next group's first item would not have fit.
		for i := 0; i+1 < len(groups); i++ {
			sum := 0
			for _, w := range groups[i] {
				sum += w
			}
			assert.Greater(t, sum+groups[i+1][0], ValidateChunkSize)
		}

		assert.Equal(t, groups, PartitionBySizeBudget(items, identity, ValidateChunkSize), "deterministic")
	}
}

func validations(counts ...int) []TableValidation {
	out := make([]TableValidation, len(counts))
	for i, c := range counts {
		out[i] = TableValidation{
			Entity:         schema.Entity{TableName: "t" + string(rune('1'+i))},
			StatementCount: c,
		}
	}
	return out
}

func TestPlanChunks(t *testing.T) {
	t.Run("empty input yields one empty chunk", func(t *testing.T) {
		chunks := PlanChunks(nil, ValidateChunkSize)
		require.Len(t, chunks, 1)
		assert.Empty(t, chunks[0].Validations)
		assert.Equal(t, 0, chunks[0].StatementCount())
	})

	t.Run("total within ceiling yields one chunk", func(t *testing.T) {
		chunks := PlanChunks(validations(100, 200, 300, 400), ValidateChunkSize)
		require.Len(t, chunks, 1)
		assert.Equal(t, []string{"t1", "t2", "t3", "t4"}, chunks[0].TableNames())
		assert.Equal(t, 1000, chunks[0].StatementCount())
	})

	t.Run("three tables of 400", func(t *testing.T) {
		chunks := PlanChunks(validations(400, 400, 400), ValidateChunkSize)
		require.Len(t, chunks, 2)
		assert.Equal(t, []string{"t1", "t2"}, chunks[0].TableNames())
		assert.Equal(t, []string{"t3"}, chunks[1].TableNames())
	})

	t.Run("single oversized table", func(t *testing.T) {
		chunks := PlanChunks(validations(1500), ValidateChunkSize)
		require.Len(t, chunks, 1)
		assert.Equal(t, 1500, chunks[0].StatementCount())
	})

	t.Run("custom budget", func(t *testing.T) {
		chunks := PlanChunks(validations(10, 10, 10, 10, 10), 20)
		require.Len(t, chunks, 3)
		assert.Equal(t, []string{"t5"}, chunks[2].TableNames())
	})
}

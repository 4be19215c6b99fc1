package writer

import (
	"github.com/pthm/openhelper/internal/gogen"
	"github.com/pthm/openhelper/pkg/schema"
)

// ValidateChunkSize is the default ceiling on the number of generated
// statements in one validation method.
const ValidateChunkSize = 1000

// TableValidation is the generated validation code for one entity.
type TableValidation struct {
	Entity         schema.Entity
	Body           gogen.Block
	StatementCount int
}

// Chunk is a run of consecutive table validations emitted into one method.
type Chunk struct {
	Validations []TableValidation
}

// StatementCount returns the summed statement count of the chunk.
func (c Chunk) StatementCount() int {
	n := 0
	for _, v := range c.Validations {
		n += v.StatementCount
	}
	return n
}

// TableNames returns the tables validated by the chunk, in order.
func (c Chunk) TableNames() []string {
	names := make([]string, len(c.Validations))
	for i, v := range c.Validations {
		names[i] = v.Entity.TableName
	}
	return names
}

// PartitionBySizeBudget splits items into consecutive groups whose summed
// weight stays within budget. An item joins the current group unless the
// group already holds something and the item would push it over budget. An
// item heavier than budget on its own gets a group to itself.
//
// Order is preserved and every item lands in exactly one group. Empty input
// yields no groups.
func PartitionBySizeBudget[T any](items []T, weight func(T) int, budget int) [][]T {
	var (
		groups  [][]T
		current []T
		sum     int
	)
	for _, item := range items {
		w := weight(item)
		if len(current) > 0 && sum+w > budget {
			groups = append(groups, current)
			current, sum = nil, 0
		}
		current = append(current, item)
		sum += w
	}
	if len(current) > 0 {
		groups = append(groups, current)
	}
	return groups
}

// PlanChunks groups table validations into validation methods. The result
// always has at least one chunk: an empty input yields a single empty chunk,
// which becomes an empty primary method.
func PlanChunks(validations []TableValidation, budget int) []Chunk {
	groups := PartitionBySizeBudget(validations, func(v TableValidation) int {
		return v.StatementCount
	}, budget)
	if len(groups) == 0 {
		return []Chunk{{}}
	}

	chunks := make([]Chunk, len(groups))
	for i, g := range groups {
		chunks[i] = Chunk{Validations: g}
	}
	return chunks
}

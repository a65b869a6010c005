package types

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDeleteSummaryAdd(t *testing.T) {
	s := NewDeleteSummary()
	assert.False(t, s.StartTime.IsZero())

	s.Add(DeleteOutcome{ResourceID: "sg-1", Status: DeleteSucceeded})
	s.Add(DeleteOutcome{ResourceID: "sg-2", Status: DeleteFailed, Error: "dependency violation"})
	s.Add(DeleteOutcome{ResourceID: "sg-3", Status: DeleteSkipped})
	s.Add(DeleteOutcome{ResourceID: "sg-4", Status: DeleteSimulated})
	s.Add(DeleteOutcome{ResourceID: "sg-5", Status: DeleteSucceeded})

	assert.Equal(t, 5, s.Total)
	assert.Equal(t, 2, s.Deleted)
	assert.Equal(t, 1, s.Failed)
	assert.Equal(t, 1, s.Skipped)
	assert.Equal(t, 1, s.Simulated)
	assert.Equal(t, s.Total, s.Deleted+s.Failed+s.Skipped+s.Simulated)
	assert.Len(t, s.Outcomes, 5)

	// outcomes keep insertion order
	assert.Equal(t, "sg-1", s.Outcomes[0].ResourceID)
	assert.Equal(t, "sg-5", s.Outcomes[4].ResourceID)
}

func TestDeleteSummaryComplete(t *testing.T) {
	s := NewDeleteSummary()
	assert.Equal(t, time.Duration(0), s.Duration())

	s.Complete()
	assert.False(t, s.EndTime.IsZero())
	assert.GreaterOrEqual(t, s.Duration(), time.Duration(0))
}

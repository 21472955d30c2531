package id

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNew_Unique(t *testing.T) {
	assert.NotEqual(t, New(), New())
	assert.Len(t, New(), 26)
}

func TestNewAt_SortsByTime(t *testing.T) {
	base := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	earlier := NewAt(base)
	later := NewAt(base.Add(time.Second))
	assert.Less(t, earlier, later)
}

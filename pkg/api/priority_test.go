package api

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePriority_Strict(t *testing.T) {
	p, err := ParsePriority("high")
	require.NoError(t, err)
	assert.Equal(t, PriorityHigh, p)

	p, err = ParsePriority("MEDIUM")
	require.NoError(t, err)
	assert.Equal(t, PriorityMedium, p)

	p, err = ParsePriority("")
	require.NoError(t, err)
	assert.Equal(t, DefaultPriority, p)

	_, err = ParsePriority("urgent")
	assert.Error(t, err)
}

func TestPriorityFromString_Lenient(t *testing.T) {
	assert.Equal(t, PriorityLow, PriorityFromString("low"))
	assert.Equal(t, PriorityHigh, PriorityFromString("High"))
	assert.Equal(t, PriorityMedium, PriorityFromString("urgent"))
	assert.Equal(t, PriorityMedium, PriorityFromString(""))
}

func TestPriority_Ordering(t *testing.T) {
	assert.True(t, PriorityLow < PriorityMedium)
	assert.True(t, PriorityMedium < PriorityHigh)
}

func TestPriority_JSONRoundTrip(t *testing.T) {
	data, err := json.Marshal(PriorityHigh)
	require.NoError(t, err)
	assert.Equal(t, `"high"`, string(data))

	var p Priority
	require.NoError(t, json.Unmarshal([]byte(`"low"`), &p))
	assert.Equal(t, PriorityLow, p)

	// unknown stored tokens coerce rather than fail
	require.NoError(t, json.Unmarshal([]byte(`"critical"`), &p))
	assert.Equal(t, PriorityMedium, p)
}

func TestResourceList(t *testing.T) {
	a := ResourceList{Cpu: 4, Ram: 8, Gpu: 1}
	b := ResourceList{Cpu: 2, Ram: 10, Gpu: 0}

	assert.Equal(t, ResourceList{Cpu: 6, Ram: 18, Gpu: 1}, a.Add(b))
	assert.Equal(t, ResourceList{Cpu: 2, Ram: -2, Gpu: 1}, a.Sub(b))
	assert.Equal(t, ResourceList{Cpu: 2, Ram: 0, Gpu: 1}, a.Sub(b).FloorZero())

	assert.True(t, b.FitsWithin(ResourceList{Cpu: 2, Ram: 10, Gpu: 0}))
	assert.False(t, b.FitsWithin(ResourceList{Cpu: 2, Ram: 9, Gpu: 0}))
	assert.False(t, a.Sub(b).IsValid())
}

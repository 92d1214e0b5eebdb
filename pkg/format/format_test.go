package format

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestHumanDuration(t *testing.T) {
	assert.Equal(t, "About an hour", HumanDuration(time.Hour))
	assert.Equal(t, "15 minutes", HumanDuration(15*time.Minute))
}

func TestMillis(t *testing.T) {
	ts := time.Date(2024, 5, 1, 12, 30, 15, 123000000, time.UTC)
	assert.Equal(t, ts, FormatMillis(ToMillis(ts)))
	assert.Equal(t, int64(0), ToMillis(time.Unix(0, 0)))
}

func TestWindow(t *testing.T) {
	end := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, "2024-05-01 11:00:00 to 2024-05-01 12:00:00", Window(end.Add(-time.Hour), end))
}

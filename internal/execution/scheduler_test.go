package execution

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestRoundRobinScheduler_Schedule(t *testing.T) {
	s := NewRoundRobinScheduler()

	tests := []struct {
		name     string
		images   []string
		workers  int
		expected [][]string
	}{
		{
			name:     "even split",
			images:   []string{"a", "b", "c", "d"},
			workers:  2,
			expected: [][]string{{"a", "c"}, {"b", "d"}},
		},
		{
			name:     "uneven split",
			images:   []string{"a", "b", "c"},
			workers:  2,
			expected: [][]string{{"a", "c"}, {"b"}},
		},
		{
			name:     "zero workers means one",
			images:   []string{"a", "b"},
			workers:  0,
			expected: [][]string{{"a", "b"}},
		},
		{
			name:     "idle workers",
			images:   []string{"a"},
			workers:  3,
			expected: [][]string{{"a"}, {}, {}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := s.Schedule(tt.images, tt.workers)
			if diff := cmp.Diff(tt.expected, got); diff != "" {
				t.Errorf("distribution mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

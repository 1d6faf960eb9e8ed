package codegen

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCandidate(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		attempt int
		want    string
	}{
		{
			name:    "first attempt is a 4-character code",
			payload: "1232\n",
			attempt: 0,
			want:    "K8mw",
		},
		{
			name:    "second attempt widens to the full checksum",
			payload: "1232\n",
			attempt: 1,
			want:    "K8mwpw",
		},
		{
			name:    "later attempts append a counter",
			payload: "1232\n",
			attempt: 2,
			want:    "K8mwpw1",
		},
		{
			name:    "counter keeps counting",
			payload: "1232\n",
			attempt: 5,
			want:    "K8mwpw4",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Candidate([]byte(tt.payload), tt.attempt)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCandidateDeterministic(t *testing.T) {
	payload := []byte("Hello, this is a test!")
	assert.Equal(t, Candidate(payload, 0), Candidate(payload, 0))
	assert.Equal(t, Candidate(payload, 3), Candidate(payload, 3))
}

func TestCandidateDistinctPayloads(t *testing.T) {
	a := Candidate([]byte("first payload"), 0)
	b := Candidate([]byte("second payload"), 0)

	assert.Len(t, a, 4)
	assert.Len(t, b, 4)
	assert.NotEqual(t, a, b)
}

package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMergeLabel(t *testing.T) {
	tests := []struct {
		name     string
		existing Label
		incoming Label
		want     Label
	}{
		{name: "empty existing", incoming: Label{Value: "a", Source: "x"}, want: Label{Value: "a", Source: "x"}},
		{name: "empty incoming", existing: Label{Value: "a", Source: "x"}, want: Label{Value: "a", Source: "x"}},
		{name: "same source", existing: Label{Value: "a", Source: "x"}, incoming: Label{Value: "b", Source: "x"}, want: Label{Value: "a|b", Source: "x"}},
		{name: "different source", existing: Label{Value: "a", Source: "x"}, incoming: Label{Value: "b", Source: "y"}, want: Label{Value: "a|b", Source: "x,y"}},
		{name: "no incoming source", existing: Label{Value: "a", Source: "x"}, incoming: Label{Value: "b"}, want: Label{Value: "a|b", Source: "x"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MergeLabel(tt.existing, tt.incoming))
		})
	}
}

func TestLabelValues(t *testing.T) {
	assert.Equal(t, []string{"same category", "similar price"}, Label{Value: "same category|similar price"}.Values())
	assert.Nil(t, Label{}.Values())
}

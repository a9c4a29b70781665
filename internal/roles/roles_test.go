package roles

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParse(t *testing.T) {
	tests := []struct {
		label    string
		expected Role
	}{
		{"", Member},
		{"member", Member},
		{"Treasurer", Treasurer},
		{"TREASURER", Treasurer},
		{"Assistant Secretary", Secretary},
		{"Chairperson/Treasurer", Chairperson | Treasurer},
		{"chamaadmin", ChamaAdmin},
		{"ChamaAdmin, Chairperson", ChamaAdmin | Chairperson},
		{"chair", Member},
	}

	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			assert.Equal(t, tt.expected, Parse(tt.label))
		})
	}
}

func TestRole_String(t *testing.T) {
	assert.Equal(t, "member", Member.String())
	assert.Equal(t, "treasurer", Treasurer.String())
	assert.Equal(t, "chairperson|chamaadmin", (Chairperson | ChamaAdmin).String())
	assert.Equal(t, Chairperson|ChamaAdmin, Parse((ChamaAdmin | Chairperson).String()))
}

func TestClassify(t *testing.T) {
	t.Run("Treasurer", func(t *testing.T) {
		c := Classify("Treasurer", 5, 1)
		assert.True(t, c.CanPerformFinancialActions)
		assert.True(t, c.CanPerformAdministrativeActions)
		assert.True(t, c.IsOfficeBearer)
		assert.False(t, c.IsGroupCreator)
		assert.True(t, c.IsGuarantorEligible)
	})

	t.Run("Secretary is administrative but not financial", func(t *testing.T) {
		c := Classify("secretary", 5, 1)
		assert.False(t, c.CanPerformFinancialActions)
		assert.True(t, c.CanPerformAdministrativeActions)
		assert.True(t, c.IsOfficeBearer)
	})

	t.Run("Chamaadmin is financial", func(t *testing.T) {
		c := Classify("ChamaAdmin", 5, 1)
		assert.True(t, c.CanPerformFinancialActions)
	})

	t.Run("Creator with plain label", func(t *testing.T) {
		c := Classify("member", 1, 1)
		assert.True(t, c.IsGroupCreator)
		assert.True(t, c.CanPerformFinancialActions)
		assert.True(t, c.CanPerformAdministrativeActions)
		assert.False(t, c.IsOfficeBearer)
	})

	t.Run("Plain member", func(t *testing.T) {
		c := Classify("Member", 7, 1)
		assert.False(t, c.CanPerformFinancialActions)
		assert.False(t, c.CanPerformAdministrativeActions)
		assert.False(t, c.IsOfficeBearer)
		assert.True(t, c.IsGuarantorEligible)
	})

	t.Run("Unknown user", func(t *testing.T) {
		c := Classify("", 0, 0)
		assert.Equal(t, Capabilities{}, c)
	})
}

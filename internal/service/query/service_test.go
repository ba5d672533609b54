package query

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/showbill/boxoffice/internal/domain"
)

func TestCheckConservation(t *testing.T) {
	o := &domain.Offering{ID: 1, Remaining: 3, Initial: 10}

	assert.NoError(t, checkConservation(o, 7))
	assert.Error(t, checkConservation(o, 6))
	assert.Error(t, checkConservation(o, 8))
}

func TestCheckConservation_UntouchedOffering(t *testing.T) {
	o := &domain.Offering{ID: 2, Remaining: 25, Initial: 25}

	assert.NoError(t, checkConservation(o, 0))
	assert.Error(t, checkConservation(o, 1))
}

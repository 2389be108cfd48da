package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sampleRequest struct {
	ProductID string `json:"productId" validate:"required,uuid"`
	Quantity  int    `json:"quantity" validate:"gt=0"`
	Variant   struct {
		Unit string `json:"unit" validate:"required"`
	} `json:"selectedVariant"`
}

func TestValidateStructReportsJSONFieldNames(t *testing.T) {
	err := ValidateStruct(&sampleRequest{ProductID: "nope"})

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "must be a valid id", verr.Fields["productId"])
	assert.Equal(t, "must be greater than 0", verr.Fields["quantity"])
	assert.Equal(t, "is required", verr.Fields["selectedVariant.unit"])
}

func TestValidateStructPasses(t *testing.T) {
	req := sampleRequest{ProductID: "6f1c3a52-6a0b-4d38-9b4e-9c7f1f8d2a11", Quantity: 1}
	req.Variant.Unit = "1kg"
	assert.NoError(t, ValidateStruct(&req))
}

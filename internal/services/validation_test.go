package services

import (
	"testing"

	"github.com/Atharrvac/vanadhikar-backend/internal/types"
)

func completeClaim() *types.Claim {
	lat := 21.5
	lng := 81.3
	return &types.Claim{
		ApplicantName:  "Ramesh Kumar",
		GuardianName:   "Suresh Kumar",
		MobileNumber:   "9876543210",
		Email:          "ramesh@example.com",
		Village:        "Bastar",
		District:       "Bastar",
		State:          "Chhattisgarh",
		ClaimType:      types.ClaimTypeIndividual,
		LandType:       "agricultural",
		Description:    "Cultivated since 1998",
		AreaHectares:   2.5,
		CenterLat:      &lat,
		CenterLng:      &lng,
		BoundaryPoints: []byte(`[[21.5,81.3],[21.6,81.3],[21.6,81.4]]`),
		Declaration1:   true,
		Declaration2:   true,
		DataConsent:    true,
		Documents: []types.ClaimDocument{
			{DocType: "aadhaar_card", Name: "aadhaar.pdf"},
		},
	}
}

func TestValidateStage_ReviewPassesForCompleteClaim(t *testing.T) {
	result := ValidateStage(StageReview, completeClaim())
	if !result.OK() {
		t.Fatalf("expected no errors, got %v", result.Errors)
	}
}

func TestValidateStage_MetadataFieldErrors(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(c *types.Claim)
		field  string
	}{
		{"missing applicant name", func(c *types.Claim) { c.ApplicantName = "  " }, "applicantName"},
		{"missing guardian name", func(c *types.Claim) { c.GuardianName = "" }, "guardianName"},
		{"missing mobile", func(c *types.Claim) { c.MobileNumber = "" }, "mobileNumber"},
		{"short mobile", func(c *types.Claim) { c.MobileNumber = "12345" }, "mobileNumber"},
		{"alpha mobile", func(c *types.Claim) { c.MobileNumber = "98765abcde" }, "mobileNumber"},
		{"missing village", func(c *types.Claim) { c.Village = "" }, "village"},
		{"missing district", func(c *types.Claim) { c.District = "" }, "district"},
		{"missing state", func(c *types.Claim) { c.State = "" }, "state"},
		{"bad claim type", func(c *types.Claim) { c.ClaimType = "garden" }, "claimType"},
		{"missing land type", func(c *types.Claim) { c.LandType = "" }, "landType"},
		{"zero area", func(c *types.Claim) { c.AreaHectares = 0 }, "totalArea"},
		{"negative area", func(c *types.Claim) { c.AreaHectares = -1 }, "totalArea"},
		{"declaration1 unchecked", func(c *types.Claim) { c.Declaration1 = false }, "declaration1"},
		{"declaration2 unchecked", func(c *types.Claim) { c.Declaration2 = false }, "declaration2"},
		{"consent unchecked", func(c *types.Claim) { c.DataConsent = false }, "dataConsent"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			claim := completeClaim()
			tc.mutate(claim)
			result := ValidateStage(StageMetadata, claim)
			if _, ok := result.Errors[tc.field]; !ok {
				t.Fatalf("expected error on %q, got %v", tc.field, result.Errors)
			}
		})
	}
}

func TestValidateStage_LocationBounds(t *testing.T) {
	cases := []struct {
		name  string
		lat   float64
		lng   float64
		field string
	}{
		{"latitude south of India", 2.0, 81.0, "centerLat"},
		{"latitude north of India", 40.0, 81.0, "centerLat"},
		{"longitude west of India", 21.0, 60.0, "centerLng"},
		{"longitude east of India", 21.0, 99.0, "centerLng"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			claim := completeClaim()
			claim.CenterLat = &tc.lat
			claim.CenterLng = &tc.lng
			result := ValidateStage(StageLocation, claim)
			if _, ok := result.Errors[tc.field]; !ok {
				t.Fatalf("expected error on %q, got %v", tc.field, result.Errors)
			}
		})
	}
}

func TestValidateStage_MissingCoordinates(t *testing.T) {
	claim := completeClaim()
	claim.CenterLat = nil
	claim.CenterLng = nil
	result := ValidateStage(StageLocation, claim)
	if _, ok := result.Errors["coordinates"]; !ok {
		t.Fatalf("expected coordinates error, got %v", result.Errors)
	}
}

func TestValidateStage_BoundaryLatitudesAreValid(t *testing.T) {
	for _, lat := range []float64{6, 37} {
		claim := completeClaim()
		claim.CenterLat = &lat
		result := ValidateStage(StageLocation, claim)
		if _, ok := result.Errors["centerLat"]; ok {
			t.Fatalf("latitude %v should be accepted: %v", lat, result.Errors)
		}
	}
}

func TestValidateStage_DocumentsRequired(t *testing.T) {
	claim := completeClaim()
	claim.Documents = nil
	result := ValidateStage(StageDocuments, claim)
	if _, ok := result.Errors["documents"]; !ok {
		t.Fatalf("expected documents error, got %v", result.Errors)
	}
}

func TestValidateStage_WarningsDoNotBlock(t *testing.T) {
	claim := completeClaim()
	claim.Email = ""
	claim.Description = ""
	claim.BoundaryPoints = nil

	result := ValidateStage(StageReview, claim)
	if !result.OK() {
		t.Fatalf("warnings must not block, got errors %v", result.Errors)
	}
	if len(result.Warnings) != 3 {
		t.Fatalf("expected 3 warnings, got %d: %v", len(result.Warnings), result.Warnings)
	}
}

func TestValidateStage_ReviewAggregatesAllStages(t *testing.T) {
	claim := completeClaim()
	claim.Documents = nil
	claim.MobileNumber = "123"
	claim.CenterLat = nil
	claim.CenterLng = nil

	result := ValidateStage(StageReview, claim)
	for _, field := range []string{"documents", "mobileNumber", "coordinates"} {
		if _, ok := result.Errors[field]; !ok {
			t.Fatalf("expected aggregated error on %q, got %v", field, result.Errors)
		}
	}
}

func TestValidateStage_UnknownStage(t *testing.T) {
	result := ValidateStage(Stage("shipping"), completeClaim())
	if result.OK() {
		t.Fatalf("unknown stage must not validate clean")
	}
}

package services

import (
	"regexp"
	"strings"

	"github.com/Atharrvac/vanadhikar-backend/internal/types"
)

type Stage string

const (
	StageDocuments Stage = "documents"
	StageMetadata  Stage = "metadata"
	StageLocation  Stage = "location"
	StageReview    Stage = "review"
)

func (s Stage) Valid() bool {
	switch s {
	case StageDocuments, StageMetadata, StageLocation, StageReview:
		return true
	default:
		return false
	}
}

type ValidationWarning struct {
	Message    string `json:"message"`
	Suggestion string `json:"suggestion"`
}

// StageResult carries blocking errors keyed by field plus advisory warnings.
// Warnings never block a transition.
type StageResult struct {
	Errors   map[string]string   `json:"errors"`
	Warnings []ValidationWarning `json:"warnings"`
}

func (r StageResult) OK() bool { return len(r.Errors) == 0 }

var mobileNumberRe = regexp.MustCompile(`^[0-9]{10}$`)

// ValidateStage runs the rule set for one lifecycle stage against a claim.
// Pure: no store access, no mutation.
func ValidateStage(stage Stage, claim *types.Claim) StageResult {
	switch stage {
	case StageDocuments:
		return validateDocuments(claim)
	case StageMetadata:
		return validateMetadata(claim)
	case StageLocation:
		return validateLocation(claim)
	case StageReview:
		return validateReview(claim)
	default:
		return StageResult{Errors: map[string]string{"stage": "unknown validation stage"}}
	}
}

func validateDocuments(claim *types.Claim) StageResult {
	result := StageResult{Errors: map[string]string{}}
	if len(claim.Documents) == 0 {
		result.Errors["documents"] = "At least one document must be attached"
	}
	return result
}

func validateMetadata(claim *types.Claim) StageResult {
	result := StageResult{Errors: map[string]string{}}

	if strings.TrimSpace(claim.ApplicantName) == "" {
		result.Errors["applicantName"] = "Applicant name is required"
	}
	if strings.TrimSpace(claim.GuardianName) == "" {
		result.Errors["guardianName"] = "Father's/Husband's name is required"
	}
	if strings.TrimSpace(claim.MobileNumber) == "" {
		result.Errors["mobileNumber"] = "Mobile number is required"
	} else if !mobileNumberRe.MatchString(strings.TrimSpace(claim.MobileNumber)) {
		result.Errors["mobileNumber"] = "Mobile number must be 10 digits"
	}
	if strings.TrimSpace(claim.Village) == "" {
		result.Errors["village"] = "Village name is required"
	}
	if strings.TrimSpace(claim.District) == "" {
		result.Errors["district"] = "District name is required"
	}
	if strings.TrimSpace(claim.State) == "" {
		result.Errors["state"] = "State selection is required"
	}
	if !claim.ClaimType.Valid() {
		result.Errors["claimType"] = "Claim type selection is required"
	}
	if strings.TrimSpace(claim.LandType) == "" {
		result.Errors["landType"] = "Land type selection is required"
	}
	if claim.AreaHectares <= 0 {
		result.Errors["totalArea"] = "Valid total area is required"
	}
	if !claim.Declaration1 {
		result.Errors["declaration1"] = "Truth declaration must be accepted"
	}
	if !claim.Declaration2 {
		result.Errors["declaration2"] = "False information warning must be accepted"
	}
	if !claim.DataConsent {
		result.Errors["dataConsent"] = "Data processing consent is required"
	}

	if strings.TrimSpace(claim.Email) == "" {
		result.Warnings = append(result.Warnings, ValidationWarning{
			Message:    "Email address not provided",
			Suggestion: "Adding email will help with claim status updates",
		})
	}
	if strings.TrimSpace(claim.Description) == "" {
		result.Warnings = append(result.Warnings, ValidationWarning{
			Message:    "Claim description is empty",
			Suggestion: "Detailed description helps in faster processing",
		})
	}
	return result
}

func validateLocation(claim *types.Claim) StageResult {
	result := StageResult{Errors: map[string]string{}}

	if claim.CenterLat == nil || claim.CenterLng == nil {
		result.Errors["coordinates"] = "Location coordinates are required"
	} else {
		if *claim.CenterLat < types.MinLatitude || *claim.CenterLat > types.MaxLatitude {
			result.Errors["centerLat"] = "Latitude must be within India (6° to 37° N)"
		}
		if *claim.CenterLng < types.MinLongitude || *claim.CenterLng > types.MaxLongitude {
			result.Errors["centerLng"] = "Longitude must be within India (68° to 97° E)"
		}
	}

	if len(claim.BoundaryPoints) == 0 {
		result.Warnings = append(result.Warnings, ValidationWarning{
			Message:    "No boundary points defined",
			Suggestion: "Adding boundary points improves claim accuracy",
		})
	}
	return result
}

// validateReview is the final gate before verification/committee transitions:
// documents, required metadata and location must all hold together.
func validateReview(claim *types.Claim) StageResult {
	result := StageResult{Errors: map[string]string{}}

	if len(claim.Documents) == 0 {
		result.Errors["documents"] = "Documents are required for submission"
	}
	meta := validateMetadata(claim)
	for field, msg := range meta.Errors {
		result.Errors[field] = msg
	}
	result.Warnings = append(result.Warnings, meta.Warnings...)

	loc := validateLocation(claim)
	for field, msg := range loc.Errors {
		result.Errors[field] = msg
	}
	result.Warnings = append(result.Warnings, loc.Warnings...)

	return result
}

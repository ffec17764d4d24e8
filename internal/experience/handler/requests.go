package handler

import (
	"vouch/internal/experience/models"
	id "vouch/pkg/domain"
)

type createExperienceResponse struct {
	ID id.ClaimID `json:"id"`
}

type chooseEmployerRequest struct {
	EmployerAddress string `json:"employer_address"`
}

type registerEmployerRequest struct {
	EmployerAddress string `json:"employer_address"`
	EmployerHandle  string `json:"employer_handle"`
}

type signRequest struct {
	SeekerAddress string `json:"seeker_address"`
}

type signResponse struct {
	CredentialID id.CredentialID `json:"credential_id"`
}

type listResponse struct {
	Experiences []*models.Experience `json:"experiences"`
}

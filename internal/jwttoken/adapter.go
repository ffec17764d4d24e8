package jwttoken

import (
	"vouch/internal/platform/middleware"
	id "vouch/pkg/domain"
)

// Adapter bridges the token service to the middleware TokenValidator
// interface without the middleware package importing this one.
type Adapter struct {
	svc *Service
}

func NewAdapter(svc *Service) *Adapter {
	return &Adapter{svc: svc}
}

func (a *Adapter) ValidateToken(tokenString string) (*middleware.TokenClaims, error) {
	claims, err := a.svc.ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}
	return &middleware.TokenClaims{Address: id.Address(claims.Address)}, nil
}

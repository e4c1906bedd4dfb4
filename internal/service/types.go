package service

import (
	"github.com/Mikeolab/devops-real-app/internal/domain"
)

// LeadInput is a validated lead payload ready for persistence.
type LeadInput struct {
	Name    string
	Phone   string
	Service domain.ServiceType
	Note    string
}

// ToDomain converts the input into an unsaved domain.Lead.
func (in LeadInput) ToDomain() domain.Lead {
	return domain.Lead{
		Name:    in.Name,
		Phone:   in.Phone,
		Service: in.Service,
		Note:    in.Note,
	}
}

// Payload is an undecoded lead submission as it arrives on the wire.
type Payload = map[string]any

package domain

import "time"

// ServiceType is the offering a lead is interested in.
type ServiceType string

// Supported service types.
const (
	ServiceCrypto   ServiceType = "crypto"
	ServiceGiftcard ServiceType = "giftcard"
	ServiceWebdev   ServiceType = "webdev"
	ServiceSEO      ServiceType = "seo"
)

// ServiceTypes lists every accepted service type in display order.
func ServiceTypes() []ServiceType {
	return []ServiceType{ServiceCrypto, ServiceGiftcard, ServiceWebdev, ServiceSEO}
}

// Valid reports whether s belongs to the closed enumeration.
func (s ServiceType) Valid() bool {
	switch s {
	case ServiceCrypto, ServiceGiftcard, ServiceWebdev, ServiceSEO:
		return true
	default:
		return false
	}
}

// Lead is a contact request captured from the public form. Leads are never
// updated or deleted once stored.
type Lead struct {
	ID        string
	Name      string
	Phone     string
	Service   ServiceType
	Note      string
	CreatedAt time.Time
	// Source tags the storage origin; only the file store sets it.
	Source string
}

package usecases

import "neypot.backend/internal/domain/entities"

// ClassifyService maps a declared service name onto the supported set.
// Matching is exact; anything else is treated as HTTP.
func ClassifyService(declared string) entities.ServiceType {
	service := entities.ServiceType(declared)
	if service.IsSupported() {
		return service
	}
	return entities.DefaultService
}

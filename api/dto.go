/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures of the v2 API that are not already carried by
  the service and record types. Records (cims.*) and the policy view
  (policydetail.Policy) are serialized as they are; these types wrap them
  or describe request bodies.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients
  - *Response: Complex response wrappers

TYPES:
  Policy holders:
    PolicyHoldersResponse

  Reports:
    QueueReportResponse

  Scenarios:
    ScenarioDTO, LoadScenarioRequest

VALIDATION:
  Validation is done in handlers and the service, not in DTOs.

SEE ALSO:
  - handlers.go: Uses these types
  - service/: Request types shared with the service
*/
package api

import (
	"github.com/wsr/cims/cims"
)

// =============================================================================
// REQUEST/RESPONSE TYPES
// =============================================================================

// PolicyHoldersResponse is a page of policy holders.
type PolicyHoldersResponse struct {
	Skip      int                    `json:"skip"`
	Take      int                    `json:"take"`
	Producers []cims.Producer        `json:"policy_producers"`
	Addresses []cims.ProducerAddress `json:"policy_producer_addresses"`
}

// QueueReportResponse acknowledges a queued report.
type QueueReportResponse struct {
	Status    string `json:"status"`
	RequestID string `json:"request_id"`
}

// ScenarioDTO represents a sample dataset.
type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Category    string `json:"category,omitempty"` // "haying" or "grazing"
}

// LoadScenarioRequest selects a sample dataset to load.
type LoadScenarioRequest struct {
	ScenarioID string `json:"scenario_id"`
}

// ErrorResponse is the standard error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details any    `json:"details,omitempty"`
}

// HealthDTO reports service health.
type HealthDTO struct {
	Status   string `json:"status"`
	Database string `json:"database"`
}

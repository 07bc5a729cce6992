/*
Package service implements the policy data operations behind the v2 API.

PURPOSE:
  Coordinates the store, the policy detail assembler and the report client
  for one caller at a time. Every operation reads the caller from the
  context (access.FromContext) and restricts what it returns to the
  producers that caller is authorized for.

AUTHORIZATION:
  authorize.go resolves the producer keys a caller may see:
  - Admin, no agent e-mail:   every producer with an eligible commodity
  - Admin, agent e-mail:      producers written by that agency e-mail
  - Agent:                    producers written by the agent's own e-mail;
                              nothing when another agent's e-mail is asked for
  Eligible commodities and the commodity reference year are configuration.

OPERATIONS:
  holders.go:  GetPolicyHolders, GetPolicyHolder
  emails.go:   UpsertPolicyProducerEmail, GetPolicyProducerEmails
  policies.go: GetPolicies, GetPolicy, GetPolicyProducerCommodities
  lookups.go:  State, county, agent, commodity and type lookups
  reports.go:  QueueActualHistoryReport

SEE ALSO:
  - cims/store.go: Store contracts
  - policydetail/: Policy view assembly
  - api/: HTTP surface
*/
package service

import (
	"context"

	"github.com/wsr/cims/cims"
	"github.com/wsr/cims/metrics"
	"github.com/wsr/cims/report"
	"go.uber.org/zap"
)

// ReportQueue queues asynchronous reports. *report.Client implements it.
type ReportQueue interface {
	QueueActualHistory(ctx context.Context, req report.ActualHistoryRequest) (string, error)
}

// Config wires a Service.
type Config struct {
	Store   cims.Store
	Reports ReportQueue
	Metrics *metrics.Metrics
	Logger  *zap.Logger

	// ReferenceYear selects the commodity reference table.
	ReferenceYear string
	// EligibleCommodities are the commodity codes exposed by the service.
	EligibleCommodities []string
}

// Service implements the policy data operations.
type Service struct {
	store       cims.Store
	reports     ReportQueue
	metrics     *metrics.Metrics
	logger      *zap.Logger
	year        string
	commodities []string
}

// Default reference selectors.
var (
	DefaultReferenceYear       = "2023"
	DefaultEligibleCommodities = []string{"0088", "1191", "0332"}
)

// New creates a Service. Empty selectors fall back to the defaults.
func New(cfg Config) *Service {
	s := &Service{
		store:       cfg.Store,
		reports:     cfg.Reports,
		metrics:     cfg.Metrics,
		logger:      cfg.Logger,
		year:        cfg.ReferenceYear,
		commodities: cfg.EligibleCommodities,
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	if s.year == "" {
		s.year = DefaultReferenceYear
	}
	if len(s.commodities) == 0 {
		s.commodities = DefaultEligibleCommodities
	}
	return s
}

// ReferenceYear returns the commodity reference year in use.
func (s *Service) ReferenceYear() string {
	return s.year
}

// EligibleCommodities returns the commodity codes exposed by the service.
func (s *Service) EligibleCommodities() []string {
	return append([]string(nil), s.commodities...)
}

package service

import (
	"context"
	"fmt"

	"github.com/wsr/cims/access"
	"github.com/wsr/cims/cims"
	"github.com/wsr/cims/report"
	"go.uber.org/zap"
)

// ActualHistoryReport asks for actual history reports of producers.
type ActualHistoryReport struct {
	Year            int    `json:"year"`
	ProducerKeys    string `json:"ids"`
	AllInOne        bool   `json:"all_in_one"`
	WsrCompleted    bool   `json:"wsr_completed"`
	CurrentInterval bool   `json:"current_interval"`
	NextInterval    bool   `json:"next_interval"`
}

// QueueActualHistoryReport forwards the request to the report service on
// behalf of the caller, who receives the result by e-mail. It returns the
// correlation id of the queued request.
func (s *Service) QueueActualHistoryReport(ctx context.Context, req ActualHistoryReport) (string, error) {
	if req.Year <= 0 {
		return "", &cims.FieldError{Field: "year", Reason: "required"}
	}
	if len(cims.SplitList(req.ProducerKeys)) == 0 {
		return "", &cims.FieldError{Field: "ids", Reason: "required"}
	}
	if s.reports == nil {
		return "", report.ErrNotConfigured
	}

	client := access.FromContext(ctx)
	id, err := s.reports.QueueActualHistory(ctx, report.ActualHistoryRequest{
		Year:            req.Year,
		IDs:             req.ProducerKeys,
		AllInOne:        req.AllInOne,
		WsrCompleted:    req.WsrCompleted,
		CurrentInterval: req.CurrentInterval,
		NextInterval:    req.NextInterval,
		AgentEmail:      client.Email,
	})
	s.metrics.RecordReport(err)
	if err != nil {
		s.logger.Error("failed to queue actual history report", zap.Error(err), zap.Int("year", req.Year))
		return "", fmt.Errorf("failed to queue actual history report: %w", err)
	}
	return id, nil
}

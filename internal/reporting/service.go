package reporting

import (
	"context"
	"errors"
	"sort"

	"callcenter-platform/internal/calls"
)

var ErrInvalidRequest = errors.New("reporting: invalid request")

// Service aggregates call records into tenant-scoped reports. It reads the
// same immutable call log the router writes; there is no separate reporting
// store to drift out of sync.
type Service struct {
	calls calls.Repository
}

func NewService(callRepo calls.Repository) *Service { return &Service{calls: callRepo} }

func (s *Service) CallVolume(ctx context.Context, req CallVolumeRequest) (CallVolumeReport, error) {
	if req.TenantID == "" {
		return CallVolumeReport{}, ErrInvalidRequest
	}
	if req.Range.From.IsZero() || req.Range.To.IsZero() || !req.Range.To.After(req.Range.From) {
		return CallVolumeReport{}, ErrInvalidRequest
	}
	if s.calls == nil {
		return CallVolumeReport{}, errors.New("reporting: call repository not configured")
	}

	rows, err := s.calls.ListBetween(ctx, req.TenantID, req.Range.From, req.Range.To)
	if err != nil {
		return CallVolumeReport{}, err
	}

	out := CallVolumeReport{TenantID: req.TenantID, Range: req.Range}
	byQueue := map[string]*QueueVolume{}
	for _, c := range rows {
		out.TotalCalls++
		out.TotalDurationSeconds += c.DurationSeconds
		if c.RecordingURL != "" {
			out.Voicemails++
		}
		if c.TranscriptText != "" {
			out.Transcribed++
		}
		switch c.Status {
		case calls.StatusCompleted:
			out.CompletedCalls++
		case calls.StatusFailed:
			out.FailedCalls++
		case calls.StatusNoAnswer:
			out.NoAnswerCalls++
		case calls.StatusMissed:
			out.MissedCalls++
		case calls.StatusInProgress:
			out.InProgressCalls++
		case calls.StatusQueued, calls.StatusRinging:
			// not counted separately
		}

		name := c.QueueName
		if name == "" {
			name = "none"
		}
		qv, ok := byQueue[name]
		if !ok {
			qv = &QueueVolume{QueueName: name}
			byQueue[name] = qv
		}
		qv.Calls++
		if c.AgentID != "" && c.Status == calls.StatusCompleted {
			qv.Answered++
		}
	}
	if out.TotalCalls > 0 {
		out.AverageDurationSeconds = out.TotalDurationSeconds / out.TotalCalls
	}

	for _, qv := range byQueue {
		out.Queues = append(out.Queues, *qv)
	}
	sort.Slice(out.Queues, func(i, j int) bool { return out.Queues[i].QueueName < out.Queues[j].QueueName })

	return out, nil
}

package app

import (
	"time"

	"statusflow/domain/item"
)

type options struct {
	workflowTTL time.Duration
	reporter    item.IssueReporter
}

type Option func(o *options)

func defaultOptions() options {
	return options{workflowTTL: 5 * time.Minute, reporter: item.LogIssueReporter{}}
}

// WithWorkflowTTL sets how long resolved workflow configuration stays cached.
func WithWorkflowTTL(ttl time.Duration) Option {
	return func(o *options) {
		if ttl > 0 {
			o.workflowTTL = ttl
		}
	}
}

func WithIssueReporter(reporter item.IssueReporter) Option {
	return func(o *options) {
		o.reporter = reporter
	}
}

package videoapi

import "context"

// Provider is the port for the external video platform's progress API.
type Provider interface {
	ReportProgress(ctx context.Context, r ProgressReport) (ProgressResult, error)
	VideoCounts(ctx context.Context, externalRef, resourceType string) (Counts, error)
}

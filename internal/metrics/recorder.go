// Package metrics records CMS, listing and page generation metrics.
// Components take a Recorder and default to NoopRecorder.
package metrics

import "time"

// ResultLabel enumerates request outcomes for counters.
type ResultLabel string

const (
	ResultSuccess   ResultLabel = "success"
	ResultNotFound  ResultLabel = "not_found"
	ResultNetwork   ResultLabel = "network_error"
	ResultMalformed ResultLabel = "malformed"
	ResultRejected  ResultLabel = "rejected"
	ResultCanceled  ResultLabel = "canceled"
)

// SnapshotOutcome enumerates the result of a snapshot lookup.
type SnapshotOutcome string

const (
	SnapshotHit   SnapshotOutcome = "hit"
	SnapshotStale SnapshotOutcome = "stale"
	SnapshotMiss  SnapshotOutcome = "miss"
)

// Recorder defines observability hooks. Implementations must be safe for concurrent use.
type Recorder interface {
	ObserveCMSRequest(operation string, d time.Duration, result ResultLabel)
	IncListingLoad(result ResultLabel)
	IncSnapshotLookup(outcome SnapshotOutcome)
	IncPagesBuilt(kind string)
}

// NoopRecorder is a Recorder that does nothing.
type NoopRecorder struct{}

func (NoopRecorder) ObserveCMSRequest(string, time.Duration, ResultLabel) {}
func (NoopRecorder) IncListingLoad(ResultLabel)                          {}
func (NoopRecorder) IncSnapshotLookup(SnapshotOutcome)                   {}
func (NoopRecorder) IncPagesBuilt(string)                                {}

package ingester

import "time"

const (
	defaultWorkerCount = 16

	idleSleepDuration = 5 * time.Second
	retryInitialDelay = time.Second
	retryMaxDelay     = time.Minute

	rollbackTimeout = 10 * time.Second

	progressLogInterval uint64 = 1000
)

package main

import "time"

const (
	txQueueSize       = 1024 // capacity of async TX ring
	serialReadBufSize = 4096 // per read() buffer for the bridge UART

	// largeBufferReclaimThreshold is the capacity above which the temporary
	// UART RX accumulation buffer is discarded and reallocated once empty.
	largeBufferReclaimThreshold = 16 * 1024
	rxBackoffMin                = 20 * time.Millisecond
	rxBackoffMax                = 500 * time.Millisecond
)

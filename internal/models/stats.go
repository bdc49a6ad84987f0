package models

import "time"

// StatsSnapshot is a point-in-time view of the monitor throughput.
type StatsSnapshot struct {
	Timestamp         time.Time     `json:"timestamp"`
	Source            string        `json:"source"`
	TotalMessages     uint64        `json:"total_messages"`
	Elapsed           time.Duration `json:"elapsed"`
	MessagesPerSecond float64       `json:"messages_per_second"`
}

package jobscheduler

import (
	"strings"
	"time"
)

type Kind string

const (
	KindTrigger Kind = "trigger"
	KindPoll    Kind = "poll"
	KindCron    Kind = "cron"
)

// Info is a point-in-time view of one armed job.
type Info struct {
	ID      string
	Name    string
	Kind    Kind
	ArmedAt time.Time
	Next    time.Time
	Prev    time.Time
}

func TriggerName(gameID string) string {
	return string(KindTrigger) + ":" + gameID
}

func PollName(gameID string) string {
	return string(KindPoll) + ":" + gameID
}

func CronName(name string) string {
	return string(KindCron) + ":" + name
}

// ParseName splits a job name into its kind and subject, e.g. poll:20250513WOLG0.
func ParseName(name string) (Kind, string, bool) {
	kind, subject, ok := strings.Cut(name, ":")
	if !ok || subject == "" {
		return "", "", false
	}
	switch Kind(kind) {
	case KindTrigger, KindPoll, KindCron:
		return Kind(kind), subject, true
	default:
		return "", "", false
	}
}

package services

import (
	"time"

	"github.com/vikasavnish/parentportal/internal/email"
)

// Notifier schedules an email for background delivery
type Notifier interface {
	Notify(kind string, msg email.Message, delay time.Duration)
}

// EventPublisher broadcasts domain events to live subscribers
type EventPublisher interface {
	Publish(eventType string, content interface{})
}

type nopPublisher struct{}

func (nopPublisher) Publish(string, interface{}) {}

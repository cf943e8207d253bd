// Package services provides business logic and orchestration services.
//
// This file holds the per-frequency strategies that move a recurring
// template's next_date forward after each firing.
package services

import (
	"fmt"

	"budget/internal/core"
)

// ScheduleAdvancer computes the next occurrence after current.
type ScheduleAdvancer interface {
	Next(current core.Date) core.Date
}

// MonthlyAdvancer adds a fixed 30 days. It drifts against calendar months.
type MonthlyAdvancer struct{}

func (MonthlyAdvancer) Next(current core.Date) core.Date {
	return current.AddDays(30)
}

// WeeklyAdvancer adds 7 days.
type WeeklyAdvancer struct{}

func (WeeklyAdvancer) Next(current core.Date) core.Date {
	return current.AddDays(7)
}

var scheduleStrategies = map[core.Frequency]ScheduleAdvancer{
	core.Monthly: MonthlyAdvancer{},
	core.Weekly:  WeeklyAdvancer{},
}

// GetScheduleAdvancer returns the advancer registered for frequency.
func GetScheduleAdvancer(frequency core.Frequency) (ScheduleAdvancer, error) {
	advancer, ok := scheduleStrategies[frequency]
	if !ok {
		return nil, fmt.Errorf("unknown frequency: %s", frequency)
	}
	return advancer, nil
}

// RegisterScheduleAdvancer adds or replaces the advancer for a frequency.
func RegisterScheduleAdvancer(frequency core.Frequency, advancer ScheduleAdvancer) {
	scheduleStrategies[frequency] = advancer
}

package tui

import "time"

const (
	// Timeouts and Intervals
	TickInterval         = 200 * time.Millisecond
	NotificationDuration = 4 * time.Second

	// Input Dimensions
	InputWidth = 40

	// Layout
	ListWidthRatio  = 0.6 // List takes 60% width
	HeaderHeight    = 7
	MinListHeight   = 10
	MinGraphHeight  = 9
	GraphAxisWidth  = 6
	SpeedHistoryLen = 120

	// Rows from the bottom of a ranking list at which the next page is fetched
	PrefetchMargin = 5
)

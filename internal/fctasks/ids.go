// Package fctasks defines the flight-controller task table and decides which
// tasks run, and how often, from build flags, features and detected sensors.
package fctasks

import "fcsched/internal/sched"

// Task ids. The order is the table order.
const (
	System sched.TaskID = iota
	PID
	Gyro
	Serial
	Beeper
	Lights
	Battery
	Temperature
	RX
	GPS
	Compass
	Baro
	Pitot
	Rangefinder
	IRLock
	Dashboard
	Telemetry
	SmartportMaster
	LEDStrip
	Servos
	StackCheck
	OSD
	CMS
	OpFlow
	RCDevice
	VTXCtrl
	Programming
	RPM
	Aux

	Count int = iota
)

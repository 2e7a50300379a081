package fctasks

import (
	"fmt"
	"strings"
	"time"
)

// Build lists the optional subsystems compiled into the firmware. A task
// whose subsystem is not compiled in can never be enabled.
type Build struct {
	Beeper          bool `json:"beeper"`
	Lights          bool `json:"lights"`
	GPS             bool `json:"gps"`
	Mag             bool `json:"mag"`
	MagMPU9250      bool `json:"mag_mpu9250"`
	Baro            bool `json:"baro"`
	Pitot           bool `json:"pitot"`
	Rangefinder     bool `json:"rangefinder"`
	IRLock          bool `json:"irlock"`
	OpFlow          bool `json:"opflow"`
	Dashboard       bool `json:"dashboard"`
	Telemetry       bool `json:"telemetry"`
	SmartportMaster bool `json:"smartport_master"`
	LEDStrip        bool `json:"led_strip"`
	ServoSBUS       bool `json:"servo_sbus"`
	StackCheck      bool `json:"stack_check"`
	OSD             bool `json:"osd"`
	CMS             bool `json:"cms"`
	MSPDisplayport  bool `json:"msp_displayport"`
	RCDevice        bool `json:"rcdevice"`
	VTXControl      bool `json:"vtx_control"`
	Programming     bool `json:"programming"`
	RPMFilter       bool `json:"rpm_filter"`
}

// FullBuild has every optional subsystem except the board-specific ones.
func FullBuild() Build {
	return Build{
		Beeper: true, Lights: true, GPS: true, Mag: true, Baro: true, Pitot: true,
		Rangefinder: true, IRLock: true, OpFlow: true, Dashboard: true, Telemetry: true,
		SmartportMaster: true, LEDStrip: true, ServoSBUS: true, StackCheck: true,
		OSD: true, CMS: true, RCDevice: true, VTXControl: true, Programming: true,
		RPMFilter: true,
	}
}

// Features are the runtime feature switches.
type Features struct {
	VBAT         bool `json:"vbat"`
	CurrentMeter bool `json:"current_meter"`
	GPS          bool `json:"gps"`
	Dashboard    bool `json:"dashboard"`
	Telemetry    bool `json:"telemetry"`
	LEDStrip     bool `json:"led_strip"`
	OSD          bool `json:"osd"`
}

// Sensors are the detected sensors.
type Sensors struct {
	Mag         bool `json:"mag"`
	Baro        bool `json:"baro"`
	Pitot       bool `json:"pitot"`
	Rangefinder bool `json:"rangefinder"`
	OpFlow      bool `json:"opflow"`
	IRLock      bool `json:"irlock"`
}

type ServoProtocol string

const (
	ServoPWM     ServoProtocol = "PWM"
	ServoSBUS    ServoProtocol = "SBUS"
	ServoSBUSPWM ServoProtocol = "SBUS_PWM"
)

// ParseServoProtocol accepts the protocol names case-insensitively; empty means PWM.
func ParseServoProtocol(s string) (ServoProtocol, error) {
	switch p := ServoProtocol(strings.ToUpper(strings.TrimSpace(s))); p {
	case "":
		return ServoPWM, nil
	case ServoPWM, ServoSBUS, ServoSBUSPWM:
		return p, nil
	}
	return "", fmt.Errorf("unknown servo protocol %q", s)
}

// Settings is everything Init needs to decide the task set.
type Settings struct {
	Build         Build
	Features      Features
	Sensors       Sensors
	ServoProtocol ServoProtocol
	RCDevice      bool
	RPMFilter     bool
	Looptime      time.Duration
	GyroLooptime  time.Duration
}

// Package sirf interprets payloads of the SiRF binary protocol carried by
// the frame layer: message ids and names, navigation data and the
// software-version poll.
package sirf

import "fmt"

// Output messages (receiver to host).
const (
	MeasuredNavigationData byte = 0x02
	MeasuredTrackerData    byte = 0x04
	RawTrackerData         byte = 0x05
	SoftwareVersionString  byte = 0x06
	ClockStatusData        byte = 0x07
	BPS50Data              byte = 0x08
	CPUThroughput          byte = 0x09
	ErrorIDData            byte = 0x0a
	CommandAck             byte = 0x0b
	CommandNack            byte = 0x0c
	VisibleList            byte = 0x0d
	AlmanacData            byte = 0x0e
	EphemerisData          byte = 0x0f
	DifferentialCorrection byte = 0x11
	OkToSend               byte = 0x12
	NavigationParameters   byte = 0x13
	DGPSStatus             byte = 0x1b
	NavLibMeasurementData  byte = 0x1c
	GeodeticNavigationData byte = 0x29
	DevelopmentData        byte = 0xff
)

// Input messages (host to receiver).
const (
	InitializeDataSource  byte = 0x80
	SwitchToNMEA          byte = 0x81
	SetAlmanac            byte = 0x82
	PollSoftwareVersionID byte = 0x84
	SetMainSerialPort     byte = 0x86
	ModeControl           byte = 0x88
	PollClockStatus       byte = 0x90
	PollNavParameters     byte = 0x98
	SetMessageRate        byte = 0xa6
)

var names = map[byte]string{
	MeasuredNavigationData: "Measured Navigation Data Out",
	MeasuredTrackerData:    "Measured Tracker Data Out",
	RawTrackerData:         "Raw Tracker Data Out",
	SoftwareVersionString:  "Software Version String",
	ClockStatusData:        "Clock Status Data",
	BPS50Data:              "50 BPS Data",
	CPUThroughput:          "CPU Throughput",
	ErrorIDData:            "Error ID Data",
	CommandAck:             "Command Acknowledgment",
	CommandNack:            "Command Negative Acknowledgment",
	VisibleList:            "Visible List",
	AlmanacData:            "Almanac Data",
	EphemerisData:          "Ephemeris Data",
	DifferentialCorrection: "Differential Corrections",
	OkToSend:               "OkToSend",
	NavigationParameters:   "Navigation Parameters",
	DGPSStatus:             "DGPS Status",
	NavLibMeasurementData:  "Navigation Library Measurement Data",
	GeodeticNavigationData: "Geodetic Navigation Data",
	DevelopmentData:        "Development Data",

	InitializeDataSource:  "Initialize Data Source",
	SwitchToNMEA:          "Switch To NMEA Protocol",
	SetAlmanac:            "Set Almanac",
	PollSoftwareVersionID: "Poll Software Version",
	SetMainSerialPort:     "Set Main Serial Port",
	ModeControl:           "Mode Control",
	PollClockStatus:       "Poll Clock Status",
	PollNavParameters:     "Poll Navigation Parameters",
	SetMessageRate:        "Set Message Rate",
}

// Name returns the message name for id and whether the id is known.
func Name(id byte) (string, bool) {
	n, ok := names[id]
	return n, ok
}

// Describe is Name with a fallback for unknown ids.
func Describe(id byte) string {
	if n, ok := names[id]; ok {
		return n
	}
	return fmt.Sprintf("Unknown (0x%02x)", id)
}

// Package protocol implements the framed message protocol spoken between a
// controller and the firmware, both over the SSP command link and over the
// USB serial port.
//
// A frame carries one or more messages, each a VLQ command ID followed by
// VLQ encoded arguments:
//
//	len | seq | payload... | crc16 hi | crc16 lo | 0x7E
package protocol

// Version is the protocol revision reported by the firmware.
const Version = "0.1.0"

// Frame layout constants.
const (
	MessageMax         = 256 // Scratch output capacity (several frames)
	MessageHeaderSize  = 2
	MessageTrailerSize = 3
	MessageLengthMin   = MessageHeaderSize + MessageTrailerSize
	MessageLengthMax   = 64
	MessagePositionLen = 0
	MessagePositionSeq = 1
	MessageTrailerCRC  = 3
	MessageTrailerSync = 1
	MessageValueSync   = 0x7E

	// MessageDest is carried in the high nibble of every sequence byte.
	MessageDest    = 0x10
	MessageSeqMask = 0x0F
)

// FrameLengthValid reports whether n is an acceptable value for the length
// byte of a frame.
func FrameLengthValid(n int) bool {
	return n >= MessageLengthMin && n <= MessageLengthMax
}

package omicron

import "fmt"

// ClientFlag selects which service types the middleware streams to us.
type ClientFlag uint32

const (
	ClientPointer ClientFlag = 1 << 1
	ClientMocap   ClientFlag = 1 << 2
	ClientWand    ClientFlag = 1 << 8
	ClientSpeech  ClientFlag = 1 << 9
	ClientAudio   ClientFlag = 1 << 13
)

// DataOffLine asks the middleware to stop streaming to this client.
const DataOffLine = "data_off\n"

// DataOnLine is the control-channel handshake requesting data on port.
func DataOnLine(port int, flags ClientFlag) string {
	return fmt.Sprintf("omicronV3_data_on,%d,%d\n", port, uint32(flags))
}

// ClientFlagsFor builds the handshake flags for the enabled channels.
func ClientFlagsFor(touch, mocap, wand bool) ClientFlag {
	var f ClientFlag
	if touch {
		f |= ClientPointer
	}
	if mocap {
		f |= ClientMocap
	}
	if wand {
		f |= ClientWand
	}
	return f
}

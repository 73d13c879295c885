package device

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	DefaultSocketText = "smart socket"
	// Reading reported by an enabled socket until a real meter is attached.
	nominalPowerMilliwatts uint32 = 10000
)

// Socket is an on/off smart plug.
type Socket struct {
	Text            string
	Enabled         bool
	PowerMilliwatts uint32
}

func NewSocket(text string) Socket {
	return Socket{Text: text}
}

func DefaultSocket() Socket {
	return NewSocket(DefaultSocketText)
}

// Enable switches the socket on. The power reading stays 0 until Refresh.
func (s *Socket) Enable() {
	if !s.Enabled {
		s.Enabled = true
		s.PowerMilliwatts = 0
	}
}

func (s *Socket) Disable() {
	if s.Enabled {
		s.Enabled = false
		s.PowerMilliwatts = 0
	}
}

func (s *Socket) Refresh() {
	if s.Enabled {
		s.PowerMilliwatts = nominalPowerMilliwatts
		return
	}
	s.PowerMilliwatts = 0
}

// Status renders "name: <text>\nstatus: <on|off>[\npower: <v> mW]".
func (s Socket) Status() string {
	builder := strings.Builder{}
	builder.WriteString("name: ")
	builder.WriteString(s.Text)
	builder.WriteString("\nstatus: ")
	if !s.Enabled {
		builder.WriteString("off")
		return builder.String()
	}
	builder.WriteString("on")
	builder.WriteString("\npower: ")
	builder.WriteString(strconv.FormatUint(uint64(s.PowerMilliwatts), 10))
	builder.WriteString(" mW")
	return builder.String()
}

func (s Socket) String() string {
	state := "Off"
	if s.Enabled {
		state = "On"
	}
	return fmt.Sprintf("Name = %s\tState = %s\tPower = %d mW", s.Text, state, s.PowerMilliwatts)
}

package device

import (
	"fmt"
	"strconv"
)

const DefaultThermometerText = "smart thermometer"

const (
	defaultKelvin uint16 = 273
	roomKelvin    uint16 = defaultKelvin + 20
)

// Thermometer reports a temperature in Kelvin.
type Thermometer struct {
	Text   string
	Kelvin uint16
}

func NewThermometer(text string) Thermometer {
	return Thermometer{Text: text, Kelvin: defaultKelvin}
}

func DefaultThermometer() Thermometer {
	return NewThermometer(DefaultThermometerText)
}

func (t *Thermometer) Refresh() {
	t.Kelvin = roomKelvin
}

// Status renders "name: <text>\ntemp: <v>".
func (t Thermometer) Status() string {
	return "name: " + t.Text + "\ntemp: " + strconv.FormatUint(uint64(t.Kelvin), 10)
}

func (t Thermometer) String() string {
	return fmt.Sprintf("Name = %s\tTemp = %d", t.Text, t.Kelvin)
}

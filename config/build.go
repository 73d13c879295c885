package config

import (
	"strings"

	"github.com/benz9527/xhome/device"
	"github.com/benz9527/xhome/home"
)

func (d DeviceConfig) build() device.Device {
	switch strings.ToLower(d.Kind) {
	case DeviceKindSocket:
		socket := device.NewSocket(d.Name)
		if d.Enabled {
			socket.Enable()
			socket.Refresh()
		}
		if d.PowerMilliwatts != nil && socket.Enabled {
			socket.PowerMilliwatts = *d.PowerMilliwatts
		}
		return device.FromSocket(socket)
	case DeviceKindThermometer:
		thermometer := device.NewThermometer(d.Name)
		if d.Kelvin != nil {
			thermometer.Kelvin = *d.Kelvin
		}
		return device.FromThermometer(thermometer)
	default:
	}
	return device.Device{}
}

// Build validates the site and creates its houses. Rooms and devices are
// appended at the tail so that reports follow the file order.
func (cfg *Config) Build(opts ...home.Option) ([]*home.House, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	houses := make([]*home.House, 0, len(cfg.Site.Houses))
	for _, hc := range cfg.Site.Houses {
		house := home.NewHouse(hc.Name, opts...)
		for _, rc := range hc.Rooms {
			room := home.NewRoom(rc.Name, opts...)
			for _, dc := range rc.Devices {
				room.AddDeviceAtTail(dc.build())
			}
			if _, err := house.AddRoomAtTail(room); err != nil {
				return nil, err
			}
		}
		houses = append(houses, house)
	}
	return houses, nil
}

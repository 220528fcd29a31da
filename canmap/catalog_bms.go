package canmap

// BMS parameters are read through OBD2 mode 0x22 requests. The message ID of a
// BMS descriptor is the 16 bit PID and the payload is the response data,
// most significant byte first.

func bmsSignal(pid uint32, name string, width uint8, min, max, scale float64, units, description string) SignalDescriptor {
	return SignalDescriptor{
		MessageID:   pid,
		Name:        name,
		Title:       name,
		BitStart:    0,
		BitLength:   uint(width) * 8,
		FrameLength: width,
		Min:         min,
		Max:         max,
		Scale:       scale,
		Subsystem:   BMS,
		Units:       units,
		Description: description,
	}
}

func bmsUnsigned(pid uint32, name string, width uint8, min, max, scale float64, units, description string) SignalDescriptor {
	d := bmsSignal(pid, name, width, min, max, scale, units, description)
	d.Unsigned = true
	return d
}

var bmsSignals = []SignalDescriptor{
	bmsSignal(0xF00A, "pack_current", 2, -3276.8, 3276.7, 0.1, "A",
		"Pack current, positive while discharging."),
	bmsUnsigned(0xF00D, "pack_voltage", 2, 0, 6553.5, 0.1, "V",
		"Instantaneous pack voltage."),
	bmsSignal(0xF00E, "pack_summed_voltage", 4, -21474836.48, 21474836.47, 0.01, "V",
		"Sum of all cell voltages."),
	bmsUnsigned(0xF00F, "pack_soc", 1, 0, 100, 0.5, "%",
		"Pack state of charge."),
	bmsUnsigned(0xF010, "pack_amphours", 2, 0, 6553.5, 0.1, "Ah",
		"Remaining pack capacity."),
	bmsUnsigned(0xF014, "pack_health", 1, 0, 100, 1, "%",
		"Pack state of health."),
	// The wire value is raw + 32767, so the offset is applied after scaling.
	func() SignalDescriptor {
		d := bmsUnsigned(0xF015, "pack_current_unsigned", 2, -3276.7, 3276.8, 0.1, "A",
			"Pack current transmitted as an unsigned value offset by 32767.")
		d.Offset = -3276.7
		return d
	}(),
	bmsUnsigned(0xF018, "high_cell_voltage", 2, 0, 6.5535, 0.0001, "V",
		"Highest cell voltage in the pack."),
	bmsUnsigned(0xF019, "low_cell_voltage", 2, 0, 6.5535, 0.0001, "V",
		"Lowest cell voltage in the pack."),
	bmsUnsigned(0xF01C, "discharge_current_limit", 2, 0, 65535, 1, "A",
		"Maximum allowed discharge current (DCL)."),
	bmsUnsigned(0xF01D, "charge_current_limit", 2, 0, 65535, 1, "A",
		"Maximum allowed charge current (CCL)."),
	bmsSignal(0xF028, "high_temperature", 2, -40, 150, 1, "°C",
		"Highest thermistor temperature."),
	bmsSignal(0xF029, "low_temperature", 2, -40, 150, 1, "°C",
		"Lowest thermistor temperature."),
	bmsUnsigned(0xF03A, "pack_cycles", 4, 0, 4294967295, 1, "#",
		"Total charge cycles."),
}

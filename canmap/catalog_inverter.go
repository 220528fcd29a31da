package canmap

// Inverter CAN map. Commands live at 0x01..0x0C, periodic telemetry at
// 0x20..0x24. Every message is declared with an 8 byte payload; unused bytes
// are filled with 0xFF by the sender and carry no signal.

const inverterFrameLength = 8

func inverterSignal(id uint32, title, name string, bitStart, bitLength uint, min, max, scale float64, units, description string) SignalDescriptor {
	return SignalDescriptor{
		MessageID:   id,
		Name:        name,
		Title:       title,
		BitStart:    bitStart,
		BitLength:   bitLength,
		FrameLength: inverterFrameLength,
		Min:         min,
		Max:         max,
		Scale:       scale,
		Subsystem:   Inverter,
		Units:       units,
		Description: description,
	}
}

func inverterFlag(id uint32, title, name string, bit uint, description string) SignalDescriptor {
	d := inverterSignal(id, title, name, bit, 1, 0, 1, 1, "#", description)
	d.Unsigned = true
	return d
}

func inverterByte(id uint32, title, name string, bitStart uint, description string) SignalDescriptor {
	d := inverterSignal(id, title, name, bitStart, 8, 0, 255, 1, "#", description)
	d.Unsigned = true
	return d
}

const (
	currentMin = -3276.8
	currentMax = 3276.7

	int32Min = -2147483648
	int32Max = 2147483647
)

var inverterSignals = []SignalDescriptor{
	// Commands.
	inverterSignal(0x01, "Set AC Current", "ac_current", 0, 16, currentMin, currentMax, 10, "Apk",
		"Target motor AC current (peak). Switches the controller to current control mode. The sign is the torque direction."),
	inverterSignal(0x02, "Set Brake current", "target_brake_current", 0, 16, currentMin, currentMax, 10, "Apk",
		"Target brake current, producing negative torque relative to forward. Only positive currents are accepted."),
	inverterSignal(0x03, "Set ERPM", "set_speed_erpm", 0, 32, int32Min, int32Max, 1, "ERPM",
		"Target electrical RPM for speed control. ERPM = motor RPM * pole pairs. The sign is the spin direction."),
	inverterSignal(0x04, "Set Position", "target_position", 0, 16, currentMin, currentMax, 10, "degree",
		"Position to hold, in degrees. Only available with an encoder as position sensor."),
	inverterSignal(0x05, "Set Relative current", "set_relative_current", 0, 16, -100, 100, 10, "%",
		"AC current relative to the configured limits, -100.0% to 100.0%."),
	inverterSignal(0x06, "Set relative brake current", "set_relative_brake_current", 0, 16, 0, 100, 10, "%",
		"Brake current relative to the configured limits, 0% to 100.0%."),
	inverterFlag(0x07, "Set digital output", "digital_output_1", 0, "Sets digital output 1 HIGH (1) or LOW (0)."),
	inverterFlag(0x07, "Set digital output", "digital_output_2", 1, "Sets digital output 2 HIGH (1) or LOW (0)."),
	inverterFlag(0x07, "Set digital output", "digital_output_3", 2, "Sets digital output 3 HIGH (1) or LOW (0)."),
	inverterFlag(0x07, "Set digital output", "digital_output_4", 3, "Sets digital output 4 HIGH (1) or LOW (0)."),
	inverterSignal(0x08, "Max AC Current", "max_ac_current", 0, 16, currentMin, currentMax, 10, "Apk",
		"Maximum allowed drive current on the AC side."),
	inverterSignal(0x09, "Set maximum AC brake current", "max_ac_brake_current", 0, 16, currentMin, currentMax, 10, "Apk",
		"Maximum allowed brake current on the AC side. Only negative currents are accepted."),
	inverterSignal(0x0A, "Max DC Current", "max_dc_current", 0, 16, currentMin, currentMax, 10, "A",
		"Maximum allowed drive current on the DC side, used by the BMS to limit battery discharge."),
	inverterSignal(0x0B, "Set maximum DC brake current", "max_dc_brake_current", 0, 16, currentMin, currentMax, 10, "A",
		"Maximum allowed brake current on the DC side, used by the BMS to limit battery charge. Only negative currents are accepted."),
	func() SignalDescriptor {
		d := inverterSignal(0x0C, "Drive Enable", "drive_enable", 0, 8, 0, 1, 1, "#",
			"0: drive not allowed, 1: drive allowed. Must be sent periodically to stay enabled.")
		d.Unsigned = true
		return d
	}(),

	// General data 1.
	inverterSignal(0x20, "general data 1", "erpm", 0, 32, int32Min, int32Max, 1, "ERPM",
		"Electrical RPM. ERPM = motor RPM * pole pairs."),
	inverterSignal(0x20, "general data 1", "duty_cycle", 32, 16, currentMin, currentMax, 10, "%",
		"Controller duty cycle. Positive while driving, negative while regenerating."),
	inverterSignal(0x20, "general data 1", "input_voltage", 48, 16, -32768, 32767, 1, "V",
		"DC input voltage."),

	// General data 2.
	inverterSignal(0x21, "general data 2", "ac_current", 0, 16, currentMin, currentMax, 10, "Apk",
		"Motor current. Positive while driving, negative while regenerating."),
	inverterSignal(0x21, "general data 2", "dc_current", 16, 16, currentMin, currentMax, 10, "A",
		"Current on the DC side. Positive while driving, negative while regenerating."),

	// General data 3.
	inverterSignal(0x22, "general data 3", "controller_temperature", 0, 16, currentMin, currentMax, 10, "°C",
		"Temperature of the inverter semiconductors."),
	inverterSignal(0x22, "general data 3", "motor_temperature", 16, 16, currentMin, currentMax, 10, "°C",
		"Motor temperature measured by the inverter."),
	inverterByte(0x22, "general data 3", "fault_code", 32, "Fault code, see the fault code chart."),

	// General data 4.
	inverterSignal(0x23, "general data 4", "id", 0, 32, int32Min/100.0, int32Max/100.0, 100, "Apk",
		"FOC algorithm component Id."),
	inverterSignal(0x23, "general data 4", "iq", 32, 32, int32Min/100.0, int32Max/100.0, 100, "Apk",
		"FOC algorithm component Iq."),

	// General data 5.
	inverterSignal(0x24, "general data 5", "throttle_signal", 0, 8, -128, 127, 1, "%",
		"Throttle signal derived from the analog inputs or CAN2."),
	inverterSignal(0x24, "general data 5", "brake_signal", 8, 8, -128, 127, 1, "%",
		"Brake signal derived from the analog inputs or CAN2."),
	inverterFlag(0x24, "general data 5", "digital_input_1", 16, "1: digital input active, 0: inactive."),
	inverterFlag(0x24, "general data 5", "digital_input_2", 17, "1: digital input active, 0: inactive."),
	inverterFlag(0x24, "general data 5", "digital_input_3", 18, "1: digital input active, 0: inactive."),
	inverterFlag(0x24, "general data 5", "digital_input_4", 19, "1: digital input active, 0: inactive."),
	inverterFlag(0x24, "general data 5", "digital_output_1", 20, "1: digital output active, 0: inactive."),
	inverterFlag(0x24, "general data 5", "digital_output_2", 21, "1: digital output active, 0: inactive."),
	inverterFlag(0x24, "general data 5", "digital_output_3", 22, "1: digital output active, 0: inactive."),
	inverterFlag(0x24, "general data 5", "digital_output_4", 23, "1: digital output active, 0: inactive."),
	inverterFlag(0x24, "general data 5", "drive_enable", 24,
		"1: drive enabled, 0: drive disabled. Controlled by the digital input and/or CAN2."),
	inverterFlag(0x24, "general data 5", "capacitor_temp_limit", 32,
		"1: capacitor temperature limit active. Only valid on hardware 3.6 or newer."),
	inverterFlag(0x24, "general data 5", "dc_current_limit", 33, "1: DC current limit active."),
	inverterFlag(0x24, "general data 5", "drive_enable_limit", 34,
		"1: drive enable limit active. For the true drive state use drive_enable."),
	inverterFlag(0x24, "general data 5", "igbt_acceleration_temperature_limit", 35, "1: IGBT acceleration limit active."),
	inverterFlag(0x24, "general data 5", "igbt_temperature_limit", 36, "1: IGBT temperature limit active."),
	inverterFlag(0x24, "general data 5", "input_voltage_limit", 37, "1: input voltage limit active."),
	inverterFlag(0x24, "general data 5", "motor_acceleration_temperature_limit", 38, "1: motor acceleration temperature limit active."),
	inverterFlag(0x24, "general data 5", "motor_temperature_limit", 39, "1: motor temperature limit active."),
	inverterFlag(0x24, "general data 5", "rpm_min_limit", 40, "1: RPM min limit active."),
	inverterFlag(0x24, "general data 5", "rpm_max_limit", 41, "1: RPM max limit active."),
	inverterFlag(0x24, "general data 5", "power_limit", 42, "1: power limit by configuration active."),
	inverterByte(0x24, "general data 5", "can_map_version", 56, "CAN map version, 23 means V2.3."),
}

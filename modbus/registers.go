package modbus

import "github.com/cepro/solarsim/modbusaccess"

// Register names of the emulated inverter.
const (
	RegisterACPower         = "ac_power_kw"
	RegisterDCPower         = "dc_power_kw"
	RegisterCurtailedPower  = "curtailed_power_kw"
	RegisterClippingLimit   = "clipping_limit_kw"
	RegisterLoadPower       = "load_power_kw"
	RegisterBatterySoe      = "battery_soe_kwh"
	RegisterEnergyGenerated = "energy_generated_total_kwh"
	RegisterEnergyCurtailed = "energy_curtailed_total_kwh"
	RegisterInverterStatus  = "inverter_status" // 1 while running, 0 during an outage
	RegisterDayOfYear       = "day_of_year"
	RegisterMinuteOfDay     = "minute_of_day"
)

// InverterBlock is the register map served by the emulated inverter. The same map is served as holding and input
// registers.
var InverterBlock = modbusaccess.RegisterBlock{
	Name:         "inverter",
	StartAddr:    0,
	NumRegisters: 19,
	Registers: map[string]modbusaccess.Register{
		RegisterACPower:         {StartAddr: 0, DataType: modbusaccess.FloatType},
		RegisterDCPower:         {StartAddr: 2, DataType: modbusaccess.FloatType},
		RegisterCurtailedPower:  {StartAddr: 4, DataType: modbusaccess.FloatType},
		RegisterClippingLimit:   {StartAddr: 6, DataType: modbusaccess.FloatType},
		RegisterLoadPower:       {StartAddr: 8, DataType: modbusaccess.FloatType},
		RegisterBatterySoe:      {StartAddr: 10, DataType: modbusaccess.FloatType},
		RegisterEnergyGenerated: {StartAddr: 12, DataType: modbusaccess.FloatType},
		RegisterEnergyCurtailed: {StartAddr: 14, DataType: modbusaccess.FloatType},
		RegisterInverterStatus:  {StartAddr: 16, DataType: modbusaccess.Uint16Type},
		RegisterDayOfYear:       {StartAddr: 17, DataType: modbusaccess.Uint16Type},
		RegisterMinuteOfDay:     {StartAddr: 18, DataType: modbusaccess.Uint16Type},
	},
}

package modbus

import (
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/cepro/solarsim/telemetry"
	"github.com/simonvetter/modbus"
)

// Server emulates the inverter as a read-only Modbus TCP slave, so that real monitoring and control software can be
// pointed at a simulation. Call `Update` with each plant reading to refresh the registers.
type Server struct {
	mu        sync.RWMutex
	registers []uint16

	energyGenerated float64 // running totals, kWh
	energyCurtailed float64

	subServer *modbus.ModbusServer // the raw server of the underlying modbus library we are using
	logger    *slog.Logger
}

// NewServer returns a server that will listen on `url` (e.g. "tcp://0.0.0.0:1502") once started.
func NewServer(url string, clippingLimit float64) (*Server, error) {
	err := InverterBlock.Validate()
	if err != nil {
		return nil, fmt.Errorf("validate register map: %w", err)
	}

	s := &Server{
		registers: make([]uint16, InverterBlock.NumRegisters),
		logger:    slog.Default().With("component", "modbus", "url", url),
	}
	s.encode(RegisterClippingLimit, clippingLimit)
	s.encode(RegisterInverterStatus, uint16(1))

	subServer, err := modbus.NewServer(&modbus.ServerConfiguration{
		URL:        url,
		Timeout:    30 * time.Second,
		MaxClients: 5,
	}, s)
	if err != nil {
		return nil, fmt.Errorf("create modbus server: %w", err)
	}
	s.subServer = subServer

	return s, nil
}

// Start begins accepting client connections.
func (s *Server) Start() error {
	err := s.subServer.Start()
	if err != nil {
		return fmt.Errorf("start modbus server: %w", err)
	}
	s.logger.Info("Started modbus server")
	return nil
}

// Stop closes the listener and all client connections.
func (s *Server) Stop() error {
	return s.subServer.Stop()
}

// Update refreshes the registers from the given plant reading.
func (s *Server) Update(reading telemetry.PlantReading) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.energyGenerated += reading.EnergyGenerated
	s.energyCurtailed += reading.EnergyCurtailed

	status := uint16(0)
	if reading.InverterOK {
		status = 1
	}

	s.encode(RegisterACPower, reading.SolarPower)
	s.encode(RegisterDCPower, reading.SolarRawPower)
	s.encode(RegisterCurtailedPower, math.Max(0, reading.SolarRawPower-reading.SolarPower))
	s.encode(RegisterLoadPower, reading.LoadPower)
	s.encode(RegisterBatterySoe, reading.BatterySoe)
	s.encode(RegisterEnergyGenerated, s.energyGenerated)
	s.encode(RegisterEnergyCurtailed, s.energyCurtailed)
	s.encode(RegisterInverterStatus, status)
	s.encode(RegisterDayOfYear, uint16(reading.Tick.DayOfYear))
	s.encode(RegisterMinuteOfDay, uint16(reading.Tick.Hour*60))
}

// encode must be called with the lock held, or before the server is started.
func (s *Server) encode(key string, val interface{}) {
	err := InverterBlock.EncodeInto(s.registers, key, val)
	if err != nil {
		// the register map is static and validated, so this is a programming error
		panic(err)
	}
}

// HandleHoldingRegisters serves reads of the register map, writes are rejected.
func (s *Server) HandleHoldingRegisters(req *modbus.HoldingRegistersRequest) ([]uint16, error) {
	if req.IsWrite {
		s.logger.Warn("Rejected holding register write", "client", req.ClientAddr, "addr", req.Addr)
		return nil, modbus.ErrIllegalFunction
	}
	return s.read(req.Addr, req.Quantity)
}

// HandleInputRegisters serves reads of the register map.
func (s *Server) HandleInputRegisters(req *modbus.InputRegistersRequest) ([]uint16, error) {
	return s.read(req.Addr, req.Quantity)
}

// HandleCoils rejects all requests, the inverter has no coils.
func (s *Server) HandleCoils(req *modbus.CoilsRequest) ([]bool, error) {
	return nil, modbus.ErrIllegalFunction
}

// HandleDiscreteInputs rejects all requests, the inverter has no discrete inputs.
func (s *Server) HandleDiscreteInputs(req *modbus.DiscreteInputsRequest) ([]bool, error) {
	return nil, modbus.ErrIllegalFunction
}

func (s *Server) read(addr, quantity uint16) ([]uint16, error) {
	start := int(addr) - int(InverterBlock.StartAddr)
	end := start + int(quantity)
	if start < 0 || quantity == 0 || end > len(s.registers) {
		return nil, modbus.ErrIllegalDataAddress
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	res := make([]uint16, quantity)
	copy(res, s.registers[start:end])
	return res, nil
}

package modbusaccess

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Type represents the different types of data that can be exchanged over modbus.
type Type struct {
	name          string                   // the name of the data type
	dataLength    uint16                   // the number of underlying bytes to represent the data type
	fromBytesFunc func([]byte) interface{} // function to convert the bytes to the concrete data type (used to read from modbus)
	toBytesFunc   func(interface{}) []byte // function to convert the concrete data type into bytes (used to serve over modbus)
}

// FloatType represents the 32 bit float data type, which is given and returned as a float64.
var FloatType = Type{
	name:       "float",
	dataLength: 4,
	fromBytesFunc: func(bytes []byte) interface{} {
		valUint32 := binary.BigEndian.Uint32(bytes)
		valFloat32 := math.Float32frombits(valUint32)
		return float64(valFloat32)
	},
	toBytesFunc: func(val interface{}) []byte {
		bytes := make([]byte, 4)
		binary.BigEndian.PutUint32(bytes, math.Float32bits(float32(val.(float64))))
		return bytes
	},
}

// Uint16Type represents the 16 bit unsigned integer data type on Modbus.
var Uint16Type = Type{
	name:       "uint16",
	dataLength: 2,
	fromBytesFunc: func(bytes []byte) interface{} {
		valUint16 := binary.BigEndian.Uint16(bytes)
		return valUint16
	},
	toBytesFunc: func(val interface{}) []byte {
		bytes := make([]byte, 2)
		binary.BigEndian.PutUint16(bytes, val.(uint16))
		return bytes
	},
}

// NumRegisters returns the number of 16 bit registers that the type occupies.
func (t Type) NumRegisters() uint16 {
	return t.dataLength / 2
}

// Encode converts the value into register values, most significant word first.
func (t Type) Encode(val interface{}) []uint16 {
	bytes := t.toBytesFunc(val)
	registerVals := make([]uint16, 0, len(bytes)/2)
	for i := 0; i < len(bytes); i = i + 2 {
		registerVals = append(registerVals, binary.BigEndian.Uint16(bytes[i:i+2]))
	}
	return registerVals
}

// Register holds a value on the modbus slave at the given address
type Register struct {
	StartAddr uint16
	DataType  Type
}

// RegisterBlock represents a contigous block of modbus registers that are read in one chunk.
type RegisterBlock struct {
	Name         string              // name of the block used for context/logging
	StartAddr    uint16              // the first register address of the block
	NumRegisters uint16              // the number of registers in this block (each register is two bytes)
	Registers    map[string]Register // details of all the registers of interest in this block, keyed by unique name
}

// Validate checks that every register lies within the block and that no two registers overlap.
func (b RegisterBlock) Validate() error {
	owners := make([]string, b.NumRegisters)
	for key, register := range b.Registers {
		if register.StartAddr < b.StartAddr {
			return fmt.Errorf("register configuration for '%s' preceeds block", key)
		}
		offset := register.StartAddr - b.StartAddr
		end := offset + register.DataType.NumRegisters()
		if end > b.NumRegisters {
			return fmt.Errorf("register configuration for '%s' exceeds block", key)
		}
		for i := offset; i < end; i++ {
			if owners[i] != "" {
				return fmt.Errorf("register configuration for '%s' overlaps '%s'", key, owners[i])
			}
			owners[i] = key
		}
	}
	return nil
}

// EncodeInto writes `val` into the `registers` that back this block, at the location of the register called `key`.
func (b RegisterBlock) EncodeInto(registers []uint16, key string, val interface{}) error {
	register, ok := b.Registers[key]
	if !ok {
		return fmt.Errorf("unknown register '%s' in block '%s'", key, b.Name)
	}
	offset := int(register.StartAddr - b.StartAddr)
	encoded := register.DataType.Encode(val)
	if offset+len(encoded) > len(registers) {
		return fmt.Errorf("register '%s' exceeds the %d backing registers", key, len(registers))
	}
	copy(registers[offset:], encoded)
	return nil
}

package com

import (
	"maps"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ezrec/comsoc/spi"
)

// recorder replies with a fixed byte sequence, recording what it was sent.
type recorder struct {
	sent    []byte
	replies []byte
	resets  int
}

func (r *recorder) Transmit(value byte) (reply byte) {
	r.sent = append(r.sent, value)
	reply = spi.Idle
	if len(r.replies) > 0 {
		reply = r.replies[0]
		r.replies = r.replies[1:]
	}
	return
}

func (r *recorder) Reset() {
	r.resets++
}

// irqExpected is the IRQ equation over the register file contents.
func irqExpected(com *Com) bool {
	pending := com.ReadDoubleWord(COM_EV_PENDING)
	enable := com.ReadDoubleWord(COM_EV_ENABLE)
	return (pending&enable&(EV_SPI_INT|EV_SPI_HOLD)) != 0
}

func TestNewCom(t *testing.T) {
	assert := assert.New(t)

	com := NewCom()
	assert.Equal(uint32(0x100), com.Size())
	assert.False(com.IRQ.IsSet())

	for _, offset := range []uint32{COM_TX, COM_RX, COM_CONTROL, COM_STATUS, COM_EV_STATUS, COM_EV_PENDING, COM_EV_ENABLE} {
		assert.Equal(uint32(0), com.ReadDoubleWord(offset), "offset %#x", offset)
	}

	_, ok := com.Registered()
	assert.False(ok)
}

func TestCom_TxNoPeripheral(t *testing.T) {
	assert := assert.New(t)

	com := NewCom()
	assert.NoError(com.WriteDoubleWord(COM_CONTROL, CONTROL_INT_ENA))

	err := com.WriteDoubleWord(COM_TX, 0x1234)
	assert.ErrorIs(err, ErrNoPeripheral)
	assert.Equal(uint32(0), com.ReadDoubleWord(COM_RX))
	assert.Equal(uint32(0), com.ReadDoubleWord(COM_EV_PENDING))

	// Other registers work without a peripheral.
	assert.NoError(com.WriteDoubleWord(COM_EV_ENABLE, EV_SPI_INT))
	assert.Equal(EV_SPI_INT, com.ReadDoubleWord(COM_EV_ENABLE))
}

func TestCom_TxOrder(t *testing.T) {
	assert := assert.New(t)

	for _, intEna := range []uint32{0, CONTROL_INT_ENA} {
		rec := &recorder{replies: []byte{0xaa, 0x55}}

		com := NewCom()
		com.Register(rec)
		assert.NoError(com.WriteDoubleWord(COM_CONTROL, intEna))

		assert.NoError(com.WriteDoubleWord(COM_TX, 0xdead_beef))
		assert.Equal([]byte{0xef, 0xbe}, rec.sent)
		assert.Equal(uint32(0x55aa), com.ReadDoubleWord(COM_RX))

		// TX is write only.
		assert.Equal(uint32(0), com.ReadDoubleWord(COM_TX))
	}
}

func TestCom_TxSwapPeripheral(t *testing.T) {
	assert := assert.New(t)

	com := NewCom()
	first := &recorder{replies: []byte{1, 2}}
	second := &recorder{replies: []byte{3, 4}}

	com.Register(first)
	assert.NoError(com.WriteDoubleWord(COM_TX, 0x0102))
	assert.Equal(uint32(0x0201), com.ReadDoubleWord(COM_RX))

	com.Register(second)
	assert.NoError(com.WriteDoubleWord(COM_TX, 0x0304))
	assert.Equal(uint32(0x0403), com.ReadDoubleWord(COM_RX))
	assert.Len(first.sent, 2)
	assert.Len(second.sent, 2)

	com.Unregister()
	assert.ErrorIs(com.WriteDoubleWord(COM_TX, 0), ErrNoPeripheral)
	assert.Equal(uint32(0x0403), com.ReadDoubleWord(COM_RX))
}

func TestCom_IntEnaOff(t *testing.T) {
	assert := assert.New(t)

	com := NewCom()
	com.Register(&spi.Echo{})
	assert.NoError(com.WriteDoubleWord(COM_EV_ENABLE, EV_SPI_INT|EV_SPI_HOLD))

	for range 4 {
		assert.NoError(com.WriteDoubleWord(COM_TX, 0xffff))
		assert.Equal(uint32(0), com.ReadDoubleWord(COM_EV_PENDING))
		assert.Equal(uint32(0), com.ReadDoubleWord(COM_EV_STATUS))
		assert.False(com.IRQ.IsSet())
	}
}

func TestCom_PendingSticky(t *testing.T) {
	assert := assert.New(t)

	com := NewCom()
	com.Register(&spi.Echo{})
	assert.NoError(com.WriteDoubleWord(COM_CONTROL, CONTROL_INT_ENA))

	for range 3 {
		assert.NoError(com.WriteDoubleWord(COM_TX, 0x00a5))
		assert.Equal(EV_SPI_INT, com.ReadDoubleWord(COM_EV_PENDING))
		assert.Equal(uint32(0), com.ReadDoubleWord(COM_EV_STATUS))
	}

	// Pending survives IntEna being turned off.
	assert.NoError(com.WriteDoubleWord(COM_CONTROL, 0))
	assert.NoError(com.WriteDoubleWord(COM_TX, 0x00a5))
	assert.Equal(EV_SPI_INT, com.ReadDoubleWord(COM_EV_PENDING))

	// Writing zero does nothing.
	assert.NoError(com.WriteDoubleWord(COM_EV_PENDING, 0))
	assert.Equal(EV_SPI_INT, com.ReadDoubleWord(COM_EV_PENDING))

	assert.NoError(com.WriteDoubleWord(COM_EV_PENDING, EV_SPI_INT))
	assert.Equal(uint32(0), com.ReadDoubleWord(COM_EV_PENDING))
}

func TestCom_PendingClearIndependent(t *testing.T) {
	assert := assert.New(t)

	com := NewCom()
	com.spiIntPending.Set(true)
	com.spiHoldPending.Set(true)
	assert.NoError(com.WriteDoubleWord(COM_EV_ENABLE, EV_SPI_HOLD))
	assert.True(com.IRQ.IsSet())

	assert.NoError(com.WriteDoubleWord(COM_EV_PENDING, EV_SPI_INT))
	assert.Equal(EV_SPI_HOLD, com.ReadDoubleWord(COM_EV_PENDING))
	assert.True(com.IRQ.IsSet())

	assert.NoError(com.WriteDoubleWord(COM_EV_PENDING, EV_SPI_HOLD))
	assert.Equal(uint32(0), com.ReadDoubleWord(COM_EV_PENDING))
	assert.False(com.IRQ.IsSet())
}

func TestCom_HoldStatusLatch(t *testing.T) {
	assert := assert.New(t)

	com := NewCom()
	com.spiHoldStatus.Set(true)
	assert.Equal(EV_SPI_HOLD, com.ReadDoubleWord(COM_EV_STATUS))

	// Any recompute latches the hold event.
	assert.NoError(com.WriteDoubleWord(COM_EV_ENABLE, EV_SPI_HOLD))
	assert.Equal(EV_SPI_HOLD, com.ReadDoubleWord(COM_EV_PENDING))
	assert.True(com.IRQ.IsSet())

	com.spiHoldStatus.Set(false)
	assert.Equal(EV_SPI_HOLD, com.ReadDoubleWord(COM_EV_PENDING))
}

func TestCom_IrqEquation(t *testing.T) {
	assert := assert.New(t)

	// Walk every pending/enable combination, both by direct latch and by
	// register writes, checking the line after each step.
	for pending := range uint32(4) {
		for enable := range uint32(4) {
			com := NewCom()
			com.spiIntPending.Set(pending&EV_SPI_INT != 0)
			com.spiHoldPending.Set(pending&EV_SPI_HOLD != 0)

			assert.NoError(com.WriteDoubleWord(COM_EV_ENABLE, enable))
			assert.Equal(irqExpected(com), com.IRQ.IsSet(), "pending %d enable %d", pending, enable)
			assert.Equal(pending&enable != 0, com.IRQ.IsSet())

			assert.NoError(com.WriteDoubleWord(COM_EV_PENDING, EV_SPI_INT))
			assert.Equal(irqExpected(com), com.IRQ.IsSet())

			assert.NoError(com.WriteDoubleWord(COM_EV_ENABLE, ^enable))
			assert.Equal(irqExpected(com), com.IRQ.IsSet())

			assert.NoError(com.WriteDoubleWord(COM_EV_PENDING, EV_SPI_HOLD))
			assert.Equal(irqExpected(com), com.IRQ.IsSet())
			assert.False(com.IRQ.IsSet())
		}
	}
}

func TestCom_ControlStorage(t *testing.T) {
	assert := assert.New(t)

	com := NewCom()
	assert.NoError(com.WriteDoubleWord(COM_CONTROL, 0xffff_ffff))
	assert.Equal(CONTROL_INT_ENA|CONTROL_AUTO_HOLD, com.ReadDoubleWord(COM_CONTROL))

	// Status is read only, and never driven.
	assert.NoError(com.WriteDoubleWord(COM_STATUS, 0xffff_ffff))
	assert.Equal(uint32(0), com.ReadDoubleWord(COM_STATUS))
	assert.NoError(com.WriteDoubleWord(COM_EV_STATUS, 0xffff_ffff))
	assert.Equal(uint32(0), com.ReadDoubleWord(COM_EV_STATUS))
	assert.NoError(com.WriteDoubleWord(COM_RX, 0xffff_ffff))
	assert.Equal(uint32(0), com.ReadDoubleWord(COM_RX))
}

func TestCom_Unmapped(t *testing.T) {
	assert := assert.New(t)

	com := NewCom()
	for offset := uint32(0x1c); offset < com.Size(); offset += 4 {
		assert.NoError(com.WriteDoubleWord(offset, 0xffff_ffff))
		assert.Equal(uint32(0), com.ReadDoubleWord(offset))
	}
	assert.Equal(uint32(0), com.ReadDoubleWord(COM_CONTROL))
	assert.Equal(uint32(0), com.ReadDoubleWord(COM_EV_ENABLE))
}

func TestCom_Reset(t *testing.T) {
	assert := assert.New(t)

	rec := &recorder{replies: []byte{0x34, 0x12}}
	com := NewCom()
	com.Register(rec)

	assert.NoError(com.WriteDoubleWord(COM_CONTROL, CONTROL_INT_ENA|CONTROL_AUTO_HOLD))
	assert.NoError(com.WriteDoubleWord(COM_EV_ENABLE, EV_SPI_INT|EV_SPI_HOLD))
	assert.NoError(com.WriteDoubleWord(COM_TX, 0))
	com.spiHoldStatus.Set(true)
	assert.True(com.IRQ.IsSet())

	com.Reset()

	assert.Equal(uint32(0), com.ReadDoubleWord(COM_EV_PENDING))
	assert.Equal(uint32(0), com.ReadDoubleWord(COM_EV_STATUS))
	assert.Equal(uint32(0), com.ReadDoubleWord(COM_EV_ENABLE))
	assert.False(com.IRQ.IsSet())

	// Control and RX survive.
	assert.Equal(CONTROL_INT_ENA|CONTROL_AUTO_HOLD, com.ReadDoubleWord(COM_CONTROL))
	assert.Equal(uint32(0x1234), com.ReadDoubleWord(COM_RX))

	// The attached peripheral is untouched.
	assert.Equal(0, rec.resets)
	_, ok := com.Registered()
	assert.True(ok)
}

func TestCom_Scenario(t *testing.T) {
	assert := assert.New(t)

	com := NewCom()
	com.Register(&spi.Echo{})

	assert.NoError(com.WriteDoubleWord(COM_CONTROL, CONTROL_INT_ENA))
	assert.NoError(com.WriteDoubleWord(COM_TX, 0x1234))
	assert.Equal(uint32(0x1234), com.ReadDoubleWord(COM_RX))
	assert.Equal(EV_SPI_INT, com.ReadDoubleWord(COM_EV_PENDING))
	assert.False(com.IRQ.IsSet())

	assert.NoError(com.WriteDoubleWord(COM_EV_ENABLE, EV_SPI_INT))
	assert.True(com.IRQ.IsSet())

	assert.NoError(com.WriteDoubleWord(COM_EV_PENDING, EV_SPI_INT))
	assert.Equal(uint32(0), com.ReadDoubleWord(COM_EV_PENDING))
	assert.False(com.IRQ.IsSet())
	assert.Equal(1, com.IRQ.Rising())

	if t.Failed() {
		t.Log(com.String())
	}
}

func TestCom_IrqDuringTx(t *testing.T) {
	assert := assert.New(t)

	com := NewCom()
	com.Register(&spi.Echo{})
	assert.NoError(com.WriteDoubleWord(COM_EV_ENABLE, EV_SPI_INT))
	assert.NoError(com.WriteDoubleWord(COM_CONTROL, CONTROL_INT_ENA))

	// The line rises inside the TX write, while the status pulse is high.
	var status []uint32
	com.IRQ.Connect(func(level bool) {
		status = append(status, com.ReadDoubleWord(COM_EV_STATUS))
	})

	assert.NoError(com.WriteDoubleWord(COM_TX, 0x5a5a))
	assert.True(com.IRQ.IsSet())
	assert.Equal([]uint32{EV_SPI_INT}, status)
	assert.Equal(uint32(0), com.ReadDoubleWord(COM_EV_STATUS))
}

func TestCom_Defines(t *testing.T) {
	assert := assert.New(t)

	com := NewCom()
	defs := maps.Collect(com.Defines())

	assert.Equal("0x0", defs["COM_TX"])
	assert.Equal("0x18", defs["COM_EV_ENABLE"])
	assert.Equal("0x100", defs["COM_SIZE"])
	assert.Equal("0x2", defs["EV_SPI_HOLD"])

	var names []string
	for reg := range com.Registers() {
		names = append(names, reg.Name)
	}
	assert.Equal([]string{
		"COM_TX", "COM_RX", "COM_CONTROL", "COM_STATUS",
		"COM_EV_STATUS", "COM_EV_PENDING", "COM_EV_ENABLE",
	}, names)
}

func TestCom_String(t *testing.T) {
	assert := assert.New(t)

	com := NewCom()
	text := com.String()
	assert.True(strings.Contains(text, "SpiIntPending: false"))
	assert.True(strings.Contains(text, "RX: 0000"))
	assert.True(strings.Contains(text, "IRQ: false"))
}

func FuzzComRoundTrip(f *testing.F) {
	f.Add(uint16(0), false)
	f.Add(uint16(0x1234), true)
	f.Add(uint16(0xffff), true)
	f.Add(uint16(0x8001), false)

	f.Fuzz(func(t *testing.T, value uint16, intEna bool) {
		assert := assert.New(t)

		echo := &spi.Echo{}
		com := NewCom()
		com.Register(echo)
		if intEna {
			assert.NoError(com.WriteDoubleWord(COM_CONTROL, CONTROL_INT_ENA))
		}

		assert.NoError(com.WriteDoubleWord(COM_TX, uint32(value)))
		assert.Equal(uint32(value), com.ReadDoubleWord(COM_RX))
		assert.Equal([]byte{byte(value), byte(value >> 8)}, echo.Sent)
		assert.Equal(intEna, com.ReadDoubleWord(COM_EV_PENDING) == EV_SPI_INT)
		assert.Equal(uint32(0), com.ReadDoubleWord(COM_EV_STATUS))
		assert.False(com.IRQ.IsSet())
	})
}

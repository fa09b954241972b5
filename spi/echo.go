package spi

// Echo is a loopback peripheral, returning every byte it receives.
type Echo struct {
	Sent []byte // Bytes received since the last reset.
}

var _ Peripheral = (*Echo)(nil)

func (e *Echo) Transmit(value byte) byte {
	e.Sent = append(e.Sent, value)
	return value
}

func (e *Echo) Reset() {
	e.Sent = nil
}

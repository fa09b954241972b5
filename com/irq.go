package com

// updateInterrupts latches any active event status into its pending flag,
// then drives the IRQ line from the enabled pending events.
func (com *Com) updateInterrupts() {
	if com.spiIntStatus.Value() {
		com.spiIntPending.Set(true)
	}
	if com.spiHoldStatus.Value() {
		com.spiHoldPending.Set(true)
	}

	com.IRQ.Set((com.spiIntPending.Value() && com.spiIntEnable.Value()) ||
		(com.spiHoldPending.Value() && com.spiHoldEnable.Value()))
}

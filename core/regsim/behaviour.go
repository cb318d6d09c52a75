package regsim

import "h7boot/core"

// keepReadOnly returns new with the bits of mask taken from old.
func keepReadOnly(old, new, mask uint32) uint32 {
	return new&^mask | old&mask
}

func (c *Chip) installBehaviour() {
	d3cr := c.Reg("PWR_D3CR")
	rcccr := c.Reg("RCC_CR")
	cfgr := c.Reg("RCC_CFGR")
	acr := c.Reg("FLASH_ACR")

	vosReady := func() {
		d3cr.value |= core.PWR_D3CR_VOSRDY.Mask()
	}

	// A new voltage scale drops VOSRDY until the regulator settles.
	d3cr.onWrite = func(old, new uint32) uint32 {
		new = keepReadOnly(old, new, core.PWR_D3CR_VOSRDY.Mask())
		if core.PWR_D3CR_VOS.Extract(old) != core.PWR_D3CR_VOS.Extract(new) {
			new &^= core.PWR_D3CR_VOSRDY.Mask()
			c.after(StatusVOSRDY, vosReady)
		}
		return new
	}

	// Overdrive needs the SYSCFG clock; once enabled, the regulator goes
	// from VOS1 to VOS0 and VOSRDY drops again meanwhile.
	c.Reg("SYSCFG_PWRCR").onWrite = func(old, new uint32) uint32 {
		if !core.RCC_APB4ENR_SYSCFGEN.IsSet(c.Reg("RCC_APB4ENR").peekReg()) {
			return old
		}
		oden := core.SYSCFG_PWRCR_ODEN.Mask()
		if old&oden == 0 && new&oden != 0 {
			d3cr.value &^= core.PWR_D3CR_VOSRDY.Mask()
			c.after(StatusVOSRDY, vosReady)
		}
		return new
	}

	rcccr.onWrite = func(old, new uint32) uint32 {
		rdy := core.RCC_CR_PLL1RDY.Mask()
		new = keepReadOnly(old, new, rdy)
		on := core.RCC_CR_PLL1ON.Mask()
		switch {
		case old&on == 0 && new&on != 0:
			c.after(StatusPLL1RDY, func() { rcccr.value |= rdy })
		case new&on == 0:
			new &^= rdy
		}
		return new
	}

	cfgr.onWrite = func(old, new uint32) uint32 {
		new = keepReadOnly(old, new, core.RCC_CFGR_SWS.Mask())
		sw := core.RCC_CFGR_SW.Extract(new)
		if core.RCC_CFGR_SWS.Extract(old) != sw {
			c.after(StatusSWS, func() {
				cfgr.value = core.RCC_CFGR_SWS.Insert(cfgr.value, sw)
			})
		}
		return new
	}

	// The flash controller picks up new timing late, one field at a time:
	// LATENCY first, WRHIGHFREQ one latency period later.
	acr.onWrite = func(old, new uint32) uint32 {
		lat := core.FLASH_ACR_LATENCY.Extract(new)
		wrh := core.FLASH_ACR_WRHIGHFREQ.Extract(new)
		timing := core.FLASH_ACR_LATENCY.Mask() | core.FLASH_ACR_WRHIGHFREQ.Mask()
		c.after(StatusACR, func() {
			acr.value = core.FLASH_ACR_LATENCY.Insert(acr.value, lat)
			c.after(StatusACR, func() {
				acr.value = core.FLASH_ACR_WRHIGHFREQ.Insert(acr.value, wrh)
			})
		})
		return keepReadOnly(old, new, timing)
	}

	// Any write to the current value register clears it.
	c.Reg("SYST_CVR").onWrite = func(old, new uint32) uint32 {
		return 0
	}
}

// peekReg adapts r for read helpers without advancing time or tracing.
func (r *Reg) peekReg() core.Register {
	return peeked{r}
}

type peeked struct{ r *Reg }

func (p peeked) Get() uint32  { return p.r.value }
func (p peeked) Set(v uint32) { p.r.value = v }

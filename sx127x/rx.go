// Copyright 2016 by Thorsten von Eicken, see LICENSE file

package sx127x

// ReadRxPacket reads a just-completed reception out of the FIFO: the byte
// count and current FIFO read pointer, the payload itself, and the SNR
// and RSSI the modem measured for the packet. Caller (the MAC's Rxing
// state) is expected to have already confirmed RxDone.
func (r *Radio) ReadRxPacket() (payload []byte, snr int, rssi int, err error) {
	n, err := r.readReg(RegRxBytes)
	if err != nil {
		return nil, 0, 0, err
	}
	ptr, err := r.readReg(RegFIFORxCurr)
	if err != nil {
		return nil, 0, 0, err
	}
	if err := r.writeReg(RegFIFOPtr, ptr); err != nil {
		return nil, 0, 0, err
	}
	payload, err = r.ReadFIFO(int(n))
	if err != nil {
		return nil, 0, 0, err
	}

	snrReg, err := r.readReg(RegPktSNR)
	if err != nil {
		return nil, 0, 0, err
	}
	snr = int(int8(snrReg)) / 4

	rssiReg, err := r.readReg(RegPktRSSI)
	if err != nil {
		return nil, 0, 0, err
	}
	rssi = -164 + int(rssiReg)
	if snr < 0 {
		rssi += snr
	}

	return payload, snr, rssi, nil
}

// ReadCurrentRSSI reads the instantaneous RSSI register, used by the MAC's
// Lstning state to feed its entropy pool with the LSB of ambient noise.
func (r *Radio) ReadCurrentRSSI() (byte, error) {
	return r.readReg(RegCurrRSSI)
}

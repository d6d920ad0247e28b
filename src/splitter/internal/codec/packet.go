package codec

// Packet is one unit of stream data, timed in the time base of the stream
// it belongs to.
type Packet struct {
	StreamIndex int
	PTS         int64
	Duration    int64
	Data        []byte
}

// RescaleTS converts the packet timing from one time base to another.
func (p *Packet) RescaleTS(from Rational, to Rational) {
	p.PTS = Rescale(p.PTS, from, to)
	p.Duration = Rescale(p.Duration, from, to)
}

package market

// Instrument 可交易标的，仅作身份标识；全局共享同一实例，按指针比较。
type Instrument struct {
	name string
}

func NewInstrument(name string) *Instrument {
	return &Instrument{name: name}
}

func (i *Instrument) Name() string { return i.name }

func (i *Instrument) String() string { return i.name }

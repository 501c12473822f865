package model

// InstrumentKind separates the underlying index from option contracts.
type InstrumentKind int

const (
	KindIndex InstrumentKind = iota
	KindOption
)

// Instrument identifies the index or one option contract.
type Instrument struct {
	Symbol string         `json:"symbol"`
	Kind   InstrumentKind `json:"-"`
}

// IndexInstrument returns the index instrument with the given symbol.
func IndexInstrument(symbol string) Instrument {
	return Instrument{Symbol: symbol, Kind: KindIndex}
}

// OptionInstrument returns the option instrument with the given symbol.
func OptionInstrument(symbol string) Instrument {
	return Instrument{Symbol: symbol, Kind: KindOption}
}

// InstrumentClass is the derived option type of a symbol.
type InstrumentClass string

const (
	Unclassified InstrumentClass = "UNCLASSIFIED"
	Call         InstrumentClass = "CALL"
	Put          InstrumentClass = "PUT"
)

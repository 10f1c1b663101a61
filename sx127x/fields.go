// Copyright 2016 by Thorsten von Eicken, see LICENSE file

package sx127x

// Field identifies one entry of the modem's logical settings table.
// Frequency is deliberately not a Field: spec-wise it is stored and diffed
// separately because it participates in the erratum 2.3 adjustment.
type Field int

const (
	FieldLoraMode Field = iota // LongRangeMode bit of OpMode; sleep-gated
	FieldBandwidth
	FieldCodingRate
	FieldImplicitHeaderOn
	FieldSpreadingFactor
	FieldTxContinuousMode
	FieldRxPayloadCrcOn
	FieldAgcAutoOn
	FieldLowDataRateOptimize
	FieldPASelect
	FieldOutputPower
	FieldMaxPower
	FieldOCPOn
	FieldOCPTrim
	FieldLNABoostHF
	FieldPreambleLength
	FieldSyncWord
	FieldSymbTimeout
	FieldDetectOptimize
	FieldDetectionThreshold
	FieldDio0Mapping
	FieldDio1Mapping
	FieldDio2Mapping
	FieldDio3Mapping
	FieldDio4Mapping
	FieldDio5Mapping

	fieldCount
)

// FieldDesc describes one Field's location and legal range, the table
// referenced by spec and rationale notes: "encode as a constant table
// indexed by field enum; the diff/apply loop is then a single pass over
// the table".
type FieldDesc struct {
	Name      string
	Reg       byte
	Span      byte // register count, 1, 2, or 3
	BitOffset byte // offset within the first register
	BitWidth  byte
	Min, Max  uint32
	Reset     uint32
	LoraOnly  bool // meaningful only while LongRangeMode is set
	SleepOnly bool // may only be changed while the radio is in Sleep
}

// fieldTable is indexed by Field.
var fieldTable = [fieldCount]FieldDesc{
	FieldLoraMode: {Name: "LoraMode", Reg: RegOpMode, Span: 1, BitOffset: 7, BitWidth: 1,
		Min: 0, Max: 1, Reset: 0, SleepOnly: true},
	FieldBandwidth: {Name: "Bandwidth", Reg: RegModemConf1, Span: 1, BitOffset: 4, BitWidth: 4,
		Min: uint32(BW7_8), Max: uint32(BW500), Reset: uint32(BW125), LoraOnly: true},
	FieldCodingRate: {Name: "CodingRate", Reg: RegModemConf1, Span: 1, BitOffset: 1, BitWidth: 3,
		Min: 1, Max: 4, Reset: 1, LoraOnly: true},
	FieldImplicitHeaderOn: {Name: "ImplicitHeaderOn", Reg: RegModemConf1, Span: 1, BitOffset: 0, BitWidth: 1,
		Min: 0, Max: 1, Reset: 0, LoraOnly: true},
	FieldSpreadingFactor: {Name: "SpreadingFactor", Reg: RegModemConf2, Span: 1, BitOffset: 4, BitWidth: 4,
		Min: 6, Max: 12, Reset: 7, LoraOnly: true},
	FieldTxContinuousMode: {Name: "TxContinuousMode", Reg: RegModemConf2, Span: 1, BitOffset: 3, BitWidth: 1,
		Min: 0, Max: 1, Reset: 0, LoraOnly: true},
	FieldRxPayloadCrcOn: {Name: "RxPayloadCrcOn", Reg: RegModemConf2, Span: 1, BitOffset: 2, BitWidth: 1,
		Min: 0, Max: 1, Reset: 1, LoraOnly: true},
	FieldAgcAutoOn: {Name: "AgcAutoOn", Reg: RegModemConf3, Span: 1, BitOffset: 2, BitWidth: 1,
		Min: 0, Max: 1, Reset: 1, LoraOnly: true},
	FieldLowDataRateOptimize: {Name: "LowDataRateOptimize", Reg: RegModemConf3, Span: 1, BitOffset: 3, BitWidth: 1,
		Min: 0, Max: 1, Reset: 0, LoraOnly: true},
	FieldPASelect: {Name: "PASelect", Reg: RegPAConfig, Span: 1, BitOffset: 7, BitWidth: 1,
		Min: 0, Max: 1, Reset: 1},
	FieldOutputPower: {Name: "OutputPower", Reg: RegPAConfig, Span: 1, BitOffset: 0, BitWidth: 4,
		Min: 0, Max: 15, Reset: 15},
	FieldMaxPower: {Name: "MaxPower", Reg: RegPAConfig, Span: 1, BitOffset: 4, BitWidth: 3,
		Min: 0, Max: 7, Reset: 4},
	FieldOCPOn: {Name: "OCPOn", Reg: RegOCP, Span: 1, BitOffset: 5, BitWidth: 1,
		Min: 0, Max: 1, Reset: 1},
	FieldOCPTrim: {Name: "OCPTrim", Reg: RegOCP, Span: 1, BitOffset: 0, BitWidth: 5,
		Min: 0, Max: 27, Reset: 11},
	FieldLNABoostHF: {Name: "LNABoostHF", Reg: RegLNA, Span: 1, BitOffset: 0, BitWidth: 2,
		Min: 0, Max: 3, Reset: 0},
	FieldPreambleLength: {Name: "PreambleLength", Reg: RegPreambleMSB, Span: 2, BitOffset: 0, BitWidth: 16,
		Min: 0, Max: 0xFFFF, Reset: 8, LoraOnly: true},
	FieldSyncWord: {Name: "SyncWord", Reg: RegSyncWord, Span: 1, BitOffset: 0, BitWidth: 8,
		Min: 0, Max: 0xFF, Reset: 0x12, LoraOnly: true},
	FieldSymbTimeout: {Name: "SymbTimeout", Reg: RegSymbTimeout, Span: 1, BitOffset: 0, BitWidth: 8,
		Min: 0, Max: 0xFF, Reset: 0x64, LoraOnly: true},
	FieldDetectOptimize: {Name: "DetectOptimize", Reg: RegDetectOpt, Span: 1, BitOffset: 0, BitWidth: 3,
		Min: 0, Max: 7, Reset: 3, LoraOnly: true},
	FieldDetectionThreshold: {Name: "DetectionThreshold", Reg: RegDetectThr, Span: 1, BitOffset: 0, BitWidth: 8,
		Min: 0, Max: 0xFF, Reset: 0x0A, LoraOnly: true},
	FieldDio0Mapping: {Name: "Dio0Mapping", Reg: RegDIOMapping1, Span: 1, BitOffset: 6, BitWidth: 2,
		Min: 0, Max: 3, Reset: 0},
	FieldDio1Mapping: {Name: "Dio1Mapping", Reg: RegDIOMapping1, Span: 1, BitOffset: 4, BitWidth: 2,
		Min: 0, Max: 3, Reset: 0},
	FieldDio2Mapping: {Name: "Dio2Mapping", Reg: RegDIOMapping1, Span: 1, BitOffset: 2, BitWidth: 2,
		Min: 0, Max: 3, Reset: 0},
	FieldDio3Mapping: {Name: "Dio3Mapping", Reg: RegDIOMapping1, Span: 1, BitOffset: 0, BitWidth: 2,
		Min: 0, Max: 3, Reset: 0},
	FieldDio4Mapping: {Name: "Dio4Mapping", Reg: RegDIOMapping2, Span: 1, BitOffset: 6, BitWidth: 2,
		Min: 0, Max: 3, Reset: 0},
	FieldDio5Mapping: {Name: "Dio5Mapping", Reg: RegDIOMapping2, Span: 1, BitOffset: 4, BitWidth: 2,
		Min: 0, Max: 3, Reset: 0},
}

// dioField returns the Field that carries pin's mapping, for pin 0..5.
func dioField(pin int) Field {
	switch pin {
	case 0:
		return FieldDio0Mapping
	case 1:
		return FieldDio1Mapping
	case 2:
		return FieldDio2Mapping
	case 3:
		return FieldDio3Mapping
	case 4:
		return FieldDio4Mapping
	case 5:
		return FieldDio5Mapping
	default:
		panic("sx127x: DIO signal index out of range")
	}
}

// wholeRegisterField reports whether desc occupies its span's registers in
// full (no bit masking needed when writing), as opposed to a sub-byte RMW.
func (d FieldDesc) wholeRegisterField() bool {
	return d.BitWidth == d.Span*8
}

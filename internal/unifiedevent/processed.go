package unifiedevent

// Constructors below keep internal/timing's call sites terse and give every
// ProcessedEvent variant a single obvious way to build it.

func NewNote(id ControlID, velocity uint8, ts int64) ProcessedEvent {
	return ProcessedEvent{Kind: ProcessedNote, ControlID: id, Velocity: velocity, Timestamp: unixMilliToTime(ts)}
}

func NewVelocityRange(id ControlID, band uint8, ts int64) ProcessedEvent {
	return ProcessedEvent{Kind: ProcessedVelocityRange, ControlID: id, Band: band, Timestamp: unixMilliToTime(ts)}
}

func NewLongPress(id ControlID, heldMS int64, ts int64) ProcessedEvent {
	return ProcessedEvent{Kind: ProcessedLongPress, ControlID: id, HeldMS: heldMS, Timestamp: unixMilliToTime(ts)}
}

func NewDoubleTap(id ControlID, gapMS int64, ts int64) ProcessedEvent {
	return ProcessedEvent{Kind: ProcessedDoubleTap, ControlID: id, GapMS: gapMS, Timestamp: unixMilliToTime(ts)}
}

func NewChord(ids []ControlID, windowMS int64, ts int64) ProcessedEvent {
	return ProcessedEvent{Kind: ProcessedChord, ChordIDs: ids, WindowMS: windowMS, Timestamp: unixMilliToTime(ts)}
}

func NewEncoder(cc uint8, dir Direction, steps int, ts int64) ProcessedEvent {
	return ProcessedEvent{Kind: ProcessedEncoder, CC: cc, Dir: dir, Steps: steps, Timestamp: unixMilliToTime(ts)}
}

func NewCC(cc uint8, value uint8, ts int64) ProcessedEvent {
	return ProcessedEvent{Kind: ProcessedCC, CC: cc, CCValue: value, Timestamp: unixMilliToTime(ts)}
}

func NewAftertouch(id ControlID, pressure uint8, ts int64) ProcessedEvent {
	return ProcessedEvent{Kind: ProcessedAftertouch, ControlID: id, Pressure: pressure, Timestamp: unixMilliToTime(ts)}
}

func NewPitchBend(bend int16, ts int64) ProcessedEvent {
	return ProcessedEvent{Kind: ProcessedPitchBend, Bend: bend, Timestamp: unixMilliToTime(ts)}
}

func NewGamepadButton(id ControlID, ts int64) ProcessedEvent {
	return ProcessedEvent{Kind: ProcessedGamepadButton, ControlID: id, Timestamp: unixMilliToTime(ts)}
}

func NewGamepadButtonChord(ids []ControlID, windowMS int64, ts int64) ProcessedEvent {
	return ProcessedEvent{Kind: ProcessedGamepadButtonChord, ChordIDs: ids, WindowMS: windowMS, Timestamp: unixMilliToTime(ts)}
}

func NewGamepadAnalogStick(axis ControlID, dir Direction, ts int64) ProcessedEvent {
	return ProcessedEvent{Kind: ProcessedGamepadAnalogStick, Axis: axis, Dir: dir, Timestamp: unixMilliToTime(ts)}
}

func NewGamepadTrigger(axis ControlID, overThreshold bool, ts int64) ProcessedEvent {
	return ProcessedEvent{Kind: ProcessedGamepadTrigger, Axis: axis, OverThreshold: overThreshold, Timestamp: unixMilliToTime(ts)}
}

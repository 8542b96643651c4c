package ir

// IRVersion is bumped whenever EventRecord or PresetIR change shape in a
// way that alters their canonical bytes, and therefore their hashes.
const IRVersion = "1"

// EngineVersion is reported by `activeset --version`.
const EngineVersion = "0.1.0"

// Package settings holds the configuration recognized by the LODA core
// and its external collaborators (§6 of the specification). The core
// itself only consumes NumTerms, MaxCycles and MaxMemory; the remaining
// fields exist so a generator or miner collaborator built against this
// module has somewhere to read its own options from.
package settings

// Settings is the configuration surface shared by the interpreter, the
// formula generator, and (by contract only) the external mining and
// generation collaborators.
type Settings struct {
	// NumTerms is how many terms to produce for a sequence evaluation.
	NumTerms int

	// MaxCycles is the interpreter's cycle ceiling per run.
	MaxCycles int64

	// MaxMemory is the highest legal cell index.
	MaxMemory int64

	// MaxConstant, MaxIndex and NumOperations are consulted only by an
	// external program generator; the core never reads them.
	MaxConstant   int64
	MaxIndex      int64
	NumOperations int

	// MinerProfile, NumMineHours, ParallelMining, NumMinerInstances and
	// OptimizeExistingPrograms are consulted only by an external mining
	// collaborator; the core never reads them.
	MinerProfile             string
	NumMineHours             int
	ParallelMining           bool
	NumMinerInstances        int
	OptimizeExistingPrograms bool
}

// Default returns the Settings with the specification's documented
// defaults.
func Default() Settings {
	return Settings{
		NumTerms:  10,
		MaxCycles: 10_000_000,
		MaxMemory: 100,
	}
}

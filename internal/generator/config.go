package generator

// Config drives the synthetic snapshot generator.
type Config struct {
	// NumRings is how many colluding clusters to fabricate.
	NumRings int
	// NumCleanAccounts is how many unconnected background accounts to add.
	NumCleanAccounts int
	// MinRingSize and MaxRingSize bound the accounts per ring.
	MinRingSize int
	MaxRingSize int
	// LoopChance is the probability a ring routes money in a closed cycle.
	LoopChance float64
	// DeviceShareChance is the probability ring members share a device.
	DeviceShareChance float64
	// TouchpointChance is the probability ring members visit one ATM or portal.
	TouchpointChance float64
	Seed             int64
}

// DefaultConfig returns baseline settings producing a mixed-tier dataset.
func DefaultConfig() Config {
	return Config{
		NumRings:          12,
		NumCleanAccounts:  60,
		MinRingSize:       3,
		MaxRingSize:       6,
		LoopChance:        0.5,
		DeviceShareChance: 0.6,
		TouchpointChance:  0.4,
		Seed:              42,
	}
}

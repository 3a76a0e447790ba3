// Package generator fabricates synthetic account snapshots with planted
// fraud rings for demos and load tests.
package generator

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/meghna/ringsight/internal/service"
)

var (
	firstNames = []string{
		"Asha", "Dev", "Mira", "Rohan", "Priya", "Kiran", "Nikhil", "Sana",
		"Vikram", "Leela", "Arjun", "Tara", "Farhan", "Divya", "Manish", "Rhea",
	}
	lastNames = []string{
		"Sharma", "Patel", "Reddy", "Khan", "Iyer", "Das", "Mehta", "Nair",
		"Singh", "Bose", "Kulkarni", "Joshi",
	}
	accountTypes = []string{"SAVINGS", "UPI", "WALLET"}
)

// Generator produces synthetic snapshots aligned with the scoring schema.
type Generator struct {
	cfg  Config
	rand *rand.Rand

	accountSeq    int
	txnSeq        int
	ipSeq         int
	deviceSeq     int
	touchpointSeq int
}

// New returns a configured Generator instance.
func New(cfg Config) *Generator {
	defaults := DefaultConfig()
	if cfg.NumRings < 0 {
		cfg.NumRings = defaults.NumRings
	}
	if cfg.NumCleanAccounts < 0 {
		cfg.NumCleanAccounts = defaults.NumCleanAccounts
	}
	if cfg.MinRingSize < 3 {
		cfg.MinRingSize = defaults.MinRingSize
	}
	if cfg.MaxRingSize < cfg.MinRingSize {
		cfg.MaxRingSize = cfg.MinRingSize
	}
	// Zero is a meaningful probability; only negatives fall back.
	if cfg.LoopChance < 0 {
		cfg.LoopChance = defaults.LoopChance
	}
	if cfg.DeviceShareChance < 0 {
		cfg.DeviceShareChance = defaults.DeviceShareChance
	}
	if cfg.TouchpointChance < 0 {
		cfg.TouchpointChance = defaults.TouchpointChance
	}
	if cfg.Seed == 0 {
		cfg.Seed = time.Now().UnixNano()
	}

	return &Generator{
		cfg:  cfg,
		rand: rand.New(rand.NewSource(cfg.Seed)),
	}
}

// Generate synthesises a snapshot. It respects context cancellation.
func (g *Generator) Generate(ctx context.Context) (service.SnapshotInput, error) {
	var snapshot service.SnapshotInput

	for ring := 0; ring < g.cfg.NumRings; ring++ {
		if err := ctx.Err(); err != nil {
			return service.SnapshotInput{}, err
		}
		g.addRing(&snapshot, fmt.Sprintf("RING-%03d", ring+1))
	}

	for i := 0; i < g.cfg.NumCleanAccounts; i++ {
		if err := ctx.Err(); err != nil {
			return service.SnapshotInput{}, err
		}
		account := g.newAccount("")
		snapshot.Accounts = append(snapshot.Accounts, account)
		snapshot.Identifiers = append(snapshot.Identifiers, service.IdentifierAssignmentInput{
			AccountID:       account.AccountID,
			IdentifierType:  "IP",
			IdentifierValue: g.nextIP(),
		})
	}

	// Sparse traffic between clean accounts keeps the background realistic
	// without creating cycles: transfers only flow to later accounts.
	clean := snapshot.Accounts[len(snapshot.Accounts)-g.cfg.NumCleanAccounts:]
	for i := 0; i+1 < len(clean); i += 4 {
		snapshot.Transactions = append(snapshot.Transactions,
			g.newTransaction(clean[i].AccountID, clean[i+1].AccountID))
	}

	return snapshot, nil
}

// addRing plants one colluding cluster: members share an IP, sometimes a
// device and a touchpoint, and route money through every member.
func (g *Generator) addRing(snapshot *service.SnapshotInput, ringLabel string) {
	size := g.cfg.MinRingSize
	if spread := g.cfg.MaxRingSize - g.cfg.MinRingSize; spread > 0 {
		size += g.rand.Intn(spread + 1)
	}

	members := make([]service.AccountInput, size)
	for i := range members {
		members[i] = g.newAccount(ringLabel)
		snapshot.Accounts = append(snapshot.Accounts, members[i])
	}

	sharedIP := g.nextIP()
	for _, member := range members {
		snapshot.Identifiers = append(snapshot.Identifiers, service.IdentifierAssignmentInput{
			AccountID:       member.AccountID,
			IdentifierType:  "IP",
			IdentifierValue: sharedIP,
		})
	}

	if g.rand.Float64() < g.cfg.DeviceShareChance {
		sharedDevice := g.nextDevice()
		for _, member := range members {
			snapshot.Identifiers = append(snapshot.Identifiers, service.IdentifierAssignmentInput{
				AccountID:       member.AccountID,
				IdentifierType:  "IMEI",
				IdentifierValue: sharedDevice,
			})
		}
	}

	if g.rand.Float64() < g.cfg.TouchpointChance {
		g.touchpointSeq++
		touchpointID := fmt.Sprintf("ATM-%04d", g.touchpointSeq)
		for _, member := range members {
			snapshot.Touchpoints = append(snapshot.Touchpoints, service.TouchpointAssignmentInput{
				AccountID:    member.AccountID,
				TouchpointID: touchpointID,
			})
		}
	}

	switch {
	case g.rand.Float64() < g.cfg.LoopChance:
		// Closed cycle through every member.
		for i := range members {
			next := members[(i+1)%len(members)]
			snapshot.Transactions = append(snapshot.Transactions,
				g.newTransaction(members[i].AccountID, next.AccountID))
		}
	case g.rand.Float64() < 0.5:
		// Bidirectional chain: heavy mutual flow but no cycle of length 3+.
		for i := 0; i+1 < len(members); i++ {
			snapshot.Transactions = append(snapshot.Transactions,
				g.newTransaction(members[i].AccountID, members[i+1].AccountID),
				g.newTransaction(members[i+1].AccountID, members[i].AccountID))
		}
	default:
		// Fan-in to a single mule.
		mule := members[0]
		for _, member := range members[1:] {
			snapshot.Transactions = append(snapshot.Transactions,
				g.newTransaction(member.AccountID, mule.AccountID))
		}
	}
}

func (g *Generator) newAccount(ring string) service.AccountInput {
	g.accountSeq++
	return service.AccountInput{
		AccountID: fmt.Sprintf("ACC%05d", g.accountSeq),
		Type:      accountTypes[g.rand.Intn(len(accountTypes))],
		Holder: firstNames[g.rand.Intn(len(firstNames))] + " " +
			lastNames[g.rand.Intn(len(lastNames))],
		Ring: ring,
	}
}

func (g *Generator) newTransaction(sender, receiver string) service.TransactionInput {
	g.txnSeq++
	return service.TransactionInput{
		TxnID:     fmt.Sprintf("TXN%06d", g.txnSeq),
		Sender:    sender,
		Receiver:  receiver,
		Amount:    float64(500 + g.rand.Intn(99500)),
		Timestamp: 1700000000 + int64(g.txnSeq)*60 + int64(g.rand.Intn(60)),
	}
}

func (g *Generator) nextIP() string {
	g.ipSeq++
	return fmt.Sprintf("10.%d.%d.%d", g.ipSeq/65536%256, g.ipSeq/256%256, g.ipSeq%256)
}

func (g *Generator) nextDevice() string {
	g.deviceSeq++
	return fmt.Sprintf("35%012d", g.deviceSeq)
}

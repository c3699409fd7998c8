package testutils

import (
	"fmt"
	"time"

	electiondomain "github.com/MCCitiesNetwork/Elections-sub001/app/modules/election/domain"
	"github.com/brianvoe/gofakeit/v7"
)

// TestDataGenerator provides methods to create test data for integration tests
type TestDataGenerator struct {
	faker *gofakeit.Faker
	seed  int64
	seq   int
}

// NewTestDataGenerator creates a new test data generator with optional seed
func NewTestDataGenerator(seed ...int64) *TestDataGenerator {
	var s int64
	if len(seed) > 0 {
		s = seed[0]
	} else {
		s = time.Now().UnixNano()
	}
	return &TestDataGenerator{
		faker: gofakeit.New(uint64(s)),
		seed:  s,
	}
}

// Seed returns the seed, for reproducing a failing run.
func (g *TestDataGenerator) Seed() int64 { return g.seed }

func (g *TestDataGenerator) next() int {
	g.seq++
	return g.seq
}

// ElectionTitle returns a title well inside the length limit.
func (g *TestDataGenerator) ElectionTitle() string {
	return fmt.Sprintf("%s %s Election %d", g.faker.City(), g.faker.JobTitle(), g.next())
}

// Candidate returns an unsaved candidate with a unique name.
func (g *TestDataGenerator) Candidate() electiondomain.Candidate {
	return electiondomain.Candidate{
		Name:  fmt.Sprintf("%s %d", g.faker.LastName(), g.next()),
		Party: g.faker.Company(),
	}
}

// VoterName returns a unique player name under the voter name limit.
func (g *TestDataGenerator) VoterName() string {
	name := g.faker.Username()
	if len(name) > 24 {
		name = name[:24]
	}
	return fmt.Sprintf("%s_%d", name, g.next())
}

// Poll returns a location that no other generated poll shares.
func (g *TestDataGenerator) Poll() electiondomain.Poll {
	return electiondomain.Poll{
		World: g.faker.RandomString([]string{"world", "world_nether", "world_the_end"}),
		X:     g.faker.IntRange(-10000, 10000),
		Y:     g.next(),
		Z:     g.faker.IntRange(-10000, 10000),
	}
}

// Election returns an unsaved CLOSED election created at now.
func (g *TestDataGenerator) Election(system electiondomain.VotingSystem, now time.Time) *electiondomain.Election {
	e, err := electiondomain.NewElection(g.ElectionTitle(), system, g.faker.IntRange(1, 3), g.faker.Username(), now)
	if err != nil {
		panic(fmt.Sprintf("generated election rejected: %v", err))
	}
	return e
}

package stability_test

import (
	"math"
	"math/rand"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/cellgrav/internal/aggregate"
	"github.com/san-kum/cellgrav/internal/compute"
	"github.com/san-kum/cellgrav/internal/grid"
	"github.com/san-kum/cellgrav/internal/stability"
	"gonum.org/v1/gonum/spatial/r2"
)

var params = stability.Params{
	CellSize:         1,
	Density:          1,
	MaxCellOffset:    0.1,
	MaxDeltaTime:     1,
	DefaultDeltaTime: 0.02,
}

var _ = Describe("TimeStep", func() {
	DescribeTable("picks the tightest bound",
		func(s stability.Stats, expected float64) {
			Expect(stability.TimeStep(s, params)).To(BeNumerically("~", expected, 1e-12))
		},
		Entry("empty field falls back to the default", stability.Stats{}, 0.02),
		Entry("velocity bound", stability.Stats{MaxVelocity: 2, MaxMass: 0.01}, 0.05),
		Entry("expansion bound", stability.Stats{MaxVelocity: 0.1, MaxMass: 4}, 0.025),
		Entry("max delta time cap", stability.Stats{MaxVelocity: 0.01, MaxMass: 0.01}, 1.0),
	)

	It("falls back to the default when only mass is present", func() {
		dt := stability.TimeStep(stability.Stats{MaxMass: 0.5}, params)
		Expect(dt).To(BeNumerically("~", 0.02, 1e-12))
	})

	It("keeps post-integration travel within the cell offset", func() {
		rng := rand.New(rand.NewSource(3))
		for i := 0; i < 1000; i++ {
			s := stability.Stats{
				MaxMass:     rng.Float64() * 3,
				MaxVelocity: rng.Float64() * 10,
				MaxAccel:    rng.Float64() * 100,
			}
			dt := stability.TimeStep(s, params)
			Expect(dt).To(BeNumerically(">", 0))
			travel := (s.MaxVelocity + s.MaxAccel*dt) * dt
			Expect(travel).To(BeNumerically("<=", params.CellSize*params.MaxCellOffset+1e-12))
		}
	})
})

var _ = Describe("Controller", func() {
	var (
		g *grid.Grid
		b compute.Backend
	)

	BeforeEach(func() {
		var err error
		g, err = grid.New(4, 3, 1)
		Expect(err).NotTo(HaveOccurred())
		b = compute.NewCPUBackendWithWorkers(2)

		mass := make([]float64, 12)
		vel := make([]r2.Vec, 12)
		for i := range mass {
			mass[i] = float64(i + 1)
			vel[i] = r2.Vec{X: float64(i % 4)}
		}
		Expect(g.Seed(mass, vel)).To(Succeed())
		g.Front()[5].Force = r2.Vec{Y: 18}
	})

	It("reduces rows and then the grid", func() {
		rows := make([]stability.RowStat, g.Height)
		stability.ReduceRows(b, g, g.Front(), rows)
		Expect(rows[0].TotalMass).To(Equal(10.0))
		Expect(rows[2].MaxMass).To(Equal(12.0))
		Expect(rows[1].MaxAccel).To(Equal(3.0))

		s := stability.Reduce(rows)
		Expect(s.TotalMass).To(Equal(78.0))
		Expect(s.MaxMass).To(Equal(12.0))
		Expect(s.MaxVelocity).To(Equal(3.0))
		Expect(s.MaxAccel).To(Equal(3.0))
	})

	It("returns stats with a bounded time step", func() {
		c := stability.NewController(params, g.Height)
		s, dt := c.Update(b, g, g.Front())
		Expect(s.TotalMass).To(Equal(g.TotalMass()))
		Expect(dt * s.MaxVelocity).To(BeNumerically("<=", 0.1+1e-12))
		Expect(dt).To(BeNumerically("<=", 0.1/12+1e-12))
	})

	It("agrees with a pyramid reduction", func() {
		g9, _ := grid.New(9, 9, 1)
		rng := rand.New(rand.NewSource(8))
		mass := make([]float64, 81)
		vel := make([]r2.Vec, 81)
		for i := range mass {
			mass[i] = rng.Float64()
			vel[i] = r2.Vec{X: rng.NormFloat64(), Y: rng.NormFloat64()}
		}
		Expect(g9.Seed(mass, vel)).To(Succeed())

		p := aggregate.NewPyramid(9, 9)
		p.Build(b, g9.Front())
		fromNodes := statsFromNodes(p.Top())

		rows := make([]stability.RowStat, 9)
		stability.ReduceRows(b, g9, g9.Front(), rows)
		fromRows := stability.Reduce(rows)

		Expect(fromNodes.TotalMass).To(BeNumerically("~", fromRows.TotalMass, 1e-9))
		Expect(fromNodes.MaxMass).To(Equal(fromRows.MaxMass))
		Expect(math.Abs(fromNodes.MaxVelocity - fromRows.MaxVelocity)).To(BeNumerically("<", 1e-15))
	})
})

// statsFromNodes reduces a pyramid layer into the row stats shape. Nodes
// carry no acceleration.
func statsFromNodes(level *aggregate.Level) stability.Stats {
	var s stability.Stats
	for _, n := range level.Nodes {
		s.TotalMass += n.Mass
		s.MaxMass = math.Max(s.MaxMass, n.MaxMass)
		s.MaxVelocity = math.Max(s.MaxVelocity, n.MaxVelocity)
	}
	return s
}

package otvar

import (
	"testing"

	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/npillmayer/shaperfont/core"
	"github.com/npillmayer/shaperfont/core/font/opentype/ot"
	"github.com/stretchr/testify/suite"
)

type ResolverTestEnviron struct {
	suite.Suite
	teardown func()
	resolver *MetricResolver
}

// listen for 'go test' command --> run test methods
func TestResolverFunctions(t *testing.T) {
	suite.Run(t, new(ResolverTestEnviron))
}

// run once, before test suite methods
func (env *ResolverTestEnviron) SetupSuite() {
	env.teardown = gotestingadapter.QuickConfig(env.T(), "shaperfont.fonts")
	wght, err := NewAxis("wght", 100, 400, 900)
	env.Require().NoError(err)
	wdth, err := NewAxis("wdth", 75, 100, 125)
	env.Require().NoError(err)
	env.resolver = NewMetricResolver([]Axis{wght, wdth})
}

// run once, after test suite methods
func (env *ResolverTestEnviron) TearDownSuite() {
	env.teardown()
}

func (env *ResolverTestEnviron) TestAxisLookup() {
	env.Equal(2, env.resolver.AxisCount())
	i, axis, ok := env.resolver.Axis(ot.T("wdth"))
	env.True(ok)
	env.Equal(1, i)
	env.Equal(100.0, axis.Default)
	_, _, ok = env.resolver.Axis(ot.T("opsz"))
	env.False(ok)
}

func (env *ResolverTestEnviron) TestDefaultOnly() {
	dflt, deltas, err := env.resolver.ResolveVariableMetric(MetricSample{{Location: Loc(), Value: 42}})
	env.Require().NoError(err)
	env.Equal(int16(42), dflt)
	env.Empty(deltas)
}

func (env *ResolverTestEnviron) TestSimpleInterpolation() {
	sample := MetricSample{
		{Location: Loc("wght", -1), Value: -50},
		{Location: Loc(), Value: 0},
		{Location: Loc("wght", 1), Value: 50},
	}
	dflt, deltas, err := env.resolver.ResolveVariableMetric(sample)
	env.Require().NoError(err)
	env.Equal(int16(0), dflt)
	env.Require().Len(deltas, 2)
	env.Equal(int16(-50), deltas[0].Value)
	tent, ok := deltas[0].Region.Tent(ot.T("wght"))
	env.True(ok)
	env.Equal(Tent{Lower: -1, Peak: -1, Upper: 0}, tent)
	env.Equal(int16(50), deltas[1].Value)
}

func (env *ResolverTestEnviron) TestDeltasAreRoundedAwayFromZero() {
	sample := MetricSample{
		{Location: Loc(), Value: 0},
		{Location: Loc("wght", 1), Value: 5},
		{Location: Loc("wght", 0.5, "wdth", 1), Value: 0},
	}
	dflt, deltas, err := env.resolver.ResolveVariableMetric(sample)
	env.Require().NoError(err)
	env.Equal(int16(0), dflt)
	env.Require().Len(deltas, 2)
	env.Equal(int16(5), deltas[0].Value)
	env.Equal(int16(-3), deltas[1].Value, "-2.5 rounds to -3")
	//
	sample[1].Value = -5
	_, deltas, err = env.resolver.ResolveVariableMetric(sample)
	env.Require().NoError(err)
	env.Require().Len(deltas, 2)
	env.Equal(int16(3), deltas[1].Value, "2.5 rounds to 3")
}

func (env *ResolverTestEnviron) TestOTRound() {
	env.Equal(3.0, OTRound(2.5))
	env.Equal(-3.0, OTRound(-2.5))
	env.Equal(2.0, OTRound(2.4999))
	env.Equal(0.0, OTRound(0.4))
}

func (env *ResolverTestEnviron) TestErrors() {
	_, _, err := env.resolver.ResolveVariableMetric(MetricSample{})
	env.Equal(core.EVARIATION, core.Code(err))
	_, _, err = env.resolver.ResolveVariableMetric(MetricSample{
		{Location: Loc(), Value: 1},
		{Location: Loc("wght", 1), Value: 2},
		{Location: Loc("wght", 1), Value: 3},
	})
	env.Equal(core.EVARIATION, core.Code(err), "duplicate location")
	_, _, err = env.resolver.ResolveVariableMetric(MetricSample{{Location: Loc("wght", 1), Value: 2}})
	env.Equal(core.EVARIATION, core.Code(err), "missing default")
	_, err = env.resolver.ResolveGlyphsNumberValue("kernHeavy")
	env.Equal(core.EUNSUPPORTED, core.Code(err))
}

func (env *ResolverTestEnviron) TestResolverCachesModels() {
	before := env.resolver.Cache().Len()
	for i := 0; i < 3; i++ {
		_, _, err := env.resolver.ResolveVariableMetric(MetricSample{
			{Location: Loc("wdth", -1), Value: int16(i)},
			{Location: Loc(), Value: 10},
		})
		env.Require().NoError(err)
	}
	env.Equal(before+1, env.resolver.Cache().Len())
}

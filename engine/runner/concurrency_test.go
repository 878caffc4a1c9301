package runner

import (
	"fmt"
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.temporal.io/sdk/testsuite"
	"go.temporal.io/sdk/workflow"
)

// boundedProbeWorkflow drives runBounded with the given width over n
// indices, each iteration reporting a one-element StepResult slice keyed
// by its own index; the flattened result runBounded returns is unpacked
// back into plain ints so tests can assert on index order directly.
func boundedProbeWorkflow(ctx workflow.Context, n, width int, failAt int) ([]int, error) {
	results, err := runBounded(ctx, n, width, func(_ workflow.Context, i int) ([]StepResult, error) {
		if failAt >= 0 && i == failAt {
			return nil, fmt.Errorf("boom at %d", i)
		}
		return []StepResult{{StepID: strconv.Itoa(i)}}, nil
	})
	seen := make([]int, len(results))
	for idx, r := range results {
		v, _ := strconv.Atoi(r.StepID)
		seen[idx] = v
	}
	return seen, err
}

type ConcurrencyTestSuite struct {
	suite.Suite
	testsuite.WorkflowTestSuite
	env *testsuite.TestWorkflowEnvironment
}

func TestConcurrencySuite(t *testing.T) {
	suite.Run(t, new(ConcurrencyTestSuite))
}

func (s *ConcurrencyTestSuite) SetupTest() {
	s.env = s.NewTestWorkflowEnvironment()
	s.env.RegisterWorkflow(boundedProbeWorkflow)
}

func (s *ConcurrencyTestSuite) TestSequentialWhenWidthIsOne() {
	s.T().Run("Should run every index in order when width is 1", func(_ *testing.T) {
		s.env.ExecuteWorkflow(boundedProbeWorkflow, 5, 1, -1)
		require.True(s.T(), s.env.IsWorkflowCompleted())
		require.NoError(s.T(), s.env.GetWorkflowError())
		var seen []int
		require.NoError(s.T(), s.env.GetWorkflowResult(&seen))
		s.Equal([]int{0, 1, 2, 3, 4}, seen)
	})
}

func (s *ConcurrencyTestSuite) TestBoundedConcurrencyCoversEveryIndex() {
	s.T().Run("Should still execute every index exactly once when width bounds concurrency", func(_ *testing.T) {
		s.env.ExecuteWorkflow(boundedProbeWorkflow, 10, 3, -1)
		require.True(s.T(), s.env.IsWorkflowCompleted())
		require.NoError(s.T(), s.env.GetWorkflowError())
		var seen []int
		require.NoError(s.T(), s.env.GetWorkflowResult(&seen))
		s.ElementsMatch([]int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}, seen)
	})
}

func (s *ConcurrencyTestSuite) TestFirstErrorSurfacesAfterInFlightIterationsSettle() {
	s.T().Run("Should surface an error from a failing iteration without stopping ones already dispatched", func(_ *testing.T) {
		s.env.ExecuteWorkflow(boundedProbeWorkflow, 6, 2, 3)
		require.True(s.T(), s.env.IsWorkflowCompleted())
		err := s.env.GetWorkflowError()
		require.Error(s.T(), err)
		s.Contains(err.Error(), "boom at 3")
	})
}

func (s *ConcurrencyTestSuite) TestZeroIndicesIsANoOp() {
	s.T().Run("Should return immediately with no iterations when n is 0", func(_ *testing.T) {
		s.env.ExecuteWorkflow(boundedProbeWorkflow, 0, 4, -1)
		require.True(s.T(), s.env.IsWorkflowCompleted())
		require.NoError(s.T(), s.env.GetWorkflowError())
		var seen []int
		require.NoError(s.T(), s.env.GetWorkflowResult(&seen))
		s.Empty(seen)
	})
}
